package objectstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/brandwave/ambassador-api/internal/config"
	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// Store persists proof artifacts in a MinIO bucket. Uploads are retried
// with bounded exponential backoff before the intake gives up.
type Store struct {
	client     *minio.Client
	bucket     string
	maxRetries int
	log        *log.Logger
}

// New creates an object store client and ensures the bucket exists
func New(cfg *config.ObjectStoreConfig) (*Store, error) {
	storeLog := logger.Storage()

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		storeLog.Error("Failed to create object store client", "endpoint", cfg.Endpoint, "error", err)
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		storeLog.Error("Failed to check bucket", "bucket", cfg.Bucket, "error", err)
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			storeLog.Error("Failed to create bucket", "bucket", cfg.Bucket, "error", err)
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		storeLog.Info("Created artifact bucket", "bucket", cfg.Bucket)
	}

	storeLog.Info("Object store initialized", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)

	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		maxRetries: cfg.MaxRetries,
		log:        storeLog,
	}, nil
}

// Store uploads an artifact and returns its object key. The error is a
// common.StorageError once all retry attempts are exhausted.
func (s *Store) Store(ctx context.Context, upload submission.ArtifactUpload) (string, error) {
	key := s.objectKey(upload.Filename)
	s.log.Debug("Uploading artifact", "key", key, "size", upload.Size, "content_type", upload.ContentType)

	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", &common.StorageError{Op: "store artifact", Err: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		_, err := s.client.PutObject(ctx, s.bucket, key, upload.Reader, upload.Size, minio.PutObjectOptions{
			ContentType: upload.ContentType,
		})
		if err == nil {
			s.log.Info("Artifact uploaded", "key", key, "attempts", attempt+1)
			return key, nil
		}

		lastErr = err
		s.log.Warn("Artifact upload failed", "key", key, "attempt", attempt+1, "error", err)

		// The reader is consumed on a failed attempt, retrying only
		// works when it can be rewound.
		if seeker, ok := upload.Reader.(interface {
			Seek(offset int64, whence int) (int64, error)
		}); ok {
			if _, serr := seeker.Seek(0, 0); serr != nil {
				break
			}
		} else {
			break
		}
	}

	s.log.Error("Artifact upload exhausted retries", "key", key, "error", lastErr)
	return "", &common.StorageError{Op: "store artifact", Err: lastErr}
}

// Remove deletes an artifact. Used to clean up after an intake that
// failed between upload and insert.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.log.Debug("Removing artifact", "key", key)

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.log.Error("Failed to remove artifact", "key", key, "error", err)
		return &common.StorageError{Op: "remove artifact", Err: err}
	}

	return nil
}

// PresignedGet returns a temporary download URL for a stored artifact
func (s *Store) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		s.log.Error("Failed to presign artifact URL", "key", key, "error", err)
		return "", &common.StorageError{Op: "presign artifact", Err: err}
	}
	return u.String(), nil
}

func (s *Store) objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	now := time.Now().UTC()
	return fmt.Sprintf("artifacts/%s/%s%s", now.Format("2006/01"), uuid.NewString(), ext)
}
