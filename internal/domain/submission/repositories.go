package submission

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/domain/participant"
)

// ErrSlotOccupied is returned by Repository.Create when the storage
// layer's uniqueness constraint rejects the insert. The pre-check in
// the intake service is only a fast path; this error is the source of
// truth for the duplicate invariant.
var ErrSlotOccupied = errors.New("submission slot already occupied")

// Repository defines the persistence operations the intake and review
// services need for submissions.
type Repository interface {
	Create(sub *Submission) error
	GetByID(id uuid.UUID) (*Submission, error)
	// SlotOccupant returns the non-rejected submission occupying the
	// (submitter, post) slot, or nil when the slot is free.
	SlotOccupant(submitterID, postID uuid.UUID) (*Submission, error)
	CountApproved(submitterID, eventID uuid.UUID, kind Kind) (int, error)
}

// EventRepository resolves events and their post slots.
type EventRepository interface {
	GetByID(id uuid.UUID) (*event.Event, error)
	GetPost(id uuid.UUID) (*event.Post, error)
}

// UserRepository resolves submitter profiles for eligibility checks.
type UserRepository interface {
	GetByID(id uuid.UUID) (*participant.User, error)
}

// RateLimiter is an atomic counter keyed by (subject, action, window).
// Acquire increments and returns the new count; Release undoes one
// acquisition when the attempt is not accepted, so the counter tracks
// accepted submissions. Both must be race-safe against concurrent
// calls for the same subject.
type RateLimiter interface {
	Acquire(ctx context.Context, subjectID uuid.UUID, action string, windowStart time.Time) (int, error)
	Release(ctx context.Context, subjectID uuid.UUID, action string, windowStart time.Time) error
}

// ParticipationEnsurer lazily creates the participation record on a
// user's first submission to an event.
type ParticipationEnsurer interface {
	EnsureActive(userID, eventID uuid.UUID) error
}

// ArtifactUpload is the raw media handed to the artifact store.
type ArtifactUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

// ArtifactStore persists media and hands back an opaque key. Remove is
// best-effort cleanup when a submission insert loses the uniqueness
// race after the artifact was already stored.
type ArtifactStore interface {
	Store(ctx context.Context, upload ArtifactUpload) (string, error)
	Remove(ctx context.Context, key string) error
}
