package submission

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// RateLimitAction is the counter key for submission attempts.
const RateLimitAction = "submission"

// FollowerBrackets are the accepted values for the follower-count
// bracket required on profile-verification submissions.
var FollowerBrackets = []string{"0-1k", "1k-10k", "10k-50k", "50k+"}

// IntakeConfig bounds how often a single submitter may be accepted.
type IntakeConfig struct {
	RateLimitCeiling int
	RateLimitWindow  time.Duration
}

// SubmitRequest is a proposed submission before admission.
type SubmitRequest struct {
	SubmitterID uuid.UUID
	EventID     uuid.UUID
	PostID      *uuid.UUID
	Kind        Kind

	FollowerBracket string
	TicketingEmail  string

	Artifact        *ArtifactUpload
	ProfileArtifact *ArtifactUpload
}

// IntakeService is the gatekeeper for new submissions. It runs the
// admission checks in a fixed order, short-circuiting on the first
// failure, and only persists a pending submission when every check
// passes. On failure nothing is written.
type IntakeService struct {
	submissions    Repository
	events         EventRepository
	users          UserRepository
	rates          RateLimiter
	artifacts      ArtifactStore
	participations ParticipationEnsurer
	cfg            IntakeConfig
	now            func() time.Time
	log            *log.Logger
}

// NewIntakeService creates the intake validator
func NewIntakeService(
	submissions Repository,
	events EventRepository,
	users UserRepository,
	rates RateLimiter,
	artifacts ArtifactStore,
	participations ParticipationEnsurer,
	cfg IntakeConfig,
) *IntakeService {
	return &IntakeService{
		submissions:    submissions,
		events:         events,
		users:          users,
		rates:          rates,
		artifacts:      artifacts,
		participations: participations,
		cfg:            cfg,
		now:            time.Now,
		log:            logger.Service("intake"),
	}
}

// Submit runs the admission checks and persists a pending submission.
// Check order: rate limit, deadline, duplicate slot, required fields,
// eligibility. The duplicate pre-check is a fast path only; the insert
// relies on the storage uniqueness constraint to close the race.
func (s *IntakeService) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	now := s.now()
	windowStart := now.Truncate(s.cfg.RateLimitWindow)

	// 1. Rate limit. Acquire reserves a slot atomically; every failure
	// below releases it so only accepted submissions count.
	count, err := s.rates.Acquire(ctx, req.SubmitterID, RateLimitAction, windowStart)
	if err != nil {
		return nil, err
	}
	if count > s.cfg.RateLimitCeiling {
		s.releaseRateSlot(ctx, req.SubmitterID, windowStart)
		retryAfter := windowStart.Add(s.cfg.RateLimitWindow).Sub(now)
		s.log.Warn("submission rate limit hit", "submitter_id", req.SubmitterID, "count", count, "ceiling", s.cfg.RateLimitCeiling)
		return nil, &common.RateLimitedError{
			Ceiling:    s.cfg.RateLimitCeiling,
			Window:     s.cfg.RateLimitWindow,
			RetryAfter: retryAfter,
		}
	}

	sub, err := s.admit(ctx, req, now)
	if err != nil {
		s.releaseRateSlot(ctx, req.SubmitterID, windowStart)
		return nil, err
	}

	return sub, nil
}

// releaseRateSlot gives back an acquired slot after a failed attempt.
// A failed release leaves the slot consumed until the window rolls, so
// it is logged rather than dropped.
func (s *IntakeService) releaseRateSlot(ctx context.Context, submitterID uuid.UUID, windowStart time.Time) {
	if err := s.rates.Release(ctx, submitterID, RateLimitAction, windowStart); err != nil {
		s.log.Warn("failed to release rate limit slot", "submitter_id", submitterID, "window_start", windowStart, "error", err)
	}
}

// admit runs checks 2-5 and the accept path. The rate-limit slot is
// already held by the caller.
func (s *IntakeService) admit(ctx context.Context, req SubmitRequest, now time.Time) (*Submission, error) {
	ev, err := s.events.GetByID(req.EventID)
	if err != nil {
		return nil, err
	}

	fields := req.Kind.Fields()

	// Sale receipts are event-scoped. A stray post reference would
	// otherwise claim the submitter's content slot for that post.
	if !fields.NeedsPost {
		req.PostID = nil
	}

	// 2. Deadline of the target post, for post-bound kinds.
	if fields.NeedsPost {
		if req.PostID == nil {
			return nil, &common.ValidationError{Field: "post_id", Reason: "required for " + string(req.Kind) + " submissions"}
		}
		post, err := s.events.GetPost(*req.PostID)
		if err != nil {
			return nil, err
		}
		if post.EventID != ev.ID {
			return nil, &common.ValidationError{Field: "post_id", Reason: "post does not belong to this event"}
		}
		if post.DeadlinePassed(now) {
			s.log.Debug("submission past deadline", "post_id", post.ID, "deadline", post.Deadline)
			return nil, &common.DeadlineExpiredError{PostID: post.ID, Deadline: post.Deadline}
		}
	}

	// 3. Duplicate slot fast path. The insert below re-checks through
	// the uniqueness constraint.
	if fields.SlotLimited {
		occupant, err := s.submissions.SlotOccupant(req.SubmitterID, *req.PostID)
		if err != nil {
			return nil, err
		}
		if occupant != nil {
			return nil, &common.DuplicateSubmissionError{
				ExistingID:     occupant.ID,
				ExistingStatus: occupant.Status.String(),
			}
		}
	}

	// 4. Required-field completeness per kind declaration + event flags.
	if err := s.checkRequiredFields(ev, req); err != nil {
		return nil, err
	}

	// 5. Eligibility against the event's audience restriction.
	user, err := s.users.GetByID(req.SubmitterID)
	if err != nil {
		return nil, err
	}
	if !ev.IsEligible(user.Gender) {
		return nil, &common.IneligibleParticipantError{Attribute: "gender", Value: user.Gender}
	}

	// Accept path: store artifacts, then insert the pending record.
	artifactKey, err := s.artifacts.Store(ctx, *req.Artifact)
	if err != nil {
		return nil, err
	}

	var profileKey string
	if req.ProfileArtifact != nil {
		profileKey, err = s.artifacts.Store(ctx, *req.ProfileArtifact)
		if err != nil {
			s.removeArtifacts(ctx, artifactKey)
			return nil, err
		}
	}

	// A cancelled form must leave no partial record behind.
	if err := ctx.Err(); err != nil {
		s.removeArtifacts(ctx, artifactKey, profileKey)
		return nil, err
	}

	sub := NewSubmission(req.EventID, req.SubmitterID, req.PostID, req.Kind, artifactKey)
	sub.ProfileArtifactKey = profileKey
	sub.FollowerBracket = req.FollowerBracket
	sub.TicketingEmail = req.TicketingEmail

	if err := s.submissions.Create(sub); err != nil {
		s.removeArtifacts(ctx, artifactKey, profileKey)
		if errors.Is(err, ErrSlotOccupied) && req.PostID != nil {
			// Lost the race against a near-simultaneous submit.
			occupant, lookupErr := s.submissions.SlotOccupant(req.SubmitterID, *req.PostID)
			if lookupErr == nil && occupant != nil {
				return nil, &common.DuplicateSubmissionError{
					ExistingID:     occupant.ID,
					ExistingStatus: occupant.Status.String(),
				}
			}
			return nil, &common.DuplicateSubmissionError{ExistingStatus: StatusPending.String()}
		}
		return nil, err
	}

	if err := s.participations.EnsureActive(req.SubmitterID, req.EventID); err != nil {
		s.log.Error("failed to ensure participation record", "submitter_id", req.SubmitterID, "event_id", req.EventID, "error", err)
	}

	s.log.Info("submission accepted", "submission_id", sub.ID, "kind", sub.Kind, "submitter_id", sub.SubmitterID, "event_id", sub.EventID)
	return sub, nil
}

// checkRequiredFields validates the kind-specific mandatory fields.
func (s *IntakeService) checkRequiredFields(ev *event.Event, req SubmitRequest) error {
	fields := req.Kind.Fields()

	accepts := map[Kind]bool{
		KindContentPost:         ev.AcceptsPosts,
		KindSaleReceipt:         ev.AcceptsSales,
		KindProfileVerification: ev.AcceptsProfileVerification,
	}
	if !accepts[req.Kind] {
		return &common.ValidationError{Field: "kind", Reason: "event does not accept " + string(req.Kind) + " submissions"}
	}

	if req.Artifact == nil || req.Artifact.Reader == nil {
		return &common.ValidationError{Field: "artifact", Reason: "an artifact is required"}
	}

	if fields.NeedsFollowerBracket && !slices.Contains(FollowerBrackets, req.FollowerBracket) {
		return &common.ValidationError{Field: "follower_bracket", Reason: "must be one of " + strings.Join(FollowerBrackets, ", ")}
	}

	if (fields.NeedsProfileShot || ev.RequiresProfileShot) && req.ProfileArtifact == nil {
		return &common.ValidationError{Field: "profile_artifact", Reason: "a profile screenshot is required"}
	}

	if ev.RequiresTicketingEmail && !strings.Contains(req.TicketingEmail, "@") {
		return &common.ValidationError{Field: "ticketing_email", Reason: "a valid ticketing email is required"}
	}

	return nil
}

func (s *IntakeService) removeArtifacts(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.artifacts.Remove(ctx, key); err != nil {
			s.log.Warn("failed to remove orphaned artifact", "key", key, "error", err)
		}
	}
}
