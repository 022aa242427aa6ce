package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Typed failures returned by the intake validator, the transition
// manager and the participation manager. Handlers map each kind to an
// HTTP status; callers are expected to match with errors.As.

// RateLimitedError is returned when a submitter exceeded the submission
// ceiling for the current window. Recoverable by waiting.
type RateLimitedError struct {
	Ceiling    int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("submission rate limit of %d per %s exceeded, retry in %s", e.Ceiling, e.Window, e.RetryAfter)
}

// DuplicateSubmissionError is returned when the (submitter, post) slot
// is already occupied by a non-rejected submission. It carries the
// existing submission's status so the user can be told what blocks them.
type DuplicateSubmissionError struct {
	ExistingID     uuid.UUID
	ExistingStatus string
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("a %s submission already exists for this post", e.ExistingStatus)
}

// DeadlineExpiredError is returned when the target post's deadline has
// passed. Not recoverable for that post.
type DeadlineExpiredError struct {
	PostID   uuid.UUID
	Deadline time.Time
}

func (e *DeadlineExpiredError) Error() string {
	return fmt.Sprintf("deadline for post %s passed at %s", e.PostID, e.Deadline.Format(time.RFC3339))
}

// ValidationError is returned for a missing or malformed required
// field. Recoverable by correcting input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IneligibleParticipantError is returned when the submitter's profile
// attribute is not in the event's restriction set.
type IneligibleParticipantError struct {
	Attribute string
	Value     string
}

func (e *IneligibleParticipantError) Error() string {
	return fmt.Sprintf("participant %s %q is not eligible for this event", e.Attribute, e.Value)
}

// StorageError is returned when the artifact store failed after
// exhausting retries. Recoverable by retrying the whole submission.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PermissionDeniedError is returned when the caller lacks the role for
// the attempted mutation.
type PermissionDeniedError struct {
	Action string
	Role   Role
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("role %q may not %s", e.Role, e.Action)
}

// NotFoundError is returned when a referenced submission, post, event
// or user no longer exists.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
