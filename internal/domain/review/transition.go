package review

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// SubmissionStore is the mutable view of submissions the transition
// manager works on.
type SubmissionStore interface {
	GetByID(id uuid.UUID) (*submission.Submission, error)
	GetByIDs(ids []uuid.UUID) ([]*submission.Submission, error)
	UpdateDecision(sub *submission.Submission) error
	Delete(id uuid.UUID) error
}

// AuditLog appends and reads immutable history entries.
type AuditLog interface {
	Append(entry *AuditEntry) error
	HistoryFor(submissionID uuid.UUID) ([]*AuditEntry, error)
}

// Store groups the repositories a transition touches. InTransaction
// runs fn against a store whose writes commit or roll back together,
// so a status change and its audit entry are never persisted apart.
type Store interface {
	Submissions() SubmissionStore
	Audit() AuditLog
	InTransaction(fn func(Store) error) error
}

// Reconciler recomputes a user's per-event progress after submission
// statuses change.
type Reconciler interface {
	Reconcile(submitterID, eventID uuid.UUID) error
}

// TransitionService applies approve/reject/revert transitions, singly
// or in bulk, writing one audit entry per transition inside the same
// transaction as the status change.
type TransitionService struct {
	store      Store
	reconciler Reconciler
	now        func() time.Time
	log        *log.Logger
}

// NewTransitionService creates the status transition manager
func NewTransitionService(store Store, reconciler Reconciler) *TransitionService {
	return &TransitionService{
		store:      store,
		reconciler: reconciler,
		now:        time.Now,
		log:        logger.Service("review"),
	}
}

// Transition applies a single status change and triggers a goal
// reconciliation for the affected (submitter, event) pair.
func (s *TransitionService) Transition(actor common.Actor, id uuid.UUID, target submission.Status, reason string) (*submission.Submission, error) {
	if !actor.Role.IsPrivileged() {
		return nil, &common.PermissionDeniedError{Action: "change submission status", Role: actor.Role}
	}

	var updated *submission.Submission
	err := s.store.InTransaction(func(tx Store) error {
		sub, err := s.apply(tx, actor, id, target, reason)
		if err != nil {
			return err
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The status change and audit entry are committed at this point.
	// Reconciliation is idempotent, so a failure here only leaves stale
	// counters until the next transition or an explicit reconcile run.
	if err := s.reconciler.Reconcile(updated.SubmitterID, updated.EventID); err != nil {
		s.log.Warn("goal reconciliation failed after transition, counters are stale", "submission_id", id, "error", err)
	}

	s.log.Info("submission transitioned", "submission_id", id, "to", target, "actor_id", actor.ID)
	return updated, nil
}

// BulkTransition moves a batch of submissions to one target status.
// The batch is all-or-nothing: any invalid id or illegal transition
// rolls back the whole mutation. Reconciliation then runs once per
// distinct (submitter, event) pair touched, not once per submission.
func (s *TransitionService) BulkTransition(actor common.Actor, ids []uuid.UUID, target submission.Status, reason string) ([]*submission.Submission, error) {
	if !actor.Role.IsPrivileged() {
		return nil, &common.PermissionDeniedError{Action: "bulk change submission status", Role: actor.Role}
	}
	if len(ids) == 0 {
		return nil, &common.ValidationError{Field: "ids", Reason: "at least one submission id is required"}
	}

	var updated []*submission.Submission
	err := s.store.InTransaction(func(tx Store) error {
		subs, err := tx.Submissions().GetByIDs(ids)
		if err != nil {
			return err
		}
		if missing := missingID(ids, subs); missing != uuid.Nil {
			return &common.NotFoundError{Resource: "submission", ID: missing.String()}
		}

		for _, sub := range subs {
			if _, err := s.apply(tx, actor, sub.ID, target, reason); err != nil {
				return err
			}
		}

		updated, err = tx.Submissions().GetByIDs(ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	for pair := range distinctPairs(updated) {
		if err := s.reconciler.Reconcile(pair.submitter, pair.event); err != nil {
			s.log.Warn("goal reconciliation failed after bulk transition, counters are stale", "submitter_id", pair.submitter, "event_id", pair.event, "error", err)
		}
	}

	s.log.Info("bulk transition applied", "count", len(updated), "to", target, "actor_id", actor.ID)
	return updated, nil
}

// Delete hard-deletes a submission. Admin only; the counters the
// submission fed are corrected by a compensating reconciliation, not a
// special case.
func (s *TransitionService) Delete(actor common.Actor, id uuid.UUID) error {
	if actor.Role != common.RoleAdmin {
		return &common.PermissionDeniedError{Action: "delete a submission", Role: actor.Role}
	}

	var sub *submission.Submission
	err := s.store.InTransaction(func(tx Store) error {
		var err error
		sub, err = tx.Submissions().GetByID(id)
		if err != nil {
			return err
		}

		if err := tx.Submissions().Delete(id); err != nil {
			return err
		}

		return tx.Audit().Append(&AuditEntry{
			SubmissionID: id,
			Action:       AuditActionDelete,
			ActorID:      actor.ID,
			FromStatus:   sub.Status,
			ToStatus:     sub.Status,
			Reason:       "submission deleted",
			CreatedAt:    s.now(),
		})
	})
	if err != nil {
		return err
	}

	if err := s.reconciler.Reconcile(sub.SubmitterID, sub.EventID); err != nil {
		s.log.Warn("goal reconciliation failed after delete, counters are stale", "submission_id", id, "error", err)
	}

	s.log.Info("submission deleted", "submission_id", id, "actor_id", actor.ID)
	return nil
}

// History returns the immutable audit trail for a submission.
func (s *TransitionService) History(id uuid.UUID) ([]*AuditEntry, error) {
	return s.store.Audit().HistoryFor(id)
}

// apply validates and writes one transition plus its audit entry
// inside the caller's transaction.
func (s *TransitionService) apply(tx Store, actor common.Actor, id uuid.UUID, target submission.Status, reason string) (*submission.Submission, error) {
	sub, err := tx.Submissions().GetByID(id)
	if err != nil {
		return nil, err
	}

	if sub.Status == target {
		return nil, &common.ValidationError{Field: "status", Reason: "submission is already " + target.String()}
	}
	if !sub.Status.CanTransitionTo(target) {
		return nil, &common.ValidationError{Field: "status", Reason: "cannot transition from " + sub.Status.String() + " to " + target.String()}
	}

	from := sub.Status
	now := s.now()

	sub.Status = target
	sub.DecidedAt = &now
	sub.DecidedBy = &actor.ID
	switch target {
	case submission.StatusRejected:
		sub.RejectionReason = reason
	case submission.StatusPending:
		// Revert is a status-change utility, not a business decision.
		sub.RejectionReason = ""
	}

	if err := tx.Submissions().UpdateDecision(sub); err != nil {
		return nil, err
	}

	entry := &AuditEntry{
		SubmissionID: sub.ID,
		Action:       AuditActionTransition,
		ActorID:      actor.ID,
		FromStatus:   from,
		ToStatus:     target,
		Reason:       reason,
		CreatedAt:    now,
	}
	if err := tx.Audit().Append(entry); err != nil {
		return nil, err
	}

	return sub, nil
}

type pairKey struct {
	submitter uuid.UUID
	event     uuid.UUID
}

func distinctPairs(subs []*submission.Submission) map[pairKey]struct{} {
	pairs := make(map[pairKey]struct{}, len(subs))
	for _, sub := range subs {
		pairs[pairKey{submitter: sub.SubmitterID, event: sub.EventID}] = struct{}{}
	}
	return pairs
}

func missingID(ids []uuid.UUID, subs []*submission.Submission) uuid.UUID {
	found := make(map[uuid.UUID]struct{}, len(subs))
	for _, sub := range subs {
		found[sub.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return id
		}
	}
	return uuid.Nil
}
