package progress

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// Repository defines the persistence operations for participation
// records.
type Repository interface {
	GetFor(userID, eventID uuid.UUID) (*Participation, error)
	EnsureActive(userID, eventID uuid.UUID) error
	// SaveProgress persists only the derived fields (counters and
	// goal_achieved), so a concurrent withdrawal or override is never
	// clobbered by a reconciliation running on stale data.
	SaveProgress(p *Participation) error
	Save(p *Participation) error
}

// SubmissionCounter counts approved submissions from the store.
type SubmissionCounter interface {
	CountApproved(submitterID, eventID uuid.UUID, kind submission.Kind) (int, error)
}

// EventResolver loads the event's current requirements. Requirements
// are read fresh on every run; the reconciler never caches targets.
type EventResolver interface {
	GetByID(id uuid.UUID) (*event.Event, error)
}

// Reconciler recomputes a user's per-event progress from the
// submission store. The computation is a pure function of persisted
// submission statuses and the event's current requirements, which
// makes repeated or concurrent runs for the same pair safe.
type Reconciler struct {
	participations Repository
	submissions    SubmissionCounter
	events         EventResolver
	log            *log.Logger
}

// NewReconciler creates the goal reconciliation engine
func NewReconciler(participations Repository, submissions SubmissionCounter, events EventResolver) *Reconciler {
	return &Reconciler{
		participations: participations,
		submissions:    submissions,
		events:         events,
		log:            logger.Service("reconciler"),
	}
}

// Reconcile recomputes and persists current_posts, current_sales and
// goal_achieved for one (user, event) pair. An event without numeric
// requirements is manual-review only: goal_achieved stays false unless
// a reviewer set an override.
func (r *Reconciler) Reconcile(userID, eventID uuid.UUID) error {
	ev, err := r.events.GetByID(eventID)
	if err != nil {
		return err
	}

	posts, err := r.submissions.CountApproved(userID, eventID, submission.KindContentPost)
	if err != nil {
		return err
	}
	sales, err := r.submissions.CountApproved(userID, eventID, submission.KindSaleReceipt)
	if err != nil {
		return err
	}

	p, err := r.participations.GetFor(userID, eventID)
	if err != nil {
		var notFound *common.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		p = NewParticipation(userID, eventID)
	}

	p.CurrentPosts = posts
	p.CurrentSales = sales
	p.GoalAchieved = achieved(ev, p)

	if err := r.participations.SaveProgress(p); err != nil {
		return err
	}

	r.log.Debug("progress reconciled",
		"user_id", userID,
		"event_id", eventID,
		"current_posts", posts,
		"current_sales", sales,
		"goal_achieved", p.GoalAchieved)
	return nil
}

// SetManualOverride marks a user as goal-achieved independent of the
// computed counters. Reviewer only.
func (r *Reconciler) SetManualOverride(actor common.Actor, userID, eventID uuid.UUID, override bool, reason string) error {
	if !actor.Role.IsPrivileged() {
		return &common.PermissionDeniedError{Action: "set a manual override", Role: actor.Role}
	}

	p, err := r.participations.GetFor(userID, eventID)
	if err != nil {
		var notFound *common.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		p = NewParticipation(userID, eventID)
	}

	p.ManualOverride = override
	if override {
		p.OverrideReason = reason
	} else {
		p.OverrideReason = ""
	}

	if err := r.participations.Save(p); err != nil {
		return err
	}

	// Refresh the derived flag so reads see the override immediately.
	if err := r.Reconcile(userID, eventID); err != nil {
		return err
	}

	r.log.Info("manual override updated", "user_id", userID, "event_id", eventID, "override", override, "actor_id", actor.ID)
	return nil
}

// achieved applies the goal formula. manual_override short-circuits;
// an event with no automatic requirements reports false otherwise.
func achieved(ev *event.Event, p *Participation) bool {
	if p.ManualOverride {
		return true
	}
	if !ev.HasAutomaticGoal() {
		return false
	}
	return p.CurrentPosts >= ev.RequiredPosts && p.CurrentSales >= ev.RequiredSales
}
