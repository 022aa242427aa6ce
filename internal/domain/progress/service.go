package progress

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// ParticipationService is the only component allowed to change a
// user's participation status. Withdrawal never touches counters or
// goal state and never triggers a reconciliation.
type ParticipationService struct {
	participations Repository
	now            func() time.Time
	log            *log.Logger
}

// NewParticipationService creates the participation manager
func NewParticipationService(participations Repository) *ParticipationService {
	return &ParticipationService{
		participations: participations,
		now:            time.Now,
		log:            logger.Service("participation"),
	}
}

// SetStatus withdraws or reactivates a user for an event. Reviewer
// only. Submission history and progress counters are retained
// unchanged either way.
func (s *ParticipationService) SetStatus(actor common.Actor, userID, eventID uuid.UUID, status ParticipationStatus, reason string) (*Participation, error) {
	if !actor.Role.IsPrivileged() {
		return nil, &common.PermissionDeniedError{Action: "change participation status", Role: actor.Role}
	}

	p, err := s.participations.GetFor(userID, eventID)
	if err != nil {
		var notFound *common.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// First explicit participation action creates the record.
		p = NewParticipation(userID, eventID)
	}

	switch status {
	case ParticipationWithdrawn:
		p.Withdraw(reason, s.now())
	case ParticipationActive:
		p.Reactivate()
	default:
		return nil, &common.ValidationError{Field: "participation_status", Reason: "must be active or withdrawn"}
	}

	if err := s.participations.Save(p); err != nil {
		return nil, err
	}

	s.log.Info("participation status changed",
		"user_id", userID,
		"event_id", eventID,
		"status", status,
		"actor_id", actor.ID)
	return p, nil
}
