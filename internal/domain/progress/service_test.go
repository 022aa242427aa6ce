package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandwave/ambassador-api/internal/domain/common"
)

func TestWithdrawAndReactivate(t *testing.T) {
	participations := newMemoryParticipations()
	service := NewParticipationService(participations)
	actor := common.Actor{ID: uuid.New(), Role: common.RoleReviewer}

	userID := uuid.New()
	eventID := uuid.New()

	p, err := service.SetStatus(actor, userID, eventID, ParticipationWithdrawn, "left the program")
	require.NoError(t, err)

	assert.Equal(t, ParticipationWithdrawn, p.Status)
	assert.Equal(t, "left the program", p.WithdrawnReason)
	require.NotNil(t, p.WithdrawnAt)

	p, err = service.SetStatus(actor, userID, eventID, ParticipationActive, "")
	require.NoError(t, err)

	assert.Equal(t, ParticipationActive, p.Status)
	assert.Empty(t, p.WithdrawnReason)
	assert.Nil(t, p.WithdrawnAt)
}

func TestWithdrawKeepsProgress(t *testing.T) {
	participations := newMemoryParticipations()
	service := NewParticipationService(participations)
	actor := common.Actor{ID: uuid.New(), Role: common.RoleAdmin}

	userID := uuid.New()
	eventID := uuid.New()

	existing := NewParticipation(userID, eventID)
	existing.CurrentPosts = 3
	existing.GoalAchieved = true
	require.NoError(t, participations.Save(existing))

	_, err := service.SetStatus(actor, userID, eventID, ParticipationWithdrawn, "moved abroad")
	require.NoError(t, err)

	p, err := participations.GetFor(userID, eventID)
	require.NoError(t, err)
	assert.Equal(t, ParticipationWithdrawn, p.Status)
	assert.Equal(t, 3, p.CurrentPosts, "withdrawal never touches counters")
	assert.True(t, p.GoalAchieved, "withdrawal never touches goal state")
}

func TestSetStatusRequiresPrivilege(t *testing.T) {
	service := NewParticipationService(newMemoryParticipations())
	actor := common.Actor{ID: uuid.New(), Role: common.RoleAmbassador}

	_, err := service.SetStatus(actor, uuid.New(), uuid.New(), ParticipationWithdrawn, "")

	var permErr *common.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	service := NewParticipationService(newMemoryParticipations())
	actor := common.Actor{ID: uuid.New(), Role: common.RoleReviewer}

	_, err := service.SetStatus(actor, uuid.New(), uuid.New(), ParticipationStatus("paused"), "")

	var validationErr *common.ValidationError
	require.ErrorAs(t, err, &validationErr)
}
