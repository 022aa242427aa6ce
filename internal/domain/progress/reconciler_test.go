package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
)

type memoryParticipations struct {
	records map[[2]uuid.UUID]*Participation
}

func newMemoryParticipations() *memoryParticipations {
	return &memoryParticipations{records: make(map[[2]uuid.UUID]*Participation)}
}

func (m *memoryParticipations) key(userID, eventID uuid.UUID) [2]uuid.UUID {
	return [2]uuid.UUID{userID, eventID}
}

func (m *memoryParticipations) GetFor(userID, eventID uuid.UUID) (*Participation, error) {
	if p, ok := m.records[m.key(userID, eventID)]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, &common.NotFoundError{Resource: "participation", ID: userID.String()}
}

func (m *memoryParticipations) EnsureActive(userID, eventID uuid.UUID) error {
	if _, ok := m.records[m.key(userID, eventID)]; !ok {
		m.records[m.key(userID, eventID)] = NewParticipation(userID, eventID)
	}
	return nil
}

func (m *memoryParticipations) SaveProgress(p *Participation) error {
	existing, ok := m.records[m.key(p.UserID, p.EventID)]
	if !ok {
		copied := *p
		m.records[m.key(p.UserID, p.EventID)] = &copied
		return nil
	}
	// Derived columns only, like the database upsert.
	existing.CurrentPosts = p.CurrentPosts
	existing.CurrentSales = p.CurrentSales
	existing.GoalAchieved = p.GoalAchieved
	return nil
}

func (m *memoryParticipations) Save(p *Participation) error {
	existing, ok := m.records[m.key(p.UserID, p.EventID)]
	if !ok {
		copied := *p
		m.records[m.key(p.UserID, p.EventID)] = &copied
		return nil
	}
	existing.Status = p.Status
	existing.WithdrawnReason = p.WithdrawnReason
	existing.WithdrawnAt = p.WithdrawnAt
	existing.ManualOverride = p.ManualOverride
	existing.OverrideReason = p.OverrideReason
	return nil
}

type memoryCounter struct {
	posts int
	sales int
}

func (m *memoryCounter) CountApproved(submitterID, eventID uuid.UUID, kind submission.Kind) (int, error) {
	switch kind {
	case submission.KindSaleReceipt:
		return m.sales, nil
	default:
		return m.posts, nil
	}
}

type memoryEvents struct {
	event *event.Event
}

func (m *memoryEvents) GetByID(id uuid.UUID) (*event.Event, error) {
	if m.event != nil && m.event.ID == id {
		return m.event, nil
	}
	return nil, &common.NotFoundError{Resource: "event", ID: id.String()}
}

type progressFixture struct {
	reconciler     *Reconciler
	participations *memoryParticipations
	counter        *memoryCounter
	event          *event.Event
	userID         uuid.UUID
}

func newProgressFixture(t *testing.T, requiredPosts, requiredSales int) *progressFixture {
	t.Helper()

	ev := event.NewEvent("Spring Drop", "", time.Now().Add(-time.Hour), time.Now().Add(720*time.Hour))
	ev.RequiredPosts = requiredPosts
	ev.RequiredSales = requiredSales

	participations := newMemoryParticipations()
	counter := &memoryCounter{}

	return &progressFixture{
		reconciler:     NewReconciler(participations, counter, &memoryEvents{event: ev}),
		participations: participations,
		counter:        counter,
		event:          ev,
		userID:         uuid.New(),
	}
}

func (f *progressFixture) current(t *testing.T) *Participation {
	t.Helper()
	p, err := f.participations.GetFor(f.userID, f.event.ID)
	require.NoError(t, err)
	return p
}

func TestReconcileComputesCounters(t *testing.T) {
	f := newProgressFixture(t, 3, 0)
	f.counter.posts = 2

	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))

	p := f.current(t)
	assert.Equal(t, 2, p.CurrentPosts)
	assert.Equal(t, 0, p.CurrentSales)
	assert.False(t, p.GoalAchieved, "two of three required posts is not achieved")

	f.counter.posts = 3
	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	assert.True(t, f.current(t).GoalAchieved)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newProgressFixture(t, 3, 1)
	f.counter.posts = 3
	f.counter.sales = 1

	for i := 0; i < 5; i++ {
		require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	}

	p := f.current(t)
	assert.Equal(t, 3, p.CurrentPosts)
	assert.Equal(t, 1, p.CurrentSales)
	assert.True(t, p.GoalAchieved)
}

func TestReconcileAfterRejectAndResubmit(t *testing.T) {
	f := newProgressFixture(t, 3, 0)

	// Two approvals land.
	f.counter.posts = 2
	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	assert.Equal(t, 2, f.current(t).CurrentPosts)

	// A reviewer reverts and rejects one of them.
	f.counter.posts = 1
	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	p := f.current(t)
	assert.Equal(t, 1, p.CurrentPosts)
	assert.False(t, p.GoalAchieved)

	// The ambassador resubmits and all three get approved.
	f.counter.posts = 3
	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	p = f.current(t)
	assert.Equal(t, 3, p.CurrentPosts)
	assert.True(t, p.GoalAchieved)
}

func TestReconcileZeroRequirementEvent(t *testing.T) {
	f := newProgressFixture(t, 0, 0)
	f.counter.posts = 10
	f.counter.sales = 4

	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))

	p := f.current(t)
	assert.Equal(t, 10, p.CurrentPosts, "counters still track activity")
	assert.False(t, p.GoalAchieved, "an event without requirements is manual-review only")
}

func TestReconcileSalesRequirement(t *testing.T) {
	f := newProgressFixture(t, 0, 2)
	f.counter.sales = 1

	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	assert.False(t, f.current(t).GoalAchieved)

	f.counter.sales = 2
	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	assert.True(t, f.current(t).GoalAchieved)
}

func TestManualOverride(t *testing.T) {
	f := newProgressFixture(t, 0, 0)
	actor := common.Actor{ID: uuid.New(), Role: common.RoleReviewer}

	require.NoError(t, f.reconciler.SetManualOverride(actor, f.userID, f.event.ID, true, "hit the goal on a partner channel"))

	p := f.current(t)
	assert.True(t, p.ManualOverride)
	assert.Equal(t, "hit the goal on a partner channel", p.OverrideReason)
	assert.True(t, p.GoalAchieved, "override wins over the zero-requirement rule")

	// Override survives reconciliation.
	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	assert.True(t, f.current(t).GoalAchieved)

	// Clearing the override recomputes honestly.
	require.NoError(t, f.reconciler.SetManualOverride(actor, f.userID, f.event.ID, false, ""))
	p = f.current(t)
	assert.False(t, p.ManualOverride)
	assert.Empty(t, p.OverrideReason)
	assert.False(t, p.GoalAchieved)
}

func TestManualOverrideRequiresPrivilege(t *testing.T) {
	f := newProgressFixture(t, 0, 0)
	actor := common.Actor{ID: uuid.New(), Role: common.RoleAmbassador}

	err := f.reconciler.SetManualOverride(actor, f.userID, f.event.ID, true, "")

	var permErr *common.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
}

func TestReconcileReadsRequirementsFresh(t *testing.T) {
	f := newProgressFixture(t, 5, 0)
	f.counter.posts = 3

	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	assert.False(t, f.current(t).GoalAchieved)

	// An admin lowers the requirement mid-campaign.
	f.event.RequiredPosts = 3
	require.NoError(t, f.reconciler.Reconcile(f.userID, f.event.ID))
	assert.True(t, f.current(t).GoalAchieved, "requirements are read on every run")
}
