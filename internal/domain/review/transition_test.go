package review

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
)

// memoryStore is an in-memory review.Store with snapshot-based
// transaction rollback.
type memoryStore struct {
	submissions map[uuid.UUID]*submission.Submission
	audit       []*AuditEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{submissions: make(map[uuid.UUID]*submission.Submission)}
}

func (m *memoryStore) add(sub *submission.Submission) {
	copied := *sub
	m.submissions[sub.ID] = &copied
}

func (m *memoryStore) Submissions() SubmissionStore { return (*memorySubmissions)(m) }
func (m *memoryStore) Audit() AuditLog              { return (*memoryAudit)(m) }

func (m *memoryStore) InTransaction(fn func(Store) error) error {
	snapshot := newMemoryStore()
	for id, sub := range m.submissions {
		copied := *sub
		snapshot.submissions[id] = &copied
	}
	snapshot.audit = append([]*AuditEntry(nil), m.audit...)

	if err := fn(m); err != nil {
		m.submissions = snapshot.submissions
		m.audit = snapshot.audit
		return err
	}
	return nil
}

type memorySubmissions memoryStore

func (m *memorySubmissions) GetByID(id uuid.UUID) (*submission.Submission, error) {
	sub, ok := m.submissions[id]
	if !ok {
		return nil, &common.NotFoundError{Resource: "submission", ID: id.String()}
	}
	copied := *sub
	return &copied, nil
}

func (m *memorySubmissions) GetByIDs(ids []uuid.UUID) ([]*submission.Submission, error) {
	var subs []*submission.Submission
	for _, id := range ids {
		if sub, ok := m.submissions[id]; ok {
			copied := *sub
			subs = append(subs, &copied)
		}
	}
	return subs, nil
}

func (m *memorySubmissions) UpdateDecision(sub *submission.Submission) error {
	existing, ok := m.submissions[sub.ID]
	if !ok {
		return &common.NotFoundError{Resource: "submission", ID: sub.ID.String()}
	}
	existing.Status = sub.Status
	existing.RejectionReason = sub.RejectionReason
	existing.DecidedAt = sub.DecidedAt
	existing.DecidedBy = sub.DecidedBy
	return nil
}

func (m *memorySubmissions) Delete(id uuid.UUID) error {
	if _, ok := m.submissions[id]; !ok {
		return &common.NotFoundError{Resource: "submission", ID: id.String()}
	}
	delete(m.submissions, id)
	return nil
}

type memoryAudit memoryStore

func (m *memoryAudit) Append(entry *AuditEntry) error {
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memoryAudit) HistoryFor(submissionID uuid.UUID) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	for _, e := range m.audit {
		if e.SubmissionID == submissionID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type recordingReconciler struct {
	calls [][2]uuid.UUID
	err   error
}

func (r *recordingReconciler) Reconcile(submitterID, eventID uuid.UUID) error {
	r.calls = append(r.calls, [2]uuid.UUID{submitterID, eventID})
	return r.err
}

func reviewer() common.Actor {
	return common.Actor{ID: uuid.New(), Name: "Riley Chen", Role: common.RoleReviewer}
}

func ambassador() common.Actor {
	return common.Actor{ID: uuid.New(), Name: "Alex Rivera", Role: common.RoleAmbassador}
}

func admin() common.Actor {
	return common.Actor{ID: uuid.New(), Name: "Sam Okoye", Role: common.RoleAdmin}
}

func pendingSubmission(eventID, submitterID uuid.UUID) *submission.Submission {
	postID := uuid.New()
	return submission.NewSubmission(eventID, submitterID, &postID, submission.KindContentPost, "artifacts/key")
}

func TestTransitionApprove(t *testing.T) {
	store := newMemoryStore()
	reconciler := &recordingReconciler{}
	service := NewTransitionService(store, reconciler)

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	actor := reviewer()
	updated, err := service.Transition(actor, sub.ID, submission.StatusApproved, "")
	require.NoError(t, err)

	assert.Equal(t, submission.StatusApproved, updated.Status)
	require.NotNil(t, updated.DecidedAt)
	require.NotNil(t, updated.DecidedBy)
	assert.Equal(t, actor.ID, *updated.DecidedBy)

	require.Len(t, store.audit, 1, "every transition writes one audit entry")
	entry := store.audit[0]
	assert.Equal(t, AuditActionTransition, entry.Action)
	assert.Equal(t, submission.StatusPending, entry.FromStatus)
	assert.Equal(t, submission.StatusApproved, entry.ToStatus)
	assert.Equal(t, actor.ID, entry.ActorID)

	require.Len(t, reconciler.calls, 1, "approval triggers reconciliation")
	assert.Equal(t, sub.SubmitterID, reconciler.calls[0][0])
	assert.Equal(t, sub.EventID, reconciler.calls[0][1])
}

func TestTransitionSucceedsWhenReconciliationFails(t *testing.T) {
	store := newMemoryStore()
	reconciler := &recordingReconciler{err: errors.New("counters unavailable")}
	service := NewTransitionService(store, reconciler)

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	// The status change and audit entry committed; stale counters are
	// repaired by the next idempotent reconciliation run.
	updated, err := service.Transition(reviewer(), sub.ID, submission.StatusApproved, "")
	require.NoError(t, err, "a committed transition is reported as success")
	require.NotNil(t, updated)
	assert.Equal(t, submission.StatusApproved, updated.Status)
	assert.Len(t, store.audit, 1)
	assert.Len(t, reconciler.calls, 1, "reconciliation was still attempted")
}

func TestTransitionRejectRecordsReason(t *testing.T) {
	store := newMemoryStore()
	service := NewTransitionService(store, &recordingReconciler{})

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	updated, err := service.Transition(reviewer(), sub.ID, submission.StatusRejected, "blurry screenshot")
	require.NoError(t, err)

	assert.Equal(t, submission.StatusRejected, updated.Status)
	assert.Equal(t, "blurry screenshot", updated.RejectionReason)
	assert.Equal(t, "blurry screenshot", store.audit[0].Reason)
}

func TestTransitionRevertClearsRejectionReason(t *testing.T) {
	store := newMemoryStore()
	service := NewTransitionService(store, &recordingReconciler{})

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	_, err := service.Transition(reviewer(), sub.ID, submission.StatusRejected, "wrong post")
	require.NoError(t, err)

	updated, err := service.Transition(reviewer(), sub.ID, submission.StatusPending, "")
	require.NoError(t, err)

	assert.Equal(t, submission.StatusPending, updated.Status)
	assert.Empty(t, updated.RejectionReason, "revert clears the rejection reason")
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	store := newMemoryStore()
	service := NewTransitionService(store, &recordingReconciler{})

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	_, err := service.Transition(reviewer(), sub.ID, submission.StatusApproved, "")
	require.NoError(t, err)

	// approved -> rejected must go through pending
	_, err = service.Transition(reviewer(), sub.ID, submission.StatusRejected, "nope")
	var validationErr *common.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// same-status transition is invalid
	_, err = service.Transition(reviewer(), sub.ID, submission.StatusApproved, "")
	require.ErrorAs(t, err, &validationErr)
}

func TestTransitionRequiresPrivilege(t *testing.T) {
	store := newMemoryStore()
	service := NewTransitionService(store, &recordingReconciler{})

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	_, err := service.Transition(ambassador(), sub.ID, submission.StatusApproved, "")

	var permErr *common.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
	assert.Empty(t, store.audit, "denied transitions leave no trace")
}

func TestBulkTransitionAllOrNothing(t *testing.T) {
	store := newMemoryStore()
	reconciler := &recordingReconciler{}
	service := NewTransitionService(store, reconciler)

	eventID := uuid.New()
	submitterID := uuid.New()

	good := pendingSubmission(eventID, submitterID)
	alreadyApproved := pendingSubmission(eventID, submitterID)
	alreadyApproved.Status = submission.StatusApproved
	store.add(good)
	store.add(alreadyApproved)

	_, err := service.BulkTransition(reviewer(), []uuid.UUID{good.ID, alreadyApproved.ID}, submission.StatusApproved, "")
	require.Error(t, err, "one illegal transition fails the whole batch")

	reloaded, _ := store.Submissions().GetByID(good.ID)
	assert.Equal(t, submission.StatusPending, reloaded.Status, "no partial application")
	assert.Empty(t, store.audit)
	assert.Empty(t, reconciler.calls, "no reconciliation for a rolled back batch")
}

func TestBulkTransitionMissingID(t *testing.T) {
	store := newMemoryStore()
	service := NewTransitionService(store, &recordingReconciler{})

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	ghost := uuid.New()
	_, err := service.BulkTransition(reviewer(), []uuid.UUID{sub.ID, ghost}, submission.StatusApproved, "")

	var notFoundErr *common.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, ghost.String(), notFoundErr.ID)
}

func TestBulkTransitionReconcilesOncePerPair(t *testing.T) {
	store := newMemoryStore()
	reconciler := &recordingReconciler{}
	service := NewTransitionService(store, reconciler)

	eventID := uuid.New()
	submitterID := uuid.New()

	first := pendingSubmission(eventID, submitterID)
	second := pendingSubmission(eventID, submitterID)
	other := pendingSubmission(eventID, uuid.New())
	store.add(first)
	store.add(second)
	store.add(other)

	subs, err := service.BulkTransition(reviewer(), []uuid.UUID{first.ID, second.ID, other.ID}, submission.StatusApproved, "")
	require.NoError(t, err)
	assert.Len(t, subs, 3)
	assert.Len(t, store.audit, 3, "one audit entry per submission")
	assert.Len(t, reconciler.calls, 2, "one reconciliation per distinct submitter and event pair")
}

func TestBulkTransitionEmptyBatch(t *testing.T) {
	service := NewTransitionService(newMemoryStore(), &recordingReconciler{})

	_, err := service.BulkTransition(reviewer(), nil, submission.StatusApproved, "")

	var validationErr *common.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	store := newMemoryStore()
	service := NewTransitionService(store, &recordingReconciler{})

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	err := service.Delete(reviewer(), sub.ID)

	var permErr *common.PermissionDeniedError
	require.ErrorAs(t, err, &permErr)
}

func TestDeleteAuditsAndReconciles(t *testing.T) {
	store := newMemoryStore()
	reconciler := &recordingReconciler{}
	service := NewTransitionService(store, reconciler)

	sub := pendingSubmission(uuid.New(), uuid.New())
	sub.Status = submission.StatusApproved
	store.add(sub)

	require.NoError(t, service.Delete(admin(), sub.ID))

	_, err := store.Submissions().GetByID(sub.ID)
	var notFoundErr *common.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	require.Len(t, store.audit, 1, "the audit entry outlives the submission")
	assert.Equal(t, AuditActionDelete, store.audit[0].Action)

	require.Len(t, reconciler.calls, 1, "deletion triggers a compensating reconciliation")
}

func TestHistory(t *testing.T) {
	store := newMemoryStore()
	service := NewTransitionService(store, &recordingReconciler{})

	sub := pendingSubmission(uuid.New(), uuid.New())
	store.add(sub)

	_, err := service.Transition(reviewer(), sub.ID, submission.StatusRejected, "off brand")
	require.NoError(t, err)
	_, err = service.Transition(reviewer(), sub.ID, submission.StatusPending, "")
	require.NoError(t, err)
	_, err = service.Transition(reviewer(), sub.ID, submission.StatusApproved, "")
	require.NoError(t, err)

	entries, err := service.History(sub.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, submission.StatusRejected, entries[0].ToStatus)
	assert.Equal(t, submission.StatusPending, entries[1].ToStatus)
	assert.Equal(t, submission.StatusApproved, entries[2].ToStatus)

	for _, e := range entries {
		assert.False(t, e.CreatedAt.IsZero())
		assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)
	}
}
