package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/domain/participant"
	"github.com/brandwave/ambassador-api/internal/domain/progress"
	"github.com/brandwave/ambassador-api/internal/domain/report"
	"github.com/brandwave/ambassador-api/internal/domain/review"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/storage/migrations"
)

// setupTestDB opens an in-memory SQLite database with the same schema
// the migrations produce, including the partial unique slot index.
// TranslateError is on so unique violations surface as
// gorm.ErrDuplicatedKey exactly like they do against PostgreSQL.
func setupTestDB(t *testing.T) *Container {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err, "opening the in-memory database should succeed")

	models := append(migrations.AllModels(), &RateCounter{})
	require.NoError(t, db.AutoMigrate(models...), "schema migration should succeed")

	err = db.Exec(`CREATE UNIQUE INDEX idx_submissions_occupied_slot
		ON submissions (submitter_id, post_id)
		WHERE status <> 'rejected' AND post_id IS NOT NULL`).Error
	require.NoError(t, err, "creating the occupied slot index should succeed")

	return NewContainer(db)
}

func seedUser(t *testing.T, c *Container, name, handle string) *participant.User {
	t.Helper()

	u := participant.NewUser(name, handle, handle+"@example.com")
	u.PasswordHash = "not-a-real-hash"
	require.NoError(t, c.Users().Create(u))
	return u
}

func seedEvent(t *testing.T, c *Container) *event.Event {
	t.Helper()

	ev := event.NewEvent("Summer Launch", "Seasonal campaign", time.Now().AddDate(0, -1, 0), time.Now().AddDate(0, 1, 0))
	ev.AcceptsSales = true
	ev.RequiredPosts = 2
	require.NoError(t, c.Events().Create(ev))
	return ev
}

func seedPost(t *testing.T, c *Container, eventID uuid.UUID, label string) *event.Post {
	t.Helper()

	p := event.NewPost(eventID, label, time.Now().Add(24*time.Hour))
	require.NoError(t, c.Events().CreatePost(p))
	return p
}

func seedSubmission(t *testing.T, c *Container, ev *event.Event, u *participant.User, postID *uuid.UUID, kind submission.Kind) *submission.Submission {
	t.Helper()

	s := submission.NewSubmission(ev.ID, u.ID, postID, kind, "artifacts/2026/05/test.png")
	require.NoError(t, c.SubmissionRepo().Create(s))
	return s
}

func TestSubmissionSlotUniqueness(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	post := seedPost(t, c, ev.ID, "launch day")

	first := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	second := submission.NewSubmission(ev.ID, user.ID, &post.ID, submission.KindContentPost, "artifacts/2026/05/other.png")
	err := c.SubmissionRepo().Create(second)
	assert.ErrorIs(t, err, submission.ErrSlotOccupied, "a pending submission should block the slot")

	other := seedUser(t, c, "Bea Souza", "bea")
	otherSub := submission.NewSubmission(ev.ID, other.ID, &post.ID, submission.KindContentPost, "artifacts/2026/05/bea.png")
	assert.NoError(t, c.SubmissionRepo().Create(otherSub), "a different submitter should get their own slot")

	now := time.Now()
	first.Status = submission.StatusRejected
	first.RejectionReason = "blurry screenshot"
	first.DecidedAt = &now
	first.DecidedBy = &other.ID
	require.NoError(t, c.SubmissionRepo().UpdateDecision(first))

	retry := submission.NewSubmission(ev.ID, user.ID, &post.ID, submission.KindContentPost, "artifacts/2026/05/retry.png")
	assert.NoError(t, c.SubmissionRepo().Create(retry), "rejection should free the slot for a retry")
}

func TestSubmissionSlotIgnoresSaleReceipts(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")

	seedSubmission(t, c, ev, user, nil, submission.KindSaleReceipt)
	second := submission.NewSubmission(ev.ID, user.ID, nil, submission.KindSaleReceipt, "artifacts/2026/05/receipt2.png")
	assert.NoError(t, c.SubmissionRepo().Create(second), "sale receipts carry no post and should never collide")
}

func TestSlotOccupant(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	post := seedPost(t, c, ev.ID, "launch day")

	occ, err := c.SubmissionRepo().SlotOccupant(user.ID, post.ID)
	require.NoError(t, err)
	assert.Nil(t, occ, "a free slot should report no occupant")

	sub := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	occ, err = c.SubmissionRepo().SlotOccupant(user.ID, post.ID)
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.Equal(t, sub.ID, occ.ID)

	sub.Status = submission.StatusRejected
	require.NoError(t, c.SubmissionRepo().UpdateDecision(sub))

	occ, err = c.SubmissionRepo().SlotOccupant(user.ID, post.ID)
	require.NoError(t, err)
	assert.Nil(t, occ, "a rejected submission should not occupy the slot")
}

func TestCountApproved(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")

	for i := 0; i < 3; i++ {
		post := seedPost(t, c, ev.ID, fmt.Sprintf("post %d", i))
		sub := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)
		if i < 2 {
			sub.Status = submission.StatusApproved
			require.NoError(t, c.SubmissionRepo().UpdateDecision(sub))
		}
	}

	receipt := seedSubmission(t, c, ev, user, nil, submission.KindSaleReceipt)
	receipt.Status = submission.StatusApproved
	require.NoError(t, c.SubmissionRepo().UpdateDecision(receipt))

	posts, err := c.SubmissionRepo().CountApproved(user.ID, ev.ID, submission.KindContentPost)
	require.NoError(t, err)
	assert.Equal(t, 2, posts, "only approved content posts should count")

	sales, err := c.SubmissionRepo().CountApproved(user.ID, ev.ID, submission.KindSaleReceipt)
	require.NoError(t, err)
	assert.Equal(t, 1, sales)
}

func TestUpdateDecision(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	reviewer := seedUser(t, c, "Rita Reviewer", "rita")
	post := seedPost(t, c, ev.ID, "launch day")

	sub := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	now := time.Now().UTC().Truncate(time.Second)
	sub.Status = submission.StatusApproved
	sub.DecidedAt = &now
	sub.DecidedBy = &reviewer.ID
	require.NoError(t, c.SubmissionRepo().UpdateDecision(sub))

	got, err := c.SubmissionRepo().GetByID(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusApproved, got.Status)
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, reviewer.ID, *got.DecidedBy)
	assert.NotNil(t, got.DecidedAt)

	missing := submission.NewSubmission(ev.ID, user.ID, &post.ID, submission.KindContentPost, "artifacts/x.png")
	missing.Status = submission.StatusApproved
	err = c.SubmissionRepo().UpdateDecision(missing)
	var notFound *common.NotFoundError
	assert.ErrorAs(t, err, &notFound, "updating an unknown submission should report not found")
}

func TestRevertIntoOccupiedSlot(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	post := seedPost(t, c, ev.ID, "launch day")

	first := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)
	first.Status = submission.StatusRejected
	first.RejectionReason = "wrong post"
	require.NoError(t, c.SubmissionRepo().UpdateDecision(first))

	seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	first.Status = submission.StatusPending
	first.RejectionReason = ""
	err := c.SubmissionRepo().UpdateDecision(first)
	assert.ErrorIs(t, err, submission.ErrSlotOccupied, "reverting into an occupied slot should collide")
}

func TestGetByIDs(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	post := seedPost(t, c, ev.ID, "launch day")

	sub := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	subs, err := c.SubmissionRepo().GetByIDs([]uuid.UUID{sub.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, subs, 1, "unknown IDs should simply be absent")

	subs, err = c.SubmissionRepo().GetByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestRateCounterAcquireRelease(t *testing.T) {
	c := setupTestDB(t)
	ctx := context.Background()
	subject := uuid.New()
	window := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for want := 1; want <= 3; want++ {
		count, err := c.RateLimits().Acquire(ctx, subject, "submit", window)
		require.NoError(t, err)
		assert.Equal(t, want, count, "each acquire should bump the window counter")
	}

	require.NoError(t, c.RateLimits().Release(ctx, subject, "submit", window))

	count, err := c.RateLimits().Acquire(ctx, subject, "submit", window)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "a released slot should be reusable within the window")

	next := window.Add(time.Hour)
	count, err = c.RateLimits().Acquire(ctx, subject, "submit", next)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a new window should start counting from scratch")

	removed, err := c.RateLimits().PurgeBefore(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed, "only windows before the cutoff should be purged")
}

func TestParticipationRepository(t *testing.T) {
	c := setupTestDB(t)
	user := seedUser(t, c, "Ana Lima", "ana")
	ev := seedEvent(t, c)

	_, err := c.Participations().GetFor(user.ID, ev.ID)
	var notFound *common.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	require.NoError(t, c.Participations().EnsureActive(user.ID, ev.ID))
	require.NoError(t, c.Participations().EnsureActive(user.ID, ev.ID))

	p, err := c.Participations().GetFor(user.ID, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.ParticipationActive, p.Status)
	assert.Zero(t, p.CurrentPosts)

	p.Withdraw("left the program", time.Now())
	require.NoError(t, c.Participations().Save(p))

	require.NoError(t, c.Participations().EnsureActive(user.ID, ev.ID))
	p, err = c.Participations().GetFor(user.ID, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.ParticipationWithdrawn, p.Status, "EnsureActive should not resurrect a withdrawn record")
}

func TestParticipationUpsertColumnSeparation(t *testing.T) {
	c := setupTestDB(t)
	user := seedUser(t, c, "Ana Lima", "ana")
	ev := seedEvent(t, c)

	require.NoError(t, c.Participations().EnsureActive(user.ID, ev.ID))

	fromReconciler := progress.NewParticipation(user.ID, ev.ID)
	fromReconciler.CurrentPosts = 2
	fromReconciler.CurrentSales = 1
	fromReconciler.GoalAchieved = true
	require.NoError(t, c.Participations().SaveProgress(fromReconciler))

	withdrawn, err := c.Participations().GetFor(user.ID, ev.ID)
	require.NoError(t, err)
	withdrawn.Withdraw("travelling", time.Now())
	require.NoError(t, c.Participations().Save(withdrawn))

	again := progress.NewParticipation(user.ID, ev.ID)
	again.CurrentPosts = 3
	again.GoalAchieved = true
	require.NoError(t, c.Participations().SaveProgress(again))

	p, err := c.Participations().GetFor(user.ID, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentPosts, "reconciliation should update counters")
	assert.Equal(t, progress.ParticipationWithdrawn, p.Status, "reconciliation should not clobber the withdrawal")
	assert.Equal(t, "travelling", p.WithdrawnReason)
	assert.True(t, p.GoalAchieved)
}

func TestAuditHistoryOrdering(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	reviewer := seedUser(t, c, "Rita Reviewer", "rita")
	post := seedPost(t, c, ev.ID, "launch day")
	sub := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	steps := []struct {
		from, to submission.Status
		reason   string
	}{
		{submission.StatusPending, submission.StatusRejected, "blurry"},
		{submission.StatusRejected, submission.StatusPending, "second look"},
		{submission.StatusPending, submission.StatusApproved, ""},
	}
	for i, step := range steps {
		entry := &review.AuditEntry{
			SubmissionID: sub.ID,
			Action:       review.AuditActionTransition,
			ActorID:      reviewer.ID,
			FromStatus:   step.from,
			ToStatus:     step.to,
			Reason:       step.reason,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, c.Audit().Append(entry))
	}

	history, err := c.Audit().HistoryFor(sub.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, submission.StatusRejected, history[0].ToStatus, "history should read oldest first")
	assert.Equal(t, submission.StatusApproved, history[2].ToStatus)
	assert.Equal(t, "second look", history[1].Reason)
}

func TestContainerInTransactionRollsBack(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	reviewer := seedUser(t, c, "Rita Reviewer", "rita")
	post := seedPost(t, c, ev.ID, "launch day")
	sub := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	boom := errors.New("boom")
	err := c.InTransaction(func(tx review.Store) error {
		now := time.Now()
		sub.Status = submission.StatusApproved
		sub.DecidedAt = &now
		sub.DecidedBy = &reviewer.ID
		if err := tx.Submissions().UpdateDecision(sub); err != nil {
			return err
		}
		entry := &review.AuditEntry{
			SubmissionID: sub.ID,
			Action:       review.AuditActionTransition,
			ActorID:      reviewer.ID,
			FromStatus:   submission.StatusPending,
			ToStatus:     submission.StatusApproved,
		}
		if err := tx.Audit().Append(entry); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := c.SubmissionRepo().GetByID(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusPending, got.Status, "the decision should have rolled back")

	history, err := c.Audit().HistoryFor(sub.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "the audit entry should have rolled back with the decision")
}

func TestContainerInTransactionCommits(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	user := seedUser(t, c, "Ana Lima", "ana")
	reviewer := seedUser(t, c, "Rita Reviewer", "rita")
	post := seedPost(t, c, ev.ID, "launch day")
	sub := seedSubmission(t, c, ev, user, &post.ID, submission.KindContentPost)

	err := c.InTransaction(func(tx review.Store) error {
		now := time.Now()
		sub.Status = submission.StatusApproved
		sub.DecidedAt = &now
		sub.DecidedBy = &reviewer.ID
		if err := tx.Submissions().UpdateDecision(sub); err != nil {
			return err
		}
		return tx.Audit().Append(&review.AuditEntry{
			SubmissionID: sub.ID,
			Action:       review.AuditActionTransition,
			ActorID:      reviewer.ID,
			FromStatus:   submission.StatusPending,
			ToStatus:     submission.StatusApproved,
		})
	})
	require.NoError(t, err)

	got, err := c.SubmissionRepo().GetByID(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusApproved, got.Status)

	history, err := c.Audit().HistoryFor(sub.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReportFind(t *testing.T) {
	c := setupTestDB(t)
	ev := seedEvent(t, c)
	ana := seedUser(t, c, "Ana Lima", "ana")
	bea := seedUser(t, c, "Bea Souza", "bea")
	post := seedPost(t, c, ev.ID, "launch day")

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	anaSub := submission.NewSubmission(ev.ID, ana.ID, &post.ID, submission.KindContentPost, "artifacts/ana.png")
	anaSub.SubmittedAt = base
	require.NoError(t, c.SubmissionRepo().Create(anaSub))

	beaSub := submission.NewSubmission(ev.ID, bea.ID, &post.ID, submission.KindContentPost, "artifacts/bea.png")
	beaSub.SubmittedAt = base.Add(time.Hour)
	require.NoError(t, c.SubmissionRepo().Create(beaSub))

	receipt := submission.NewSubmission(ev.ID, ana.ID, nil, submission.KindSaleReceipt, "artifacts/receipt.png")
	receipt.SubmittedAt = base.Add(2 * time.Hour)
	require.NoError(t, c.SubmissionRepo().Create(receipt))

	require.NoError(t, c.Participations().EnsureActive(ana.ID, ev.ID))

	records, total, err := c.Reports().Find(report.Filter{EventID: &ev.ID, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 3)
	assert.Equal(t, receipt.ID, records[0].Submission.ID, "newest submission should come first")

	first := records[0]
	assert.Equal(t, "Ana Lima", first.SubmitterName)
	assert.Equal(t, "Summer Launch", first.EventName)
	assert.True(t, first.HasAutomaticGoal)
	require.NotNil(t, first.Participation, "ana has a participation record")
	assert.Empty(t, first.PostLabel, "a sale receipt targets no post")

	last := records[2]
	assert.Equal(t, anaSub.ID, last.Submission.ID)
	assert.Equal(t, "launch day", last.PostLabel)

	kind := submission.KindContentPost
	records, total, err = c.Reports().Find(report.Filter{Kind: &kind, SubmitterQuery: "BEA", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, beaSub.ID, records[0].Submission.ID)
	assert.Nil(t, records[0].Participation, "bea never got a participation record")

	records, total, err = c.Reports().Find(report.Filter{EventID: &ev.ID, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "the total should ignore pagination")
	assert.Len(t, records, 1, "page two holds the remainder")

	all, err := c.Reports().FindAll(report.Filter{EventID: &ev.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3, "FindAll should ignore pagination entirely")
}

func TestUserRepositoryDuplicateHandle(t *testing.T) {
	c := setupTestDB(t)
	seedUser(t, c, "Ana Lima", "ana")

	dup := participant.NewUser("Another Ana", "ana", "other@example.com")
	dup.PasswordHash = "not-a-real-hash"
	err := c.Users().Create(dup)
	var validation *common.ValidationError
	assert.ErrorAs(t, err, &validation, "a duplicate handle should be a validation failure")
}
