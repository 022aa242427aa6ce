package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending can be approved", StatusPending, StatusApproved, true},
		{"pending can be rejected", StatusPending, StatusRejected, true},
		{"approved can revert to pending", StatusApproved, StatusPending, true},
		{"rejected can revert to pending", StatusRejected, StatusPending, true},
		{"approved cannot go straight to rejected", StatusApproved, StatusRejected, false},
		{"rejected cannot go straight to approved", StatusRejected, StatusApproved, false},
		{"pending cannot transition to itself", StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusOccupying(t *testing.T) {
	assert.True(t, StatusPending.Occupying(), "pending submissions hold their slot")
	assert.True(t, StatusApproved.Occupying(), "approved submissions hold their slot")
	assert.False(t, StatusRejected.Occupying(), "rejection frees the slot")
}

func TestStatusFromString(t *testing.T) {
	status, ok := StatusFromString("approved")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, status)

	_, ok = StatusFromString("archived")
	assert.False(t, ok)
}

func TestKindFields(t *testing.T) {
	content := KindContentPost.Fields()
	assert.True(t, content.NeedsPost)
	assert.True(t, content.SlotLimited)
	assert.True(t, content.CountsAsPost)
	assert.False(t, content.CountsAsSale)
	assert.False(t, content.NeedsFollowerBracket)

	sale := KindSaleReceipt.Fields()
	assert.False(t, sale.NeedsPost, "sale receipts are not bound to a post slot")
	assert.False(t, sale.SlotLimited)
	assert.True(t, sale.CountsAsSale)

	profile := KindProfileVerification.Fields()
	assert.True(t, profile.NeedsPost)
	assert.True(t, profile.SlotLimited)
	assert.True(t, profile.NeedsFollowerBracket)
	assert.True(t, profile.NeedsProfileShot)
	assert.False(t, profile.CountsAsPost, "profile verifications never count toward the post goal")
}

func TestSubmissionValidate(t *testing.T) {
	sub := NewSubmission(newUUID(t), newUUID(t), nil, KindSaleReceipt, "artifacts/key")
	assert.NoError(t, sub.Validate())

	missingPost := NewSubmission(newUUID(t), newUUID(t), nil, KindContentPost, "artifacts/key")
	assert.Error(t, missingPost.Validate(), "content posts must target a post slot")

	missingArtifact := NewSubmission(newUUID(t), newUUID(t), nil, KindSaleReceipt, "")
	assert.Error(t, missingArtifact.Validate())

	strayPost := newUUID(t)
	saleWithPost := NewSubmission(newUUID(t), newUUID(t), &strayPost, KindSaleReceipt, "artifacts/key")
	assert.Error(t, saleWithPost.Validate(), "sale receipts must not reference a post slot")
}
