package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}

	assert.False(t, Status("shipped").Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("RECEIVED").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCanceled.Terminal())

	for _, s := range []Status{StatusReceived, StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery} {
		assert.False(t, s.Terminal(), "expected %s to be non-terminal", s)
	}
}

func TestStatusStepIndex(t *testing.T) {
	ordered := []Status{StatusReceived, StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery, StatusCompleted}

	for i, s := range ordered {
		assert.Equal(t, i, s.StepIndex())
	}

	assert.Equal(t, -1, StatusCanceled.StepIndex())
	assert.Equal(t, -1, Status("shipped").StepIndex())
}

func TestStatusStageColumn(t *testing.T) {
	assert.Equal(t, "", StatusReceived.StageColumn())
	assert.Equal(t, "", StatusCanceled.StageColumn())

	assert.Equal(t, "confirmed_at", StatusConfirmed.StageColumn())
	assert.Equal(t, "prepared_at", StatusPreparing.StageColumn())
	assert.Equal(t, "ready_at", StatusReady.StageColumn())
	assert.Equal(t, "out_for_delivery_at", StatusOutForDelivery.StageColumn())
	assert.Equal(t, "completed_at", StatusCompleted.StageColumn())
}

func TestNewShortID(t *testing.T) {
	id, err := NewShortID("ALP")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "ALP-"))
	assert.Len(t, id, len("ALP-")+shortIDLength)

	code := strings.TrimPrefix(id, "ALP-")
	for _, r := range code {
		assert.Contains(t, shortIDAlphabet, string(r))
	}

	// collisions across a handful of draws would point at a broken generator
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewShortID("ALP")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate short id %s", id)
		seen[id] = true
	}
}

func TestOrderTopic(t *testing.T) {
	assert.Equal(t, "order-ALP-1A2B3C", OrderTopic("ALP-1A2B3C"))
}
