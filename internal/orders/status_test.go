package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusReceived, StatusInProgress},
		{StatusReceived, StatusCancelled},
		{StatusInProgress, StatusReady},
		{StatusInProgress, StatusCancelled},
		{StatusReady, StatusCompleted},
		{StatusReady, StatusCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to Status }{
		{StatusReceived, StatusReady},
		{StatusReceived, StatusCompleted},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusReceived},
		{StatusReady, StatusReceived},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusReceived},
		{StatusCancelled, StatusCompleted},
		{StatusReceived, StatusReceived},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusReceived.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusReady.Terminal())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusReceived, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusModifiable(t *testing.T) {
	assert.True(t, StatusReceived.Modifiable())
	assert.True(t, StatusInProgress.Modifiable())
	assert.False(t, StatusReady.Modifiable())
	assert.False(t, StatusCompleted.Modifiable())
	assert.False(t, StatusCancelled.Modifiable())
}

func TestPriorityValid(t *testing.T) {
	assert.True(t, PriorityNormal.Valid())
	assert.True(t, PriorityHigh.Valid())
	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, Priority("asap").Valid())
}
