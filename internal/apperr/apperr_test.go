package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "order not found")
	assert.Equal(t, KindNotFound, KindOf(err))

	// kind survives wrapping through fmt.Errorf chains
	wrapped := fmt.Errorf("handling request: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))

	// errors without a kind read as storage failures
	assert.Equal(t, KindStorageFailure, KindOf(errors.New("broken pipe")))
	assert.False(t, Is(errors.New("broken pipe"), KindNotFound))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindStorageFailure, "insert order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert order")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWithField(t *testing.T) {
	err := New(KindValidation, "bad input").
		WithField("quantity", "must be positive").
		WithField("pickup_at", "must be in the future")

	assert.Equal(t, "must be positive", err.Fields["quantity"])
	assert.Equal(t, "must be in the future", err.Fields["pickup_at"])
	assert.Equal(t, KindValidation, KindOf(err))
}
