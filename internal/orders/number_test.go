package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "ORD-2025-0001", FormatNumber(2025, 1))
	assert.Equal(t, "ORD-2025-0042", FormatNumber(2025, 42))
	assert.Equal(t, "ORD-2026-9999", FormatNumber(2026, 9999))
	// the pad is a minimum width, large sequences keep all digits
	assert.Equal(t, "ORD-2025-12345", FormatNumber(2025, 12345))
}
