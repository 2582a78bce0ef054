package orders

import "fmt"

// FormatNumber renders the human-readable order number, e.g. ORD-2025-0001.
// Sequences are scoped per (shop, year) and assigned transactionally.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%04d", year, seq)
}
