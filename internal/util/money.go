package util

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmountCent converts a decimal amount string ("150.75") into
// cents. Amounts are handled as decimals end to end; float arithmetic
// would lose cents on round-trips.
func ParseAmountCent(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	return cents.IntPart(), nil
}

// FormatCent renders cents as a two-decimal amount string.
func FormatCent(cent int64) string {
	return decimal.New(cent, -2).StringFixed(2)
}
