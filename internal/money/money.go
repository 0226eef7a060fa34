// Package money handles decimal amounts at the wire boundary. All amounts
// cross the API as decimal strings; parsing must never fail a display path,
// so malformed input degrades to zero instead of returning an error.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal amount string. Missing or unparseable input
// yields zero so that rendering code never has to branch on bad server data.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount with exactly two decimal places. All
// arithmetic happens on decimals before this point; formatting is display
// only and never feeds back into a computation.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseQuantity parses a string-encoded item quantity, truncating any
// fractional part. Missing or invalid quantities parse to 0, which is the
// display default.
func ParseQuantity(s string) int {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}

// QuantityOrDefault returns q if positive, otherwise 1. Mutation paths
// (adding an item to an order) use this so an unset quantity means one unit,
// while display paths keep the zero from ParseQuantity.
func QuantityOrDefault(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}
