// Package core holds the shop domain model and the pure aggregation logic:
// invoice grouping, per-user debt summaries and the shopping cart.
//
// This file contains parsing and formatting for monetary amounts. Amounts
// are whole Vietnamese đồng held as int64; there is no fractional unit.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-entered amount string to đồng.
//
// Thousands separators (dots, commas, spaces) are tolerated. Signs are not:
// amounts entered in forms are magnitudes, and a leading minus is a
// validation error caught before any request is sent.
//
// Examples:
//
//	ParseAmount("150000")  -> 150000, nil
//	ParseAmount("150.000") -> 150000, nil
//	ParseAmount("-5")      -> 0, ErrInvalidAmount
//	ParseAmount("")        -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == ',' || r == ' ':
			// separator
		default:
			return 0, ErrInvalidAmount
		}
	}
	if b.Len() == 0 {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// String formats the amount with dot thousands separators and the currency
// suffix, e.g. 1500000 -> "1.500.000 VND". Display only; calculations stay
// on the raw int64.
func (m Money) String() string {
	neg := m.Amount < 0
	v := m.Amount
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte('.')
		}
	}
	b.WriteString(" VND")
	return b.String()
}
