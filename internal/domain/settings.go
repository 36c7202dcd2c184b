package domain

import (
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultTimeLimit  = 60
	FallbackTimeLimit = 10

	// MaxTimeLimit caps the per-problem limit at one day.
	MaxTimeLimit = 24 * 60 * 60
)

// ParseTimeLimit reads a per-problem limit in seconds from free text. All
// non-digit characters are dropped; an empty or non-positive result falls
// back to FallbackTimeLimit and anything above MaxTimeLimit, including digit
// runs too long for an int, is capped.
func ParseTimeLimit(raw string) int {
	digits := strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, raw)

	n, err := strconv.Atoi(digits)
	if errors.Is(err, strconv.ErrRange) {
		return MaxTimeLimit
	}
	if err != nil {
		return FallbackTimeLimit
	}
	return ClampTimeLimit(n)
}

// ClampTimeLimit applies the fallback to numeric input below one second and
// the cap to input above MaxTimeLimit.
func ClampTimeLimit(n int) int {
	switch {
	case n < 1:
		return FallbackTimeLimit
	case n > MaxTimeLimit:
		return MaxTimeLimit
	}
	return n
}
