package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RandSource is the randomness the generator draws from. *rand.Rand
// satisfies it; tests pass scripted sources.
type RandSource interface {
	Intn(n int) int
}

// Range is an inclusive integer interval.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// ParseRange reads the "min-max" form used in configuration.
func ParseRange(s string) (Range, error) {
	loStr, hiStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, fmt.Errorf("%w: range %q must look like min-max", ErrInvalidRanges, s)
	}

	lo, err := strconv.Atoi(strings.TrimSpace(loStr))
	if err != nil {
		return Range{}, fmt.Errorf("%w: range %q: %v", ErrInvalidRanges, s, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(hiStr))
	if err != nil {
		return Range{}, fmt.Errorf("%w: range %q: %v", ErrInvalidRanges, s, err)
	}

	return Range{Min: lo, Max: hi}, nil
}

// Ranges bounds the sampled divisor and dividend.
type Ranges struct {
	DivisorMin     int     `json:"divisorMin" yaml:"divisorMin"`
	DivisorMax     int     `json:"divisorMax" yaml:"divisorMax"`
	DividendRanges []Range `json:"dividendRanges" yaml:"dividendRanges"`
}

// DefaultRanges is the elementary-school curriculum: one-digit divisors,
// two- or three-digit dividends.
var DefaultRanges = Ranges{
	DivisorMin: 2,
	DivisorMax: 9,
	DividendRanges: []Range{
		{Min: 10, Max: 99},
		{Min: 100, Max: 999},
	},
}

// Validate checks the bounds and that at least one pair in the sample space
// is accepted by the generator, so GenerateProblemIn always terminates.
func (rg Ranges) Validate() error {
	if rg.DivisorMin < 2 || rg.DivisorMax > 9 || rg.DivisorMin > rg.DivisorMax {
		return fmt.Errorf("%w: divisor range %d-%d must lie within 2-9", ErrInvalidRanges, rg.DivisorMin, rg.DivisorMax)
	}
	if len(rg.DividendRanges) == 0 {
		return fmt.Errorf("%w: no dividend ranges", ErrInvalidRanges)
	}

	for _, r := range rg.DividendRanges {
		if r.Min < 10 || r.Max > 999 || r.Min > r.Max {
			return fmt.Errorf("%w: dividend range %s must lie within 10-999", ErrInvalidRanges, r)
		}
	}

	// every range is drawn with equal probability, so each one needs an
	// accepting pair of its own
	for _, r := range rg.DividendRanges {
		if !rg.hasAcceptable(r) {
			return fmt.Errorf("%w: dividend range %s has no problem that needs borrowing", ErrInvalidRanges, r)
		}
	}

	return nil
}

func (rg Ranges) hasAcceptable(r Range) bool {
	for d := rg.DivisorMin; d <= rg.DivisorMax; d++ {
		for n := r.Min; n <= r.Max; n++ {
			if acceptable(d, n) {
				return true
			}
		}
	}
	return false
}

// Problem is a generated division exercise with its full worked solution.
type Problem struct {
	Divisor  int    `json:"divisor" yaml:"divisor"`
	Dividend int    `json:"dividend" yaml:"dividend"`
	Steps    []Step `json:"steps" yaml:"steps"`
}

func (p Problem) Quotient() int {
	return p.Dividend / p.Divisor
}

func (p Problem) Remainder() int {
	return p.Dividend % p.Divisor
}

// Digits returns the dividend's digit count.
func (p Problem) Digits() int {
	return len(strconv.Itoa(p.Dividend))
}

// GenerateProblem samples a problem from DefaultRanges.
func GenerateProblem(r RandSource) Problem {
	return GenerateProblemIn(r, DefaultRanges)
}

// GenerateProblemIn rejection-samples (divisor, dividend) pairs until the
// division leaves a final remainder and carries one across at least one
// intermediate digit. The loop has no attempt cap; custom ranges must pass
// Validate first.
func GenerateProblemIn(r RandSource, rg Ranges) Problem {
	for {
		divisor := rg.DivisorMin + r.Intn(rg.DivisorMax-rg.DivisorMin+1)

		span := rg.DividendRanges[r.Intn(len(rg.DividendRanges))]
		dividend := span.Min + r.Intn(span.Max-span.Min+1)

		if dividend%divisor == 0 {
			continue
		}

		steps := BuildSteps(divisor, dividend)
		if BorrowCount(steps) == 0 {
			continue
		}

		return Problem{
			Divisor:  divisor,
			Dividend: dividend,
			Steps:    steps,
		}
	}
}

func acceptable(divisor, dividend int) bool {
	if dividend%divisor == 0 {
		return false
	}
	return BorrowCount(BuildSteps(divisor, dividend)) > 0
}
