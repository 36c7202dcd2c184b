package domain

// Step is one digit position of a worked long division.
type Step struct {
	Index         int  `json:"index" yaml:"index"`
	CurrentValue  int  `json:"currentValue" yaml:"currentValue"`
	QuotientDigit int  `json:"quotientDigit" yaml:"quotientDigit"`
	Subtrahend    int  `json:"subtrahend" yaml:"subtrahend"`
	Remainder     int  `json:"remainder" yaml:"remainder"`
	BroughtDown   *int `json:"broughtDown" yaml:"broughtDown"`
}

// HasBroughtDown reports whether a dividend digit follows this step.
func (s Step) HasBroughtDown() bool {
	return s.BroughtDown != nil
}

// BuildSteps decomposes dividend / divisor into per-digit steps. Leading
// digits whose running value stays below the divisor are folded into the
// first step, the way the quotient is written in school notation.
func BuildSteps(divisor, dividend int) []Step {
	digits := digitsOf(dividend)
	start := startIndex(digits, divisor)

	steps := make([]Step, 0, len(digits)-start)

	current := 0
	for i := 0; i < start; i++ {
		current = current*10 + digits[i]
	}

	for i := start; i < len(digits); i++ {
		current = current*10 + digits[i]

		q := current / divisor
		sub := q * divisor
		step := Step{
			Index:         i,
			CurrentValue:  current,
			QuotientDigit: q,
			Subtrahend:    sub,
			Remainder:     current - sub,
		}
		if i+1 < len(digits) {
			next := digits[i+1]
			step.BroughtDown = &next
		}

		steps = append(steps, step)
		current = step.Remainder
	}

	return steps
}

// BorrowCount returns how many steps before the last leave a non-zero
// remainder that has to be carried into the next digit.
func BorrowCount(steps []Step) int {
	n := 0
	for i := 0; i < len(steps)-1; i++ {
		if steps[i].Remainder != 0 {
			n++
		}
	}
	return n
}

func startIndex(digits []int, divisor int) int {
	value := 0
	for i, d := range digits {
		value = value*10 + d
		if value >= divisor {
			return i
		}
	}
	return len(digits) - 1
}

func digitsOf(n int) []int {
	if n == 0 {
		return []int{0}
	}

	var rev []int
	for n > 0 {
		rev = append(rev, n%10)
		n /= 10
	}

	digits := make([]int, len(rev))
	for i, d := range rev {
		digits[len(rev)-1-i] = d
	}
	return digits
}
