package domain

import "testing"

func TestParseTimeLimit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "plain", raw: "45", want: 45},
		{name: "non digits stripped", raw: "3s0", want: 30},
		{name: "negative sign dropped", raw: "-5", want: 5},
		{name: "empty", raw: "", want: FallbackTimeLimit},
		{name: "letters only", raw: "abc", want: FallbackTimeLimit},
		{name: "zero", raw: "0", want: FallbackTimeLimit},
		{name: "leading zeros", raw: "007", want: 7},
		{name: "above one day", raw: "90000", want: MaxTimeLimit},
		{name: "overflows int", raw: "99999999999999999999999999", want: MaxTimeLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTimeLimit(tt.raw); got != tt.want {
				t.Fatalf("ParseTimeLimit(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClampTimeLimit(t *testing.T) {
	if got := ClampTimeLimit(-3); got != FallbackTimeLimit {
		t.Fatalf("ClampTimeLimit(-3) = %d", got)
	}
	if got := ClampTimeLimit(1); got != 1 {
		t.Fatalf("ClampTimeLimit(1) = %d", got)
	}
	if got := ClampTimeLimit(MaxTimeLimit + 1); got != MaxTimeLimit {
		t.Fatalf("ClampTimeLimit(MaxTimeLimit+1) = %d", got)
	}
}
