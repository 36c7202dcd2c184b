package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session walks a single Problem step by step. A Session is never pointed
// at a different problem; callers build a new one instead.
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	Problem           Problem   `json:"problem"`
	Cursor            int       `json:"cursor"`
	LastInputWasWrong bool      `json:"lastInputWasWrong"`
	Mistakes          int       `json:"mistakes"`
	StartedAt         time.Time `json:"startedAt"`
	CompletedAt       time.Time `json:"completedAt,omitzero"`
}

// SubmitResult is the outcome of a single digit submission.
type SubmitResult struct {
	Correct   bool `json:"correct"`
	Completed bool `json:"completed"`
}

func NewSession(id string, userID string, p Problem) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	s := &Session{
		ID:     id,
		UserID: userID,
	}
	s.Initialize(p)

	return s
}

// Initialize points the cursor at the first step of p.
func (s *Session) Initialize(p Problem) {
	s.Problem = p
	s.Cursor = 0
	s.LastInputWasWrong = false
	s.Mistakes = 0
	s.StartedAt = time.Now()
	s.CompletedAt = time.Time{}
}

// SubmitDigit checks value against the current step's quotient digit.
// Values outside 0-9 are ignored without touching any state.
func (s *Session) SubmitDigit(value int) (SubmitResult, error) {
	if s.IsComplete() {
		return SubmitResult{}, ErrSessionComplete
	}
	if value < 0 || value > 9 {
		return SubmitResult{}, nil
	}

	if value != s.Problem.Steps[s.Cursor].QuotientDigit {
		s.LastInputWasWrong = true
		s.Mistakes++
		return SubmitResult{Correct: false, Completed: false}, nil
	}

	s.LastInputWasWrong = false
	s.Cursor++

	completed := s.IsComplete()
	if completed {
		s.CompletedAt = time.Now()
	}

	return SubmitResult{Correct: true, Completed: completed}, nil
}

// SubmitInput is the keystroke path: anything that is not a single digit
// is dropped as an incomplete entry.
func (s *Session) SubmitInput(raw string) (SubmitResult, error) {
	if s.IsComplete() {
		return SubmitResult{}, ErrSessionComplete
	}

	d, ok := ParseDigit(raw)
	if !ok {
		return SubmitResult{}, nil
	}
	return s.SubmitDigit(d)
}

func (s *Session) IsComplete() bool {
	return s.Cursor == len(s.Problem.Steps)
}

// ClearWrong resets the feedback flag once the UI has shown it.
func (s *Session) ClearWrong() {
	s.LastInputWasWrong = false
}

// CurrentStep returns the step awaiting an answer.
func (s *Session) CurrentStep() (Step, bool) {
	if s.IsComplete() {
		return Step{}, false
	}
	return s.Problem.Steps[s.Cursor], true
}

// RevealedSteps returns the steps already answered correctly.
func (s *Session) RevealedSteps() []Step {
	out := make([]Step, s.Cursor)
	copy(out, s.Problem.Steps[:s.Cursor])
	return out
}

// ParseDigit accepts exactly one ASCII digit, ignoring surrounding space.
func ParseDigit(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 1 || raw[0] < '0' || raw[0] > '9' {
		return 0, false
	}
	return int(raw[0] - '0'), true
}
