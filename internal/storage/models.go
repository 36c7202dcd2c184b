package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/hperssn/divdrill/internal/domain"
)

type Outcome string

const (
	OutcomeSolved  Outcome = "solved"
	OutcomeTimeout Outcome = "timeout"
	OutcomeSkipped Outcome = "skipped"
)

type ProblemRecord struct {
	ID         string       `json:"id"`
	DrillID    string       `json:"drillId"`
	UserID     string       `json:"userId"`
	Divisor    int          `json:"divisor"`
	Dividend   int          `json:"dividend"`
	Outcome    Outcome      `json:"outcome"`
	Mistakes   int          `json:"mistakes"`
	Answered   int          `json:"answered"` // steps answered before the problem ended
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Steps      []StepRecord `json:"steps"`
}

type StepRecord struct {
	Index         int `json:"index"`
	CurrentValue  int `json:"currentValue"`
	QuotientDigit int `json:"quotientDigit"`
	Remainder     int `json:"remainder"`
}

// FromDomainSession converts a finished domain.Session to a ProblemRecord
func FromDomainSession(s *domain.Session, drillID string, outcome Outcome) *ProblemRecord {
	steps := make([]StepRecord, len(s.Problem.Steps))
	for i, step := range s.Problem.Steps {
		steps[i] = StepRecord{
			Index:         step.Index,
			CurrentValue:  step.CurrentValue,
			QuotientDigit: step.QuotientDigit,
			Remainder:     step.Remainder,
		}
	}

	finished := s.CompletedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	return &ProblemRecord{
		ID:         uuid.New().String(),
		DrillID:    drillID,
		UserID:     s.UserID,
		Divisor:    s.Problem.Divisor,
		Dividend:   s.Problem.Dividend,
		Outcome:    outcome,
		Mistakes:   s.Mistakes,
		Answered:   s.Cursor,
		StartedAt:  s.StartedAt,
		FinishedAt: finished,
		Steps:      steps,
	}
}
