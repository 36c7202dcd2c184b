package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps records for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []ProblemRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) SaveProblem(_ context.Context, record *ProblemRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *record
	rec.Steps = append([]StepRecord(nil), record.Steps...)
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepository) GetProblemsByUser(ctx context.Context, userID string) ([]ProblemRecord, error) {
	return r.GetRecentProblems(ctx, userID, time.Time{})
}

func (r *MemoryRepository) GetRecentProblems(_ context.Context, userID string, since time.Time) ([]ProblemRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ProblemRecord
	for _, rec := range r.records {
		if rec.UserID != userID || rec.FinishedAt.Before(since) {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	return out, nil
}

func (r *MemoryRepository) GetUserStats(_ context.Context, userID string) (*UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats UserStats
	mistakes := 0
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}

		stats.TotalProblems++
		mistakes += rec.Mistakes
		switch rec.Outcome {
		case OutcomeSolved:
			stats.SolvedCount++
		case OutcomeTimeout:
			stats.TimeoutCount++
		case OutcomeSkipped:
			stats.SkippedCount++
		}
	}

	if stats.TotalProblems > 0 {
		stats.AverageMistakes = float64(mistakes) / float64(stats.TotalProblems)
	}
	stats.finish()

	return &stats, nil
}

func (r *MemoryRepository) CountSolved(ctx context.Context, userID string) (int, error) {
	stats, err := r.GetUserStats(ctx, userID)
	if err != nil {
		return 0, err
	}
	return stats.SolvedCount, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
