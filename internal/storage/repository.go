package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

type Repository interface {
	SaveProblem(ctx context.Context, record *ProblemRecord) error

	GetProblemsByUser(ctx context.Context, userID string) ([]ProblemRecord, error)

	GetRecentProblems(ctx context.Context, userID string, since time.Time) ([]ProblemRecord, error)

	GetUserStats(ctx context.Context, userID string) (*UserStats, error)

	// CountSolved returns how many problems the user has solved so far.
	CountSolved(ctx context.Context, userID string) (int, error)

	Close() error
}

type UserStats struct {
	TotalProblems   int     `json:"totalProblems"`
	SolvedCount     int     `json:"solvedCount"`
	TimeoutCount    int     `json:"timeoutCount"`
	SkippedCount    int     `json:"skippedCount"`
	AverageMistakes float64 `json:"averageMistakes"`
	SolveRate       float64 `json:"solveRate"`
}

func (s *UserStats) finish() {
	if s.TotalProblems > 0 {
		s.SolveRate = float64(s.SolvedCount) / float64(s.TotalProblems) * 100
	}
}

// Open returns the repository for driver: memory, sqlite or postgres.
func Open(driver, dsn string) (Repository, error) {
	switch driver {
	case "", "memory":
		return NewMemoryRepository(), nil
	case "sqlite", "sqlite3":
		if dsn == "" {
			dsn = "divdrill.db"
		}
		return NewSQLiteRepository(dsn)
	case "postgres":
		return NewPostgresRepository(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
