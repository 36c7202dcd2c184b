package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// sqlRepository holds the queries shared by the sqlite and postgres
// repositories. Queries are written with ? placeholders and rebound for
// dialects that number them.
type sqlRepository struct {
	db       *sql.DB
	numbered bool
}

func (r *sqlRepository) bind(query string) string {
	if !r.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *sqlRepository) SaveProblem(ctx context.Context, record *ProblemRecord) error {
	stepsJSON, err := json.Marshal(record.Steps)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO problems (id, drill_id, user_id, divisor, dividend, outcome, mistakes, answered, started_at, finished_at, steps_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		r.bind(query),
		record.ID,
		record.DrillID,
		record.UserID,
		record.Divisor,
		record.Dividend,
		record.Outcome,
		record.Mistakes,
		record.Answered,
		record.StartedAt,
		record.FinishedAt,
		string(stepsJSON),
	)
	if err != nil {
		return fmt.Errorf("save problem %s: %w", record.ID, err)
	}

	return nil
}

func (r *sqlRepository) GetProblemsByUser(ctx context.Context, userID string) ([]ProblemRecord, error) {
	query := `
		SELECT id, drill_id, user_id, divisor, dividend, outcome, mistakes, answered, started_at, finished_at, steps_json
		FROM problems
		WHERE user_id = ?
		ORDER BY finished_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.bind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProblems(rows)
}

func (r *sqlRepository) GetRecentProblems(ctx context.Context, userID string, since time.Time) ([]ProblemRecord, error) {
	query := `
		SELECT id, drill_id, user_id, divisor, dividend, outcome, mistakes, answered, started_at, finished_at, steps_json
		FROM problems
		WHERE user_id = ? AND finished_at >= ?
		ORDER BY finished_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.bind(query), userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProblems(rows)
}

func (r *sqlRepository) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN outcome = 'solved' THEN 1 ELSE 0 END) as solved,
			SUM(CASE WHEN outcome = 'timeout' THEN 1 ELSE 0 END) as timeouts,
			SUM(CASE WHEN outcome = 'skipped' THEN 1 ELSE 0 END) as skipped,
			AVG(mistakes) as avg_mistakes
		FROM problems
		WHERE user_id = ?
	`

	var stats UserStats
	var solved, timeouts, skipped sql.NullInt64
	var avgMistakes sql.NullFloat64

	err := r.db.QueryRowContext(ctx, r.bind(query), userID).Scan(
		&stats.TotalProblems,
		&solved,
		&timeouts,
		&skipped,
		&avgMistakes,
	)
	if err != nil {
		return nil, err
	}

	stats.SolvedCount = int(solved.Int64)
	stats.TimeoutCount = int(timeouts.Int64)
	stats.SkippedCount = int(skipped.Int64)
	if avgMistakes.Valid {
		stats.AverageMistakes = avgMistakes.Float64
	}
	stats.finish()

	return &stats, nil
}

func (r *sqlRepository) CountSolved(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM problems WHERE user_id = ? AND outcome = 'solved'`

	var n int
	if err := r.db.QueryRowContext(ctx, r.bind(query), userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}

func scanProblems(rows *sql.Rows) ([]ProblemRecord, error) {
	var records []ProblemRecord

	for rows.Next() {
		var record ProblemRecord
		var stepsJSON string

		err := rows.Scan(
			&record.ID,
			&record.DrillID,
			&record.UserID,
			&record.Divisor,
			&record.Dividend,
			&record.Outcome,
			&record.Mistakes,
			&record.Answered,
			&record.StartedAt,
			&record.FinishedAt,
			&stepsJSON,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(stepsJSON), &record.Steps); err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}
