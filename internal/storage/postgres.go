package storage

import (
	"database/sql"

	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	sqlRepository
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	repo := &PostgresRepository{sqlRepository{db: db, numbered: true}}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS problems (
		id TEXT PRIMARY KEY,
		drill_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		divisor INTEGER NOT NULL,
		dividend INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		mistakes INTEGER NOT NULL DEFAULT 0,
		answered INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		steps_json JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_problems_user_id ON problems(user_id);
	CREATE INDEX IF NOT EXISTS idx_problems_finished_at ON problems(finished_at);
	`

	_, err := r.db.Exec(schema)
	return err
}
