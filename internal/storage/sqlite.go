package storage

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	sqlRepository
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	repo := &SQLiteRepository{sqlRepository{db: db}}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
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
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		steps_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_problems_user_id ON problems(user_id);
	CREATE INDEX IF NOT EXISTS idx_problems_finished_at ON problems(finished_at);
	`

	_, err := r.db.Exec(schema)
	return err
}
