package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// LibSQL implements the Store interface using libsql
type LibSQL struct {
	db *sql.DB
}

// NewLibSQL creates a new LibSQL store
func NewLibSQL(url string) (*LibSQL, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &LibSQL{db: db}, nil
}

// Initialize creates the database schema
func (s *LibSQL) Initialize(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			from_version TEXT NOT NULL,
			to_version TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create cycles table: %w", err)
	}

	return nil
}

// BeginCycle records the start of a cycle and assigns its ID
func (s *LibSQL) BeginCycle(ctx context.Context, cycle *Cycle) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles (mode, from_version, to_version, started_at)
		VALUES (?, ?, ?, ?)
	`,
		cycle.Mode, cycle.FromVersion, cycle.ToVersion, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get cycle id: %w", err)
	}

	cycle.ID = id
	cycle.StartedAt = now
	return nil
}

// FinishCycle records a cycle's outcome
func (s *LibSQL) FinishCycle(ctx context.Context, id int64, outcome, errDetail string) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE cycles
		SET outcome = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, outcome, errDetail, now, id)
	if err != nil {
		return fmt.Errorf("failed to update cycle: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cycle not found: %d", id)
	}

	return nil
}

// ListCycles lists the most recent cycles, newest first
func (s *LibSQL) ListCycles(ctx context.Context, limit int) ([]*Cycle, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, from_version, to_version, outcome, error,
			   started_at, finished_at
		FROM cycles
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*Cycle
	for rows.Next() {
		cycle := &Cycle{}
		var finished sql.NullTime
		err := rows.Scan(
			&cycle.ID, &cycle.Mode, &cycle.FromVersion, &cycle.ToVersion,
			&cycle.Outcome, &cycle.Error, &cycle.StartedAt, &finished,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		if finished.Valid {
			cycle.FinishedAt = finished.Time
		}
		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycles: %w", err)
	}

	return cycles, nil
}

// Close closes the database connection
func (s *LibSQL) Close() error {
	return s.db.Close()
}
