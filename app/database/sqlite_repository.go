package database

import (
	"context"
	"fmt"
	"log/slog"
)

var _ SeenRepository = (*SQLiteRepository)(nil)

// SQLiteRepository stores seen-sets as rows of the seen_entries table.
type SQLiteRepository struct {
	db *DB
}

// NewSQLiteRepository opens the database at path and applies migrations.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := NewConnection(path)
	if err != nil {
		return nil, err
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Database migrations applied", "path", path, "version", version, "dirty", dirty)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Load(ctx context.Context, key string) (SeenSet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hash FROM seen_entries WHERE feed_key = ?
	`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen entries: %w", err)
	}
	defer rows.Close()

	seen := NewSeenSet()
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan seen entry: %w", err)
		}
		seen.Add(hash)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seen entries: %w", err)
	}

	return seen, nil
}

func (r *SQLiteRepository) Append(ctx context.Context, key string, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO seen_entries (feed_key, hash) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, hash := range hashes {
		if _, err := stmt.ExecContext(ctx, key, hash); err != nil {
			return fmt.Errorf("failed to insert seen entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seen entries: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
