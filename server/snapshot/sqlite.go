package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"questline/server/snapshot/migrations"
)

// SQLiteStore keeps snapshots in a single SQLite table keyed by user and kind.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database at path and applies the embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, userID string, kind Kind) ([]byte, error) {
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", kind, err)
	}
	return payload, nil
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, kind Kind, payload []byte) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO snapshots (user_id, kind, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, kind) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, string(kind), payload, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", kind, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID string, kind Kind) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM snapshots WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	); err != nil {
		return fmt.Errorf("delete %s snapshot: %w", kind, err)
	}
	return nil
}
