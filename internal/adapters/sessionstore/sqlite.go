package sessionstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/dkeye/HelpWave/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_fields (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const opTimeout = 2 * time.Second

// SQLiteStore keeps the fields in a small key/value table. Save and Clear
// each run in one transaction so a partial set is never observable.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(sess domain.Session) {
	if err := s.save(sess); err != nil {
		log.Error().Err(err).Str("module", "sessionstore").Msg("save failed")
	}
}

func (s *SQLiteStore) Load() (domain.Session, bool) {
	fields, err := s.load()
	if err != nil {
		log.Error().Err(err).Str("module", "sessionstore").Msg("load failed")
		return domain.Session{}, false
	}
	return decode(fields)
}

func (s *SQLiteStore) Clear() {
	if err := s.clear(); err != nil {
		log.Error().Err(err).Str("module", "sessionstore").Msg("clear failed")
	}
}

func (s *SQLiteStore) save(sess domain.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for k, v := range encode(sess) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO session_fields (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			k, v,
		); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) load() (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM session_fields")
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fields: %w", err)
	}
	return fields, nil
}

func (s *SQLiteStore) clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM session_fields WHERE key = ?", k); err != nil {
			return fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
