package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/supercycler/internal/logic"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLite stores entries in a SQLite database.
type SQLite struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, log zerolog.Logger) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}

	log.Debug().Str("path", path).Msg("history database ready")
	return &SQLite{db: db, log: log}, nil
}

// Append inserts e. A zero timestamp is replaced with the current time.
func (s *SQLite) Append(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands(at, state, mode, ok, err) VALUES(?,?,?,?,?)`,
		e.At.UTC().Format(time.RFC3339Nano), string(e.State), e.Mode, e.OK, nullStr(e.Error),
	)
	if err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns everything.
func (s *SQLite) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = -1 // LIMIT -1 means no limit in SQLite
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, state, mode, ok, err FROM commands ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			at    string
			state string
			e     Entry
			msg   sql.NullString
		)
		if err := rows.Scan(&at, &state, &e.Mode, &e.OK, &msg); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			s.log.Warn().Str("at", at).Msg("history: unparseable timestamp")
		}
		e.State = logic.State(state)
		e.Error = msg.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
