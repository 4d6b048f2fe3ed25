// Package sheets stores report tables as named sheets of rows, upserting by row key.
package sheets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver

	"agile-analytics/internal/report"
)

// Backend names a storage engine for sheets.
type Backend string

const (
	SQLiteBackend   Backend = "sqlite"
	PostgresBackend Backend = "postgres"
	MySQLBackend    Backend = "mysql"
	NoneBackend     Backend = "none"
)

var (
	// ErrUnsupportedBackend is returned for backend names outside the known set.
	ErrUnsupportedBackend = errors.New("unsupported sheet backend")
	// ErrEmptySheetName is returned when no sheet name was given.
	ErrEmptySheetName = errors.New("sheet name is required")
)

// ParseBackend validates a backend name. Empty means none.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return NoneBackend, nil
	case "postgresql":
		return PostgresBackend, nil
	case SQLiteBackend, PostgresBackend, MySQLBackend, NoneBackend:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q (expected sqlite, postgres, mysql or none)", ErrUnsupportedBackend, s)
}

// Store upserts report tables into named sheets.
type Store struct {
	db      *sql.DB
	backend Backend
	now     func() time.Time
}

// Open connects to the backend and brings the schema up to date.
// The none backend returns a store that accepts and discards every write.
func Open(ctx context.Context, backend Backend, dsn string) (*Store, error) {
	if backend == NoneBackend {
		return &Store{backend: backend, now: time.Now}, nil
	}

	if err := Migrate(backend, dsn, -1); err != nil {
		return nil, err
	}

	db, err := openDB(backend, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s sheet store: %w", backend, err)
	}

	return &Store{db: db, backend: backend, now: time.Now}, nil
}

func openDB(backend Backend, dsn string) (*sql.DB, error) {
	var driverName string
	switch backend {
	case SQLiteBackend:
		driverName = "sqlite"
	case PostgresBackend:
		driverName = "pgx"
	case MySQLBackend:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s sheet store: %w", backend, err)
	}
	if backend == SQLiteBackend {
		// A single connection avoids "database is locked" errors
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Backend reports which engine the store writes to.
func (s *Store) Backend() Backend {
	return s.backend
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert writes every row of the report into the sheet, creating the sheet when it
// does not exist. Rows are keyed by their first cell: existing rows are replaced,
// rows from earlier runs that this report does not cover are kept.
// It returns the id recorded against the written rows.
func (s *Store) Upsert(ctx context.Context, sheet string, rep report.Report) (string, error) {
	if strings.TrimSpace(sheet) == "" {
		return "", ErrEmptySheetName
	}
	runID := uuid.NewString()
	if s.db == nil {
		return runID, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().Unix()
	if _, err := tx.ExecContext(ctx, s.createSheetQuery(), sheet, now); err != nil {
		return "", fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	upsert := s.upsertRowQuery()
	for i, row := range rep.Strings() {
		if len(row) == 0 {
			continue
		}
		cells, err := json.Marshal(row)
		if err != nil {
			return "", err
		}
		position := 1
		if i == 0 {
			position = 0 // header stays on top
		}
		if _, err := tx.ExecContext(ctx, upsert, sheet, row[0], position, string(cells), runID, now); err != nil {
			return "", fmt.Errorf("failed to upsert row %q into sheet %q: %w", row[0], sheet, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	log.Info().Str("sheet", sheet).Str("backend", string(s.backend)).Str("run", runID).Int("rows", len(rep.Table)).Msg("Upserted report into sheet")
	return runID, nil
}

// Rows returns the sheet's rows, header first, data rows ordered by key.
func (s *Store) Rows(ctx context.Context, sheet string) ([][]string, error) {
	if s.db == nil {
		return nil, nil
	}

	query := s.rebind(`SELECT cells FROM sheet_rows WHERE sheet_name = ? ORDER BY position, row_key`)
	rows, err := s.db.QueryContext(ctx, query, sheet)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("corrupt row in sheet %q: %w", sheet, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

// Sheets lists sheet names in alphabetical order.
func (s *Store) Sheets(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sheets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) createSheetQuery() string {
	switch s.backend {
	case MySQLBackend:
		return `INSERT IGNORE INTO sheets (name, created_at) VALUES (?, ?)`
	default:
		return s.rebind(`INSERT INTO sheets (name, created_at) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`)
	}
}

func (s *Store) upsertRowQuery() string {
	switch s.backend {
	case MySQLBackend:
		return `INSERT INTO sheet_rows (sheet_name, row_key, position, cells, run_id, updated_at) VALUES (?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE position = new.position, cells = new.cells, run_id = new.run_id, updated_at = new.updated_at`
	default:
		return s.rebind(`INSERT INTO sheet_rows (sheet_name, row_key, position, cells, run_id, updated_at) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (sheet_name, row_key) DO UPDATE SET position = excluded.position, cells = excluded.cells, run_id = excluded.run_id, updated_at = excluded.updated_at`)
	}
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.backend != PostgresBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
