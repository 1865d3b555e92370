package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/openchatops/oco/internal/errs"
)

//go:embed schema.sql
var schema string

// SQLStorage keeps entries in the kv table of a SQLite database. The driver
// is either "sqlite" (modernc, no cgo) or "sqlite3" (mattn, cgo).
type SQLStorage struct {
	db     *sql.DB
	driver string
	path   string
}

// NewSQLStorage opens or creates the database at path and applies the
// schema. path ":memory:" opens a private in-memory database.
func NewSQLStorage(driver, path string) (*SQLStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("%s storage: empty path", driver)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errs.IO("mkdir "+filepath.Dir(path), err)
		}
	}

	dsn, err := sqliteDSN(driver, path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	slog.Debug("storage: database opened", "driver", driver, "path", path)
	return &SQLStorage{db: db, driver: driver, path: path}, nil
}

func sqliteDSN(driver, path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	switch driver {
	case DriverSQLite:
		return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	case DriverSQLite3:
		return path + "?_journal_mode=WAL&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func (s *SQLStorage) Driver() string { return s.driver }
func (s *SQLStorage) Path() string   { return s.path }

func (s *SQLStorage) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.ErrMissingData
	}
	if err != nil {
		return "", errs.IO("select "+key, err)
	}
	return v, nil
}

func (s *SQLStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return errs.IO("upsert "+key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
