// Package storage holds the robot's key/value persistence: the Adapter
// contract callbacks read and write through, plus memory, JSON file and
// SQLite backed implementations.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Driver names accepted by Open.
const (
	DriverMemory  = "memory"
	DriverFile    = "file"
	DriverSQLite  = "sqlite"  // pure Go, modernc.org/sqlite
	DriverSQLite3 = "sqlite3" // cgo, github.com/mattn/go-sqlite3
)

// Adapter is a string key/value store with last-write-wins semantics.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Get returns the value last stored under key, or errs.ErrMissingData
	// if nothing was ever stored there.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Open returns the adapter for driver. path is the backing file for the
// file and SQLite drivers and is ignored for memory.
func Open(driver, path string) (Adapter, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStorage(), nil
	case DriverFile:
		return NewFileStorage(path)
	case DriverSQLite, DriverSQLite3:
		return NewSQLStorage(driver, path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Close releases a if it holds resources.
func Close(a Adapter) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
