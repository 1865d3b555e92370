package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchatops/oco/internal/errs"
)

// openEach returns one fresh adapter per driver. The cgo driver is skipped
// when the binary was built without cgo.
func openEach(t *testing.T) map[string]Adapter {
	t.Helper()
	dir := t.TempDir()
	out := map[string]Adapter{}
	for _, driver := range []string{DriverMemory, DriverFile, DriverSQLite, DriverSQLite3} {
		path := filepath.Join(dir, driver+".db")
		if driver == DriverFile {
			path = filepath.Join(dir, "kv.json")
		}
		a, err := Open(driver, path)
		if err != nil && driver == DriverSQLite3 && strings.Contains(err.Error(), "CGO") {
			t.Logf("skipping %s: %v", driver, err)
			continue
		}
		require.NoError(t, err, driver)
		t.Cleanup(func() { _ = Close(a) })
		out[driver] = a
	}
	return out
}

func TestAdapters_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, a := range openEach(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, a.Set(ctx, "greeting", "hello"))
			v, err := a.Get(ctx, "greeting")
			require.NoError(t, err)
			assert.Equal(t, "hello", v)

			require.NoError(t, a.Set(ctx, "greeting", "bonjour"))
			v, err = a.Get(ctx, "greeting")
			require.NoError(t, err)
			assert.Equal(t, "bonjour", v, "last write wins")

			require.NoError(t, a.Set(ctx, "empty", ""))
			v, err = a.Get(ctx, "empty")
			require.NoError(t, err)
			assert.Equal(t, "", v)
		})
	}
}

func TestAdapters_MissingKey(t *testing.T) {
	for name, a := range openEach(t) {
		t.Run(name, func(t *testing.T) {
			_, err := a.Get(context.Background(), "never-set")
			assert.True(t, errors.Is(err, errs.ErrMissingData), "got %v", err)
		})
	}
}

func TestAdapters_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	for name, a := range openEach(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, a.Set(ctx, fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)))
				}(i)
			}
			wg.Wait()
			for i := 0; i < 8; i++ {
				v, err := a.Get(ctx, fmt.Sprintf("k%d", i))
				require.NoError(t, err)
				assert.Equal(t, fmt.Sprintf("v%d", i), v)
			}
		})
	}
}

func TestFileStorage_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.json")

	fs, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, fs.Set(ctx, "deploy:last", "v1.2.3"))

	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, "deploy:last")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFileStorage(path)
	assert.Error(t, err)
}

func TestSQLStorage_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLStorage(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "owner", "alice"))
	require.NoError(t, s.Close())

	s, err = NewSQLStorage(DriverSQLite, path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("redis", "")
	assert.Error(t, err)
}

func TestOpen_DefaultsToMemory(t *testing.T) {
	a, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, a)
	assert.NoError(t, Close(a))
}
