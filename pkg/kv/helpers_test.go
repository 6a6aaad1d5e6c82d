package kv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var testOptions = []Option{WithCacheSize(1 << 20), WithMemTableSize(1 << 20)}

// tempPath returns a fresh, not yet existing path in canonical form.
func tempPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return filepath.Join(dir, name)
}

func openTestDB(t *testing.T, path string, opts ...Option) *DB {
	t.Helper()
	d, err := OpenDefault(path, append(testOptions, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

type pair struct {
	key, value string
}

func drain(t *testing.T, it *Iterator) []pair {
	t.Helper()
	var out []pair
	for it.Next() {
		out = append(out, pair{string(it.Key()), string(it.Value())})
	}
	require.NoError(t, it.Err())
	return out
}

func checkpointDirs(t *testing.T, secondary string) []string {
	t.Helper()
	entries, err := os.ReadDir(secondary)
	require.NoError(t, err)
	var dirs []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), checkpointPrefix) {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}
