package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract 对所有实现运行同一组行为检查。
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "image_presets", `[{"name":"Default"}]`))
	v, ok, err := s.Get(ctx, "image_presets")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Default"}]`, v)

	require.NoError(t, s.Set(ctx, "image_presets", `[]`), "overwrite existing key")
	v, _, err = s.Get(ctx, "image_presets")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, SetJSON(ctx, s, KeyCurrency, "SEK"))
	cur, err := Currency(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "SEK", cur)

	require.NoError(t, SetJSON(ctx, s, KeyBaseURL, "https://spoolman.local/ "))
	base, err := BaseURL(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "https://spoolman.local", base)

	require.NoError(t, s.Close())
	_, _, err = s.Get(ctx, "image_presets")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), ErrClosed)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemory())
}

func TestMemorySnapshotIsCopy(t *testing.T) {
	m := NewMemory()
	require.NoError(t, SetJSON(context.Background(), m, KeyCurrency, "EUR"))
	snap := m.Snapshot()
	assert.Equal(t, map[string]string{KeyCurrency: `"EUR"`}, snap)
	snap[KeyCurrency] = "changed"
	v, _, err := m.Get(context.Background(), KeyCurrency)
	require.NoError(t, err)
	assert.Equal(t, `"EUR"`, v)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s, err := OpenFile(path)
	require.NoError(t, err)
	storeContract(t, s)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(context.Background(), KeyCurrency)
	require.NoError(t, err)
	assert.True(t, ok, "values persist across reopen")
	assert.Equal(t, `"SEK"`, v)
}

func TestFileStoreRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o644))
	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite("")
	require.NoError(t, err)
	storeContract(t, s)
	assert.NoError(t, s.Close(), "double close is a no-op")
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "a", "1"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	v, ok, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestDefaults(t *testing.T) {
	s := NewMemory()
	cur, err := Currency(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, cur)

	base, err := BaseURL(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, base)

	require.NoError(t, s.Set(context.Background(), KeyCurrency, "{"))
	_, err = Currency(context.Background(), s)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(Config{Backend: "file", Path: filepath.Join(t.TempDir(), "s.yaml")})
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	_, err = Open(Config{Backend: "redis"})
	assert.Error(t, err)
}
