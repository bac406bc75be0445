// File: internal/credentials/store_test.go
package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	store, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	cookies, err := store.Load()
	require.NoError(t, err, "a missing cookie file is not an error")
	assert.Empty(t, cookies)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := []Cookie{
		{
			Name:     "web_session",
			Value:    "abc123",
			Domain:   ".xiaohongshu.com",
			Path:     "/",
			Expires:  1767225600,
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Lax",
		},
		{Name: "a1", Value: "fp", Domain: ".xiaohongshu.com", Path: "/"},
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cookies changed across round trip (-want +got):\n%s", diff)
	}
}

func TestSaveDeduplicatesKeepingLast(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]Cookie{
		{Name: "web_session", Value: "stale", Domain: ".xiaohongshu.com", Path: "/"},
		{Name: "other", Value: "x", Domain: ".xiaohongshu.com", Path: "/"},
		{Name: "web_session", Value: "fresh", Domain: ".xiaohongshu.com", Path: "/"},
	}))

	got, err := store.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fresh", got[0].Value, "the later duplicate wins")
	assert.Equal(t, "other", got[1].Name)
}

func TestSaveOverwritesWholeFile(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]Cookie{
		{Name: "old", Value: "1", Domain: "a.com", Path: "/"},
		{Name: "older", Value: "2", Domain: "a.com", Path: "/"},
	}))
	require.NoError(t, store.Save([]Cookie{
		{Name: "new", Value: "3", Domain: "a.com", Path: "/"},
	}))

	got, err := store.Load()
	require.NoError(t, err)
	require.Len(t, got, 1, "save replaces the file, it does not merge")
	assert.Equal(t, "new", got[0].Name)
}

func TestSaveCreatesParentDirWithTightPerms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cookies.json")
	store, err := NewStore(path, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save([]Cookie{{Name: "c", Value: "v", Domain: "d", Path: "/"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]Cookie{{Name: "c", Value: "v", Domain: "d", Path: "/"}}))
	require.NoError(t, store.Clear())

	cookies, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, cookies)

	// Clearing again is fine.
	require.NoError(t, store.Clear())
}

func TestLoadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err := store.Load()
	assert.Error(t, err)
}
