// internal/browser/manager_test.go
package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/config"
	"github.com/xhsdash/xhs-cli/internal/credentials"
)

func testManager(t *testing.T, creds *credentials.Store, run runFunc) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.Browser.Concurrency = 1
	m := NewManager(cfg, creds, zap.NewNop())
	m.sessionRun = run
	return m
}

// A failed open must hand its concurrency slot back. With concurrency 1 a
// leaked (or over-released) slot shows up immediately on the next call:
// either it blocks until the deadline or the semaphore panics.
func TestNewSessionFailureReleasesSlotOnce(t *testing.T) {
	m := testManager(t, nil, func(context.Context, ...chromedp.Action) error {
		return errors.New("tab refused")
	})
	opts := PageOptions{ExecPath: "/nonexistent/chromium"}

	_, err := m.NewSession(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open tab")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = m.NewSession(ctx, opts)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded, "slot was not released by the first failure")
}

func TestNewSessionCorruptCookieFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	store, err := credentials.NewStore(path, zap.NewNop())
	require.NoError(t, err)

	m := testManager(t, store, func(context.Context, ...chromedp.Action) error {
		return nil
	})
	opts := PageOptions{ExecPath: "/nonexistent/chromium", LoadCredentials: true}

	_, err = m.NewSession(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")

	// The slot is free again for the next caller.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = m.NewSession(ctx, opts)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSessionSuccessTracksSession(t *testing.T) {
	m := testManager(t, nil, func(context.Context, ...chromedp.Action) error {
		return nil
	})
	opts := PageOptions{ExecPath: "/nonexistent/chromium"}

	session, err := m.NewSession(context.Background(), opts)
	require.NoError(t, err)

	m.mu.Lock()
	_, tracked := m.sessions[session.ID()]
	m.mu.Unlock()
	assert.True(t, tracked)

	session.Close()

	m.mu.Lock()
	_, tracked = m.sessions[session.ID()]
	m.mu.Unlock()
	assert.False(t, tracked, "close removes the session from the manager")

	// Closing released the slot.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	again, err := m.NewSession(ctx, opts)
	require.NoError(t, err)
	again.Close()
}
