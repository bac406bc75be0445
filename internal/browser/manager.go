// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xhsdash/xhs-cli/internal/config"
	"github.com/xhsdash/xhs-cli/internal/credentials"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the Chrome process and creates sessions (tabs) on it. The
// process is launched lazily on the first session request so commands that
// never touch the browser stay browser-free.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger
	creds  *credentials.Store

	sem      *semaphore.Weighted
	sessions map[string]*Session
	mu       sync.Mutex
	wg       sync.WaitGroup

	// sessionRun overrides the chromedp runner on new sessions. Test seam.
	sessionRun runFunc

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	initOnce sync.Once
	initErr  error
}

// PageOptions controls how a session is opened.
type PageOptions struct {
	// ExecPath overrides the configured browser binary for this session.
	ExecPath string
	// LoadCredentials installs stored cookies before the first navigation.
	LoadCredentials bool
}

// NewManager creates a browser manager. The browser process itself is not
// launched until the first NewSession call.
func NewManager(cfg *config.Config, creds *credentials.Store, logger *zap.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		creds:    creds,
		sem:      semaphore.NewWeighted(cfg.Browser.Concurrency),
		sessions: make(map[string]*Session),
	}
	m.logger.Debug("Browser manager created (launch deferred).")
	return m
}

// initialize launches the shared browser process.
func (m *Manager) initialize() error {
	m.initOnce.Do(func() {
		m.logger.Info("Launching browser process.",
			zap.Bool("headless", m.cfg.Browser.Headless),
			zap.String("exec_path", m.cfg.Browser.ExecPath))

		opts := DefaultAllocatorOptions(m.cfg.Browser)
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx)

		// Running an empty task list forces the process to start now, so
		// launch failures surface here rather than mid-operation.
		if err := chromedp.Run(m.browserCtx); err != nil {
			m.browserCancel()
			m.allocCancel()
			m.initErr = fmt.Errorf("launch browser: %w", err)
			return
		}
		m.logger.Info("Browser process launched.")
	})
	return m.initErr
}

// NewSession opens a new tab, bounded by the configured concurrency. When
// opts.ExecPath names a different binary than the shared process, the
// session gets a dedicated allocator tied to its lifetime.
func (m *Manager) NewSession(ctx context.Context, opts PageOptions) (*Session, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire session slot: %w", err)
	}

	// openSession owns the slot from here on: its failure paths release it
	// exactly once, either directly or through the session's close hook.
	return m.openSession(ctx, opts)
}

func (m *Manager) openSession(ctx context.Context, opts PageOptions) (*Session, error) {
	var (
		tabCtx      context.Context
		tabCancel   context.CancelFunc
		extraCancel context.CancelFunc
	)

	if opts.ExecPath != "" && opts.ExecPath != m.cfg.Browser.ExecPath {
		// One-shot allocator for the overridden binary.
		cfg := m.cfg.Browser
		cfg.ExecPath = opts.ExecPath
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), DefaultAllocatorOptions(cfg)...)
		tabCtx, tabCancel = chromedp.NewContext(allocCtx)
		extraCancel = allocCancel
	} else {
		if err := m.initialize(); err != nil {
			// No session exists yet to release the slot on close.
			m.sem.Release(1)
			return nil, err
		}
		tabCtx, tabCancel = chromedp.NewContext(m.browserCtx)
	}

	m.wg.Add(1)
	session := newSession(tabCtx, tabCancel, m.cfg.Browser, m.logger, nil)
	if m.sessionRun != nil {
		session.run = m.sessionRun
	}
	session.onClose = func() {
		if extraCancel != nil {
			extraCancel()
		}
		m.mu.Lock()
		delete(m.sessions, session.ID())
		m.mu.Unlock()
		m.sem.Release(1)
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	// Materialize the tab so failures surface before any operation step.
	if err := session.runActions(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	if opts.LoadCredentials && m.creds != nil {
		cookies, err := m.creds.Load()
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("load stored credentials: %w", err)
		}
		if len(cookies) > 0 {
			if err := session.SetCookies(ctx, cookies); err != nil {
				session.Close()
				return nil, err
			}
			m.logger.Debug("Restored stored cookies into session.",
				zap.Int("count", len(cookies)),
				zap.String("session_id", session.ID()))
		}
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Debug("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// Shutdown closes all sessions and the browser process, waiting up to the
// context's deadline for graceful teardown.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.Lock()
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.Unlock()

	for _, s := range sessionsToClose {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Debug("All sessions closed.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close; forcing shutdown.", zap.Error(ctx.Err()))
	}

	if m.browserCancel != nil {
		m.browserCancel()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
