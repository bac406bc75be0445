// File: internal/service/env.go

// Package service implements the domain operations (auth, feed, publish,
// note management, download, user) by composing the browser session
// manager, the element resolver and the completion-detection loop. Every
// public operation returns exactly one Result envelope.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser"
	"github.com/xhsdash/xhs-cli/internal/browser/resolve"
	"github.com/xhsdash/xhs-cli/internal/config"
	"github.com/xhsdash/xhs-cli/internal/credentials"
)

// Page is the session surface the services program against. *browser.Session
// satisfies it; tests substitute fixtures.
type Page interface {
	resolve.Page

	Navigate(ctx context.Context, url string) error
	NavigateWithRetry(ctx context.Context, url string, maxAttempts int) error
	TryWaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool
	Eval(ctx context.Context, expr string, out interface{}) error
	Click(ctx context.Context, loc resolve.Locator) error
	TypeText(ctx context.Context, loc resolve.Locator, text string) error
	UploadFiles(ctx context.Context, loc resolve.Locator, files []string) error
	CurrentURL(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]credentials.Cookie, error)
	SetCookies(ctx context.Context, cookies []credentials.Cookie) error
	Close()
}

// Browser opens pages. *browser.Manager is adapted onto it so services can
// be exercised with fake pages.
type Browser interface {
	OpenPage(ctx context.Context, opts browser.PageOptions) (Page, error)
	Shutdown(ctx context.Context) error
}

// managerBrowser adapts *browser.Manager to the Browser interface.
type managerBrowser struct {
	m *browser.Manager
}

// NewBrowser wraps a browser manager for service consumption.
func NewBrowser(m *browser.Manager) Browser {
	return &managerBrowser{m: m}
}

func (b *managerBrowser) OpenPage(ctx context.Context, opts browser.PageOptions) (Page, error) {
	session, err := b.m.NewSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (b *managerBrowser) Shutdown(ctx context.Context) error {
	return b.m.Shutdown(ctx)
}

// Env bundles the shared dependencies of all services.
type Env struct {
	Cfg      *config.Config
	Logger   *zap.Logger
	Browser  Browser
	Creds    *credentials.Store
	Resolver *resolve.Resolver
}

// NewEnv builds a service environment.
func NewEnv(cfg *config.Config, logger *zap.Logger, b Browser, creds *credentials.Store) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{
		Cfg:      cfg,
		Logger:   logger,
		Browser:  b,
		Creds:    creds,
		Resolver: resolve.NewResolver(logger),
	}
}

// openPage opens a session with stored credentials installed and the
// optional browser binary override applied.
func (e *Env) openPage(ctx context.Context, browserPath string, loadCreds bool) (Page, error) {
	page, err := e.Browser.OpenPage(ctx, browser.PageOptions{
		ExecPath:        browserPath,
		LoadCredentials: loadCreds,
	})
	if err != nil {
		return nil, Wrap(KindBrowserLaunch, "open_page", "failed to open browser page", err)
	}
	return page, nil
}

// resolveAndClick is the common resolve-then-act step.
func (e *Env) resolveAndClick(ctx context.Context, page Page, role resolve.Role) error {
	loc, err := e.Resolver.Resolve(ctx, page, role)
	if err != nil {
		return err
	}
	return page.Click(ctx, loc)
}

// roleVisible reports whether a role currently resolves on the page.
func (e *Env) roleVisible(ctx context.Context, page Page, role resolve.Role) bool {
	_, err := e.Resolver.Resolve(ctx, page, role)
	return err == nil
}
