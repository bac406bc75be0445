// File: internal/service/service_test.go
package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser"
	"github.com/xhsdash/xhs-cli/internal/browser/resolve"
	"github.com/xhsdash/xhs-cli/internal/config"
	"github.com/xhsdash/xhs-cli/internal/credentials"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePage is a scriptable Page. Visibility is a selector map, Eval is a
// hook, and every interaction is recorded for assertions.
type fakePage struct {
	mu sync.Mutex

	visible map[string]bool
	html    string
	evalFn  func(expr string, out interface{}) error
	url     string

	navigated []string
	clicked   []string
	typed     []string
	uploads   [][]string
	cookies   []credentials.Cookie
	closed    bool
}

func newFakePage() *fakePage {
	return &fakePage{visible: make(map[string]bool)}
}

func (p *fakePage) QueryVisible(ctx context.Context, css string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[css], nil
}

func (p *fakePage) Snapshot(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	p.url = url
	return nil
}

func (p *fakePage) NavigateWithRetry(ctx context.Context, url string, maxAttempts int) error {
	return p.Navigate(ctx, url)
}

func (p *fakePage) TryWaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool {
	ok, _ := p.QueryVisible(ctx, selector)
	return ok
}

func (p *fakePage) Eval(ctx context.Context, expr string, out interface{}) error {
	p.mu.Lock()
	fn := p.evalFn
	p.mu.Unlock()
	if fn != nil {
		return fn(expr, out)
	}
	// Default: every expression evaluates to a zero value.
	switch v := out.(type) {
	case *string:
		*v = ""
	case *int:
		*v = 0
	case *bool:
		*v = false
	}
	return nil
}

func (p *fakePage) Click(ctx context.Context, loc resolve.Locator) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loc.By == resolve.ByCSS && !p.visible[loc.Query] {
		return errors.New("element not visible: " + loc.Query)
	}
	p.clicked = append(p.clicked, loc.Query)
	return nil
}

func (p *fakePage) TypeText(ctx context.Context, loc resolve.Locator, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed = append(p.typed, loc.Query+"="+text)
	return nil
}

func (p *fakePage) UploadFiles(ctx context.Context, loc resolve.Locator, files []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploads = append(p.uploads, files)
	return nil
}

func (p *fakePage) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Cookies(ctx context.Context) ([]credentials.Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cookies, nil
}

func (p *fakePage) SetCookies(ctx context.Context, cookies []credentials.Cookie) error {
	return nil
}

func (p *fakePage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePage) typedContains(substr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.typed {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

// fakeBrowser hands out a single scripted page.
type fakeBrowser struct {
	page    Page
	openErr error

	mu     sync.Mutex
	opened int
}

func (b *fakeBrowser) OpenPage(ctx context.Context, opts browser.PageOptions) (Page, error) {
	b.mu.Lock()
	b.opened++
	b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Shutdown(ctx context.Context) error { return nil }

func (b *fakeBrowser) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

// testEnv wires a service environment around a fake browser, with fast poll
// intervals and an isolated cookie store.
func testEnv(t *testing.T, b Browser) *Env {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.CookieFile = filepath.Join(t.TempDir(), "cookies.json")
	cfg.Download.Dir = t.TempDir()
	cfg.Download.NoteDelay = 0
	cfg.Publish.PollInterval = 5 * time.Millisecond
	cfg.Publish.BusyPollInterval = 2 * time.Millisecond
	cfg.Publish.PublishTimeout = time.Second
	cfg.Publish.VideoPublishTimeout = time.Second
	cfg.Publish.VideoProcessingTimeout = time.Second

	store, err := credentials.NewStore(cfg.Auth.CookieFile, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewEnv(cfg, zap.NewNop(), b, store)
}
