// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser/resolve"
	"github.com/xhsdash/xhs-cli/internal/config"
	"github.com/xhsdash/xhs-cli/internal/credentials"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// runFunc executes chromedp actions on a context. It exists as a seam so
// session behaviour is testable without a browser process.
type runFunc func(ctx context.Context, actions ...chromedp.Action) error

// Session is one browser tab. Operations hold exactly one Session for their
// lifetime and steps within it run strictly sequentially.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	run     runFunc
	onClose func()

	mu       sync.Mutex
	isClosed bool
}

// Session implements the resolver's page surface.
var _ resolve.Page = (*Session)(nil)

func newSession(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg config.BrowserConfig,
	logger *zap.Logger,
	onClose func(),
) *Session {
	sessionID := uuid.New().String()
	return &Session{
		id:      sessionID,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(zap.String("session_id", sessionID)),
		cfg:     cfg,
		run:     chromedp.Run,
		onClose: onClose,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// runActions executes chromedp actions, respecting both the session
// lifetime (s.ctx) and the incoming request context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return s.run(runCtx, actions...)
}

// Navigate loads a URL and waits for the DOM to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	err := s.runActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// NavigateWithRetry retries Navigate up to maxAttempts times with a growing
// pause between attempts. The returned error wraps the last attempt's
// failure so callers can see the root cause.
func (s *Session) NavigateWithRetry(ctx context.Context, url string, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = s.Navigate(ctx, url)
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("Navigation attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(lastErr))

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return fmt.Errorf("navigation to %s failed after %d attempts: %w", url, maxAttempts, lastErr)
}

// TryWaitForSelector waits up to timeout for the selector to become visible
// and reports whether it did. Absence is an answer, not an error; the
// resolver cascades and login probes branch on it constantly.
func (s *Session) TryWaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.runActions(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	return err == nil
}

// Eval evaluates a JavaScript expression, decoding its result into out.
// A nil out discards the result.
func (s *Session) Eval(ctx context.Context, expr string, out interface{}) error {
	if err := s.runActions(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

// visibleQueryJS reports whether any element matched by the selector is
// actually rendered: attached, not display:none/visibility:hidden, not
// fully transparent, with a nonzero box.
const visibleQueryJS = `(function(sel) {
	const els = document.querySelectorAll(sel);
	for (const el of els) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		if (parseFloat(style.opacity) === 0) continue;
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 && rect.height === 0) continue;
		return true;
	}
	return false;
})(%s)`

// QueryVisible implements resolve.Page against the live page.
func (s *Session) QueryVisible(ctx context.Context, css string) (bool, error) {
	sel, err := json.Marshal(css)
	if err != nil {
		return false, fmt.Errorf("encode selector: %w", err)
	}
	var visible bool
	if err := s.Eval(ctx, fmt.Sprintf(visibleQueryJS, sel), &visible); err != nil {
		return false, err
	}
	return visible, nil
}

// Snapshot returns the full document HTML.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	var html string
	if err := s.runActions(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture dom snapshot: %w", err)
	}
	return html, nil
}

// queryOption maps a locator onto chromedp's addressing schemes.
func queryOption(loc resolve.Locator) chromedp.QueryOption {
	if loc.By == resolve.ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Click clicks the element addressed by the locator.
func (s *Session) Click(ctx context.Context, loc resolve.Locator) error {
	err := s.runActions(ctx,
		chromedp.WaitVisible(loc.Query, queryOption(loc)),
		chromedp.Click(loc.Query, queryOption(loc)),
	)
	if err != nil {
		return fmt.Errorf("click %s: %w", loc.Query, err)
	}
	return nil
}

// TypeText focuses the element and types the text into it. Works for both
// inputs and contenteditable nodes since keystrokes go through the page.
func (s *Session) TypeText(ctx context.Context, loc resolve.Locator, text string) error {
	err := s.runActions(ctx,
		chromedp.WaitVisible(loc.Query, queryOption(loc)),
		chromedp.Click(loc.Query, queryOption(loc)),
		chromedp.SendKeys(loc.Query, text, queryOption(loc)),
	)
	if err != nil {
		return fmt.Errorf("type into %s: %w", loc.Query, err)
	}
	return nil
}

// UploadFiles sets the given local files on a file input. The input may be
// hidden; file inputs usually are.
func (s *Session) UploadFiles(ctx context.Context, loc resolve.Locator, files []string) error {
	err := s.runActions(ctx, chromedp.SetUploadFiles(loc.Query, files, queryOption(loc)))
	if err != nil {
		return fmt.Errorf("upload %d files to %s: %w", len(files), loc.Query, err)
	}
	return nil
}

// CurrentURL returns the page's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.runActions(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

// Cookies returns all cookies visible to the browser context.
func (s *Session) Cookies(ctx context.Context) ([]credentials.Cookie, error) {
	var out []credentials.Cookie
	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		cookies, err := network.GetCookies().Do(c)
		if err != nil {
			return err
		}
		out = make([]credentials.Cookie, 0, len(cookies))
		for _, ck := range cookies {
			out = append(out, credentials.Cookie{
				Name:     ck.Name,
				Value:    ck.Value,
				Domain:   ck.Domain,
				Path:     ck.Path,
				Expires:  ck.Expires,
				HTTPOnly: ck.HTTPOnly,
				Secure:   ck.Secure,
				SameSite: string(ck.SameSite),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	return out, nil
}

// SetCookies installs stored cookies into the browser context. Call before
// the first navigation so the initial page load is already authenticated.
func (s *Session) SetCookies(ctx context.Context, cookies []credentials.Cookie) error {
	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		for _, ck := range cookies {
			p := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				WithHTTPOnly(ck.HTTPOnly).
				WithSecure(ck.Secure)
			if ck.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(ck.Expires), 0))
				p = p.WithExpires(&expires)
			}
			if ck.SameSite != "" {
				p = p.WithSameSite(network.CookieSameSite(ck.SameSite))
			}
			if err := p.Do(c); err != nil {
				return fmt.Errorf("set cookie %s: %w", ck.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("install cookies: %w", err)
	}
	return nil
}

// Close terminates the tab. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
}
