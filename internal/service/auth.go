// File: internal/service/auth.go
package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser/await"
	"github.com/xhsdash/xhs-cli/internal/browser/resolve"
)

// AuthService owns login state: interactive login, logout and the
// read-only status probe.
type AuthService struct {
	env    *Env
	logger *zap.Logger
}

// NewAuthService builds an AuthService.
func NewAuthService(env *Env) *AuthService {
	return &AuthService{env: env, logger: env.Logger.Named("auth")}
}

// StatusData is the status operation payload.
type StatusData struct {
	LoggedIn   bool   `json:"loggedIn"`
	CookieFile string `json:"cookieFile"`
	Cookies    int    `json:"cookieCount"`
}

// LoginData is the login operation payload.
type LoginData struct {
	LoggedIn     bool `json:"loggedIn"`
	CookiesSaved int  `json:"cookiesSaved"`
}

// Login drives the interactive login flow: it opens the site with any
// stored cookies, and if the session is not authenticated it waits for the
// user to complete the QR-code login in the (headful) browser window, then
// persists the fresh cookies.
func (s *AuthService) Login(ctx context.Context, browserPath string) *Result {
	const op = "login"

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	cfg := s.env.Cfg
	if err := page.NavigateWithRetry(ctx, cfg.URLs.Explore, cfg.Browser.NavigationRetries); err != nil {
		return Fail(Wrap(KindNavigation, op, "could not reach the site", err))
	}

	if s.isLoggedIn(ctx, page) {
		s.logger.Info("Already logged in; refreshing stored cookies.")
		saved, err := s.persistCookies(ctx, page)
		if err != nil {
			return Fail(Wrap(KindLoginFailed, op, "logged in but saving cookies failed", err))
		}
		return OKMsg(LoginData{LoggedIn: true, CookiesSaved: saved}, "already logged in")
	}

	s.logger.Info("Waiting for interactive login.",
		zap.Duration("timeout", cfg.Auth.LoginTimeout))

	res, err := await.Wait(ctx,
		await.Config{
			Timeout:  cfg.Auth.LoginTimeout,
			Interval: 2 * time.Second,
		},
		await.Signals{
			Success: []await.Probe{
				func(ctx context.Context) (bool, string, error) {
					return s.isLoggedIn(ctx, page), "account avatar visible", nil
				},
			},
		},
		s.logger)
	if err != nil {
		return Fail(Wrap(KindLoginFailed, op, "login wait interrupted", err))
	}
	if res.Outcome != await.Succeeded {
		return Fail(E(KindLoginTimeout, op, "login was not completed in time").
			WithContext("timeout", cfg.Auth.LoginTimeout.String()))
	}

	saved, err := s.persistCookies(ctx, page)
	if err != nil {
		return Fail(Wrap(KindLoginFailed, op, "login succeeded but saving cookies failed", err))
	}
	s.logger.Info("Login complete.", zap.Int("cookies_saved", saved))
	return OKMsg(LoginData{LoggedIn: true, CookiesSaved: saved}, "login successful")
}

// Logout clears the stored credentials. It does not touch the browser; the
// stored session simply stops being offered.
func (s *AuthService) Logout(ctx context.Context) *Result {
	if err := s.env.Creds.Clear(); err != nil {
		return Fail(Wrap(KindInternal, "logout", "could not clear stored credentials", err))
	}
	return OKMsg(nil, "stored credentials cleared")
}

// Status reports whether the stored session is still authenticated. It is
// strictly read-only: a dead session is reported, never repaired or
// cleared, so a failing probe cannot destroy otherwise useful cookies.
func (s *AuthService) Status(ctx context.Context, browserPath string) *Result {
	const op = "status"

	cookies, err := s.env.Creds.Load()
	if err != nil {
		return Fail(Wrap(KindInternal, op, "could not read stored credentials", err))
	}
	data := StatusData{CookieFile: s.env.Creds.Path(), Cookies: len(cookies)}
	if len(cookies) == 0 {
		return OKMsg(data, "no stored session")
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	cfg := s.env.Cfg
	if err := page.NavigateWithRetry(ctx, cfg.URLs.Explore, cfg.Browser.NavigationRetries); err != nil {
		return Fail(Wrap(KindNavigation, op, "could not reach the site", err))
	}

	data.LoggedIn = s.isLoggedIn(ctx, page)
	if data.LoggedIn {
		return OKMsg(data, "session is active")
	}
	return OKMsg(data, "stored session is no longer authenticated")
}

// isLoggedIn probes for the logged-in marker, with the login dialog as the
// explicit negative signal.
func (s *AuthService) isLoggedIn(ctx context.Context, page Page) bool {
	if s.env.roleVisible(ctx, page, resolve.UserAvatar()) {
		return true
	}
	if s.env.roleVisible(ctx, page, resolve.LoginQRCode()) {
		return false
	}
	// Neither marker resolved; fall back to the URL. Some logged-out
	// states redirect to an explicit login route.
	url, err := page.CurrentURL(ctx)
	if err != nil {
		return false
	}
	return !strings.Contains(url, "/login")
}

// persistCookies overwrites the credential store with the page's cookies.
func (s *AuthService) persistCookies(ctx context.Context, page Page) (int, error) {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.env.Creds.Save(cookies); err != nil {
		return 0, err
	}
	return len(cookies), nil
}

// RequireLogin fails fast when an operation needs an authenticated session
// and the page shows a logged-out state.
func (s *AuthService) RequireLogin(ctx context.Context, page Page, op string) error {
	if s.isLoggedIn(ctx, page) {
		return nil
	}
	return E(KindNotLoggedIn, op, "not logged in; run the login command first")
}
