// File: internal/service/user.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/xhs"
)

// UserService resolves user references and reads profile pages.
type UserService struct {
	env    *Env
	logger *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(env *Env) *UserService {
	return &UserService{env: env, logger: env.Logger.Named("user")}
}

// ProfileData is the user-profile payload.
type ProfileData struct {
	Profile *xhs.UserProfile  `json:"profile"`
	Notes   []xhs.NoteSummary `json:"notes"`
	Count   int               `json:"noteCount"`
}

// Profile opens a user's page and extracts their profile plus visible notes.
// The reference may be a profile URL, a share short link, a user ID, or a
// nickname (resolved through search as a last resort).
func (s *UserService) Profile(ctx context.Context, userRef string, browserPath string) *Result {
	const op = "user_profile"
	if strings.TrimSpace(userRef) == "" {
		return Fail(E(KindUserNotFound, op, "a user reference is required"))
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	profile, notes, opErr := s.loadProfile(ctx, page, userRef, op)
	if opErr != nil {
		return Fail(opErr)
	}
	return OK(ProfileData{Profile: profile, Notes: notes, Count: len(notes)})
}

// userNotes returns up to limit note summaries from a user's page. Used by
// the batch download operation.
func (s *UserService) userNotes(ctx context.Context, page Page, userRef string, limit int, op string) ([]xhs.NoteSummary, error) {
	_, notes, err := s.loadProfile(ctx, page, userRef, op)
	if err != nil {
		return nil, err
	}
	if len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// loadProfile navigates to the user's page and decodes the client state.
func (s *UserService) loadProfile(ctx context.Context, page Page, userRef, op string) (*xhs.UserProfile, []xhs.NoteSummary, error) {
	target, userID, bare, err := s.resolveUserRef(ctx, page, userRef)
	if err != nil {
		return nil, nil, Wrap(KindUserNotFound, op, "could not resolve the user reference", err).
			WithContext("user", userRef)
	}

	profile, notes, opErr := s.profileAt(ctx, page, target, userID, userRef, op)
	if opErr != nil && bare && KindOf(opErr) == KindUserNotFound {
		// The bare reference was not a user ID. Treat it as a nickname and
		// look for the profile through search.
		s.logger.Debug("Direct profile lookup missed, falling back to search.",
			zap.String("ref", userRef))
		found, searchErr := s.searchProfileURL(ctx, page, userRef)
		if searchErr != nil {
			return nil, nil, opErr
		}
		foundID, _ := xhs.ParseProfileURL(found)
		return s.profileAt(ctx, page, found, foundID, userRef, op)
	}
	return profile, notes, opErr
}

// profileAt opens one candidate profile URL and decodes it.
func (s *UserService) profileAt(ctx context.Context, page Page, target, userID, userRef, op string) (*xhs.UserProfile, []xhs.NoteSummary, error) {
	cfg := s.env.Cfg

	if current, _ := page.CurrentURL(ctx); current != target {
		if err := page.NavigateWithRetry(ctx, target, cfg.Browser.NavigationRetries); err != nil {
			return nil, nil, Wrap(KindNavigation, op, "could not open the profile page", err).
				WithContext("user", userRef)
		}
	}
	if userID == "" {
		// The ID becomes known once the page has landed.
		if landed, err := page.CurrentURL(ctx); err == nil {
			userID, _ = xhs.ParseProfileURL(landed)
		}
	}

	var raw string
	if err := page.Eval(ctx, xhs.UserStateJS, &raw); err != nil {
		s.logger.Debug("User state extraction failed.", zap.Error(err))
	}
	profile, notes, err := xhs.DecodeUserPage(raw, userID, cfg.URLs.Home)
	if err != nil {
		return nil, nil, Wrap(KindUserNotFound, op, "profile state was present but unparseable", err).
			WithContext("user", userRef)
	}
	if profile == nil {
		return nil, nil, E(KindUserNotFound, op, "the profile page carried no user data").
			WithContext("user", userRef)
	}
	profile.URL = target
	return profile, notes, nil
}

// searchProfileURL runs a keyword search for the reference and returns the
// first profile link found on the results page.
func (s *UserService) searchProfileURL(ctx context.Context, page Page, userRef string) (string, error) {
	cfg := s.env.Cfg
	if err := page.NavigateWithRetry(ctx, xhs.SearchURL(cfg.URLs.Search, userRef), cfg.Browser.NavigationRetries); err != nil {
		return "", err
	}
	snapshot, err := page.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	doc, err := htmlquery.Parse(strings.NewReader(snapshot))
	if err != nil {
		return "", fmt.Errorf("parse search snapshot: %w", err)
	}
	a, err := htmlquery.Query(doc, `//a[contains(@href, "/user/profile/")]`)
	if err != nil || a == nil {
		return "", fmt.Errorf("no profile link in search results for %q", userRef)
	}
	href := htmlquery.SelectAttr(a, "href")
	if strings.HasPrefix(href, "/") {
		href = strings.TrimRight(cfg.URLs.Home, "/") + href
	}
	return href, nil
}

// resolveUserRef turns any accepted user reference into a profile URL. Short
// links are followed live. Bare references are flagged so the caller can fall
// back to a nickname search when the direct page carries no user.
func (s *UserService) resolveUserRef(ctx context.Context, page Page, userRef string) (target, userID string, bare bool, err error) {
	cfg := s.env.Cfg
	userRef = strings.TrimSpace(userRef)

	if xhs.IsShortLink(userRef) {
		if err := page.NavigateWithRetry(ctx, userRef, cfg.Browser.NavigationRetries); err != nil {
			return "", "", false, err
		}
		landed, err := page.CurrentURL(ctx)
		if err != nil {
			return "", "", false, err
		}
		id, err := xhs.ParseProfileURL(landed)
		if err != nil {
			return "", "", false, fmt.Errorf("short link landed on a non-profile page: %s", landed)
		}
		return landed, id, false, nil
	}

	if strings.Contains(userRef, "://") {
		id, err := xhs.ParseProfileURL(userRef)
		if err != nil {
			return "", "", false, err
		}
		return userRef, id, false, nil
	}

	// Bare reference: try it as a user ID directly.
	return xhs.ProfileURL(cfg.URLs.ProfileBase, userRef), userRef, true, nil
}
