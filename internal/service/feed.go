// File: internal/service/feed.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser/resolve"
	"github.com/xhsdash/xhs-cli/internal/xhs"
)

// FeedService reads the explore feed, search results and note details, and
// posts comments and reactions.
type FeedService struct {
	env    *Env
	auth   *AuthService
	logger *zap.Logger
	// scrollSettle is how long to let the page load after each scroll.
	scrollSettle time.Duration
}

// NewFeedService builds a FeedService.
func NewFeedService(env *Env) *FeedService {
	return &FeedService{
		env:          env,
		auth:         NewAuthService(env),
		logger:       env.Logger.Named("feed"),
		scrollSettle: time.Second,
	}
}

// FeedsData is the discover-feeds payload.
type FeedsData struct {
	Items []xhs.FeedItem `json:"items"`
	Count int            `json:"count"`
}

// Feeds returns items from the explore feed, scrolling to load more until
// limit is reached or the page stops growing.
func (s *FeedService) Feeds(ctx context.Context, limit int, browserPath string) *Result {
	const op = "discover_feeds"
	if limit <= 0 {
		limit = 20
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	cfg := s.env.Cfg
	if err := page.NavigateWithRetry(ctx, cfg.URLs.Explore, cfg.Browser.NavigationRetries); err != nil {
		return Fail(Wrap(KindNavigation, op, "could not open the explore feed", err))
	}

	items, err := s.collectFeedItems(ctx, page, xhs.FeedStateJS, limit, op)
	if err != nil {
		return Fail(err)
	}
	return OK(FeedsData{Items: items, Count: len(items)})
}

// Search returns items from the keyword search results page.
func (s *FeedService) Search(ctx context.Context, keyword string, limit int, browserPath string) *Result {
	const op = "search"
	if keyword == "" {
		return Fail(E(KindFeedNotFound, op, "a search keyword is required"))
	}
	if limit <= 0 {
		limit = 20
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	cfg := s.env.Cfg
	searchURL := xhs.SearchURL(cfg.URLs.Search, keyword)
	if err := page.NavigateWithRetry(ctx, searchURL, cfg.Browser.NavigationRetries); err != nil {
		return Fail(Wrap(KindNavigation, op, "could not open search results", err).
			WithContext("keyword", keyword))
	}

	items, err := s.collectFeedItems(ctx, page, xhs.SearchStateJS, limit, op)
	if err != nil {
		return Fail(err)
	}
	return OK(FeedsData{Items: items, Count: len(items)})
}

// collectFeedItems extracts feed entries from client state, scrolling in
// bounded rounds while more items are wanted and the page keeps growing.
// When the state path yields nothing the DOM card fallback takes over.
func (s *FeedService) collectFeedItems(ctx context.Context, page Page, stateJS string, limit int, op string) ([]xhs.FeedItem, error) {
	const maxScrollRounds = 10
	home := s.env.Cfg.URLs.Home

	var items []xhs.FeedItem
	lastHeight := -1
	for round := 0; ; round++ {
		var raw string
		if err := page.Eval(ctx, stateJS, &raw); err != nil {
			s.logger.Debug("State extraction failed; falling back to DOM.", zap.Error(err))
		}
		decoded, err := xhs.DecodeFeedItems(raw, home)
		if err != nil {
			return nil, Wrap(KindFeedParse, op, "feed state was present but unparseable", err)
		}
		if len(decoded) > 0 {
			items = decoded
		}

		if len(items) >= limit || round >= maxScrollRounds {
			break
		}

		height, err := s.scrollToBottom(ctx, page)
		if err != nil || height == lastHeight {
			// The page stopped growing; no more items are coming.
			break
		}
		lastHeight = height

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.scrollSettle):
		}
	}

	if len(items) == 0 {
		// State path came up empty on every round; scrape the cards.
		domItems, err := s.feedItemsFromDOM(ctx, page)
		if err != nil {
			return nil, Wrap(KindFeedParse, op, "neither client state nor DOM yielded feed items", err)
		}
		items = domItems
	}
	if len(items) == 0 {
		return nil, E(KindFeedNotFound, op, "no feed items found on the page")
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *FeedService) scrollToBottom(ctx context.Context, page Page) (int, error) {
	var height int
	err := page.Eval(ctx,
		`(() => { window.scrollTo(0, document.body.scrollHeight); return document.body.scrollHeight; })()`,
		&height)
	return height, err
}

// NoteDetailData is the get-note-detail payload.
type NoteDetailData struct {
	Note *xhs.NoteDetail `json:"note"`
	URL  string          `json:"url"`
}

// NoteDetail opens a note (by URL, short link or bare ID) and extracts its
// full detail record.
func (s *FeedService) NoteDetail(ctx context.Context, rawRef, browserPath string) *Result {
	const op = "get_note_detail"

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	note, noteURL, opErr := s.loadNoteDetail(ctx, page, rawRef, op)
	if opErr != nil {
		return Fail(opErr)
	}
	return OK(NoteDetailData{Note: note, URL: noteURL})
}

// loadNoteDetail navigates to a note and extracts its detail. Shared by the
// note-detail and download operations.
func (s *FeedService) loadNoteDetail(ctx context.Context, page Page, rawRef, op string) (*xhs.NoteDetail, string, error) {
	cfg := s.env.Cfg

	noteURL := rawRef
	if xhs.IsShortLink(rawRef) {
		resolved, err := s.resolveShortLink(ctx, page, rawRef)
		if err != nil {
			return nil, "", Wrap(KindNavigation, op, "short link did not resolve", err).
				WithContext("short_link", rawRef)
		}
		noteURL = resolved
	}

	ref, err := xhs.ParseNoteURL(noteURL)
	if err != nil {
		return nil, "", Wrap(KindFeedNotFound, op, "not a recognizable note reference", err).
			WithContext("input", rawRef)
	}
	target := xhs.NoteURL(cfg.URLs.Home, ref.ID, ref.XsecToken)

	current, _ := page.CurrentURL(ctx)
	if current != target {
		if err := page.NavigateWithRetry(ctx, target, cfg.Browser.NavigationRetries); err != nil {
			return nil, "", Wrap(KindNavigation, op, "could not open the note page", err).
				WithContext("note_id", ref.ID)
		}
	}

	var raw string
	if err := page.Eval(ctx, xhs.NoteStateJS, &raw); err != nil {
		s.logger.Debug("Note state extraction failed; falling back to DOM.", zap.Error(err))
	}
	note, err := xhs.DecodeNoteDetail(raw)
	if err != nil {
		return nil, "", Wrap(KindNoteParse, op, "note state was present but unparseable", err).
			WithContext("note_id", ref.ID)
	}
	if note == nil {
		note, err = s.noteDetailFromDOM(ctx, page, ref.ID)
		if err != nil {
			return nil, "", Wrap(KindNoteParse, op, "neither client state nor DOM yielded the note", err).
				WithContext("note_id", ref.ID)
		}
	}
	note.XsecToken = ref.XsecToken
	return note, target, nil
}

// resolveShortLink follows an xhslink.com redirect and returns the landing
// URL. The redirect target is only observable by navigating.
func (s *FeedService) resolveShortLink(ctx context.Context, page Page, shortLink string) (string, error) {
	if err := page.NavigateWithRetry(ctx, shortLink, s.env.Cfg.Browser.NavigationRetries); err != nil {
		return "", err
	}
	landed, err := page.CurrentURL(ctx)
	if err != nil {
		return "", err
	}
	if xhs.IsShortLink(landed) {
		return "", fmt.Errorf("short link did not redirect: still on %s", landed)
	}
	return landed, nil
}

// CommentData is the comment payload.
type CommentData struct {
	NoteID  string `json:"noteId"`
	Content string `json:"content"`
}

// Comment posts a comment on a note.
func (s *FeedService) Comment(ctx context.Context, rawRef, text, browserPath string) *Result {
	const op = "comment"
	if text == "" {
		return Fail(E(KindPublishValidation, op, "comment text must not be empty"))
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	note, _, opErr := s.loadNoteDetail(ctx, page, rawRef, op)
	if opErr != nil {
		return Fail(opErr)
	}
	if err := s.auth.RequireLogin(ctx, page, op); err != nil {
		return Fail(err)
	}

	// Click the placeholder to expand the editor, then type and submit.
	if err := s.env.resolveAndClick(ctx, page, resolve.CommentInput()); err != nil {
		return Fail(Wrap(KindElementNotFound, op, "comment box not found", err).
			WithContext("note_id", note.ID))
	}
	loc, err := s.env.Resolver.Resolve(ctx, page, resolve.CommentInput())
	if err != nil {
		return Fail(Wrap(KindElementNotFound, op, "comment box disappeared", err))
	}
	if err := page.TypeText(ctx, loc, text); err != nil {
		return Fail(Wrap(KindPublishFlow, op, "could not type the comment", err))
	}
	if err := s.env.resolveAndClick(ctx, page, resolve.CommentSubmit()); err != nil {
		return Fail(Wrap(KindElementNotFound, op, "comment submit button not found", err).
			WithContext("note_id", note.ID))
	}

	return OKMsg(CommentData{NoteID: note.ID, Content: text}, "comment submitted")
}

// Like toggles the like reaction on a note.
func (s *FeedService) Like(ctx context.Context, rawRef, browserPath string) *Result {
	return s.react(ctx, rawRef, browserPath, "like", resolve.LikeButton())
}

// Collect toggles the favorite reaction on a note.
func (s *FeedService) Collect(ctx context.Context, rawRef, browserPath string) *Result {
	return s.react(ctx, rawRef, browserPath, "collect", resolve.CollectButton())
}

func (s *FeedService) react(ctx context.Context, rawRef, browserPath, op string, role resolve.Role) *Result {
	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	note, _, opErr := s.loadNoteDetail(ctx, page, rawRef, op)
	if opErr != nil {
		return Fail(opErr)
	}
	if err := s.auth.RequireLogin(ctx, page, op); err != nil {
		return Fail(err)
	}
	if err := s.env.resolveAndClick(ctx, page, role); err != nil {
		return Fail(Wrap(KindElementNotFound, op, "reaction control not found", err).
			WithContext("note_id", note.ID))
	}
	return OKMsg(CommentData{NoteID: note.ID}, op+" toggled")
}
