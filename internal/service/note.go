// File: internal/service/note.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser/resolve"
	"github.com/xhsdash/xhs-cli/internal/xhs"
)

// NoteService manages the caller's own published notes through the creator
// content manager.
type NoteService struct {
	env    *Env
	auth   *AuthService
	logger *zap.Logger
}

// NewNoteService builds a NoteService.
func NewNoteService(env *Env) *NoteService {
	return &NoteService{env: env, auth: NewAuthService(env), logger: env.Logger.Named("note")}
}

// NoteListData is the list-notes payload.
type NoteListData struct {
	Notes []xhs.NoteSummary `json:"notes"`
	Count int               `json:"count"`
}

// DeleteData is the delete-note payload.
type DeleteData struct {
	NoteID string `json:"noteId"`
	Title  string `json:"title,omitempty"`
}

// noteRowSelector is the current note-row markup in the content manager,
// matching the first layer of the NoteListItem cascade.
const noteRowSelector = ".note-card"

// contentManagerURL derives the note-manager address from the configured
// publish address, so a region override carries to both.
func (s *NoteService) contentManagerURL() string {
	return strings.Replace(s.env.Cfg.URLs.CreatorPublish, "/publish/publish", "/new/note-manager", 1)
}

// ListNotes returns the caller's published notes, newest first, as the
// content manager presents them.
func (s *NoteService) ListNotes(ctx context.Context, limit int, browserPath string) *Result {
	const op = "list_notes"
	if limit <= 0 {
		limit = 20
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	notes, opErr := s.listOnPage(ctx, page, limit, op)
	if opErr != nil {
		return Fail(opErr)
	}
	return OK(NoteListData{Notes: notes, Count: len(notes)})
}

// listOnPage navigates to the content manager and scrapes the note rows.
func (s *NoteService) listOnPage(ctx context.Context, page Page, limit int, op string) ([]xhs.NoteSummary, error) {
	cfg := s.env.Cfg
	if err := page.NavigateWithRetry(ctx, s.contentManagerURL(), cfg.Browser.NavigationRetries); err != nil {
		return nil, Wrap(KindNavigation, op, "could not open the content manager", err)
	}
	if err := s.auth.RequireLogin(ctx, page, op); err != nil {
		return nil, err
	}

	// Rows arrive from a client-side fetch after DOM-ready, so give the
	// primary selector a bounded window before consulting the full cascade.
	if !page.TryWaitForSelector(ctx, noteRowSelector, cfg.Browser.SelectorTimeout) &&
		!s.env.roleVisible(ctx, page, resolve.NoteListItem()) {
		// No rows rendered at all. An empty account is a valid answer.
		return nil, nil
	}

	snapshot, err := page.Snapshot(ctx)
	if err != nil {
		return nil, Wrap(KindNoteParse, op, "could not read the note listing", err)
	}
	notes, err := parseNoteListing(snapshot)
	if err != nil {
		return nil, Wrap(KindNoteParse, op, "note listing was unparseable", err)
	}
	if len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// parseNoteListing extracts note rows from the content manager DOM. Each row
// carries a link into /explore/ plus the visible title text.
func parseNoteListing(snapshot string) ([]xhs.NoteSummary, error) {
	doc, err := htmlquery.Parse(strings.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("parse listing snapshot: %w", err)
	}
	anchors, err := htmlquery.QueryAll(doc, `//a[contains(@href, "/explore/")]`)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var notes []xhs.NoteSummary
	for _, a := range anchors {
		ref, err := xhs.ParseNoteURL(htmlquery.SelectAttr(a, "href"))
		if err != nil || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true

		summary := xhs.NoteSummary{ID: ref.ID}
		if row := a.Parent; row != nil {
			text := strings.TrimSpace(htmlquery.InnerText(row))
			if i := strings.IndexByte(text, '\n'); i > 0 {
				text = text[:i]
			}
			summary.Title = strings.TrimSpace(text)
		}
		notes = append(notes, summary)
	}
	return notes, nil
}

// DeleteNote removes one of the caller's notes. Exactly one selector must be
// given: a note ID, or last=true for the most recent note.
func (s *NoteService) DeleteNote(ctx context.Context, noteID string, last bool, browserPath string) *Result {
	const op = "delete_note"
	if noteID == "" && !last {
		return Fail(E(KindDeleteFailed, op, "specify a note ID or ask for the latest note"))
	}
	if noteID != "" && last {
		return Fail(E(KindDeleteFailed, op, "a note ID and the latest-note flag are mutually exclusive"))
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	notes, opErr := s.listOnPage(ctx, page, 50, op)
	if opErr != nil {
		return Fail(opErr)
	}
	if len(notes) == 0 {
		return Fail(E(KindDeleteFailed, op, "the account has no notes to delete"))
	}

	target := notes[0]
	if noteID != "" {
		found := false
		for _, n := range notes {
			if n.ID == noteID {
				target = n
				found = true
				break
			}
		}
		if !found {
			return Fail(E(KindDeleteFailed, op, "note not found in the content manager").
				WithContext("note_id", noteID))
		}
	}

	if err := s.deleteRow(ctx, page, target, op); err != nil {
		return Fail(err)
	}
	s.logger.Info("Note deleted.", zap.String("note_id", target.ID))
	return OKMsg(DeleteData{NoteID: target.ID, Title: target.Title}, "note deleted")
}

// deleteRow clicks the target row's delete control and confirms the dialog.
func (s *NoteService) deleteRow(ctx context.Context, page Page, target xhs.NoteSummary, op string) error {
	// Prefer the delete control scoped to the target's own row, so deleting
	// by ID never hits a neighbouring note. The generic role is the fallback
	// for layouts where the row ancestry does not match.
	rowDelete := resolve.XPath(fmt.Sprintf(
		`//a[contains(@href, %q)]/ancestor::div[2]//*[contains(text(), "删除")]`, target.ID))
	rowCtx, cancel := context.WithTimeout(ctx, s.env.Cfg.Browser.SelectorTimeout)
	defer cancel()
	if err := page.Click(rowCtx, rowDelete); err != nil {
		if err := s.env.resolveAndClick(ctx, page, resolve.NoteDeleteButton()); err != nil {
			return Wrap(KindDeleteFailed, op, "delete control not found on the listing", err).
				WithContext("note_id", target.ID)
		}
	}
	if err := s.env.resolveAndClick(ctx, page, resolve.ConfirmDialogAccept()); err != nil {
		return Wrap(KindDeleteFailed, op, "confirmation dialog did not appear", err).
			WithContext("note_id", target.ID)
	}
	return nil
}
