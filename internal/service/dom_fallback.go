// File: internal/service/dom_fallback.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/xhsdash/xhs-cli/internal/xhs"
)

// DOM fallbacks for when window.__INITIAL_STATE__ is absent or reshaped.
// They deliver less data than the state path (that is acceptable; fields
// are best-effort) but keep the operations alive.

// feedItemsFromDOM scrapes note cards from the current page.
func (s *FeedService) feedItemsFromDOM(ctx context.Context, page Page) ([]xhs.FeedItem, error) {
	snapshot, err := page.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := htmlquery.Parse(strings.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("parse page snapshot: %w", err)
	}

	// Cards are sections with a cover anchor that links into /explore/.
	anchors, err := htmlquery.QueryAll(doc, `//section//a[contains(@href, "/explore/")]`)
	if err != nil {
		return nil, err
	}

	home := s.env.Cfg.URLs.Home
	seen := make(map[string]bool)
	var items []xhs.FeedItem
	for _, a := range anchors {
		href := htmlquery.SelectAttr(a, "href")
		ref, err := xhs.ParseNoteURL(href)
		if err != nil || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true

		item := xhs.FeedItem{
			ID:        ref.ID,
			XsecToken: ref.XsecToken,
			URL:       xhs.NoteURL(home, ref.ID, ref.XsecToken),
		}
		// The card title lives in a sibling footer; take the card's text
		// first line as a best effort.
		if card := a.Parent; card != nil {
			text := strings.TrimSpace(htmlquery.InnerText(card))
			if i := strings.IndexByte(text, '\n'); i > 0 {
				text = text[:i]
			}
			item.Title = strings.TrimSpace(text)
		}
		items = append(items, item)
	}
	return items, nil
}

// noteDetailFromDOM rebuilds a minimal note record from meta tags and the
// visible note body.
func (s *FeedService) noteDetailFromDOM(ctx context.Context, page Page, noteID string) (*xhs.NoteDetail, error) {
	snapshot, err := page.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := htmlquery.Parse(strings.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("parse page snapshot: %w", err)
	}

	note := &xhs.NoteDetail{ID: noteID}

	meta := func(name string) string {
		node, err := htmlquery.Query(doc, fmt.Sprintf(`//meta[@name=%q]`, name))
		if err != nil || node == nil {
			return ""
		}
		return htmlquery.SelectAttr(node, "content")
	}
	note.Title = meta("og:title")
	note.Content = meta("description")

	// Image candidates from og:image metas.
	imgNodes, err := htmlquery.QueryAll(doc, `//meta[@name="og:image"]`)
	if err == nil {
		for _, n := range imgNodes {
			if u := htmlquery.SelectAttr(n, "content"); u != "" {
				note.ImageURLs = append(note.ImageURLs, u)
			}
		}
	}

	if note.Title == "" && note.Content == "" && len(note.ImageURLs) == 0 {
		return nil, fmt.Errorf("note %s not present in the DOM", noteID)
	}
	return note, nil
}
