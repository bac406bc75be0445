// File: internal/xhs/urls.go
package xhs

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Short links are what the mobile share sheet produces. They redirect to a
// full note or profile URL and can only be resolved by following them.
const shortLinkHost = "xhslink.com"

var noteIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// NoteRef is a parsed reference to a note.
type NoteRef struct {
	ID        string
	XsecToken string
}

// IsShortLink reports whether the raw string is an xhslink.com share link.
func IsShortLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == shortLinkHost
}

// ParseNoteURL extracts the note ID and xsec token from a note URL. Both
// /explore/{id} and /discovery/item/{id} forms are accepted, as is a bare
// 24-hex note ID.
func ParseNoteURL(raw string) (NoteRef, error) {
	raw = strings.TrimSpace(raw)
	if noteIDPattern.MatchString(raw) {
		return NoteRef{ID: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return NoteRef{}, fmt.Errorf("parse note url %q: %w", raw, err)
	}

	var id string
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if (seg == "explore" || seg == "item") && i+1 < len(segments) {
			id = segments[i+1]
			break
		}
	}
	if id == "" {
		return NoteRef{}, fmt.Errorf("no note id in url %q", raw)
	}
	return NoteRef{ID: id, XsecToken: u.Query().Get("xsec_token")}, nil
}

// NoteURL builds the canonical note page URL. The xsec token is required by
// the site for direct navigation from outside the feed; when absent the page
// may render an access-denied placeholder, so it is passed through whenever
// known.
func NoteURL(home, id, xsecToken string) string {
	u := fmt.Sprintf("%s/explore/%s", strings.TrimRight(home, "/"), id)
	if xsecToken != "" {
		u += "?xsec_token=" + url.QueryEscape(xsecToken) + "&xsec_source=pc_feed"
	}
	return u
}

// SearchURL builds a keyword search results URL.
func SearchURL(searchBase, keyword string) string {
	return fmt.Sprintf("%s?keyword=%s&source=web_explore_feed",
		strings.TrimRight(searchBase, "/"), url.QueryEscape(keyword))
}

// ProfileURL builds a user profile URL from a user ID.
func ProfileURL(profileBase, userID string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(profileBase, "/"), userID)
}

// ParseProfileURL extracts the user ID from a profile URL.
func ParseProfileURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse profile url %q: %w", raw, err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "profile" && i+1 < len(segments) {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("no user id in url %q", raw)
}
