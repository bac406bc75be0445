// File: internal/xhs/state.go
package xhs

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// The site is a Vue application; window.__INITIAL_STATE__ carries the data
// the page rendered from. Reading it is far more stable than scraping the
// DOM, so every extraction tries the state path first and falls back to DOM
// parsing only when the script returns nothing.

// FeedStateJS serializes the explore feed entries. The feeds ref wraps its
// data in a _value field.
const FeedStateJS = `(() => {
	const s = window.__INITIAL_STATE__;
	if (!s || !s.feed || !s.feed.feeds || !s.feed.feeds._value) return "";
	return JSON.stringify(s.feed.feeds._value.map(f => ({
		id: f.id,
		xsecToken: f.xsecToken,
		noteCard: f.noteCard,
	})));
})()`

// SearchStateJS serializes search result entries, which live under a
// different branch of the state tree but share the noteCard shape.
const SearchStateJS = `(() => {
	const s = window.__INITIAL_STATE__;
	if (!s || !s.search || !s.search.feeds || !s.search.feeds._value) return "";
	return JSON.stringify(s.search.feeds._value.map(f => ({
		id: f.id,
		xsecToken: f.xsecToken,
		noteCard: f.noteCard,
	})));
})()`

// NoteStateJS serializes the currently open note's detail record.
const NoteStateJS = `(() => {
	const s = window.__INITIAL_STATE__;
	if (!s || !s.note || !s.note.noteDetailMap) return "";
	const m = s.note.noteDetailMap._value || s.note.noteDetailMap;
	const id = s.note.currentNoteId && (s.note.currentNoteId._value || s.note.currentNoteId);
	const entry = id ? m[id] : Object.values(m)[0];
	if (!entry || !entry.note) return "";
	return JSON.stringify(entry.note);
})()`

// UserStateJS serializes the profile page's user info and note list.
const UserStateJS = `(() => {
	const s = window.__INITIAL_STATE__;
	if (!s || !s.user) return "";
	const info = s.user.userPageData && (s.user.userPageData._value || s.user.userPageData);
	const notes = s.user.notes && (s.user.notes._value || s.user.notes);
	if (!info) return "";
	return JSON.stringify({ info: info, notes: notes || [] });
})()`

// rawFeedEntry mirrors the wire shape of one feed/search entry.
type rawFeedEntry struct {
	ID        string `json:"id"`
	XsecToken string `json:"xsecToken"`
	NoteCard  struct {
		Type         string `json:"type"`
		DisplayTitle string `json:"displayTitle"`
		User         struct {
			UserID   string `json:"userId"`
			Nickname string `json:"nickname"`
			Avatar   string `json:"avatar"`
		} `json:"user"`
		InteractInfo struct {
			LikedCount string `json:"likedCount"`
		} `json:"interactInfo"`
		Cover struct {
			URLDefault string `json:"urlDefault"`
		} `json:"cover"`
	} `json:"noteCard"`
}

// DecodeFeedItems parses the JSON produced by FeedStateJS or SearchStateJS.
// Entries without an ID (ads and placeholder cells) are dropped.
func DecodeFeedItems(data string, home string) ([]FeedItem, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var raw []rawFeedEntry
	if err := json.UnmarshalFromString(data, &raw); err != nil {
		return nil, fmt.Errorf("decode feed state: %w", err)
	}
	items := make([]FeedItem, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		items = append(items, FeedItem{
			ID:        r.ID,
			XsecToken: r.XsecToken,
			Type:      r.NoteCard.Type,
			Title:     r.NoteCard.DisplayTitle,
			Author: UserRef{
				UserID:   r.NoteCard.User.UserID,
				Nickname: r.NoteCard.User.Nickname,
				Avatar:   r.NoteCard.User.Avatar,
			},
			LikeCount: r.NoteCard.InteractInfo.LikedCount,
			CoverURL:  r.NoteCard.Cover.URLDefault,
			URL:       NoteURL(home, r.ID, r.XsecToken),
		})
	}
	return items, nil
}

// rawNote mirrors the wire shape of a note detail record.
type rawNote struct {
	NoteID string `json:"noteId"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Desc   string `json:"desc"`
	User   struct {
		UserID   string `json:"userId"`
		Nickname string `json:"nickname"`
		Avatar   string `json:"avatar"`
	} `json:"user"`
	InteractInfo InteractInfo `json:"interactInfo"`
	TagList      []struct {
		Name string `json:"name"`
	} `json:"tagList"`
	ImageList []struct {
		URLDefault string `json:"urlDefault"`
		InfoList   []struct {
			ImageScene string `json:"imageScene"`
			URL        string `json:"url"`
		} `json:"infoList"`
	} `json:"imageList"`
	Video struct {
		Media struct {
			Stream struct {
				H264 []struct {
					MasterURL string `json:"masterUrl"`
				} `json:"h264"`
			} `json:"stream"`
		} `json:"media"`
	} `json:"video"`
	Time int64 `json:"time"`
}

// DecodeNoteDetail parses the JSON produced by NoteStateJS.
func DecodeNoteDetail(data string) (*NoteDetail, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var raw rawNote
	if err := json.UnmarshalFromString(data, &raw); err != nil {
		return nil, fmt.Errorf("decode note state: %w", err)
	}
	if raw.NoteID == "" {
		return nil, nil
	}

	detail := &NoteDetail{
		ID:      raw.NoteID,
		Type:    raw.Type,
		Title:   raw.Title,
		Content: raw.Desc,
		Author: UserRef{
			UserID:   raw.User.UserID,
			Nickname: raw.User.Nickname,
			Avatar:   raw.User.Avatar,
		},
		Stats: raw.InteractInfo,
	}
	for _, tag := range raw.TagList {
		if tag.Name != "" {
			detail.Tags = append(detail.Tags, tag.Name)
		}
	}
	for _, img := range raw.ImageList {
		u := img.URLDefault
		// Prefer the watermark-free scene when the info list carries one.
		for _, info := range img.InfoList {
			if info.ImageScene == "WB_DFT" && info.URL != "" {
				u = info.URL
				break
			}
		}
		if u != "" {
			detail.ImageURLs = append(detail.ImageURLs, u)
		}
	}
	if h264 := raw.Video.Media.Stream.H264; len(h264) > 0 {
		detail.VideoURL = h264[0].MasterURL
	}
	return detail, nil
}

// rawUserPage mirrors the wire shape produced by UserStateJS.
type rawUserPage struct {
	Info struct {
		BasicInfo struct {
			Nickname string `json:"nickname"`
			RedID    string `json:"redId"`
			Desc     string `json:"desc"`
			Images   string `json:"images"`
		} `json:"basicInfo"`
		Interactions []struct {
			Type  string `json:"type"`
			Count string `json:"count"`
		} `json:"interactions"`
	} `json:"info"`
	Notes [][]struct {
		ID        string `json:"id"`
		XsecToken string `json:"xsecToken"`
		NoteCard  struct {
			Type         string `json:"type"`
			DisplayTitle string `json:"displayTitle"`
			Cover        struct {
				URLDefault string `json:"urlDefault"`
			} `json:"cover"`
		} `json:"noteCard"`
	} `json:"notes"`
}

// DecodeUserPage parses the JSON produced by UserStateJS into a profile and
// its visible notes.
func DecodeUserPage(data, userID, home string) (*UserProfile, []NoteSummary, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil, nil
	}
	var raw rawUserPage
	if err := json.UnmarshalFromString(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode user state: %w", err)
	}

	profile := &UserProfile{
		UserID:      userID,
		RedID:       raw.Info.BasicInfo.RedID,
		Nickname:    raw.Info.BasicInfo.Nickname,
		Description: raw.Info.BasicInfo.Desc,
		Avatar:      raw.Info.BasicInfo.Images,
	}
	for _, it := range raw.Info.Interactions {
		switch it.Type {
		case "follows":
			profile.Following = it.Count
		case "fans":
			profile.Followers = it.Count
		case "interaction":
			profile.Likes = it.Count
		}
	}

	var notes []NoteSummary
	// The notes field is column-sharded for the masonry layout.
	for _, column := range raw.Notes {
		for _, n := range column {
			if n.ID == "" {
				continue
			}
			notes = append(notes, NoteSummary{
				ID:        n.ID,
				XsecToken: n.XsecToken,
				Type:      n.NoteCard.Type,
				Title:     n.NoteCard.DisplayTitle,
				CoverURL:  n.NoteCard.Cover.URLDefault,
				URL:       NoteURL(home, n.ID, n.XsecToken),
			})
		}
	}
	return profile, notes, nil
}
