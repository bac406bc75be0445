// File: internal/xhs/types.go

// Package xhs holds projections of the XiaoHongShu web application's client
// state plus URL and text helpers. Everything here is best-effort: the
// upstream JSON shapes drift, so decoding tolerates missing fields instead
// of failing.
package xhs

// UserRef identifies a user as embedded in feed items and note details.
type UserRef struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

// FeedItem is one entry from the explore feed or a search result page.
type FeedItem struct {
	ID        string  `json:"id"`
	XsecToken string  `json:"xsecToken"`
	Type      string  `json:"type"` // "normal" or "video"
	Title     string  `json:"title"`
	Author    UserRef `json:"author"`
	LikeCount string  `json:"likeCount"`
	CoverURL  string  `json:"coverUrl,omitempty"`
	URL       string  `json:"url,omitempty"`
}

// InteractInfo carries the engagement counters as the site reports them.
// Counts arrive as display strings ("1.2万"), not numbers.
type InteractInfo struct {
	LikedCount     string `json:"likedCount"`
	CollectedCount string `json:"collectedCount"`
	CommentCount   string `json:"commentCount"`
	ShareCount     string `json:"shareCount"`
	Liked          bool   `json:"liked"`
	Collected      bool   `json:"collected"`
}

// NoteDetail is the full note as shown on an /explore/{id} page.
type NoteDetail struct {
	ID        string       `json:"id"`
	XsecToken string       `json:"xsecToken,omitempty"`
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Tags      []string     `json:"tags,omitempty"`
	Author    UserRef      `json:"author"`
	Stats     InteractInfo `json:"stats"`
	ImageURLs []string     `json:"imageUrls,omitempty"`
	VideoURL  string       `json:"videoUrl,omitempty"`
	PostedAt  string       `json:"postedAt,omitempty"`
}

// Comment is one comment under a note.
type Comment struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Author    UserRef `json:"author"`
	LikeCount string  `json:"likeCount,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// UserProfile is a user page projection.
type UserProfile struct {
	UserID      string `json:"userId"`
	RedID       string `json:"redId,omitempty"`
	Nickname    string `json:"nickname"`
	Description string `json:"description,omitempty"`
	Followers   string `json:"followers,omitempty"`
	Following   string `json:"following,omitempty"`
	Likes       string `json:"likes,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	URL         string `json:"url,omitempty"`
}

// NoteSummary is a compact note reference from a profile or creator listing.
type NoteSummary struct {
	ID        string `json:"id"`
	XsecToken string `json:"xsecToken,omitempty"`
	Type      string `json:"type,omitempty"`
	Title     string `json:"title"`
	CoverURL  string `json:"coverUrl,omitempty"`
	URL       string `json:"url,omitempty"`
}
