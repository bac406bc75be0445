// File: internal/mcp/tools.go
package mcp

import (
	"context"
	"fmt"

	"github.com/xhsdash/xhs-cli/internal/service"
)

// toolHandler executes one tool call with decoded-at-the-edge parameters.
type toolHandler func(ctx context.Context, params []byte) *service.Result

// toolEntry pairs a tool's schema with its handler.
type toolEntry struct {
	tool    Tool
	handler toolHandler
}

// Services bundles the domain services the tool catalogue dispatches to.
type Services struct {
	Auth     *service.AuthService
	Feed     *service.FeedService
	Publish  *service.PublishService
	Note     *service.NoteService
	Download *service.DownloadService
	User     *service.UserService
}

func stringProp(desc string) Property { return Property{Type: "string", Description: desc} }
func intProp(desc string) Property    { return Property{Type: "integer", Description: desc} }
func boolProp(desc string) Property   { return Property{Type: "boolean", Description: desc} }
func stringListProp(desc string) Property {
	return Property{Type: "array", Description: desc, Items: &Property{Type: "string"}}
}

// browserPathProp is carried by every tool that opens a browser, mirroring
// the CLI's --browser-path flag.
func browserPathProp() Property {
	return stringProp("Optional path to a custom browser executable for this call.")
}

// decode unmarshals tool arguments, turning malformed input into a failed
// envelope instead of a transport error.
func decode(params []byte, into interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, into); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func invalidArgs(err error) *service.Result {
	return service.Fail(service.Wrap(service.KindInternal, "tools_call", "arguments did not decode", err))
}

// buildCatalogue wires every domain operation into the tool list. Order here
// is the order tools/list presents.
func buildCatalogue(svcs Services) []toolEntry {
	type browserArgs struct {
		BrowserPath string `json:"browser_path"`
	}
	type noteArgs struct {
		URL         string `json:"url"`
		BrowserPath string `json:"browser_path"`
	}
	type limitArgs struct {
		Limit       int    `json:"limit"`
		BrowserPath string `json:"browser_path"`
	}

	return []toolEntry{
		{
			tool: Tool{
				Name:        "login",
				Description: "Open a browser window and wait for the user to complete the QR-code login, then persist the session cookies.",
				InputSchema: Schema{
					Type:       "object",
					Properties: map[string]Property{"browser_path": browserPathProp()},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a browserArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Auth.Login(ctx, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "logout",
				Description: "Forget the stored session cookies. Never opens a browser.",
				InputSchema: Schema{Type: "object"},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				return svcs.Auth.Logout(ctx)
			},
		},
		{
			tool: Tool{
				Name:        "check_login_status",
				Description: "Report whether the stored session is still authenticated. Read-only.",
				InputSchema: Schema{
					Type:       "object",
					Properties: map[string]Property{"browser_path": browserPathProp()},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a browserArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Auth.Status(ctx, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "list_feeds",
				Description: "Fetch items from the personalized explore feed.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"limit":        intProp("Maximum items to return (default 20)."),
						"browser_path": browserPathProp(),
					},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a limitArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Feed.Feeds(ctx, a.Limit, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "search_feeds",
				Description: "Search notes by keyword.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"keyword":      stringProp("Search keyword."),
						"limit":        intProp("Maximum items to return (default 20)."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"keyword"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a struct {
					Keyword     string `json:"keyword"`
					Limit       int    `json:"limit"`
					BrowserPath string `json:"browser_path"`
				}
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Feed.Search(ctx, a.Keyword, a.Limit, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "get_note_detail",
				Description: "Open a note by URL, share short link or note ID and return its full content.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"url":          stringProp("Note URL, xhslink.com short link, or 24-hex note ID."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"url"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a noteArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Feed.NoteDetail(ctx, a.URL, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "post_comment",
				Description: "Post a comment on a note.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"url":          stringProp("Note URL, short link, or note ID."),
						"content":      stringProp("Comment text."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"url", "content"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a struct {
					URL         string `json:"url"`
					Content     string `json:"content"`
					BrowserPath string `json:"browser_path"`
				}
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Feed.Comment(ctx, a.URL, a.Content, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "like_note",
				Description: "Toggle the like reaction on a note.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"url":          stringProp("Note URL, short link, or note ID."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"url"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a noteArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Feed.Like(ctx, a.URL, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "collect_note",
				Description: "Toggle the favorite reaction on a note.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"url":          stringProp("Note URL, short link, or note ID."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"url"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a noteArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Feed.Collect(ctx, a.URL, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "publish_image_note",
				Description: "Publish an image note through the creator studio. Images may be local paths or http(s) URLs.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"title":        stringProp("Note title. Display width is limited; CJK characters count double."),
						"content":      stringProp("Note body text."),
						"tags":         stringListProp("Topic tags, without the # prefix."),
						"images":       stringListProp("Image paths or URLs, in display order."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"title", "content", "images"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a struct {
					Title       string   `json:"title"`
					Content     string   `json:"content"`
					Tags        []string `json:"tags"`
					Images      []string `json:"images"`
					BrowserPath string   `json:"browser_path"`
				}
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Publish.PublishImages(ctx, service.PublishRequest{
					Title: a.Title, Content: a.Content, Tags: a.Tags, Images: a.Images,
					BrowserPath: a.BrowserPath,
				})
			},
		},
		{
			tool: Tool{
				Name:        "publish_video_note",
				Description: "Publish a video note through the creator studio.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"title":        stringProp("Note title. Display width is limited; CJK characters count double."),
						"content":      stringProp("Note body text."),
						"tags":         stringListProp("Topic tags, without the # prefix."),
						"video":        stringProp("Local video file path."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"title", "content", "video"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a struct {
					Title       string   `json:"title"`
					Content     string   `json:"content"`
					Tags        []string `json:"tags"`
					Video       string   `json:"video"`
					BrowserPath string   `json:"browser_path"`
				}
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Publish.PublishVideo(ctx, service.PublishRequest{
					Title: a.Title, Content: a.Content, Tags: a.Tags, Video: a.Video,
					BrowserPath: a.BrowserPath,
				})
			},
		},
		{
			tool: Tool{
				Name:        "list_my_notes",
				Description: "List the logged-in account's published notes, newest first.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"limit":        intProp("Maximum notes to return (default 20)."),
						"browser_path": browserPathProp(),
					},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a limitArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Note.ListNotes(ctx, a.Limit, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "delete_note",
				Description: "Delete one of the account's notes, by ID or the most recent one. Exactly one selector must be given.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"note_id":      stringProp("ID of the note to delete."),
						"last":         boolProp("Delete the most recently published note instead."),
						"browser_path": browserPathProp(),
					},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a struct {
					NoteID      string `json:"note_id"`
					Last        bool   `json:"last"`
					BrowserPath string `json:"browser_path"`
				}
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Note.DeleteNote(ctx, a.NoteID, a.Last, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "download_note",
				Description: "Download a note's images or video at original quality, plus a metadata sidecar.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"url":          stringProp("Note URL, short link, or note ID."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"url"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a noteArgs
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Download.DownloadNote(ctx, a.URL, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "download_user_notes",
				Description: "Download up to limit notes from a user's profile. Notes fail individually; the batch reports per-note outcomes.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"user":         stringProp("Profile URL, share short link, or user ID."),
						"limit":        intProp("Maximum notes to download (default 10)."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"user"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a struct {
					User        string `json:"user"`
					Limit       int    `json:"limit"`
					BrowserPath string `json:"browser_path"`
				}
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.Download.DownloadUserNotes(ctx, a.User, a.Limit, a.BrowserPath)
			},
		},
		{
			tool: Tool{
				Name:        "get_user_profile",
				Description: "Fetch a user's profile and their visible notes.",
				InputSchema: Schema{
					Type: "object",
					Properties: map[string]Property{
						"user":         stringProp("Profile URL, share short link, or user ID."),
						"browser_path": browserPathProp(),
					},
					Required: []string{"user"},
				},
			},
			handler: func(ctx context.Context, params []byte) *service.Result {
				var a struct {
					User        string `json:"user"`
					BrowserPath string `json:"browser_path"`
				}
				if err := decode(params, &a); err != nil {
					return invalidArgs(err)
				}
				return svcs.User.Profile(ctx, a.User, a.BrowserPath)
			},
		},
	}
}
