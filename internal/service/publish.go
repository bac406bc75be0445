// File: internal/service/publish.go
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser/await"
	"github.com/xhsdash/xhs-cli/internal/browser/resolve"
	"github.com/xhsdash/xhs-cli/internal/xhs"
)

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".flv": true, ".mkv": true}
)

// PublishService drives the creator-studio publishing flows.
type PublishService struct {
	env    *Env
	auth   *AuthService
	logger *zap.Logger
	// stage fetches a remote image into destDir and returns the local
	// path. Injectable for tests.
	stage func(ctx context.Context, url, destDir string) (string, error)
}

// NewPublishService builds a PublishService.
func NewPublishService(env *Env) *PublishService {
	s := &PublishService{
		env:    env,
		auth:   NewAuthService(env),
		logger: env.Logger.Named("publish"),
	}
	s.stage = s.stageRemoteImage
	return s
}

// PublishRequest carries the inputs of a publish operation. Images may be
// local paths or http(s) URLs; remote ones are staged to a temp dir first.
type PublishRequest struct {
	Title       string
	Content     string
	Tags        []string
	Images      []string
	Video       string
	BrowserPath string
}

// PublishData is the publish payload.
type PublishData struct {
	NoteID     string `json:"noteId,omitempty"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	ImageCount int    `json:"imageCount,omitempty"`
	Type       string `json:"type"`
}

// PublishImages publishes an image note.
func (s *PublishService) PublishImages(ctx context.Context, req PublishRequest) *Result {
	const op = "publish_image"

	// All validation happens before any browser interaction.
	if err := s.validateText(op, req); err != nil {
		return Fail(err)
	}
	cfg := s.env.Cfg
	if len(req.Images) == 0 {
		return Fail(E(KindPublishValidation, op, "an image note needs at least one image"))
	}
	if len(req.Images) > cfg.Publish.MaxImages {
		return Fail(E(KindPublishValidation, op,
			fmt.Sprintf("too many images: %d (limit %d)", len(req.Images), cfg.Publish.MaxImages)).
			WithContext("image_count", len(req.Images)))
	}

	files, cleanup, err := s.prepareImages(ctx, op, req.Images)
	if err != nil {
		return Fail(err)
	}
	defer cleanup()

	data := PublishData{Title: req.Title, Content: req.Content, ImageCount: len(files), Type: "image"}
	if err := s.runPublishFlow(ctx, op, req, files, resolve.ImageTab(), cfg.Publish.PublishTimeout, &data); err != nil {
		return Fail(err)
	}
	return OKMsg(data, "note published")
}

// PublishVideo publishes a video note.
func (s *PublishService) PublishVideo(ctx context.Context, req PublishRequest) *Result {
	const op = "publish_video"

	if err := s.validateText(op, req); err != nil {
		return Fail(err)
	}
	if req.Video == "" {
		return Fail(E(KindPublishValidation, op, "a video note needs exactly one video file"))
	}
	if err := checkLocalFile(op, req.Video, videoExts); err != nil {
		return Fail(err)
	}

	cfg := s.env.Cfg
	data := PublishData{Title: req.Title, Content: req.Content, Type: "video"}
	if err := s.runPublishFlow(ctx, op, req, []string{req.Video}, resolve.VideoTab(), cfg.Publish.VideoPublishTimeout, &data); err != nil {
		return Fail(err)
	}
	return OKMsg(data, "video published")
}

// validateText applies the pre-browser text constraints.
func (s *PublishService) validateText(op string, req PublishRequest) error {
	cfg := s.env.Cfg.Publish
	if strings.TrimSpace(req.Title) == "" {
		return E(KindPublishValidation, op, "title must not be empty")
	}
	if err := xhs.ValidateTitleWidth(req.Title, cfg.MaxTitleWidth); err != nil {
		return Wrap(KindPublishValidation, op, "title too wide", err).
			WithContext("title_width", xhs.DisplayWidth(req.Title)).
			WithContext("max_width", cfg.MaxTitleWidth)
	}
	if len([]rune(req.Content)) > cfg.MaxContentLength {
		return E(KindPublishValidation, op,
			fmt.Sprintf("content length %d exceeds limit %d", len([]rune(req.Content)), cfg.MaxContentLength))
	}
	return nil
}

// prepareImages checks local files and stages remote URLs. The returned
// cleanup removes any staging directory.
func (s *PublishService) prepareImages(ctx context.Context, op string, images []string) ([]string, func(), error) {
	cleanup := func() {}
	var stagingDir string

	files := make([]string, 0, len(images))
	for _, img := range images {
		if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
			if stagingDir == "" {
				dir, err := os.MkdirTemp("", "xhs-publish-*")
				if err != nil {
					return nil, cleanup, Wrap(KindInternal, op, "could not create staging dir", err)
				}
				stagingDir = dir
				cleanup = func() { os.RemoveAll(dir) }
			}
			local, err := s.stage(ctx, img, stagingDir)
			if err != nil {
				cleanup()
				return nil, func() {}, Wrap(KindInvalidMedia, op, "could not fetch remote image", err).
					WithContext("url", img)
			}
			files = append(files, local)
			continue
		}
		if err := checkLocalFile(op, img, imageExts); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		files = append(files, img)
	}
	return files, cleanup, nil
}

func checkLocalFile(op, path string, allowed map[string]bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return Wrap(KindInvalidMedia, op, "media file not accessible", err).
			WithContext("path", path)
	}
	if info.IsDir() {
		return E(KindInvalidMedia, op, "media path is a directory").WithContext("path", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !allowed[ext] {
		return E(KindInvalidMedia, op, fmt.Sprintf("unsupported media format %q", ext)).
			WithContext("path", path)
	}
	return nil
}

// stageRemoteImage downloads a remote image with browser-like headers.
func (s *PublishService) stageRemoteImage(ctx context.Context, url, destDir string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.env.Cfg.Download.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserLikeUserAgent)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	ext := "." + xhs.ImageExt(url)
	f, err := os.CreateTemp(destDir, "staged_*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// runPublishFlow is the shared browser choreography: open the studio,
// select the tab, upload, wait, fill, submit, wait, extract the note ID.
// Steps are strictly sequential; the target UI does not tolerate
// interleaving.
func (s *PublishService) runPublishFlow(
	ctx context.Context,
	op string,
	req PublishRequest,
	files []string,
	tab resolve.Role,
	completionWindow time.Duration,
	data *PublishData,
) error {
	cfg := s.env.Cfg

	page, err := s.env.openPage(ctx, req.BrowserPath, true)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.NavigateWithRetry(ctx, cfg.URLs.CreatorPublish, cfg.Browser.NavigationRetries); err != nil {
		return Wrap(KindNavigation, op, "could not open the creator studio", err)
	}
	if err := s.auth.RequireLogin(ctx, page, op); err != nil {
		return err
	}

	if err := s.env.resolveAndClick(ctx, page, tab); err != nil {
		return Wrap(KindElementNotFound, op, "publish tab not found", err).
			WithContext("role", tab.Name)
	}

	fileInput, err := s.env.Resolver.Resolve(ctx, page, resolve.FileInput())
	if err != nil {
		return Wrap(KindElementNotFound, op, "file input not found", err)
	}
	if err := page.UploadFiles(ctx, fileInput, files); err != nil {
		return Wrap(KindPublishFlow, op, "file upload failed", err).
			WithContext("file_count", len(files))
	}

	// Wait for the upload/transcode to settle before touching the form.
	uploadWindow := cfg.Publish.PublishTimeout
	if data.Type == "video" {
		uploadWindow = cfg.Publish.VideoProcessingTimeout
	}
	res, err := await.Wait(ctx,
		await.Config{
			Timeout:      uploadWindow,
			Interval:     cfg.Publish.PollInterval,
			BusyInterval: cfg.Publish.BusyPollInterval,
		},
		await.Signals{
			Success: []await.Probe{s.roleProbe(page, resolve.UploadSuccessMarker(), "upload marker visible")},
			Failure: []await.Probe{s.roleProbe(page, resolve.PublishErrorToast(), "upload error shown")},
			Busy:    []await.Probe{s.roleProbe(page, resolve.ProcessingMarker(), "still uploading")},
		},
		s.logger)
	if err != nil {
		return Wrap(KindPublishFlow, op, "upload wait interrupted", err)
	}
	switch res.Outcome {
	case await.Succeeded:
	case await.Failed:
		return E(KindPublishFlow, op, "the site reported an upload failure").
			WithContext("detail", res.Detail)
	default:
		return E(KindCompletionTimeout, op, "upload did not complete in time").
			WithContext("timeout", uploadWindow.String())
	}

	if err := s.fillForm(ctx, page, op, req); err != nil {
		return err
	}

	if err := s.env.resolveAndClick(ctx, page, resolve.PublishSubmit()); err != nil {
		return Wrap(KindElementNotFound, op, "publish button not found", err)
	}

	res, err = await.Wait(ctx,
		await.Config{
			Timeout:      completionWindow,
			Interval:     cfg.Publish.PollInterval,
			BusyInterval: cfg.Publish.BusyPollInterval,
		},
		await.Signals{
			Success: []await.Probe{
				s.roleProbe(page, resolve.PublishSuccessToast(), "success toast visible"),
				// Leaving the publish form is a success heuristic; it is
				// deliberately ordered after the explicit indicators.
				s.leftPublishPageProbe(page),
			},
			Failure: []await.Probe{s.roleProbe(page, resolve.PublishErrorToast(), "error toast visible")},
			Busy:    []await.Probe{s.roleProbe(page, resolve.ProcessingMarker(), "still publishing")},
		},
		s.logger)
	if err != nil {
		return Wrap(KindPublishFlow, op, "completion wait interrupted", err)
	}
	switch res.Outcome {
	case await.Succeeded:
	case await.Failed:
		return E(KindPublishFlow, op, "the site reported a publish failure").
			WithContext("detail", res.Detail)
	default:
		return E(KindCompletionTimeout, op, "publish did not complete in time").
			WithContext("timeout", completionWindow.String())
	}

	// Best effort only: a publish without a recovered ID is still a
	// successful publish.
	data.NoteID = s.extractNoteID(ctx, page)
	return nil
}

// fillForm types title, content and tags in the order the UI expects.
func (s *PublishService) fillForm(ctx context.Context, page Page, op string, req PublishRequest) error {
	titleLoc, err := s.env.Resolver.Resolve(ctx, page, resolve.TitleInput())
	if err != nil {
		return Wrap(KindElementNotFound, op, "title input not found", err)
	}
	if err := page.TypeText(ctx, titleLoc, req.Title); err != nil {
		return Wrap(KindPublishFlow, op, "could not type the title", err)
	}

	contentLoc, err := s.env.Resolver.Resolve(ctx, page, resolve.ContentEditor())
	if err != nil {
		return Wrap(KindElementNotFound, op, "content editor not found", err)
	}
	if err := page.TypeText(ctx, contentLoc, req.Content); err != nil {
		return Wrap(KindPublishFlow, op, "could not type the content", err)
	}

	// Tags are typed into the editor as topic markers.
	for _, tag := range req.Tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		if err := page.TypeText(ctx, contentLoc, " #"+tag+" "); err != nil {
			s.logger.Warn("Could not add tag; continuing without it.",
				zap.String("tag", tag), zap.Error(err))
		}
	}
	return nil
}

// roleProbe adapts a resolver role into a completion probe.
func (s *PublishService) roleProbe(page Page, role resolve.Role, detail string) await.Probe {
	return func(ctx context.Context) (bool, string, error) {
		return s.env.roleVisible(ctx, page, role), detail, nil
	}
}

func (s *PublishService) leftPublishPageProbe(page Page) await.Probe {
	return func(ctx context.Context) (bool, string, error) {
		url, err := page.CurrentURL(ctx)
		if err != nil {
			return false, "", err
		}
		return !strings.Contains(url, "publish"), "left the publish form", nil
	}
}

// extractNoteID tries, in order: the current URL, a note link in the DOM,
// and the newest entry of the creator content listing.
func (s *PublishService) extractNoteID(ctx context.Context, page Page) string {
	// 1. Post-redirect URL.
	if url, err := page.CurrentURL(ctx); err == nil {
		if ref, err := xhs.ParseNoteURL(url); err == nil {
			return ref.ID
		}
	}

	// 2. Any note link on the landing page.
	if id := firstNoteLinkID(ctx, page); id != "" {
		return id
	}

	// 3. Newest note in the content manager listing.
	managerURL := strings.Replace(s.env.Cfg.URLs.CreatorPublish, "/publish/publish", "/new/note-manager", 1)
	if err := page.Navigate(ctx, managerURL); err != nil {
		s.logger.Debug("Note ID extraction: listing navigation failed.", zap.Error(err))
		return ""
	}
	return firstNoteLinkID(ctx, page)
}

func firstNoteLinkID(ctx context.Context, page Page) string {
	var href string
	err := page.Eval(ctx,
		`(() => { const a = document.querySelector('a[href*="/explore/"]'); return a ? a.href : ""; })()`,
		&href)
	if err != nil || href == "" {
		return ""
	}
	ref, err := xhs.ParseNoteURL(href)
	if err != nil {
		return ""
	}
	return ref.ID
}

// browserLikeUserAgent matches what the browser sessions present, so media
// fetches look like page subresource loads.
const browserLikeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
