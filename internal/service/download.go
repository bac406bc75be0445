// File: internal/service/download.go
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhsdash/xhs-cli/internal/xhs"
)

// DownloadService saves note media and metadata to disk.
type DownloadService struct {
	env    *Env
	feeds  *FeedService
	users  *UserService
	logger *zap.Logger

	// fetch downloads one URL to a local path. Injectable for tests.
	fetch func(ctx context.Context, url, dest string) error
	// loadNote resolves and extracts one note. Injectable for tests.
	loadNote func(ctx context.Context, page Page, rawRef, op string) (*xhs.NoteDetail, string, error)
	// listNotes enumerates a user's notes for batch downloads.
	listNotes func(ctx context.Context, page Page, userRef string, limit int, op string) ([]xhs.NoteSummary, error)
	// limiter paces note page loads during batch downloads so the batch
	// does not hammer the site.
	limiter *rate.Limiter
}

// NewDownloadService builds a DownloadService.
func NewDownloadService(env *Env, feeds *FeedService, users *UserService) *DownloadService {
	s := &DownloadService{
		env:    env,
		feeds:  feeds,
		users:  users,
		logger: env.Logger.Named("download"),
	}
	s.fetch = s.fetchToFile
	s.loadNote = feeds.loadNoteDetail
	s.listNotes = users.userNotes
	delay := env.Cfg.Download.NoteDelay
	if delay <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		s.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return s
}

// NoteDownloadData is the single-note download payload. Individual file
// fetches fail independently; FailedFiles and Errors account for them.
type NoteDownloadData struct {
	NoteID      string   `json:"noteId"`
	Dir         string   `json:"dir"`
	Images      int      `json:"images"`
	Video       bool     `json:"video"`
	FailedFiles int      `json:"failedFiles,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	Metadata    string   `json:"metadata"`
}

// DownloadNote fetches one note's media into the download directory:
// images as image_<n>.<ext> at original quality, the video as video.mp4,
// plus a metadata.json sidecar with the note record.
func (s *DownloadService) DownloadNote(ctx context.Context, rawRef, browserPath string) *Result {
	const op = "download_note"

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	data, opErr := s.downloadOne(ctx, page, rawRef, op)
	if opErr != nil {
		return Fail(opErr)
	}
	return OKMsg(data, "note downloaded")
}

// downloadOne loads a note on the given page and saves its media. Shared
// between the single and batch operations.
func (s *DownloadService) downloadOne(ctx context.Context, page Page, rawRef, op string) (*NoteDownloadData, error) {
	note, _, err := s.loadNote(ctx, page, rawRef, op)
	if err != nil {
		return nil, Wrap(KindDownloadDetail, op, "could not load the note", err).
			WithContext("ref", rawRef)
	}

	dir := s.noteDir(note)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Wrap(KindInternal, op, "could not create the download directory", err).
			WithContext("dir", dir)
	}

	data := &NoteDownloadData{NoteID: note.ID, Dir: dir}

	// A single file failing does not abort the note; the files that did
	// arrive stay on disk and the failure is counted.
	for i, imgURL := range note.ImageURLs {
		// Rendition URLs are rewritten to the original-quality CDN form
		// before fetching.
		src := xhs.RewriteImageURL(imgURL)
		dest := filepath.Join(dir, fmt.Sprintf("image_%d.%s", i+1, xhs.ImageExt(imgURL)))
		if err := s.fetch(ctx, src, dest); err != nil {
			data.FailedFiles++
			data.Errors = append(data.Errors, fmt.Sprintf("image %d: %v", i+1, err))
			s.logger.Warn("Image fetch failed.",
				zap.String("note_id", note.ID), zap.String("url", src), zap.Error(err))
			continue
		}
		data.Images++
	}

	if note.VideoURL != "" {
		dest := filepath.Join(dir, "video.mp4")
		if err := s.fetch(ctx, note.VideoURL, dest); err != nil {
			data.FailedFiles++
			data.Errors = append(data.Errors, fmt.Sprintf("video: %v", err))
			s.logger.Warn("Video fetch failed.",
				zap.String("note_id", note.ID), zap.String("url", note.VideoURL), zap.Error(err))
		} else {
			data.Video = true
		}
	}

	hadMedia := len(note.ImageURLs) > 0 || note.VideoURL != ""
	if hadMedia && data.Images == 0 && !data.Video {
		return nil, E(KindDownloadFetch, op, "none of the note's media could be fetched").
			WithContext("note_id", note.ID).
			WithContext("failed_files", data.FailedFiles)
	}

	metaPath := filepath.Join(dir, "metadata.json")
	if err := s.writeMetadata(metaPath, note); err != nil {
		return nil, Wrap(KindInternal, op, "could not write the metadata sidecar", err).
			WithContext("note_id", note.ID)
	}
	data.Metadata = metaPath

	s.logger.Info("Note downloaded.",
		zap.String("note_id", note.ID),
		zap.Int("images", data.Images),
		zap.Bool("video", data.Video),
		zap.String("dir", dir))
	return data, nil
}

// noteDir lays notes out as <download_dir>/<author>/<title-or-id>.
func (s *DownloadService) noteDir(note *xhs.NoteDetail) string {
	author := xhs.SanitizeFilename(note.Author.Nickname)
	name := note.Title
	if name == "" {
		name = note.ID
	}
	return filepath.Join(s.env.Cfg.Download.Dir, author, xhs.SanitizeFilename(name))
}

func (s *DownloadService) writeMetadata(path string, note *xhs.NoteDetail) error {
	blob, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// fetchToFile downloads a URL with browser-like headers.
func (s *DownloadService) fetchToFile(ctx context.Context, url, dest string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.env.Cfg.Download.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", browserLikeUserAgent)
	req.Header.Set("Referer", s.env.Cfg.URLs.Home+"/")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}

// BatchItem records one note's fate within a batch download.
type BatchItem struct {
	NoteID string `json:"noteId"`
	Dir    string `json:"dir,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchDownloadData is the batch download payload. Downloaded plus Failed
// always equals Total.
type BatchDownloadData struct {
	User       string      `json:"user"`
	Total      int         `json:"total"`
	Downloaded int         `json:"downloaded"`
	Failed     int         `json:"failed"`
	Items      []BatchItem `json:"items"`
}

// DownloadUserNotes downloads up to limit notes from a user's profile. Each
// note fails or succeeds on its own; one broken note never aborts the batch.
// The batch succeeds when at least one note came through.
func (s *DownloadService) DownloadUserNotes(ctx context.Context, userRef string, limit int, browserPath string) *Result {
	const op = "download_user_notes"
	if limit <= 0 {
		limit = 10
	}

	page, err := s.env.openPage(ctx, browserPath, true)
	if err != nil {
		return Fail(err)
	}
	defer page.Close()

	notes, opErr := s.listNotes(ctx, page, userRef, limit, op)
	if opErr != nil {
		return Fail(opErr)
	}
	if len(notes) == 0 {
		return Fail(E(KindUserNotFound, op, "the user has no visible notes").
			WithContext("user", userRef))
	}

	data := BatchDownloadData{User: userRef, Total: len(notes)}
	home := s.env.Cfg.URLs.Home
	for _, summary := range notes {
		if err := s.limiter.Wait(ctx); err != nil {
			return Fail(Wrap(KindInternal, op, "batch interrupted", err))
		}

		item := BatchItem{NoteID: summary.ID}
		ref := xhs.NoteURL(home, summary.ID, summary.XsecToken)
		result, err := s.downloadOne(ctx, page, ref, op)
		if err != nil {
			// Isolate the failure and move on to the next note.
			item.Error = err.Error()
			data.Failed++
			s.logger.Warn("Skipping note after download failure.",
				zap.String("note_id", summary.ID), zap.Error(err))
		} else {
			item.Dir = result.Dir
			data.Downloaded++
		}
		data.Items = append(data.Items, item)
	}

	if data.Downloaded == 0 {
		res := Fail(E(KindDownloadFetch, op, "every note in the batch failed to download").
			WithContext("user", userRef).
			WithContext("total", data.Total))
		res.Data = data
		return res
	}
	return OKMsg(data, fmt.Sprintf("downloaded %d of %d notes", data.Downloaded, data.Total))
}
