// File: cmd/download.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xhsdash/xhs-cli/internal/service"
)

var downloadLimit int

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download note media at original quality",
}

func newDownloadService() *service.DownloadService {
	feeds := service.NewFeedService(appEnv)
	users := service.NewUserService(appEnv)
	return service.NewDownloadService(appEnv, feeds, users)
}

var downloadNoteCmd = &cobra.Command{
	Use:   "note <url|short-link|note-id>",
	Short: "Download one note's images or video plus a metadata sidecar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(newDownloadService().DownloadNote(cmd.Context(), args[0], browserPath))
	},
}

var downloadUserCmd = &cobra.Command{
	Use:   "user <profile-url|short-link|user-id>",
	Short: "Download a user's recent notes",
	Long: `Downloads up to --limit notes from a user's profile. Each note
succeeds or fails on its own; the result reports per-note outcomes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(newDownloadService().DownloadUserNotes(cmd.Context(), args[0], downloadLimit, browserPath))
	},
}

func init() {
	downloadUserCmd.Flags().IntVar(&downloadLimit, "limit", 10, "maximum notes to download")
	downloadCmd.AddCommand(downloadNoteCmd, downloadUserCmd)
	rootCmd.AddCommand(downloadCmd)
}
