// File: cmd/note.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xhsdash/xhs-cli/internal/service"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Read and interact with notes",
}

var noteDetailCmd = &cobra.Command{
	Use:   "detail <url|short-link|note-id>",
	Short: "Fetch a note's full content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewFeedService(appEnv)
		return emit(svc.NoteDetail(cmd.Context(), args[0], browserPath))
	},
}

var noteCommentCmd = &cobra.Command{
	Use:   "comment <url|short-link|note-id> <text>",
	Short: "Post a comment on a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewFeedService(appEnv)
		return emit(svc.Comment(cmd.Context(), args[0], args[1], browserPath))
	},
}

var noteLikeCmd = &cobra.Command{
	Use:   "like <url|short-link|note-id>",
	Short: "Toggle the like reaction on a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewFeedService(appEnv)
		return emit(svc.Like(cmd.Context(), args[0], browserPath))
	},
}

var noteCollectCmd = &cobra.Command{
	Use:   "collect <url|short-link|note-id>",
	Short: "Toggle the favorite reaction on a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewFeedService(appEnv)
		return emit(svc.Collect(cmd.Context(), args[0], browserPath))
	},
}

var noteListLimit int

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the logged-in account's published notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewNoteService(appEnv)
		return emit(svc.ListNotes(cmd.Context(), noteListLimit, browserPath))
	},
}

var (
	deleteNoteID string
	deleteLast   bool
)

var noteDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one of the account's notes",
	Long:  "Deletes a note by --id, or the most recently published one with --last. Exactly one selector must be given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewNoteService(appEnv)
		return emit(svc.DeleteNote(cmd.Context(), deleteNoteID, deleteLast, browserPath))
	},
}

func init() {
	noteListCmd.Flags().IntVar(&noteListLimit, "limit", 20, "maximum notes to return")
	noteDeleteCmd.Flags().StringVar(&deleteNoteID, "id", "", "ID of the note to delete")
	noteDeleteCmd.Flags().BoolVar(&deleteLast, "last", false, "delete the most recently published note")

	noteCmd.AddCommand(noteDetailCmd, noteCommentCmd, noteLikeCmd, noteCollectCmd, noteListCmd, noteDeleteCmd)
	rootCmd.AddCommand(noteCmd)
}
