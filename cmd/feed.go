// File: cmd/feed.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xhsdash/xhs-cli/internal/service"
)

var feedLimit int

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Fetch items from the personalized explore feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewFeedService(appEnv)
		return emit(svc.Feeds(cmd.Context(), feedLimit, browserPath))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search notes by keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewFeedService(appEnv)
		return emit(svc.Search(cmd.Context(), args[0], feedLimit, browserPath))
	},
}

func init() {
	feedsCmd.Flags().IntVar(&feedLimit, "limit", 20, "maximum items to return")
	searchCmd.Flags().IntVar(&feedLimit, "limit", 20, "maximum items to return")
	rootCmd.AddCommand(feedsCmd, searchCmd)
}
