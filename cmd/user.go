// File: cmd/user.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xhsdash/xhs-cli/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user <profile-url|short-link|user-id>",
	Short: "Fetch a user's profile and visible notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewUserService(appEnv)
		return emit(svc.Profile(cmd.Context(), args[0], browserPath))
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
}
