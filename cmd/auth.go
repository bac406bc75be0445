// File: cmd/auth.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xhsdash/xhs-cli/internal/service"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in by scanning the QR code in the opened browser window",
	Long: `Opens the site with any stored cookies. If the session is not
authenticated, a browser window is shown and the command waits for you to
complete the QR-code login on your phone, then saves the fresh cookies.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Login is interactive; force a visible window regardless of config.
		appCfg.Browser.Headless = false
		svc := service.NewAuthService(appEnv)
		return emit(svc.Login(cmd.Context(), browserPath))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session cookies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewAuthService(appEnv)
		return emit(svc.Logout(cmd.Context()))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the stored session is still authenticated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewAuthService(appEnv)
		return emit(svc.Status(cmd.Context(), browserPath))
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}
