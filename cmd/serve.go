// File: cmd/serve.go
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xhsdash/xhs-cli/internal/mcp"
	"github.com/xhsdash/xhs-cli/internal/service"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve every operation as a tool over a JSON-RPC HTTP endpoint",
	Long: `Starts the tool protocol server so agent frameworks can call the
toolkit's operations (feeds, search, publish, download, ...) over HTTP.
The server runs until interrupted and shuts down gracefully.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		feeds := service.NewFeedService(appEnv)
		users := service.NewUserService(appEnv)
		svcs := mcp.Services{
			Auth:     service.NewAuthService(appEnv),
			Feed:     feeds,
			Publish:  service.NewPublishService(appEnv),
			Note:     service.NewNoteService(appEnv),
			Download: service.NewDownloadService(appEnv, feeds, users),
			User:     users,
		}

		server := mcp.NewServer(appCfg, appEnv.Logger, svcs, Version)
		server.OnShutdown(func(ctx context.Context) error {
			return appEnv.Browser.Shutdown(ctx)
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
