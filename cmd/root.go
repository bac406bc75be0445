// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xhsdash/xhs-cli/internal/browser"
	"github.com/xhsdash/xhs-cli/internal/config"
	"github.com/xhsdash/xhs-cli/internal/credentials"
	"github.com/xhsdash/xhs-cli/internal/observability"
	"github.com/xhsdash/xhs-cli/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	cfgFile     string
	browserPath string
	headful     bool
)

// Shared application state, assembled once in PersistentPreRunE. The browser
// process itself only launches when a command opens a page.
var (
	appCfg     *config.Config
	appManager *browser.Manager
	appEnv     *service.Env
)

// errOperationFailed signals a failed Result envelope that has already been
// printed; Execute translates it into a nonzero exit without re-printing.
var errOperationFailed = errors.New("operation failed")

var rootCmd = &cobra.Command{
	Use:     "xhs-cli",
	Short:   "Browser automation toolkit for XiaoHongShu (RedNote).",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "xhs-cli"})
			return err
		}
		if headful {
			cfg.Browser.Headless = false
		}
		observability.InitializeLogger(cfg.Logger)
		logger := observability.GetLogger()

		creds, err := credentials.NewStore(cfg.Auth.CookieFile, logger)
		if err != nil {
			return err
		}

		appCfg = cfg
		appManager = browser.NewManager(cfg, creds, logger)
		appEnv = service.NewEnv(cfg, logger, service.NewBrowser(appManager), creds)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appManager != nil {
			ctx, cancel := shutdownContext()
			defer cancel()
			appManager.Shutdown(ctx)
		}
		observability.Sync()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Failed operations and setup errors both exit 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errOperationFailed) {
			if logger := observability.GetLogger(); logger != nil {
				logger.Error("Command failed", zap.Error(err))
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&browserPath, "browser-path", "", "path to a browser binary to use instead of the bundled default")
	rootCmd.PersistentFlags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig layers defaults, an optional config file and XHS_* environment
// variables, in that order.
func loadConfig() (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.xhs-cli")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file; defaults and environment carry the run.
	}
	return config.NewConfigFromViper(v)
}

// emit prints the operation's Result envelope as JSON on stdout. A failed
// envelope also fails the process.
func emit(res *service.Result) error {
	blob, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(blob))
	if !res.Success {
		return errOperationFailed
	}
	return nil
}

func shutdownContext() (ctx context.Context, cancel context.CancelFunc) {
	timeout := 15 * time.Second
	if appCfg != nil && appCfg.Server.ShutdownTimeout > 0 {
		timeout = appCfg.Server.ShutdownTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}
