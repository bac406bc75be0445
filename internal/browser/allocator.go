// File: internal/browser/allocator.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xhsdash/xhs-cli/internal/config"
)

// defaultUserAgent is a current desktop Chrome identity. The target site
// serves a degraded page (and a different login flow) to obvious bots, so
// the headless default is replaced unless the operator overrides it.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// DefaultAllocatorOptions translates BrowserConfig into chromedp exec
// allocator options.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "zh-CN"),
	)

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	opts = append(opts, chromedp.UserAgent(ua))

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
		opts = append(opts, chromedp.Flag("window-size",
			fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)))
	}

	if cfg.DisableCache {
		opts = append(opts,
			chromedp.Flag("disable-cache", true),
			chromedp.Flag("disk-cache-size", "0"),
			chromedp.Flag("media-cache-size", "0"),
		)
	}

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	for _, arg := range cfg.Args {
		name, value := splitFlag(arg)
		if value == "" {
			opts = append(opts, chromedp.Flag(name, true))
		} else {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}

	return opts
}

// splitFlag normalizes "--name=value" and "name" forms so operators can
// write args either way.
func splitFlag(arg string) (name, value string) {
	for len(arg) > 0 && arg[0] == '-' {
		arg = arg[1:]
	}
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}
