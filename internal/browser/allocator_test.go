// internal/browser/allocator_test.go
package browser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xhsdash/xhs-cli/internal/config"
)

// hasOption checks for an option by inspecting its string representation,
// which keeps these tests free of a browser dependency.
func hasOption(t *testing.T, opts []chromedp.ExecAllocatorOption, substring string) bool {
	t.Helper()
	for _, opt := range opts {
		if strings.Contains(fmt.Sprintf("%#v", opt), substring) {
			return true
		}
	}
	return false
}

func TestDefaultAllocatorOptions(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{Headless: true})
		assert.NotEmpty(t, opts)
		assert.True(t, hasOption(t, opts, "disable-blink-features"))
	})

	t.Run("CacheDisabled", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{DisableCache: true})
		assert.True(t, hasOption(t, opts, "disable-cache"))
		assert.True(t, hasOption(t, opts, "disk-cache-size"))
		assert.True(t, hasOption(t, opts, "media-cache-size"))
	})

	t.Run("WithViewport", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{WindowWidth: 1920, WindowHeight: 1080})
		assert.True(t, hasOption(t, opts, "window-size"))
	})

	t.Run("WithCustomArgs", func(t *testing.T) {
		opts := DefaultAllocatorOptions(config.BrowserConfig{
			Args: []string{"--custom-arg1", "proxy-server=socks5://127.0.0.1:9050"},
		})
		assert.True(t, hasOption(t, opts, "custom-arg1"))
		assert.True(t, hasOption(t, opts, "proxy-server"))
	})
}

func TestSplitFlag(t *testing.T) {
	tests := []struct {
		in, name, value string
	}{
		{"--no-sandbox", "no-sandbox", ""},
		{"no-sandbox", "no-sandbox", ""},
		{"--lang=zh-CN", "lang", "zh-CN"},
		{"window-size=800,600", "window-size", "800,600"},
	}
	for _, tt := range tests {
		name, value := splitFlag(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.value, value, tt.in)
	}
}
