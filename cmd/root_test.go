// File: cmd/root_test.go
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhsdash/xhs-cli/internal/service"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfgFile = ""
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 18060, cfg.Server.Port)
	assert.Equal(t, "https://www.xiaohongshu.com/explore", cfg.URLs.Explore)
}

func TestLoadConfig_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browser:\n  headless: false\nserver:\n  port: 9999\n"), 0o644))

	cfgFile = path
	defer func() { cfgFile = "" }()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 9999, cfg.Server.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, "https://creator.xiaohongshu.com/publish/publish", cfg.URLs.CreatorPublish)
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	cfgFile = path
	defer func() { cfgFile = "" }()

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestEmit_FailureExitsNonzero(t *testing.T) {
	err := emit(service.OK(map[string]int{"count": 1}))
	assert.NoError(t, err)

	err = emit(service.Fail(service.E(service.KindFeedNotFound, "search", "no results")))
	assert.ErrorIs(t, err, errOperationFailed)
}

func TestCommandTreeRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"login", "logout", "status",
		"feeds", "search", "note", "publish",
		"download", "user", "mcp",
	} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}
