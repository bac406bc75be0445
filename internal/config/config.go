// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object for xhs-cli. It is populated from
// config.yaml, environment variables (prefix XHS_) and command line flags,
// in ascending order of precedence.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Download DownloadConfig `mapstructure:"download"`
	Server   ServerConfig   `mapstructure:"server"`
	URLs     URLConfig      `mapstructure:"urls"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level"`
	Format      string      `mapstructure:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name"`
	LogFile     string      `mapstructure:"log_file"`
	MaxSize     int         `mapstructure:"max_size"` // megabytes, per rotated file
	MaxBackups  int         `mapstructure:"max_backups"`
	MaxAge      int         `mapstructure:"max_age"` // days
	Compress    bool        `mapstructure:"compress"`
	AddSource   bool        `mapstructure:"add_source"`
	Colors      ColorConfig `mapstructure:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug"`
	Info   string `mapstructure:"info"`
	Warn   string `mapstructure:"warn"`
	Error  string `mapstructure:"error"`
	DPanic string `mapstructure:"dpanic"`
	Panic  string `mapstructure:"panic"`
	Fatal  string `mapstructure:"fatal"`
}

// BrowserConfig controls the Chrome process and page behaviour.
type BrowserConfig struct {
	Headless bool   `mapstructure:"headless"`
	ExecPath string `mapstructure:"exec_path"`
	// UserAgent overrides the default desktop user agent when non-empty.
	UserAgent    string `mapstructure:"user_agent"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
	DisableCache bool   `mapstructure:"disable_cache"`
	// Args are appended verbatim to the Chrome command line.
	Args []string `mapstructure:"args"`
	// Concurrency bounds how many pages may be open at once.
	Concurrency       int64         `mapstructure:"concurrency"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	SelectorTimeout   time.Duration `mapstructure:"selector_timeout"`
	NavigationRetries int           `mapstructure:"navigation_retries"`
}

// AuthConfig controls credential persistence and the interactive login flow.
type AuthConfig struct {
	CookieFile   string        `mapstructure:"cookie_file"`
	LoginTimeout time.Duration `mapstructure:"login_timeout"`
}

// PublishConfig holds content limits and completion windows for publishing.
type PublishConfig struct {
	MaxTitleWidth    int `mapstructure:"max_title_width"` // display cells, CJK counts double
	MaxContentLength int `mapstructure:"max_content_length"`
	MaxImages        int `mapstructure:"max_images"`
	// Completion windows for the post-submit polling loop.
	PublishTimeout         time.Duration `mapstructure:"publish_timeout"`
	VideoPublishTimeout    time.Duration `mapstructure:"video_publish_timeout"`
	VideoProcessingTimeout time.Duration `mapstructure:"video_processing_timeout"`
	PollInterval           time.Duration `mapstructure:"poll_interval"`
	BusyPollInterval       time.Duration `mapstructure:"busy_poll_interval"`
}

// DownloadConfig controls media downloads.
type DownloadConfig struct {
	Dir          string        `mapstructure:"dir"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// NoteDelay paces successive note downloads in a batch.
	NoteDelay time.Duration `mapstructure:"note_delay"`
}

// ServerConfig controls the tool protocol HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// URLConfig collects the well known target URLs so deployments can track
// upstream changes without a rebuild.
type URLConfig struct {
	Home           string `mapstructure:"home"`
	Explore        string `mapstructure:"explore"`
	Search         string `mapstructure:"search"`
	Login          string `mapstructure:"login"`
	CreatorPublish string `mapstructure:"creator_publish"`
	ProfileBase    string `mapstructure:"profile_base"`
}

// Addr returns the listen address for the tool server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SetDefaults registers the default value for every configuration key on the
// given viper instance. Call this before ReadInConfig so a partial config
// file only overrides the keys it mentions.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "xhs-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.disable_cache", false)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.concurrency", int64(4))
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.selector_timeout", 10*time.Second)
	v.SetDefault("browser.navigation_retries", 3)

	v.SetDefault("auth.cookie_file", "~/.xhs-cli/cookies.json")
	v.SetDefault("auth.login_timeout", 3*time.Minute)

	v.SetDefault("publish.max_title_width", 40)
	v.SetDefault("publish.max_content_length", 1000)
	v.SetDefault("publish.max_images", 18)
	v.SetDefault("publish.publish_timeout", 60*time.Second)
	v.SetDefault("publish.video_publish_timeout", 300*time.Second)
	v.SetDefault("publish.video_processing_timeout", 120*time.Second)
	v.SetDefault("publish.poll_interval", time.Second)
	v.SetDefault("publish.busy_poll_interval", 500*time.Millisecond)

	v.SetDefault("download.dir", "./downloads")
	v.SetDefault("download.fetch_timeout", 60*time.Second)
	v.SetDefault("download.note_delay", time.Second)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 18060)
	v.SetDefault("server.request_timeout", 10*time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("urls.home", "https://www.xiaohongshu.com")
	v.SetDefault("urls.explore", "https://www.xiaohongshu.com/explore")
	v.SetDefault("urls.search", "https://www.xiaohongshu.com/search_result")
	v.SetDefault("urls.login", "https://www.xiaohongshu.com/login")
	v.SetDefault("urls.creator_publish", "https://creator.xiaohongshu.com/publish/publish")
	v.SetDefault("urls.profile_base", "https://www.xiaohongshu.com/user/profile")
}

// BindEnv wires the XHS_ environment variable namespace into viper, so for
// example XHS_BROWSER_HEADLESS=false overrides browser.headless.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("XHS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper unmarshals and validates a Config from the given viper
// instance. Defaults must already be registered on it.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot produce a working run.
func (c *Config) Validate() error {
	if c.Browser.Concurrency < 1 {
		return fmt.Errorf("browser.concurrency must be at least 1, got %d", c.Browser.Concurrency)
	}
	if c.Browser.NavigationRetries < 1 {
		return fmt.Errorf("browser.navigation_retries must be at least 1, got %d", c.Browser.NavigationRetries)
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be positive")
	}
	if c.Publish.MaxImages < 1 {
		return fmt.Errorf("publish.max_images must be at least 1, got %d", c.Publish.MaxImages)
	}
	if c.Publish.MaxTitleWidth < 1 {
		return fmt.Errorf("publish.max_title_width must be at least 1, got %d", c.Publish.MaxTitleWidth)
	}
	if c.Publish.PollInterval <= 0 {
		return fmt.Errorf("publish.poll_interval must be positive")
	}
	if c.Auth.CookieFile == "" {
		return fmt.Errorf("auth.cookie_file must not be empty")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	return nil
}

// Default returns a Config built purely from defaults. Handy for tests and
// for components constructed outside the CLI bootstrap.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are maintained alongside Validate; a failure here is a bug.
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}
