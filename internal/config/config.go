package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"x2raindrop/internal/domain"
)

// Configuration errors. They are returned before any network call is made.
var (
	ErrMissingCollection    = errors.New("no raindrop collection configured: set sync.collection_id (SYNC_COLLECTION_ID) or sync.collection_title")
	ErrMissingRaindropToken = errors.New("raindrop.token (RAINDROP_TOKEN) is not set")
	ErrMissingXCredentials  = errors.New("no X authentication configured: set x.access_token (X_ACCESS_TOKEN) or x.client_id (X_CLIENT_ID)")
	ErrInvalidLinkMode      = errors.New("invalid link mode setting")
)

// Config holds all configuration for the application.
// Values are read by viper from a yaml config file, a .env file or environment variables.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	X        XConfig        `mapstructure:"x"`
	Raindrop RaindropConfig `mapstructure:"raindrop"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Telegram TelegramConfig `mapstructure:"telegram"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// XConfig configures access to the X API.
type XConfig struct {
	ClientID          string        `mapstructure:"client_id"`
	ClientSecret      string        `mapstructure:"client_secret"`
	RedirectURI       string        `mapstructure:"redirect_uri"`
	Scopes            []string      `mapstructure:"scopes"`
	TokenPath         string        `mapstructure:"token_path"`
	AccessToken       string        `mapstructure:"access_token"`
	UserID            string        `mapstructure:"user_id"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
	LoginTimeout      time.Duration `mapstructure:"login_timeout"`
}

// HasDirectToken reports whether a long-lived access token is configured.
func (x XConfig) HasDirectToken() bool {
	return strings.TrimSpace(x.AccessToken) != ""
}

// CanUsePKCE reports whether the browser login flow can be used.
func (x XConfig) CanUsePKCE() bool {
	return strings.TrimSpace(x.ClientID) != ""
}

type RaindropConfig struct {
	Token string `mapstructure:"token"`
}

// SyncConfig controls what a sync run does.
type SyncConfig struct {
	CollectionID    int64    `mapstructure:"collection_id"`
	CollectionTitle string   `mapstructure:"collection_title"`
	Tags            []string `mapstructure:"tags"`
	RemoveFromX     bool     `mapstructure:"remove_from_x"`
	LinkMode        string   `mapstructure:"link_mode"`
	BothBehavior    string   `mapstructure:"both_behavior"`
	StateBackend    string   `mapstructure:"state_backend"`
	StatePath       string   `mapstructure:"state_path"`
	DryRun          bool     `mapstructure:"dry_run"`
	MaxResults      int      `mapstructure:"max_results"`
}

// Mode returns the validated link mode.
func (s SyncConfig) Mode() (domain.LinkMode, error) {
	return domain.ParseLinkMode(s.LinkMode)
}

// Behavior returns the validated both-behavior.
func (s SyncConfig) Behavior() (domain.BothBehavior, error) {
	return domain.ParseBothBehavior(s.BothBehavior)
}

// TelegramConfig enables the run summary notifier when both fields are set.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Enabled reports whether the notifier is configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// DefaultDir returns the directory that holds the config, token and state files.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "x2raindrop")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "x2raindrop")
	}
	return ".x2raindrop"
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	dir := DefaultDir()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("x.client_id", "")
	v.SetDefault("x.client_secret", "")
	v.SetDefault("x.redirect_uri", "http://127.0.0.1:8765/callback")
	v.SetDefault("x.scopes", []string{"bookmark.read", "bookmark.write", "tweet.read", "users.read", "offline.access"})
	v.SetDefault("x.token_path", filepath.Join(dir, "x_token.json"))
	v.SetDefault("x.access_token", "")
	v.SetDefault("x.user_id", "")
	v.SetDefault("x.requests_per_minute", 0)
	v.SetDefault("x.login_timeout", 2*time.Minute)

	v.SetDefault("raindrop.token", "")

	v.SetDefault("sync.collection_id", 0)
	v.SetDefault("sync.collection_title", "")
	v.SetDefault("sync.tags", []string{})
	v.SetDefault("sync.remove_from_x", false)
	v.SetDefault("sync.link_mode", string(domain.LinkModePermalink))
	v.SetDefault("sync.both_behavior", string(domain.BothOneExternalPlusNote))
	v.SetDefault("sync.state_backend", "json")
	v.SetDefault("sync.state_path", "")
	v.SetDefault("sync.dry_run", false)
	v.SetDefault("sync.max_results", 0)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
}

// Load reads configuration from path (or the default locations when empty),
// a .env file in the working directory, and the environment.
func Load(path string) (*Config, error) {
	// .env is optional; existing environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()

	return &cfg, nil
}

func (c *Config) normalize() {
	c.Sync.Tags = cleanList(c.Sync.Tags)
	c.X.Scopes = cleanList(c.X.Scopes)
	c.Sync.StateBackend = strings.ToLower(strings.TrimSpace(c.Sync.StateBackend))
	if c.Sync.StateBackend == "" {
		c.Sync.StateBackend = "json"
	}
	if c.Sync.StatePath == "" {
		switch c.Sync.StateBackend {
		case "badger":
			c.Sync.StatePath = filepath.Join(DefaultDir(), "state.badger")
		default:
			c.Sync.StatePath = filepath.Join(DefaultDir(), "state.json")
		}
	}
}

// cleanList trims entries and splits comma-separated values, which is how
// lists arrive from environment variables.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// ParseTags splits a comma-separated tag flag.
func ParseTags(s string) []string {
	return cleanList([]string{s})
}

// Validate checks settings that do not depend on which command runs.
func (c *Config) Validate() error {
	if _, err := c.Sync.Mode(); err != nil {
		return fmt.Errorf("%w: sync.link_mode: %v", ErrInvalidLinkMode, err)
	}
	if _, err := c.Sync.Behavior(); err != nil {
		return fmt.Errorf("%w: sync.both_behavior: %v", ErrInvalidLinkMode, err)
	}
	switch c.Sync.StateBackend {
	case "json", "badger", "memory":
	default:
		return fmt.Errorf("invalid sync.state_backend %q", c.Sync.StateBackend)
	}
	if c.Sync.MaxResults < 0 {
		return fmt.Errorf("sync.max_results must not be negative")
	}
	if c.X.RequestsPerMinute < 0 {
		return fmt.Errorf("x.requests_per_minute must not be negative")
	}
	return nil
}

// ValidateForSync checks everything a sync run needs.
func (c *Config) ValidateForSync() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Sync.CollectionID == 0 && strings.TrimSpace(c.Sync.CollectionTitle) == "" {
		return ErrMissingCollection
	}
	if strings.TrimSpace(c.Raindrop.Token) == "" {
		return ErrMissingRaindropToken
	}
	if !c.X.HasDirectToken() && !c.X.CanUsePKCE() {
		return ErrMissingXCredentials
	}
	return nil
}
