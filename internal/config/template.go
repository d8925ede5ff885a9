package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrConfigExists is returned by WriteDefault when the file exists and force is false.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes a config file template to path.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("log", map[string]any{
		"level":  "info",
		"format": "text",
	})
	v.Set("x", map[string]any{
		"client_id":           "YOUR_X_CLIENT_ID",
		"client_secret":       "",
		"redirect_uri":        "http://127.0.0.1:8765/callback",
		"scopes":              []string{"bookmark.read", "bookmark.write", "tweet.read", "users.read", "offline.access"},
		"access_token":        "",
		"requests_per_minute": 0,
	})
	v.Set("raindrop", map[string]any{
		"token": "YOUR_RAINDROP_TOKEN",
	})
	v.Set("sync", map[string]any{
		"collection_id":    0,
		"collection_title": "",
		"tags":             []string{"x-bookmark", "auto-synced"},
		"remove_from_x":    false,
		"link_mode":        "permalink",
		"both_behavior":    "one_external_plus_note",
		"state_backend":    "json",
		"dry_run":          false,
	})
	v.Set("telegram", map[string]any{
		"bot_token": "",
		"chat_id":   0,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
