package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x2raindrop/internal/domain"
)

// isolate points the config directory at a temp dir and runs the test from
// an empty working directory so no real config or .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8765/callback", cfg.X.RedirectURI)
	assert.Contains(t, cfg.X.Scopes, "offline.access")
	assert.Equal(t, 2*time.Minute, cfg.X.LoginTimeout)
	assert.Equal(t, "permalink", cfg.Sync.LinkMode)
	assert.Equal(t, "json", cfg.Sync.StateBackend)
	assert.Equal(t, "state.json", filepath.Base(cfg.Sync.StatePath))
	assert.Empty(t, cfg.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
x:
  client_id: client-123
raindrop:
  token: rd-token
sync:
  collection_id: 4242
  tags: [one, two]
  link_mode: both
  both_behavior: two_raindrops
`)
	t.Setenv("SYNC_REMOVE_FROM_X", "true")
	t.Setenv("RAINDROP_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "client-123", cfg.X.ClientID)
	assert.Equal(t, "env-token", cfg.Raindrop.Token, "environment overrides the file")
	assert.Equal(t, int64(4242), cfg.Sync.CollectionID)
	assert.Equal(t, []string{"one", "two"}, cfg.Sync.Tags)
	assert.True(t, cfg.Sync.RemoveFromX)

	mode, err := cfg.Sync.Mode()
	require.NoError(t, err)
	assert.Equal(t, domain.LinkModeBoth, mode)

	behavior, err := cfg.Sync.Behavior()
	require.NoError(t, err)
	assert.Equal(t, domain.BothTwoBookmarks, behavior)

	assert.NoError(t, cfg.ValidateForSync())
}

func TestLoad_CommaSeparatedTagsFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SYNC_TAGS", "x-bookmark, auto-synced ,")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"x-bookmark", "auto-synced"}, cfg.Sync.Tags)
}

func TestLoad_BadgerBackendDefaultPath(t *testing.T) {
	isolate(t)
	t.Setenv("SYNC_STATE_BACKEND", "badger")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "state.badger", filepath.Base(cfg.Sync.StatePath))
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateForSync(t *testing.T) {
	base := func() *Config {
		return &Config{
			X:        XConfig{ClientID: "id"},
			Raindrop: RaindropConfig{Token: "tok"},
			Sync: SyncConfig{
				CollectionID: 1,
				LinkMode:     "permalink",
				BothBehavior: "one_external_plus_note",
				StateBackend: "json",
			},
		}
	}

	require.NoError(t, base().ValidateForSync())

	cfg := base()
	cfg.Sync.CollectionID = 0
	assert.ErrorIs(t, cfg.ValidateForSync(), ErrMissingCollection)

	cfg.Sync.CollectionTitle = "Reading"
	assert.NoError(t, cfg.ValidateForSync(), "a title can stand in for the id")

	cfg = base()
	cfg.Raindrop.Token = " "
	assert.ErrorIs(t, cfg.ValidateForSync(), ErrMissingRaindropToken)

	cfg = base()
	cfg.X.ClientID = ""
	assert.ErrorIs(t, cfg.ValidateForSync(), ErrMissingXCredentials)

	cfg.X.AccessToken = "direct"
	assert.NoError(t, cfg.ValidateForSync())

	cfg = base()
	cfg.Sync.LinkMode = "bogus"
	assert.ErrorIs(t, cfg.ValidateForSync(), ErrInvalidLinkMode)

	cfg = base()
	cfg.Sync.BothBehavior = "three_raindrops"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidLinkMode)

	cfg = base()
	cfg.Sync.StateBackend = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestWriteDefault(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "sub", "config.yaml")

	require.NoError(t, WriteDefault(path, false))
	assert.ErrorIs(t, WriteDefault(path, false), ErrConfigExists)
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "YOUR_X_CLIENT_ID", cfg.X.ClientID)
	assert.Equal(t, []string{"x-bookmark", "auto-synced"}, cfg.Sync.Tags)
	assert.Equal(t, "one_external_plus_note", cfg.Sync.BothBehavior)
}
