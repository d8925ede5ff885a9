package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x2raindrop/internal/config"
	"x2raindrop/internal/storage"
)

// isolate points every default location at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "x2raindrop version dev\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "cfg", "config.yaml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = run(t, "config", "init", path)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	_, err = run(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "x-bookmark, auto-synced")
	assert.NotContains(t, out, "YOUR_RAINDROP_TOKEN")
}

func TestConfigPath(t *testing.T) {
	isolate(t)
	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPath()+"\n", out)
}

func TestConfigInitWritesExplicitConfigPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "new", "config.yaml")

	out, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	// The written file is loadable by commands that read configuration.
	_, err = run(t, "--config", path, "config", "show")
	assert.NoError(t, err)
}

func TestConfigPathWithExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "missing.yaml")

	out, err := run(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestMissingExplicitConfigFailsSync(t *testing.T) {
	dir := isolate(t)

	_, err := run(t, "--config", filepath.Join(dir, "typo.yaml"), "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestSyncRequiresConfiguration(t *testing.T) {
	isolate(t)
	_, err := run(t, "sync")
	assert.ErrorIs(t, err, config.ErrMissingCollection)

	t.Setenv("SYNC_COLLECTION_ID", "5")
	_, err = run(t, "sync")
	assert.ErrorIs(t, err, config.ErrMissingRaindropToken)

	t.Setenv("RAINDROP_TOKEN", "rd")
	_, err = run(t, "sync")
	assert.ErrorIs(t, err, config.ErrMissingXCredentials)

	_, err = run(t, "sync", "--link-mode", "bogus")
	assert.ErrorIs(t, err, config.ErrInvalidLinkMode)
}

func TestStateShowAndClear(t *testing.T) {
	dir := isolate(t)
	statePath := filepath.Join(dir, "state.json")
	t.Setenv("SYNC_STATE_PATH", statePath)

	ledger := storage.NewJSONLedger(statePath, logrus.New())
	ledger.MarkSynced("100", []string{"https://x.com/i/status/100"}, false)
	require.NoError(t, ledger.Save())

	out, err := run(t, "state", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "100")

	_, err = run(t, "state", "clear")
	require.Error(t, err)

	out, err = run(t, "state", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 records")

	reloaded := storage.NewJSONLedger(statePath, logrus.New())
	reloaded.Load()
	assert.Equal(t, 0, reloaded.Count())
}

func TestXLoginWithDirectToken(t *testing.T) {
	isolate(t)
	t.Setenv("X_ACCESS_TOKEN", "direct-token")

	out, err := run(t, "x", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "browser login is not needed")

	out, err = run(t, "x", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Direct access token")
	assert.NotContains(t, out, "direct-token")
}

func TestXLogoutIsIdempotent(t *testing.T) {
	dir := isolate(t)
	tokenPath := filepath.Join(dir, "token.json")
	t.Setenv("X_TOKEN_PATH", tokenPath)
	require.NoError(t, os.WriteFile(tokenPath, []byte(`{}`), 0o600))

	for range 2 {
		_, err := run(t, "x", "logout")
		require.NoError(t, err)
	}
	assert.NoFileExists(t, tokenPath)
}

func TestNewLogger(t *testing.T) {
	l := newLogger(config.LogConfig{Level: "warn", Format: "text"}, false)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l = newLogger(config.LogConfig{Level: "nonsense", Format: "json"}, true)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}
