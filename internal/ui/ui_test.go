package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"x2raindrop/internal/auth"
	"x2raindrop/internal/config"
	"x2raindrop/internal/domain"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "(not set)", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "abcd...wxyz", MaskSecret("abcdefghijklmnopqrstuvwxyz"))
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	res := domain.RunResult{Total: 3, AlreadySynced: 1, NewlySynced: 2, DeletedFromSource: 2}
	res.AddError("[9] Failed to delete from X: boom")

	RenderResults(&buf, "Sync Results", res, 7)
	out := buf.String()

	assert.Contains(t, out, "Sync Results")
	assert.Contains(t, out, "Newly synced")
	assert.Contains(t, out, "X API requests")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "[9] Failed to delete from X: boom")
}

func TestRenderResults_NoErrorsTable(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, "Sync Results", domain.RunResult{Total: 1, NewlySynced: 1}, 1)
	assert.NotContains(t, buf.String(), "Errors")
}

func TestRenderCollections(t *testing.T) {
	parent := int64(1)
	var buf bytes.Buffer
	RenderCollections(&buf, []domain.Collection{
		{ID: 1, Title: "Reading", Count: 4},
		{ID: 2, Title: "X Bookmarks", Count: 0, ParentID: &parent},
	})
	out := buf.String()
	assert.Contains(t, out, "Reading")
	assert.Contains(t, out, "X Bookmarks")
}

func TestRenderConfig_MasksSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Raindrop.Token = "rd-secret-token-value"
	cfg.X.ClientSecret = "x-client-secret-value"
	cfg.Sync.CollectionTitle = "Saved"

	var buf bytes.Buffer
	RenderConfig(&buf, cfg)
	out := buf.String()

	assert.NotContains(t, out, "rd-secret-token-value")
	assert.NotContains(t, out, "x-client-secret-value")
	assert.Contains(t, out, "rd-s...alue")
	assert.Contains(t, out, `"Saved" (by title)`)
}

func TestRenderAuthStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	RenderAuthStatus(&buf, auth.Status{}, "/tmp/token.json", now)
	assert.Contains(t, buf.String(), "Not authenticated")

	buf.Reset()
	RenderAuthStatus(&buf, auth.Status{
		Authenticated: true,
		Method:        "OAuth 2.0 PKCE",
		TokenType:     "bearer",
		ExpiresAt:     now.Add(90 * time.Minute),
		Scope:         "bookmark.read",
	}, "/tmp/token.json", now)
	out := buf.String()
	assert.Contains(t, out, "OAuth 2.0 PKCE")
	assert.Contains(t, out, "1h30m0s")
	assert.Contains(t, out, "bookmark.read")
}

func TestRenderLedger_Limit(t *testing.T) {
	recs := []domain.SyncRecord{
		{ItemID: "3", SyncedAt: time.Now()},
		{ItemID: "2", SyncedAt: time.Now()},
		{ItemID: "1", SyncedAt: time.Now()},
	}
	var buf bytes.Buffer
	RenderLedger(&buf, "state.json", recs, 2)
	out := buf.String()

	assert.Contains(t, out, "3")
	assert.Contains(t, out, "state.json")
}

func TestProgress_Update(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false)
	p.Update(1, 2, "Synced: 42")
	p.Update(2, 2, "Failed: 43")

	assert.Equal(t, "[1/2] Synced: 42\n[2/2] Failed: 43\n", buf.String())
}
