package auth

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCredential_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"expires in 59s", now.Add(59 * time.Second), true},
		{"expires in exactly the margin", now.Add(ExpiryMargin), true},
		{"expires in 61s", now.Add(61 * time.Second), false},
		{"expires in an hour", now.Add(time.Hour), false},
		{"already expired", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Credential{AccessToken: "a", ExpiresAt: tt.expires}
			assert.Equal(t, tt.want, c.Expired(now))
		})
	}
}

func TestNewDirectCredential(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewDirectCredential("  tok  ", now)

	assert.Equal(t, "tok", c.AccessToken)
	assert.False(t, c.Refreshable())
	assert.Equal(t, "bearer", c.TokenType)
	assert.False(t, c.Expired(now.Add(300*24*time.Hour)))
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewCredentialStore(path, testLogger())

	assert.Nil(t, store.Load(), "missing file should load as nil")

	in := &Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		Scope:        "bookmark.read tweet.read",
	}
	require.NoError(t, store.Save(in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out := store.Load()
	require.NotNil(t, out)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.RefreshToken, out.RefreshToken)
	assert.Equal(t, in.Scope, out.Scope)
	assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt))
}

func TestCredentialStore_NullRefreshToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewCredentialStore(path, testLogger())

	require.NoError(t, store.Save(&Credential{AccessToken: "a", TokenType: "bearer", ExpiresAt: time.Now().Add(time.Hour)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"refresh_token": null`)

	out := store.Load()
	require.NotNil(t, out)
	assert.False(t, out.Refreshable())
}

func TestCredentialStore_NaiveTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	raw := `{"access_token":"a","refresh_token":"r","token_type":"bearer","expires_at":"2030-01-02T03:04:05.123456","scope":"x"}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	out := NewCredentialStore(path, testLogger()).Load()
	require.NotNil(t, out)
	assert.Equal(t, 2030, out.ExpiresAt.Year())
	assert.Equal(t, "r", out.RefreshToken)
}

func TestCredentialStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewCredentialStore(path, testLogger())

	for _, raw := range []string{"not json", `{"access_token":"a","expires_at":"yesterday"}`, `{"expires_at":"2030-01-02T03:04:05Z"}`} {
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
		assert.Nil(t, store.Load(), "corrupt file %q should load as nil", raw)
	}
}

func TestCredentialStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewCredentialStore(path, testLogger())

	require.NoError(t, store.Save(&Credential{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Delete())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(), "deleting twice should be a no-op")
}

func TestNewPKCE(t *testing.T) {
	a := NewPKCE()
	b := NewPKCE()

	assert.NotEqual(t, a.Verifier, b.Verifier)
	assert.Len(t, a.Verifier, 43)
	assert.NotContains(t, a.Verifier, "=")
	assert.NotEmpty(t, a.Challenge)
	assert.NotEqual(t, a.Verifier, a.Challenge)
}

func TestNewState(t *testing.T) {
	s1, err := NewState()
	require.NoError(t, err)
	s2, err := NewState()
	require.NoError(t, err)

	assert.Len(t, s1, 43)
	assert.NotEqual(t, s1, s2)
}
