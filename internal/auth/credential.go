package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"x2raindrop/internal/domain"
	"x2raindrop/internal/fileutil"
)

const (
	// ExpiryMargin is how long before its expiry instant a credential stops being used.
	ExpiryMargin = 60 * time.Second

	defaultTokenType     = "bearer"
	defaultTokenLifetime = 2 * time.Hour
	directTokenLifetime  = 365 * 24 * time.Hour
)

// Credential is a persisted OAuth 2.0 token.
type Credential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	Scope        string
}

// Expired reports whether the credential is within ExpiryMargin of its expiry.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt.Add(-ExpiryMargin))
}

// Refreshable reports whether a refresh token is available.
func (c *Credential) Refreshable() bool {
	return c.RefreshToken != ""
}

// NewDirectCredential wraps a long-lived access token obtained elsewhere.
// Direct tokens cannot be refreshed and carry no scope information.
func NewDirectCredential(accessToken string, now time.Time) *Credential {
	return &Credential{
		AccessToken: strings.TrimSpace(accessToken),
		TokenType:   defaultTokenType,
		ExpiresAt:   now.Add(directTokenLifetime),
	}
}

func credentialFromToken(tok *oauth2.Token, now time.Time) *Credential {
	c := &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if c.TokenType == "" {
		c.TokenType = defaultTokenType
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = now.Add(defaultTokenLifetime)
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		c.Scope = scope
	}
	return c
}

// credentialFile is the on-disk layout of a Credential.
type credentialFile struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresAt    string  `json:"expires_at"`
	Scope        string  `json:"scope"`
}

// CredentialStore persists a Credential as a JSON file.
type CredentialStore struct {
	path string
	log  logrus.FieldLogger
}

// NewCredentialStore creates a store for the file at path.
func NewCredentialStore(path string, logger logrus.FieldLogger) *CredentialStore {
	return &CredentialStore{
		path: path,
		log:  logger.WithFields(logrus.Fields{"component": "credential_store", "path": path}),
	}
}

// Path returns the credential file location.
func (s *CredentialStore) Path() string {
	return s.path
}

// Load returns the stored credential, or nil when the file is missing or unreadable.
func (s *CredentialStore) Load() *Credential {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).Warn("Failed to read token file")
		}
		return nil
	}

	var file credentialFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.log.WithError(err).Warn("Failed to load token")
		return nil
	}
	if file.AccessToken == "" {
		s.log.Warn("Token file has no access_token")
		return nil
	}
	expiresAt, err := domain.ParseTimestamp(file.ExpiresAt)
	if err != nil {
		s.log.WithError(err).Warn("Failed to load token")
		return nil
	}

	c := &Credential{
		AccessToken: file.AccessToken,
		TokenType:   file.TokenType,
		ExpiresAt:   expiresAt,
		Scope:       file.Scope,
	}
	if file.RefreshToken != nil {
		c.RefreshToken = *file.RefreshToken
	}
	if c.TokenType == "" {
		c.TokenType = defaultTokenType
	}
	return c
}

// Save writes the credential with owner-only permissions.
func (s *CredentialStore) Save(c *Credential) error {
	file := credentialFile{
		AccessToken: c.AccessToken,
		TokenType:   c.TokenType,
		ExpiresAt:   domain.FormatTimestamp(c.ExpiresAt),
		Scope:       c.Scope,
	}
	if c.RefreshToken != "" {
		rt := c.RefreshToken
		file.RefreshToken = &rt
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		s.log.WithError(err).Error("Failed to save token")
		return fmt.Errorf("failed to save token: %w", err)
	}
	s.log.Debug("Token saved")
	return nil
}

// Delete removes the credential file. Deleting a missing file is not an error.
func (s *CredentialStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
