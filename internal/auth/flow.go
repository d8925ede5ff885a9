package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"x2raindrop/internal/browser"
)

// X OAuth 2.0 endpoints.
const (
	XAuthorizeURL = "https://x.com/i/oauth2/authorize"
	XTokenURL     = "https://api.x.com/2/oauth2/token"
)

const (
	defaultCallbackPort = "8765"
	defaultLoginTimeout = 2 * time.Minute
	tokenRequestTimeout = 30 * time.Second
)

var (
	// ErrNotAuthenticated means no usable credential exists; the caller decides
	// whether to start an interactive login.
	ErrNotAuthenticated = errors.New("not authenticated with X")

	ErrLoginTimeout        = errors.New("authorization timed out")
	ErrStateMismatch       = errors.New("state mismatch - possible request forgery")
	ErrAuthorizationDenied = errors.New("authorization failed")
	ErrMissingCode         = errors.New("no authorization code received")
	ErrTokenExchange       = errors.New("token exchange failed")
)

// TokenSource yields a valid credential on demand.
type TokenSource interface {
	Token(ctx context.Context) (*Credential, error)
}

// FlowOptions configures a Flow.
type FlowOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// AuthURL and TokenURL default to the X endpoints.
	AuthURL  string
	TokenURL string

	Store      *CredentialStore
	Opener     browser.Opener
	HTTPClient *http.Client
	Now        func() time.Time
}

// Flow runs the OAuth 2.0 Authorization Code flow with PKCE and manages the
// cached credential: NoCredential -> AwaitingCallback -> Exchanging ->
// Authenticated, refreshing on expiry.
type Flow struct {
	oauth      *oauth2.Config
	store      *CredentialStore
	opener     browser.Opener
	httpClient *http.Client
	now        func() time.Time
	log        logrus.FieldLogger

	mu     sync.Mutex
	cached *Credential
}

// NewFlow creates a PKCE flow.
func NewFlow(opts FlowOptions, logger logrus.FieldLogger) *Flow {
	authURL := opts.AuthURL
	if authURL == "" {
		authURL = XAuthorizeURL
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = XTokenURL
	}
	// Confidential clients authenticate with HTTP Basic, public clients send
	// client_id in the form body.
	authStyle := oauth2.AuthStyleInParams
	if opts.ClientSecret != "" {
		authStyle = oauth2.AuthStyleInHeader
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: tokenRequestTimeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := logger.WithField("component", "auth")
	opener := opts.Opener
	if opener == nil {
		opener = browser.NewRodOpener(logger)
	}

	return &Flow{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: authStyle,
			},
		},
		store:      opts.Store,
		opener:     opener,
		httpClient: httpClient,
		now:        now,
		log:        log,
	}
}

func (f *Flow) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

// AuthorizationURL builds the URL the user is sent to.
func (f *Flow) AuthorizationURL(state string, pkce PKCE) string {
	return f.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce.Verifier))
}

// Token returns a usable credential. A fresh credential is returned as is; an
// expired one is refreshed and persisted when a refresh token exists. Refresh
// failures are reported as ErrNotAuthenticated so the caller can log in again.
func (f *Flow) Token(ctx context.Context) (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached == nil {
		f.cached = f.store.Load()
	}
	if f.cached == nil {
		return nil, ErrNotAuthenticated
	}
	if !f.cached.Expired(f.now()) {
		return f.cached, nil
	}
	if !f.cached.Refreshable() {
		f.log.Warn("Token expired and no refresh token available")
		return nil, ErrNotAuthenticated
	}

	refreshed, err := f.refresh(ctx, f.cached.RefreshToken)
	if err != nil {
		f.log.WithError(err).Error("Token refresh failed")
		return nil, fmt.Errorf("%w: token refresh failed: %v", ErrNotAuthenticated, err)
	}
	if err := f.store.Save(refreshed); err != nil {
		f.log.WithError(err).Warn("Refreshed token could not be persisted")
	}
	f.cached = refreshed
	f.log.Info("Token refreshed successfully")
	return refreshed, nil
}

func (f *Flow) refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	tok, err := f.oauth.TokenSource(f.oauthContext(ctx), expired).Token()
	if err != nil {
		return nil, err
	}
	return credentialFromToken(tok, f.now()), nil
}

// Login performs the interactive authorization: it listens on the redirect
// URI, opens the browser, waits for exactly one callback or the timeout, then
// exchanges the code and persists the credential.
func (f *Flow) Login(ctx context.Context, timeout time.Duration) (*Credential, error) {
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}

	pkce := NewPKCE()
	state, err := NewState()
	if err != nil {
		return nil, err
	}

	addr, path, err := callbackAddress(f.oauth.RedirectURL)
	if err != nil {
		return nil, err
	}
	cb, err := startCallbackServer(addr, path, f.log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cb.Close(); err != nil {
			f.log.WithError(err).Debug("Error closing OAuth callback server")
		}
	}()

	authURL := f.AuthorizationURL(state, pkce)
	f.log.WithField("url", authURL).Info("Opening browser for authorization")
	if err := f.opener.Open(authURL); err != nil {
		f.log.WithError(err).Warn("Could not open a browser; open the authorization URL manually")
	}

	res, err := waitForCallback(ctx, cb, timeout)
	if err != nil {
		return nil, err
	}

	if res.Error != "" {
		if res.ErrorDescription != "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrAuthorizationDenied, res.Error, res.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: %s", ErrAuthorizationDenied, res.Error)
	}
	if res.State != state {
		return nil, ErrStateMismatch
	}
	if res.Code == "" {
		return nil, ErrMissingCode
	}

	f.log.Info("Exchanging authorization code for tokens")
	tok, err := f.oauth.Exchange(f.oauthContext(ctx), res.Code, oauth2.VerifierOption(pkce.Verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}

	cred := credentialFromToken(tok, f.now())
	if err := f.store.Save(cred); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cached = cred
	f.mu.Unlock()

	f.log.Info("Login successful")
	return cred, nil
}

func waitForCallback(ctx context.Context, cb *callbackServer, timeout time.Duration) (callbackResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-cb.Results():
		return res, nil
	case <-timer.C:
		return callbackResult{}, ErrLoginTimeout
	case <-ctx.Done():
		return callbackResult{}, ctx.Err()
	}
}

// callbackAddress derives the local listen address and path from the redirect URI.
func callbackAddress(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect uri %q: %w", redirectURI, err)
	}
	host := u.Hostname()
	if host == "" || host == "localhost" {
		host = "127.0.0.1"
	}
	port := u.Port()
	if port == "" {
		port = defaultCallbackPort
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, nil
}

// Logout forgets the cached credential and deletes the token file.
func (f *Flow) Logout() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cached = nil
	if err := f.store.Delete(); err != nil {
		return err
	}
	f.log.Info("Token cleared")
	return nil
}

// Status describes the current authentication state.
type Status struct {
	Authenticated bool
	Method        string
	TokenType     string
	ExpiresAt     time.Time
	Scope         string
}

// Status reports whether a usable credential exists, refreshing if needed.
func (f *Flow) Status(ctx context.Context) Status {
	cred, err := f.Token(ctx)
	if err != nil {
		return Status{}
	}
	return Status{
		Authenticated: true,
		Method:        "OAuth 2.0 PKCE",
		TokenType:     cred.TokenType,
		ExpiresAt:     cred.ExpiresAt,
		Scope:         cred.Scope,
	}
}

// DirectToken is a TokenSource for a configured long-lived access token.
type DirectToken struct {
	cred *Credential
}

// NewDirectToken creates a TokenSource that always returns the same credential.
func NewDirectToken(accessToken string) *DirectToken {
	return &DirectToken{cred: NewDirectCredential(accessToken, time.Now())}
}

func (d *DirectToken) Token(context.Context) (*Credential, error) {
	if d.cred.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	return d.cred, nil
}

// Status describes the direct token.
func (d *DirectToken) Status() Status {
	return Status{
		Authenticated: d.cred.AccessToken != "",
		Method:        "Direct access token",
		TokenType:     d.cred.TokenType,
		ExpiresAt:     d.cred.ExpiresAt,
	}
}
