package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"x2raindrop/internal/auth"
	"x2raindrop/internal/browser"
	"x2raindrop/internal/config"
	"x2raindrop/internal/notify"
	"x2raindrop/internal/raindrop"
	"x2raindrop/internal/storage"
	"x2raindrop/internal/xapi"
)

func (a *app) newFlow() *auth.Flow {
	return auth.NewFlow(auth.FlowOptions{
		ClientID:     a.cfg.X.ClientID,
		ClientSecret: a.cfg.X.ClientSecret,
		RedirectURI:  a.cfg.X.RedirectURI,
		Scopes:       a.cfg.X.Scopes,
		Store:        auth.NewCredentialStore(a.cfg.X.TokenPath, a.log),
		Opener:       browser.NewRodOpener(a.log),
	}, a.log)
}

// xToken returns a usable X credential source. A configured direct token
// wins over the PKCE flow; otherwise an interactive login is started when no
// usable credential is stored.
func (a *app) xToken(ctx context.Context) (auth.TokenSource, error) {
	if a.cfg.X.HasDirectToken() {
		a.log.Debug("Using direct X access token")
		return auth.NewDirectToken(a.cfg.X.AccessToken), nil
	}
	if !a.cfg.X.CanUsePKCE() {
		return nil, config.ErrMissingXCredentials
	}

	flow := a.newFlow()
	if _, err := flow.Token(ctx); err != nil {
		if !errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, err
		}
		a.log.Info("Not authenticated with X, starting browser login")
		if _, err := flow.Login(ctx, a.cfg.X.LoginTimeout); err != nil {
			return nil, fmt.Errorf("x login failed: %w", err)
		}
	}
	return flow, nil
}

func (a *app) newXClient(ts auth.TokenSource) *xapi.Client {
	return xapi.New(xapi.Options{
		TokenProvider: func(ctx context.Context) (string, error) {
			cred, err := ts.Token(ctx)
			if err != nil {
				return "", err
			}
			return cred.AccessToken, nil
		},
		UserID:            a.cfg.X.UserID,
		RequestsPerMinute: a.cfg.X.RequestsPerMinute,
	}, a.log)
}

func (a *app) newRaindropClient() *raindrop.Client {
	return raindrop.New(raindrop.Options{Token: a.cfg.Raindrop.Token}, a.log)
}

func (a *app) openLedger() (storage.Ledger, error) {
	ledger, err := storage.Open(a.cfg.Sync.StateBackend, a.cfg.Sync.StatePath, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync state: %w", err)
	}
	return ledger, nil
}

func (a *app) closeLedger(ledger storage.Ledger) {
	if err := ledger.Close(); err != nil {
		a.log.WithError(err).Error("Error closing sync state")
	}
}

// notify sends a run summary when Telegram is configured. Failures are logged only.
func (a *app) notify(ctx context.Context, s notify.Summary) {
	tg := a.cfg.Telegram
	if !tg.Enabled() {
		return
	}
	n, err := notify.NewTelegramNotifier(tg.BotToken, tg.ChatID, a.log)
	if err != nil {
		a.log.WithError(err).Warn("Telegram notifier could not be created")
		return
	}
	if err := n.Notify(ctx, s); err != nil {
		a.log.WithFields(logrus.Fields{"command": s.Command}).WithError(err).Warn("Run summary was not delivered")
	}
}
