package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"x2raindrop/internal/auth"
	"x2raindrop/internal/config"
	"x2raindrop/internal/notify"
	"x2raindrop/internal/syncer"
	"x2raindrop/internal/ui"
)

func newXCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "x",
		Short: "Manage the X account connection",
	}
	cmd.AddCommand(
		newXLoginCommand(a),
		newXStatusCommand(a),
		newXLogoutCommand(a),
		newXPruneCommand(a),
	)
	return cmd
}

func newXLoginCommand(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with X using OAuth 2.0 PKCE in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.cfg.X.HasDirectToken() {
				fmt.Fprintln(out, "A direct access token (x.access_token) is configured; browser login is not needed.")
				return nil
			}
			if !a.cfg.X.CanUsePKCE() {
				return config.ErrMissingXCredentials
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.X.LoginTimeout
			}

			fmt.Fprintln(out, "Opening your browser to authorize x2raindrop...")
			cred, err := a.newFlow().Login(cmd.Context(), timeout)
			if err != nil {
				return fmt.Errorf("x login failed: %w", err)
			}
			fmt.Fprintf(out, "Logged in. Token expires at %s.\n", cred.ExpiresAt.Local().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the browser callback")
	return cmd
}

func newXStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show X authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.cfg.X.HasDirectToken() {
				ui.RenderAuthStatus(out, auth.NewDirectToken(a.cfg.X.AccessToken).Status(), "x.access_token "+ui.MaskSecret(a.cfg.X.AccessToken), time.Now())
				return nil
			}
			if !a.cfg.X.CanUsePKCE() {
				return config.ErrMissingXCredentials
			}
			ui.RenderAuthStatus(out, a.newFlow().Status(cmd.Context()), a.cfg.X.TokenPath, time.Now())
			return nil
		},
	}
}

func newXLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored X token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.newFlow().Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out of X.")
			return nil
		},
	}
}

func newXPruneCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove already-synced posts from X bookmarks",
		Long: `Remove posts from X bookmarks that were synced earlier but not deleted from X.
Each removal costs one X API request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dry-run") {
				a.cfg.Sync.DryRun = dryRun
			}
			ctx := cmd.Context()

			ts, err := a.xToken(ctx)
			if err != nil {
				return err
			}
			xc := a.newXClient(ts)

			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer a.closeLedger(ledger)

			settings := syncer.Settings{DryRun: a.cfg.Sync.DryRun}
			svc := syncer.NewService(xc, nil, ledger, settings, a.log)

			out := cmd.OutOrStdout()
			res, runErr := svc.Prune(ctx, ui.NewProgress(out, true).Update)

			ui.RenderResults(out, "Prune Results", res, xc.RequestCount())
			a.notify(ctx, notify.Summary{Command: "prune", Result: res, Requests: xc.RequestCount(), DryRun: settings.DryRun})
			return runErr
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be removed without calling X")
	return cmd
}
