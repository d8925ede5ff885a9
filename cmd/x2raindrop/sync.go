package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"x2raindrop/internal/config"
	"x2raindrop/internal/notify"
	"x2raindrop/internal/syncer"
	"x2raindrop/internal/ui"
)

type syncFlags struct {
	dryRun          bool
	removeFromX     bool
	collectionID    int64
	collectionTitle string
	tags            string
	linkMode        string
	bothBehavior    string
	maxResults      int
}

func newSyncCommand(a *app) *cobra.Command {
	var f syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync X bookmarks to Raindrop.io",
		Long: `Fetch X bookmarks, create Raindrop.io bookmarks for posts not synced yet,
and record them in the local sync state. Already-synced posts are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg)
			return a.runSync(cmd.Context(), cmd)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.dryRun, "dry-run", false, "show what would be synced without creating or deleting anything")
	fl.BoolVar(&f.removeFromX, "remove-from-x", false, "remove bookmarks from X after syncing (one API request each)")
	fl.Int64Var(&f.collectionID, "collection-id", 0, "Raindrop collection id")
	fl.StringVar(&f.collectionTitle, "collection-title", "", "Raindrop collection title, used when no id is set")
	fl.StringVar(&f.tags, "tags", "", "comma-separated tags to apply")
	fl.StringVar(&f.linkMode, "link-mode", "", "permalink, first_external_url or both")
	fl.StringVar(&f.bothBehavior, "both-behavior", "", "one_external_plus_note or two_raindrops")
	fl.IntVar(&f.maxResults, "max-results", 0, "stop after this many bookmarks (0 = all)")
	return cmd
}

// apply overrides configuration with flags the user set explicitly.
func (f *syncFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("dry-run") {
		cfg.Sync.DryRun = f.dryRun
	}
	if changed("remove-from-x") {
		cfg.Sync.RemoveFromX = f.removeFromX
	}
	if changed("collection-id") {
		cfg.Sync.CollectionID = f.collectionID
	}
	if changed("collection-title") {
		cfg.Sync.CollectionTitle = f.collectionTitle
	}
	if changed("tags") {
		cfg.Sync.Tags = config.ParseTags(f.tags)
	}
	if changed("link-mode") {
		cfg.Sync.LinkMode = f.linkMode
	}
	if changed("both-behavior") {
		cfg.Sync.BothBehavior = f.bothBehavior
	}
	if changed("max-results") {
		cfg.Sync.MaxResults = f.maxResults
	}
}

func (a *app) runSync(ctx context.Context, cmd *cobra.Command) error {
	if err := a.cfg.ValidateForSync(); err != nil {
		return err
	}
	settings, err := a.syncSettings()
	if err != nil {
		return err
	}

	rd := a.newRaindropClient()
	if settings.CollectionID == 0 {
		col, ok, err := rd.CollectionByTitle(ctx, a.cfg.Sync.CollectionTitle)
		if err != nil {
			return fmt.Errorf("failed to look up collection %q: %w", a.cfg.Sync.CollectionTitle, err)
		}
		if !ok {
			return fmt.Errorf("%w: no collection titled %q", config.ErrMissingCollection, a.cfg.Sync.CollectionTitle)
		}
		settings.CollectionID = col.ID
		a.log.WithFields(logrus.Fields{"collection_id": col.ID, "title": col.Title}).Info("Resolved collection by title")
	}

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

	out := cmd.OutOrStdout()
	if settings.RemoveFromSource && !settings.DryRun {
		a.log.Warn("remove_from_x is enabled: each removal costs one X API request")
	}

	svc := syncer.NewService(xc, rd, ledger, settings, a.log)
	progress := ui.NewProgress(out, true)
	res, runErr := svc.Run(ctx, progress.Update)

	title := "Sync Results"
	if settings.DryRun {
		title += " (dry run)"
	}
	ui.RenderResults(out, title, res, xc.RequestCount())
	a.notify(ctx, notify.Summary{Command: "sync", Result: res, Requests: xc.RequestCount(), DryRun: settings.DryRun})

	return runErr
}

func (a *app) syncSettings() (syncer.Settings, error) {
	mode, err := a.cfg.Sync.Mode()
	if err != nil {
		return syncer.Settings{}, fmt.Errorf("%w: %v", config.ErrInvalidLinkMode, err)
	}
	behavior, err := a.cfg.Sync.Behavior()
	if err != nil {
		return syncer.Settings{}, fmt.Errorf("%w: %v", config.ErrInvalidLinkMode, err)
	}
	return syncer.Settings{
		CollectionID:     a.cfg.Sync.CollectionID,
		Tags:             a.cfg.Sync.Tags,
		LinkMode:         mode,
		BothBehavior:     behavior,
		RemoveFromSource: a.cfg.Sync.RemoveFromX,
		DryRun:           a.cfg.Sync.DryRun,
		MaxResults:       a.cfg.Sync.MaxResults,
	}, nil
}
