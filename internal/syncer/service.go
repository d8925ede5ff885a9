package syncer

import (
	"context"
	"fmt"
	"iter"

	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
	"x2raindrop/internal/storage"
)

// Source is where saved items come from.
type Source interface {
	Bookmarks(ctx context.Context, maxResults int) iter.Seq2[domain.Item, error]
	DeleteBookmark(ctx context.Context, id string) (bool, error)
}

// Destination is where bookmarks are created.
type Destination interface {
	CreateBookmark(ctx context.Context, req domain.CreationRequest) (domain.CreatedBookmark, error)
}

// ProgressFunc receives (items processed, items known so far, status message).
type ProgressFunc func(current, total int, message string)

// Settings controls a run.
type Settings struct {
	CollectionID     int64
	Tags             []string
	LinkMode         domain.LinkMode
	BothBehavior     domain.BothBehavior
	RemoveFromSource bool
	DryRun           bool
	MaxResults       int
}

// Service orchestrates syncing saved items into the destination.
type Service struct {
	source   Source
	dest     Destination
	ledger   storage.Ledger
	settings Settings
	log      logrus.FieldLogger
}

// NewService creates a new sync service.
func NewService(source Source, dest Destination, ledger storage.Ledger, settings Settings, logger logrus.FieldLogger) *Service {
	return &Service{
		source:   source,
		dest:     dest,
		ledger:   ledger,
		settings: settings,
		log:      logger.WithField("component", "sync_service"),
	}
}

// Run performs one sync pass over the source in fetch order. Per-item
// failures are recorded in the result and do not stop the run. A fetch or
// rate-limit failure stops the run; the ledger is saved before the error is
// returned so finished items are not processed again.
func (s *Service) Run(ctx context.Context, progress ProgressFunc) (domain.RunResult, error) {
	if progress == nil {
		progress = func(int, int, string) {}
	}
	var result domain.RunResult

	s.ledger.Load()
	s.log.WithFields(logrus.Fields{
		"dry_run":       s.settings.DryRun,
		"link_mode":     s.settings.LinkMode,
		"remove_source": s.settings.RemoveFromSource,
		"known_records": s.ledger.Count(),
	}).Info("Starting sync")

	var runErr error
	for item, err := range s.source.Bookmarks(ctx, s.settings.MaxResults) {
		if err != nil {
			runErr = err
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		result.Total++
		msg := s.processItem(ctx, item, &result)
		progress(result.Total, result.Total, msg)
	}

	if err := s.ledger.Save(); err != nil {
		s.log.WithError(err).Error("Failed to save sync state")
		if runErr == nil {
			runErr = fmt.Errorf("failed to save sync state: %w", err)
		}
	}

	fields := logrus.Fields{
		"total":          result.Total,
		"newly_synced":   result.NewlySynced,
		"already_synced": result.AlreadySynced,
		"failed":         result.Failed,
		"deleted":        result.DeletedFromSource,
	}
	if runErr != nil {
		s.log.WithFields(fields).WithError(runErr).Error("Sync aborted")
		return result, runErr
	}
	s.log.WithFields(fields).Info("Sync complete")
	return result, nil
}

// processItem handles one item and returns the progress message for it.
func (s *Service) processItem(ctx context.Context, item domain.Item, result *domain.RunResult) string {
	log := s.log.WithField("item_id", item.ID)

	if s.ledger.IsSynced(item.ID) {
		log.Debug("Skipping already synced item")
		result.AlreadySynced++
		return "Skipped (already synced): " + item.ID
	}

	reqs, err := BuildRequests(item, s.settings)
	if err != nil {
		log.WithError(err).Error("Failed to build bookmark requests")
		result.Failed++
		result.AddError(fmt.Sprintf("[%s] %v", item.ID, err))
		return "Failed: " + item.ID
	}

	if s.settings.DryRun {
		links := make([]string, 0, len(reqs))
		for _, r := range reqs {
			links = append(links, r.URL)
		}
		log.WithField("links", links).Info("Dry run - would create bookmark(s)")
		result.NewlySynced++
		return "Dry run: " + item.ID
	}

	created := make([]string, 0, len(reqs))
	for _, req := range reqs {
		bm, err := s.dest.CreateBookmark(ctx, req)
		if err != nil {
			log.WithError(err).WithField("link", req.URL).Error("Failed to create bookmark")
			result.Failed++
			result.AddError(fmt.Sprintf("[%s] Failed to create %s: %v", item.ID, req.URL, err))
			return "Failed: " + item.ID
		}
		created = append(created, bm.URL)
		log.WithFields(logrus.Fields{"link": bm.URL, "bookmark_id": bm.ID}).Info("Created bookmark")
	}

	deleted := false
	if s.settings.RemoveFromSource {
		deleted = s.deleteFromSource(ctx, item.ID, result)
	}

	s.ledger.MarkSynced(item.ID, created, deleted)
	result.NewlySynced++
	return "Synced: " + item.ID
}

// deleteFromSource is best effort: a failure is recorded but never fails the item.
func (s *Service) deleteFromSource(ctx context.Context, id string, result *domain.RunResult) bool {
	log := s.log.WithField("item_id", id)

	ok, err := s.source.DeleteBookmark(ctx, id)
	switch {
	case err != nil:
		log.WithError(err).Warn("Failed to delete from source")
		result.AddError(fmt.Sprintf("[%s] Failed to delete from X: %v", id, err))
		return false
	case !ok:
		log.Warn("Source did not confirm deletion")
		result.AddError(fmt.Sprintf("[%s] Failed to delete from X: deletion not confirmed", id))
		return false
	}

	result.DeletedFromSource++
	log.Info("Deleted from source bookmarks")
	return true
}

// Prune deletes already-synced items from the source that are still there
// according to the ledger, flipping their deletion flag. It never creates
// bookmarks. Per-item failures are recorded and the walk continues.
func (s *Service) Prune(ctx context.Context, progress ProgressFunc) (domain.RunResult, error) {
	if progress == nil {
		progress = func(int, int, string) {}
	}
	var result domain.RunResult

	s.ledger.Load()
	var pending []domain.SyncRecord
	for _, rec := range s.ledger.Records() {
		if !rec.DeletedFromSource {
			pending = append(pending, rec)
		}
	}
	result.Total = len(pending)
	s.log.WithFields(logrus.Fields{"pending": len(pending), "dry_run": s.settings.DryRun}).Info("Starting prune")

	var runErr error
	for i, rec := range pending {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		var msg string
		switch {
		case s.settings.DryRun:
			s.log.WithField("item_id", rec.ItemID).Info("Dry run - would delete from source")
			result.DeletedFromSource++
			msg = "Dry run: " + rec.ItemID
		case s.deleteFromSource(ctx, rec.ItemID, &result):
			s.ledger.MarkDeleted(rec.ItemID)
			msg = "Deleted: " + rec.ItemID
		default:
			result.Failed++
			msg = "Failed: " + rec.ItemID
		}
		progress(i+1, result.Total, msg)
	}

	if err := s.ledger.Save(); err != nil {
		s.log.WithError(err).Error("Failed to save sync state")
		if runErr == nil {
			runErr = fmt.Errorf("failed to save sync state: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"pending": result.Total,
		"deleted": result.DeletedFromSource,
		"failed":  result.Failed,
	}).Info("Prune complete")
	return result, runErr
}
