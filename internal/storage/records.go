package storage

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
)

// records is the in-memory core shared by every Ledger implementation.
type records struct {
	synced map[string]domain.SyncRecord
	dirty  bool
	now    func() time.Time
	log    logrus.FieldLogger
}

func newRecords(logger logrus.FieldLogger) records {
	return records{
		synced: make(map[string]domain.SyncRecord),
		now:    time.Now,
		log:    logger,
	}
}

func (r *records) IsSynced(itemID string) bool {
	_, ok := r.synced[itemID]
	return ok
}

func (r *records) Record(itemID string) (domain.SyncRecord, bool) {
	rec, ok := r.synced[itemID]
	return rec, ok
}

func (r *records) Records() []domain.SyncRecord {
	out := make([]domain.SyncRecord, 0, len(r.synced))
	for _, rec := range r.synced {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SyncedAt.Equal(out[j].SyncedAt) {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].SyncedAt.After(out[j].SyncedAt)
	})
	return out
}

func (r *records) Count() int {
	return len(r.synced)
}

func (r *records) MarkSynced(itemID string, links []string, deletedFromSource bool) {
	r.synced[itemID] = domain.SyncRecord{
		ItemID:            itemID,
		Links:             append([]string(nil), links...),
		SyncedAt:          r.now(),
		DeletedFromSource: deletedFromSource,
	}
	r.dirty = true
	r.log.WithFields(logrus.Fields{
		"item_id":             itemID,
		"links":               links,
		"deleted_from_source": deletedFromSource,
	}).Debug("Marked as synced")
}

func (r *records) MarkDeleted(itemID string) {
	rec, ok := r.synced[itemID]
	if !ok {
		return
	}
	rec.DeletedFromSource = true
	r.synced[itemID] = rec
	r.dirty = true
}

func (r *records) Clear() {
	r.synced = make(map[string]domain.SyncRecord)
	r.dirty = true
}

func (r *records) reset() {
	r.synced = make(map[string]domain.SyncRecord)
	r.dirty = false
}
