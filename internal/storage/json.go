package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
	"x2raindrop/internal/fileutil"
)

const stateFileVersion = 1

// stateFile is the persisted JSON layout of the ledger.
type stateFile struct {
	Version     int                     `json:"version"`
	LastUpdated string                  `json:"last_updated"`
	Synced      map[string]stateFileRow `json:"synced"`
}

type stateFileRow struct {
	ItemID        string   `json:"item_id"`
	RaindropLinks []string `json:"raindrop_links"`
	SyncedAt      string   `json:"synced_at"`
	DeletedFromX  bool     `json:"deleted_from_x"`
}

// JSONLedger persists the ledger as a single JSON document.
type JSONLedger struct {
	records
	path string
}

// NewJSONLedger creates a ledger backed by the JSON file at path. The file is
// not read until Load is called.
func NewJSONLedger(path string, logger logrus.FieldLogger) *JSONLedger {
	return &JSONLedger{
		records: newRecords(logger.WithFields(logrus.Fields{
			"component": "ledger",
			"path":      path,
		})),
		path: path,
	}
}

// Load reads the state file. Any read or parse failure is logged and leaves
// the ledger empty.
func (l *JSONLedger) Load() {
	l.reset()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.log.Debug("State file not found, starting fresh")
			return
		}
		l.log.WithError(err).Warn("Failed to read state file, starting fresh")
		return
	}

	synced, err := decodeStateFile(data)
	if err != nil {
		l.log.WithError(err).Warn("Failed to load state, starting fresh")
		return
	}

	l.synced = synced
	l.log.WithField("synced_count", len(synced)).Debug("Loaded state")
}

func decodeStateFile(data []byte) (map[string]domain.SyncRecord, error) {
	var file stateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	synced := make(map[string]domain.SyncRecord, len(file.Synced))
	for key, row := range file.Synced {
		itemID := row.ItemID
		if itemID == "" {
			itemID = key
		}
		if row.SyncedAt == "" {
			return nil, fmt.Errorf("record %s has no synced_at", key)
		}
		syncedAt, err := domain.ParseTimestamp(row.SyncedAt)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", key, err)
		}
		synced[key] = domain.SyncRecord{
			ItemID:            itemID,
			Links:             row.RaindropLinks,
			SyncedAt:          syncedAt,
			DeletedFromSource: row.DeletedFromX,
		}
	}
	return synced, nil
}

// Save writes the full ledger atomically when it changed since the last Load or Save.
func (l *JSONLedger) Save() error {
	if !l.dirty {
		return nil
	}

	file := stateFile{
		Version:     stateFileVersion,
		LastUpdated: domain.FormatTimestamp(l.now()),
		Synced:      make(map[string]stateFileRow, len(l.synced)),
	}
	for id, rec := range l.synced {
		links := rec.Links
		if links == nil {
			links = []string{}
		}
		file.Synced[id] = stateFileRow{
			ItemID:        rec.ItemID,
			RaindropLinks: links,
			SyncedAt:      domain.FormatTimestamp(rec.SyncedAt),
			DeletedFromX:  rec.DeletedFromSource,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := fileutil.WriteFileAtomic(l.path, data, 0o600); err != nil {
		l.log.WithError(err).Error("Failed to save state")
		return fmt.Errorf("failed to save state: %w", err)
	}

	l.dirty = false
	l.log.WithField("synced_count", len(l.synced)).Debug("Saved state")
	return nil
}

func (l *JSONLedger) Close() error { return nil }
