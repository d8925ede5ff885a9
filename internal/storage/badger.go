package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
)

// syncedPrefix namespaces ledger records inside the Badger keyspace.
// Format: synced:{itemID}
var syncedPrefix = []byte("synced:")

// BadgerLedger persists the ledger in a BadgerDB directory.
type BadgerLedger struct {
	records
	db     *badger.DB
	encode func(domain.SyncRecord) ([]byte, error)
}

// NewBadgerLedger opens (or creates) the BadgerDB database at dbPath.
func NewBadgerLedger(dbPath string, logger logrus.FieldLogger) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.WithField("path", dbPath).Debug("BadgerDB opened")

	return &BadgerLedger{
		records: newRecords(logger.WithFields(logrus.Fields{
			"component": "ledger",
			"path":      dbPath,
		})),
		db:     db,
		encode: encodeRecord,
	}, nil
}

func encodeRecord(rec domain.SyncRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func generateRecordKey(itemID string) []byte {
	return append(append([]byte(nil), syncedPrefix...), itemID...)
}

// Load reads every record under the ledger prefix. A corrupt value discards
// the whole load and leaves the ledger empty.
func (l *BadgerLedger) Load() {
	l.reset()

	synced := make(map[string]domain.SyncRecord)
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(syncedPrefix); it.ValidForPrefix(syncedPrefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(syncedPrefix):])
			err := item.Value(func(val []byte) error {
				var rec domain.SyncRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to unmarshal record %s: %w", key, err)
				}
				synced[key] = rec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.log.WithError(err).Warn("Failed to load state, starting fresh")
		return
	}

	l.synced = synced
	l.log.WithField("synced_count", len(synced)).Debug("Loaded state")
}

// Save writes the ledger in one transaction when it changed: stale keys are
// deleted and every current record is set. A failed save leaves the
// previously persisted records untouched.
func (l *BadgerLedger) Save() error {
	if !l.dirty {
		return nil
	}

	err := l.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = syncedPrefix

		var stale [][]byte
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, ok := l.synced[string(key[len(syncedPrefix):])]; !ok {
				stale = append(stale, key)
			}
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to delete record %s: %w", key[len(syncedPrefix):], err)
			}
		}
		for id, rec := range l.synced {
			val, err := l.encode(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal record %s: %w", id, err)
			}
			if err := txn.Set(generateRecordKey(id), val); err != nil {
				return fmt.Errorf("failed to stage record %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		l.log.WithError(err).Error("Failed to save state to BadgerDB")
		return fmt.Errorf("failed to save state: %w", err)
	}

	l.dirty = false
	l.log.WithField("synced_count", len(l.synced)).Debug("Saved state")
	return nil
}

// Close closes the BadgerDB database.
func (l *BadgerLedger) Close() error {
	if err := l.db.Close(); err != nil {
		l.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	return nil
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
