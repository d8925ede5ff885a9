package storage

import (
	"x2raindrop/internal/domain"
)

// Ledger defines the idempotency ledger used by the sync orchestrator.
// Implementations are single-writer: Load once, mutate, then Save once.
// This allows us to swap the persistence (JSON file, BadgerDB, memory)
// without changing the orchestration logic.
type Ledger interface {
	// Load reads the persisted ledger. A missing or corrupt store results in an
	// empty ledger; it never fails the caller.
	Load()

	// IsSynced reports whether the item already has a SyncRecord.
	IsSynced(itemID string) bool

	// Record returns the SyncRecord for the item, if present.
	Record(itemID string) (domain.SyncRecord, bool)

	// Records returns every record, newest first.
	Records() []domain.SyncRecord

	// Count returns the number of records.
	Count() int

	// MarkSynced inserts or overwrites the record for an item, stamped with the current time.
	MarkSynced(itemID string, links []string, deletedFromSource bool)

	// MarkDeleted flips the deletion flag of an existing record. No-op if absent.
	MarkDeleted(itemID string)

	// Clear removes all records.
	Clear()

	// Save persists the ledger if it changed since the last Load or Save.
	Save() error

	// Close releases any resources held by the ledger.
	Close() error
}
