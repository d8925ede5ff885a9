package storage

import "github.com/sirupsen/logrus"

// MemoryLedger keeps records in memory only. Load and Save are no-ops, which
// makes it suitable for tests and for hosts without persistent storage.
type MemoryLedger struct {
	records
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger(logger logrus.FieldLogger) *MemoryLedger {
	return &MemoryLedger{records: newRecords(logger.WithField("component", "ledger"))}
}

func (m *MemoryLedger) Load() {}

func (m *MemoryLedger) Save() error {
	m.dirty = false
	return nil
}

func (m *MemoryLedger) Close() error { return nil }

// Dirty reports whether a mutation happened since the last Save.
func (m *MemoryLedger) Dirty() bool {
	return m.dirty
}
