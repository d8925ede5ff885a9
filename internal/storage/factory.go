package storage

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Open creates the ledger for the configured backend. It does not call Load.
func Open(backend, path string, logger logrus.FieldLogger) (Ledger, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONLedger(path, logger), nil
	case BackendBadger:
		return NewBadgerLedger(path, logger)
	case BackendMemory:
		return NewMemoryLedger(logger), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
