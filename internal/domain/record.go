package domain

import "time"

// SyncRecord marks an item as processed. It is created on the first successful
// sync of an item and only removed by an explicit ledger clear.
type SyncRecord struct {
	ItemID            string    `json:"item_id"`
	Links             []string  `json:"raindrop_links"`
	SyncedAt          time.Time `json:"synced_at"`
	DeletedFromSource bool      `json:"deleted_from_x"`
}
