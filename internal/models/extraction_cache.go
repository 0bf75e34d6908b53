package models

import "time"

// ExtractionCacheEntry stores one cached extraction payload. Payloads are
// brotli-compressed JSON snapshots of the collaborator's output, keyed by
// video ID. Entries past ExpiresAt are treated as absent and pruned on a
// schedule.
type ExtractionCacheEntry struct {
	VideoID   string    `gorm:"primaryKey;size:64" json:"video_id"`
	Payload   []byte    `gorm:"not null" json:"-"`
	FetchedAt time.Time `gorm:"not null" json:"fetched_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName returns the database table name.
func (ExtractionCacheEntry) TableName() string {
	return "extraction_cache"
}

// Expired reports whether the entry is past its TTL at the given time.
func (e *ExtractionCacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
