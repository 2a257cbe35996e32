package model

import "time"

// MaxHistoryEntries caps each user's search history.
const MaxHistoryEntries = 5

// SearchRecord is one entry in a user's search history. Insertion is
// deduplicated case-insensitively and the list is truncated to
// MaxHistoryEntries, most recent first.
type SearchRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Username    string    `gorm:"size:64;not null;index"`
	Destination string    `gorm:"size:256;not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}
