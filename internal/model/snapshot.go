package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lastmile-backend/internal/trip"
)

// SharedSnapshot is one immutable entry in the global snapshot log. The
// analysis is copied by value at share time and never mutated afterwards;
// snapshots only leave the log when a recipient clears their whole inbox.
type SharedSnapshot struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	FromUser string `gorm:"size:64;not null;index" json:"from"`
	ToUser   string `gorm:"size:64;not null;index" json:"to"`
	Data     []byte `gorm:"not null" json:"-"`
	SentAt   int64  `gorm:"not null" json:"sentAt"` // epoch milliseconds
}

// NewSharedSnapshot builds a snapshot of the given analysis addressed from
// one user to another. Both usernames are normalized.
func NewSharedSnapshot(from, to string, a trip.Analysis) (SharedSnapshot, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return SharedSnapshot{}, fmt.Errorf("failed to serialize analysis: %w", err)
	}
	return SharedSnapshot{
		ID:       uuid.NewString(),
		FromUser: NormalizeUsername(from),
		ToUser:   NormalizeUsername(to),
		Data:     data,
		SentAt:   time.Now().UnixMilli(),
	}, nil
}

// Analysis decodes the snapshot's stored trip analysis.
func (s *SharedSnapshot) Analysis() (trip.Analysis, error) {
	var a trip.Analysis
	if err := json.Unmarshal(s.Data, &a); err != nil {
		return trip.Analysis{}, fmt.Errorf("failed to decode snapshot %s: %w", s.ID, err)
	}
	return a, nil
}

// MarshalJSON inlines the decoded analysis under "data" so API clients never
// see the raw bytes.
func (s SharedSnapshot) MarshalJSON() ([]byte, error) {
	a, err := s.Analysis()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		ID     string        `json:"id"`
		From   string        `json:"from"`
		To     string        `json:"to"`
		Data   trip.Analysis `json:"data"`
		SentAt int64         `json:"sentAt"`
	}{s.ID, s.FromUser, s.ToUser, a, s.SentAt})
}
