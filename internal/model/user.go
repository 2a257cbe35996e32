package model

import (
	"strings"
	"time"
)

// User is a registered planner identity. Usernames are stored normalized:
// lowercase, no leading "@".
type User struct {
	Username  string    `gorm:"primaryKey;size:64" json:"username"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

// NormalizeUsername lowercases a raw username and strips whitespace and a
// leading "@".
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
}
