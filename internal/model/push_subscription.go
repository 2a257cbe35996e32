package model

import "time"

// PushSubscription holds a browser push subscription for one user. A user
// may be subscribed from several browsers at once.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	Username  string    `gorm:"size:64;not null;index"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
