package domain

import "time"

// Session is one logged-in device. At most one row exists per device id; a
// user may hold any number of devices and they age independently. The stored
// TokenVersion is the source of truth for refresh-token validity: a presented
// token is accepted only while its embedded version equals the stored one.
type Session struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	DeviceID     string    `gorm:"size:64;uniqueIndex;not null" json:"device_id"`
	UserID       string    `gorm:"size:64;index;not null" json:"user_id"`
	IP           string    `gorm:"size:64" json:"ip"`
	DeviceTitle  string    `gorm:"size:512" json:"device_title"`
	TokenVersion int64     `gorm:"not null;default:0" json:"-"`
	IssuedAt     time.Time `gorm:"not null" json:"issued_at"`
	LastActiveAt time.Time `gorm:"index;not null" json:"last_active_at"`
	ExpiresAt    time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
