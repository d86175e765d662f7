package models

import (
	"time"
)

// BlacklistedToken records a revoked refresh token until it expires
type BlacklistedToken struct {
	JTI       string    `gorm:"primaryKey;size:64" json:"jti"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token would be rejected anyway by its exp claim
func (t *BlacklistedToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
