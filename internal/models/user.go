// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// DefaultIcon is the icon filename assigned at registration.
const DefaultIcon = "default.png"

// User is a registered account.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email         string     `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	Icon          string     `gorm:"size:120;default:default.png" json:"icon"`
	Bio           string     `gorm:"size:200" json:"bio"`
	OTPCode       *string    `gorm:"size:6" json:"-"`
	OTPExpiration *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// FollowedCount is not persisted; computed at query time
	FollowedCount int64 `gorm:"-" json:"followed_count"`
	// FollowersCount is not persisted; computed at query time
	FollowersCount int64 `gorm:"-" json:"followers_count"`
	// IsFollowing reports whether the viewer follows this user (computed)
	IsFollowing bool `gorm:"-" json:"is_following"`
}

// OTPValid reports whether code matches the stored OTP and now is before its expiration.
func (u *User) OTPValid(code string, now time.Time) bool {
	if u.OTPCode == nil || u.OTPExpiration == nil {
		return false
	}
	return *u.OTPCode == code && now.Before(*u.OTPExpiration)
}
