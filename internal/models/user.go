// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole determines access to the admin moderation surface.
type UserRole string

const (
	// RoleMember is a regular end user.
	RoleMember UserRole = "member"
	// RoleAdmin can review reports and suspend accounts.
	RoleAdmin UserRole = "admin"
)

// UserStatus is the soft lifecycle state of an account. Accounts are never
// hard-deleted; moderation moves them between these states.
type UserStatus string

const (
	// UserStatusActive is the normal state.
	UserStatusActive UserStatus = "active"
	// UserStatusSuspended hides the user from discovery and blocks login.
	UserStatusSuspended UserStatus = "suspended"
	// UserStatusBanned is a permanent suspension.
	UserStatusBanned UserStatus = "banned"
)

// SubscriptionTier gates premium features (unlimited likes, rewind).
type SubscriptionTier string

const (
	// TierFree is the default freemium tier with a daily like quota.
	TierFree SubscriptionTier = "free"
	// TierPlus removes the like quota.
	TierPlus SubscriptionTier = "plus"
	// TierGold removes the quota and unlocks rewind and superlikes.
	TierGold SubscriptionTier = "gold"
)

// User represents an account in the Mix application.
type User struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	Email    string           `gorm:"unique;not null" json:"email"`
	Password string           `gorm:"not null" json:"-"`
	Role     UserRole         `gorm:"type:varchar(20);default:'member'" json:"role"`
	Status   UserStatus       `gorm:"type:varchar(20);default:'active';index" json:"status"`
	Tier     SubscriptionTier `gorm:"type:varchar(20);default:'free'" json:"tier"`

	// Daily like quota fallback counters. Redis is the primary quota store;
	// these columns keep enforcement working when Redis is unavailable.
	DailyLikesUsed int        `gorm:"default:0" json:"-"`
	LikesResetAt   *time.Time `json:"-"`

	LastSeenAt *time.Time     `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// IsPremium reports whether the user's tier exempts them from the like quota.
func (u *User) IsPremium() bool {
	return u.Tier == TierPlus || u.Tier == TierGold
}

// CanRewind reports whether the user's tier unlocks the rewind feature.
func (u *User) CanRewind() bool {
	return u.Tier == TierGold
}
