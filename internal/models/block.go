package models

import "time"

// UserBlock is a directed block relation. Discovery, matching, and messaging
// exclude blocked pairs in both directions at the query layer.
type UserBlock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_blocker_blocked;index" json:"blocker_id"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_blocker_blocked;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`

	Blocker *User `gorm:"foreignKey:BlockerID" json:"-"`
	Blocked *User `gorm:"foreignKey:BlockedID" json:"blocked,omitempty"`
}

// TableName specifies the table name for GORM.
func (UserBlock) TableName() string {
	return "user_blocks"
}
