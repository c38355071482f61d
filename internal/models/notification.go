package models

import (
	"encoding/json"
	"time"
)

// NotificationKind categorizes in-app notifications.
type NotificationKind string

const (
	// NotificationNewMatch fires when a mutual like creates a match.
	NotificationNewMatch NotificationKind = "new_match"
	// NotificationNewMessage fires for messages received while offline.
	NotificationNewMessage NotificationKind = "new_message"
	// NotificationSuperlike fires when someone superlikes the user.
	NotificationSuperlike NotificationKind = "superlike"
)

// Notification is a persisted in-app notification row. Delivery mechanics
// beyond the websocket push (APNs, FCM) are external collaborators.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Kind      NotificationKind `gorm:"type:varchar(30);not null" json:"kind"`
	Payload   json.RawMessage  `gorm:"type:json" json:"payload,omitempty"`
	IsRead    bool             `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
