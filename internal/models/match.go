package models

import (
	"time"

	"gorm.io/gorm"
)

// Match is the undirected pairing created when both users have liked each
// other. The pair is stored normalized (UserAID < UserBID) so the unique
// index makes duplicate creation impossible regardless of swipe order.
// Unmatching hard-deletes the row and its messages; there is no soft state.
type Match struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserAID   uint      `gorm:"not null;uniqueIndex:idx_match_pair;index" json:"user_a_id"`
	UserBID   uint      `gorm:"not null;uniqueIndex:idx_match_pair;index" json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`

	UserA *User `gorm:"foreignKey:UserAID" json:"user_a,omitempty"`
	UserB *User `gorm:"foreignKey:UserBID" json:"user_b,omitempty"`

	// Computed at query time for the match list view.
	LastMessage *Message `gorm:"-" json:"last_message,omitempty"`
	UnreadCount int64    `gorm:"-" json:"unread_count"`
}

// BeforeCreate normalizes the pair ordering so {A,B} and {B,A} map to the
// same row.
func (m *Match) BeforeCreate(_ *gorm.DB) error {
	if m.UserAID > m.UserBID {
		m.UserAID, m.UserBID = m.UserBID, m.UserAID
	}
	return nil
}

// HasParticipant reports whether userID is one of the pair.
func (m *Match) HasParticipant(userID uint) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// OtherParticipant returns the counterpart of userID in the pair. The second
// return is false when userID is not a participant.
func (m *Match) OtherParticipant(userID uint) (uint, bool) {
	switch userID {
	case m.UserAID:
		return m.UserBID, true
	case m.UserBID:
		return m.UserAID, true
	}
	return 0, false
}
