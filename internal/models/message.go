package models

import "time"

// MessageKind tags the message payload variant. Text messages carry Content;
// image messages carry ImageHash/ImageURL and may leave Content empty.
type MessageKind string

const (
	// MessageText is a plain text message.
	MessageText MessageKind = "text"
	// MessageImage is an inline-uploaded image message.
	MessageImage MessageKind = "image"
)

// Message belongs to exactly one match and is append-only; the read flag is
// the only field that mutates after creation. The auto-incremented ID doubles
// as the client's reconciliation sequence for the websocket push path.
type Message struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	MatchID   uint        `gorm:"not null;index" json:"match_id"`
	SenderID  uint        `gorm:"not null;index" json:"sender_id"`
	Kind      MessageKind `gorm:"type:varchar(20);default:'text'" json:"kind"`
	Content   string      `gorm:"type:text" json:"content"`
	ImageHash string      `json:"image_hash,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
	IsRead    bool        `gorm:"default:false" json:"is_read"`
	ReadAt    *time.Time  `json:"read_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`

	Match  *Match `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE" json:"-"`
	Sender *User  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// MessageImageBlob stores metadata for a processed chat or profile image.
// The hash is content-addressed so identical uploads dedupe to one record.
type MessageImageBlob struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Hash       string    `gorm:"uniqueIndex;not null" json:"hash"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	MimeType   string    `gorm:"not null" json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	JPEGPath   string    `gorm:"not null" json:"-"`
	WebPPath   string    `gorm:"not null" json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TableName specifies the table name for GORM.
func (MessageImageBlob) TableName() string {
	return "message_image_blobs"
}
