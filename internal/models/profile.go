package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Profile is the swipeable representation of a user. Exactly one profile
// belongs to each user; it is created during onboarding and removed with the
// account.
type Profile struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	DisplayName string          `gorm:"not null" json:"display_name"`
	BirthDate   time.Time       `gorm:"not null" json:"birth_date"`
	Gender      string          `gorm:"type:varchar(20)" json:"gender"`
	Bio         string          `gorm:"type:text" json:"bio"`
	City        string          `json:"city"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Interests   json.RawMessage `gorm:"type:json" json:"interests,omitempty"`
	Lifestyle   json.RawMessage `gorm:"type:json" json:"lifestyle,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	User   *User          `gorm:"foreignKey:UserID" json:"-"`
	Photos []ProfilePhoto `gorm:"foreignKey:ProfileID" json:"photos,omitempty"`

	// Age is computed at query time, not persisted.
	Age int `gorm:"-" json:"age"`
}

// ComputeAge fills the Age field from BirthDate relative to now.
func (p *Profile) ComputeAge(now time.Time) {
	age := now.Year() - p.BirthDate.Year()
	if now.YearDay() < p.BirthDate.YearDay() {
		age--
	}
	p.Age = age
}

// ProfilePhoto is one photo slot on a profile, ordered by Position.
type ProfilePhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProfileID uint      `gorm:"not null;index" json:"profile_id"`
	ImageHash string    `gorm:"not null" json:"image_hash"`
	URL       string    `gorm:"not null" json:"url"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
