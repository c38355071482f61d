package models

import "time"

// SwipeAction is the direction of a swipe decision.
type SwipeAction string

const (
	// SwipeLike is a right swipe.
	SwipeLike SwipeAction = "like"
	// SwipeDislike is a left swipe.
	SwipeDislike SwipeAction = "dislike"
	// SwipeSuperlike is a like that notifies the target immediately.
	SwipeSuperlike SwipeAction = "superlike"
)

// IsLike reports whether the action counts toward mutual matching.
func (a SwipeAction) IsLike() bool {
	return a == SwipeLike || a == SwipeSuperlike
}

// Valid reports whether the action is one of the known variants.
func (a SwipeAction) Valid() bool {
	switch a {
	case SwipeLike, SwipeDislike, SwipeSuperlike:
		return true
	}
	return false
}

// Swipe is a directed decision from one user toward another's profile.
// The (swiper, swiped) pair is unique; re-swiping the same target upserts the
// action in place rather than creating a second row. The only other permitted
// mutation is rewind, which deletes the swiper's most recent row.
type Swipe struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	SwiperID  uint        `gorm:"not null;uniqueIndex:idx_swiper_swiped;index" json:"swiper_id"`
	SwipedID  uint        `gorm:"not null;uniqueIndex:idx_swiper_swiped;index" json:"swiped_id"`
	Action    SwipeAction `gorm:"type:varchar(20);not null" json:"action"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	Swiper *User `gorm:"foreignKey:SwiperID" json:"-"`
	Swiped *User `gorm:"foreignKey:SwipedID" json:"-"`
}
