package repository

import (
	"context"

	"mix/internal/models"

	"gorm.io/gorm"
)

// DiscoveryRepository serves the candidate feed queries.
type DiscoveryRepository interface {
	// Candidates returns active, profiled users the viewer has not yet swiped
	// on, is not matched with, and has no block relation with, in either
	// direction. Results are ordered by recent activity.
	Candidates(ctx context.Context, viewerID uint, limit int) ([]models.User, error)
}

type discoveryRepository struct {
	db *gorm.DB
}

// NewDiscoveryRepository returns a new DiscoveryRepository implementation.
func NewDiscoveryRepository(db *gorm.DB) DiscoveryRepository {
	return &discoveryRepository{db: db}
}

func (r *discoveryRepository) Candidates(ctx context.Context, viewerID uint, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("users.id != ?", viewerID).
		Where("users.status = ?", models.UserStatusActive).
		Where("users.id NOT IN (?)",
			r.db.Model(&models.Swipe{}).Select("swiped_id").Where("swiper_id = ?", viewerID)).
		Where("users.id NOT IN (?)",
			r.db.Model(&models.UserBlock{}).Select("blocked_id").Where("blocker_id = ?", viewerID)).
		Where("users.id NOT IN (?)",
			r.db.Model(&models.UserBlock{}).Select("blocker_id").Where("blocked_id = ?", viewerID)).
		Where("users.id NOT IN (?)",
			r.db.Model(&models.Match{}).Select("user_b_id").Where("user_a_id = ?", viewerID)).
		Where("users.id NOT IN (?)",
			r.db.Model(&models.Match{}).Select("user_a_id").Where("user_b_id = ?", viewerID)).
		Preload("Profile.Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("users.last_seen_at DESC NULLS LAST").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
