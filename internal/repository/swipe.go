package repository

import (
	"context"
	"errors"

	"mix/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SwipeRepository defines persistence operations for swipe decisions.
type SwipeRepository interface {
	// Upsert records a swipe, updating the action in place when the
	// (swiper, swiped) pair already exists.
	Upsert(ctx context.Context, swipe *models.Swipe) error
	Get(ctx context.Context, swiperID, swipedID uint) (*models.Swipe, error)
	// GetLatest returns the swiper's most recent swipe, or nil when none exist.
	GetLatest(ctx context.Context, swiperID uint) (*models.Swipe, error)
	Delete(ctx context.Context, id uint) error
	// SwipedIDs returns every profile ID the swiper has already decided on.
	SwipedIDs(ctx context.Context, swiperID uint) ([]uint, error)
	// LikedBy reports whether swiperID has an active like toward swipedID.
	LikedBy(ctx context.Context, swiperID, swipedID uint) (bool, error)
}

type swipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository returns a new SwipeRepository implementation.
func NewSwipeRepository(db *gorm.DB) SwipeRepository {
	return &swipeRepository{db: db}
}

func (r *swipeRepository) Upsert(ctx context.Context, swipe *models.Swipe) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "swiped_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"action", "updated_at"}),
	}).Create(swipe).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *swipeRepository) Get(ctx context.Context, swiperID, swipedID uint) (*models.Swipe, error) {
	var swipe models.Swipe
	if err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND swiped_id = ?", swiperID, swipedID).
		First(&swipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &swipe, nil
}

func (r *swipeRepository) GetLatest(ctx context.Context, swiperID uint) (*models.Swipe, error) {
	var swipe models.Swipe
	if err := r.db.WithContext(ctx).
		Where("swiper_id = ?", swiperID).
		Order("updated_at DESC, id DESC").
		First(&swipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &swipe, nil
}

func (r *swipeRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Swipe{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *swipeRepository) SwipedIDs(ctx context.Context, swiperID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Swipe{}).
		Where("swiper_id = ?", swiperID).
		Pluck("swiped_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *swipeRepository) LikedBy(ctx context.Context, swiperID, swipedID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Swipe{}).
		Where("swiper_id = ? AND swiped_id = ? AND action IN ?",
			swiperID, swipedID, []models.SwipeAction{models.SwipeLike, models.SwipeSuperlike}).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
