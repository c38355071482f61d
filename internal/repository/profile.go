package repository

import (
	"context"
	"errors"

	"mix/internal/cache"
	"mix/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for dating profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	ReplacePhotos(ctx context.Context, profileID uint, photos []models.ProfilePhoto) error
	AddPhoto(ctx context.Context, photo *models.ProfilePhoto) error
	RemovePhoto(ctx context.Context, profileID, photoID uint) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Profile already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, profile.UserID)
	return nil
}

// ReplacePhotos swaps the full photo set atomically so ordering stays dense.
func (r *profileRepository) ReplacePhotos(ctx context.Context, profileID uint, photos []models.ProfilePhoto) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&models.ProfilePhoto{}).Error; err != nil {
			return err
		}
		for i := range photos {
			photos[i].ID = 0
			photos[i].ProfileID = profileID
			photos[i].Position = i
		}
		if len(photos) == 0 {
			return nil
		}
		return tx.Create(&photos).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) AddPhoto(ctx context.Context, photo *models.ProfilePhoto) error {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) RemovePhoto(ctx context.Context, profileID, photoID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", photoID, profileID).
		Delete(&models.ProfilePhoto{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Photo", photoID)
	}
	return nil
}
