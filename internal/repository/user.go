// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"mix/internal/cache"
	"mix/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDWithProfile(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateLastSeen(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	ConsumeDailyLike(ctx context.Context, id uint, limit int, now time.Time) (bool, error)
	RefundDailyLike(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, cache.UserTTL, &user, func() (interface{}, error) {
		var u models.User
		if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("User", id)
			}
			return nil, models.NewInternalError(err)
		}
		return &u, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDWithProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Profile.Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) UpdateLastSeen(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_seen_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ConsumeDailyLike increments the user's daily like counter inside a
// transaction, resetting it first when the stored reset day is behind now.
// Returns false when the quota is exhausted. This is the durable fallback
// behind the Redis counter.
func (r *userRepository) ConsumeDailyLike(ctx context.Context, id uint, limit int, now time.Time) (bool, error) {
	allowed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}

		day := now.UTC().Truncate(24 * time.Hour)
		if user.LikesResetAt == nil || user.LikesResetAt.Before(day) {
			user.DailyLikesUsed = 0
			user.LikesResetAt = &day
		}

		if user.DailyLikesUsed >= limit {
			return nil
		}

		user.DailyLikesUsed++
		allowed = true
		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"daily_likes_used": user.DailyLikesUsed,
			"likes_reset_at":   user.LikesResetAt,
		}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	cache.InvalidateUser(ctx, id)
	return allowed, nil
}

// RefundDailyLike decrements the daily counter after a rewound like.
func (r *userRepository) RefundDailyLike(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND daily_likes_used > 0", id).
		UpdateColumn("daily_likes_used", gorm.Expr("daily_likes_used - 1")).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
