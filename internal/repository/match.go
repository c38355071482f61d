package repository

import (
	"context"
	"errors"

	"mix/internal/cache"
	"mix/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository defines persistence operations for matches.
type MatchRepository interface {
	// Create inserts the normalized pair. Returns the existing match when the
	// pair already exists, so concurrent mutual likes converge on one row.
	Create(ctx context.Context, userA, userB uint) (*models.Match, bool, error)
	GetByID(ctx context.Context, id uint) (*models.Match, error)
	GetByPair(ctx context.Context, userA, userB uint) (*models.Match, error)
	// ListForUser returns the user's matches newest-first with the other
	// participant's profile, last message, and unread count populated.
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Match, error)
	// Delete removes the match and every message in it.
	Delete(ctx context.Context, id uint) error
}

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository returns a new MatchRepository implementation.
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, userA, userB uint) (*models.Match, bool, error) {
	match := models.Match{UserAID: userA, UserBID: userB}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
		DoNothing: true,
	}).Create(&match)
	if res.Error != nil {
		return nil, false, models.NewInternalError(res.Error)
	}

	if res.RowsAffected == 0 {
		// Lost the race: another request created the pair first.
		existing, err := r.GetByPair(ctx, userA, userB)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, models.NewInternalError(errors.New("match upsert found no row"))
		}
		return existing, false, nil
	}

	cache.InvalidateMatchList(ctx, userA)
	cache.InvalidateMatchList(ctx, userB)
	return &match, true, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).
		Preload("UserA.Profile.Photos").
		Preload("UserB.Profile.Photos").
		First(&match, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Match", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

func (r *matchRepository) GetByPair(ctx context.Context, userA, userB uint) (*models.Match, error) {
	if userA > userB {
		userA, userB = userB, userA
	}
	var match models.Match
	if err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

func (r *matchRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var matches []models.Match
	if err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Preload("UserA.Profile.Photos").
		Preload("UserB.Profile.Photos").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&matches).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	for i := range matches {
		var last models.Message
		err := r.db.WithContext(ctx).
			Where("match_id = ?", matches[i].ID).
			Order("id DESC").
			First(&last).Error
		if err == nil {
			matches[i].LastMessage = &last
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewInternalError(err)
		}

		if err := r.db.WithContext(ctx).
			Model(&models.Message{}).
			Where("match_id = ? AND sender_id != ? AND is_read = ?", matches[i].ID, userID, false).
			Count(&matches[i].UnreadCount).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	return matches, nil
}

func (r *matchRepository) Delete(ctx context.Context, id uint) error {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Match", id)
		}
		return models.NewInternalError(err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Match{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidateMatchList(ctx, match.UserAID)
	cache.InvalidateMatchList(ctx, match.UserBID)
	return nil
}
