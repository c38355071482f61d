package repository

import (
	"context"

	"mix/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository defines persistence operations for user blocks.
type BlockRepository interface {
	Create(ctx context.Context, blockerID, blockedID uint) error
	Delete(ctx context.Context, blockerID, blockedID uint) error
	// Exists reports whether either user has blocked the other.
	Exists(ctx context.Context, userA, userB uint) (bool, error)
	// BlockedIDs returns every user ID involved in a block with userID, in
	// either direction. Discovery excludes all of them.
	BlockedIDs(ctx context.Context, userID uint) ([]uint, error)
	ListForUser(ctx context.Context, blockerID uint) ([]models.UserBlock, error)
}

type blockRepository struct {
	db *gorm.DB
}

// NewBlockRepository returns a new BlockRepository implementation.
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) Create(ctx context.Context, blockerID, blockedID uint) error {
	block := models.UserBlock{BlockerID: blockerID, BlockedID: blockedID}
	// Blocking twice is a no-op.
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
		DoNothing: true,
	}).Create(&block).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID uint) error {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlock{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Block", blockedID)
	}
	return nil
}

func (r *blockRepository) Exists(ctx context.Context, userA, userB uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *blockRepository) BlockedIDs(ctx context.Context, userID uint) ([]uint, error) {
	var blocked []uint
	if err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &blocked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	var blockers []uint
	if err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &blockers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return append(blocked, blockers...), nil
}

func (r *blockRepository) ListForUser(ctx context.Context, blockerID uint) ([]models.UserBlock, error) {
	var blocks []models.UserBlock
	if err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Preload("Blocked").
		Order("created_at DESC").
		Find(&blocks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return blocks, nil
}
