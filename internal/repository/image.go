package repository

import (
	"context"
	"errors"

	"mix/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRepository defines persistence operations for processed image blobs.
type ImageRepository interface {
	// Create inserts blob metadata; identical hashes dedupe to one row.
	Create(ctx context.Context, blob *models.MessageImageBlob) error
	GetByHash(ctx context.Context, hash string) (*models.MessageImageBlob, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a new ImageRepository implementation.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, blob *models.MessageImageBlob) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoNothing: true,
	}).Create(blob).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *imageRepository) GetByHash(ctx context.Context, hash string) (*models.MessageImageBlob, error) {
	var blob models.MessageImageBlob
	if err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&blob).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &blob, nil
}
