package repository

import (
	"context"
	"errors"
	"time"

	"mix/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines persistence operations for subscriptions and
// the provider webhook event log.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Subscription, error)
	GetByProviderSubscriptionID(ctx context.Context, providerSubID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
	// RecordProviderEvent logs a provider event ID. Returns false when the
	// event was already applied, which makes webhook handling idempotent.
	RecordProviderEvent(ctx context.Context, eventID, eventType string) (bool, error)
	// ExpireLapsed downgrades subscriptions whose period ended before now.
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository returns a new SubscriptionRepository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubID).
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier", "status", "provider_subscription_id", "provider_customer_id",
			"current_period_end", "updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *subscriptionRepository) RecordProviderEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	entry := models.ProviderEventLog{
		ProviderEventID: eventID,
		EventType:       eventType,
		AppliedAt:       time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(&entry)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("status = ? AND current_period_end < ?", models.SubscriptionActive, now).
		Update("status", models.SubscriptionExpired)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
