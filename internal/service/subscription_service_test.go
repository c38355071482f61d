package service

import (
	"context"
	"testing"
	"time"

	"mix/internal/models"
	"mix/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSubscriptionHarness(t *testing.T) (*gorm.DB, *SubscriptionService) {
	t.Helper()
	db := newTestDB(t)
	svc := NewSubscriptionService(repository.NewSubscriptionRepository(db), repository.NewUserRepository(db))
	return db, svc
}

func TestApplyProviderEventUpgradesTier(t *testing.T) {
	db, svc := newSubscriptionHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "payer@example.com", models.TierFree)
	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour)

	applied, err := svc.ApplyProviderEvent(ctx, ProviderEvent{
		EventID:                "evt_1",
		EventType:              ProviderEventSubscriptionCreated,
		UserID:                 user.ID,
		Tier:                   models.TierPlus,
		ProviderSubscriptionID: "sub_abc",
		ProviderCustomerID:     "cus_abc",
		CurrentPeriodEnd:       &periodEnd,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	var persisted models.User
	require.NoError(t, db.First(&persisted, user.ID).Error)
	assert.Equal(t, models.TierPlus, persisted.Tier)

	sub, err := svc.GetStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, "sub_abc", sub.ProviderSubscriptionID)
}

func TestApplyProviderEventReplayIsNoOp(t *testing.T) {
	db, svc := newSubscriptionHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "payer@example.com", models.TierFree)

	evt := ProviderEvent{
		EventID:                "evt_dup",
		EventType:              ProviderEventSubscriptionCreated,
		UserID:                 user.ID,
		Tier:                   models.TierGold,
		ProviderSubscriptionID: "sub_dup",
	}
	applied, err := svc.ApplyProviderEvent(ctx, evt)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = svc.ApplyProviderEvent(ctx, evt)
	require.NoError(t, err)
	assert.False(t, applied)

	var logCount int64
	db.Model(&models.ProviderEventLog{}).Count(&logCount)
	assert.Equal(t, int64(1), logCount)
}

func TestApplyProviderEventCancelDowngrades(t *testing.T) {
	db, svc := newSubscriptionHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "payer@example.com", models.TierFree)

	_, err := svc.ApplyProviderEvent(ctx, ProviderEvent{
		EventID:                "evt_create",
		EventType:              ProviderEventSubscriptionCreated,
		UserID:                 user.ID,
		Tier:                   models.TierGold,
		ProviderSubscriptionID: "sub_cancel",
	})
	require.NoError(t, err)

	applied, err := svc.ApplyProviderEvent(ctx, ProviderEvent{
		EventID:                "evt_cancel",
		EventType:              ProviderEventSubscriptionCanceled,
		ProviderSubscriptionID: "sub_cancel",
	})
	require.NoError(t, err)
	assert.True(t, applied)

	var persisted models.User
	require.NoError(t, db.First(&persisted, user.ID).Error)
	assert.Equal(t, models.TierFree, persisted.Tier)

	sub, err := svc.GetStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, sub.Status)
}

func TestApplyProviderEventPaymentFailedKeepsTier(t *testing.T) {
	db, svc := newSubscriptionHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "payer@example.com", models.TierFree)

	_, err := svc.ApplyProviderEvent(ctx, ProviderEvent{
		EventID:                "evt_create",
		EventType:              ProviderEventSubscriptionCreated,
		UserID:                 user.ID,
		Tier:                   models.TierPlus,
		ProviderSubscriptionID: "sub_late",
	})
	require.NoError(t, err)

	_, err = svc.ApplyProviderEvent(ctx, ProviderEvent{
		EventID:                "evt_fail",
		EventType:              ProviderEventPaymentFailed,
		ProviderSubscriptionID: "sub_late",
	})
	require.NoError(t, err)

	// Past-due grace: the tier survives until the period actually lapses.
	var persisted models.User
	require.NoError(t, db.First(&persisted, user.ID).Error)
	assert.Equal(t, models.TierPlus, persisted.Tier)

	sub, err := svc.GetStatus(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPastDue, sub.Status)
}

func TestApplyProviderEventUnknownTypeAcknowledged(t *testing.T) {
	db, svc := newSubscriptionHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "payer@example.com", models.TierFree)

	applied, err := svc.ApplyProviderEvent(ctx, ProviderEvent{
		EventID:   "evt_mystery",
		EventType: "invoice.finalized",
		UserID:    user.ID,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	var persisted models.User
	require.NoError(t, db.First(&persisted, user.ID).Error)
	assert.Equal(t, models.TierFree, persisted.Tier)
}

func TestGetStatusWithoutSubscription(t *testing.T) {
	db, svc := newSubscriptionHarness(t)
	user := createTestUser(t, db, "nobody@example.com", models.TierFree)

	sub, err := svc.GetStatus(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, sub.Tier)
	assert.Equal(t, models.SubscriptionExpired, sub.Status)
}
