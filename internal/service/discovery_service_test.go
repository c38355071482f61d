package service

import (
	"context"
	"testing"
	"time"

	"mix/internal/models"
	"mix/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeedExcludesSwiped(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	swipeRepo := repository.NewSwipeRepository(db)
	quota := NewQuotaService(userRepo, 10)
	svc := NewDiscoveryService(repository.NewDiscoveryRepository(db), userRepo, quota)
	ctx := context.Background()

	viewer := createTestUser(t, db, "viewer@example.com", models.TierFree)
	fresh := createTestUser(t, db, "fresh@example.com", models.TierFree)
	seen := createTestUser(t, db, "seen@example.com", models.TierFree)
	for _, u := range []*models.User{viewer, fresh, seen} {
		require.NoError(t, db.Create(&models.Profile{
			UserID:      u.ID,
			DisplayName: "Someone",
			BirthDate:   time.Now().UTC().AddDate(-22, 0, 0),
			Gender:      "other",
		}).Error)
	}
	require.NoError(t, swipeRepo.Upsert(ctx, &models.Swipe{
		SwiperID: viewer.ID, SwipedID: seen.ID, Action: models.SwipeDislike,
	}))

	feed, err := svc.GetFeed(ctx, viewer.ID, 25)
	require.NoError(t, err)
	require.Len(t, feed.Candidates, 1)
	assert.Equal(t, fresh.ID, feed.Candidates[0].ID)
	require.NotNil(t, feed.Candidates[0].Profile)
	assert.Equal(t, 22, feed.Candidates[0].Profile.Age)
	assert.Equal(t, 10, feed.LikesRemaining)
}

func TestGetFeedInactiveViewer(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewDiscoveryService(repository.NewDiscoveryRepository(db), userRepo, NewQuotaService(userRepo, 10))

	viewer := createTestUser(t, db, "viewer@example.com", models.TierFree)
	viewer.Status = models.UserStatusSuspended
	require.NoError(t, db.Save(viewer).Error)

	_, err := svc.GetFeed(context.Background(), viewer.ID, 25)
	assert.Equal(t, "FORBIDDEN", appErrCode(t, err))
}
