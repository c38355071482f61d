package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mix/internal/models"
	"mix/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type swipeHarness struct {
	db        *gorm.DB
	svc       *SwipeService
	swipeRepo repository.SwipeRepository
	matchRepo repository.MatchRepository
	blockRepo repository.BlockRepository
	publisher *publisherStub
}

func newSwipeHarness(t *testing.T, likeLimit int) *swipeHarness {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	swipeRepo := repository.NewSwipeRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	publisher := &publisherStub{}

	quota := NewQuotaService(userRepo, likeLimit)
	svc := NewSwipeService(swipeRepo, matchRepo, userRepo, blockRepo, notificationRepo, quota, publisher)

	return &swipeHarness{
		db:        db,
		svc:       svc,
		swipeRepo: swipeRepo,
		matchRepo: matchRepo,
		blockRepo: blockRepo,
		publisher: publisher,
	}
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestRecordSwipeMutualLikeCreatesOneMatch(t *testing.T) {
	h := newSwipeHarness(t, 10)
	ctx := context.Background()
	alice := createTestUser(t, h.db, "alice@example.com", models.TierFree)
	bob := createTestUser(t, h.db, "bob@example.com", models.TierFree)

	res, err := h.svc.RecordSwipe(ctx, alice.ID, bob.ID, models.SwipeLike)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.Match)

	res, err = h.svc.RecordSwipe(ctx, bob.ID, alice.ID, models.SwipeLike)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	require.NotNil(t, res.Match)

	var matchCount int64
	h.db.Model(&models.Match{}).Count(&matchCount)
	assert.Equal(t, int64(1), matchCount)

	// Both participants get a new-match notification and one push goes out.
	var notifCount int64
	h.db.Model(&models.Notification{}).Where("kind = ?", models.NotificationNewMatch).Count(&notifCount)
	assert.Equal(t, int64(2), notifCount)
	assert.Len(t, h.publisher.newMatches, 1)

	// Re-liking after the match must not create a second match.
	res, err = h.svc.RecordSwipe(ctx, alice.ID, bob.ID, models.SwipeLike)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	h.db.Model(&models.Match{}).Count(&matchCount)
	assert.Equal(t, int64(1), matchCount)
	assert.Len(t, h.publisher.newMatches, 1)
}

func TestRecordSwipeDislikeNeverMatches(t *testing.T) {
	h := newSwipeHarness(t, 10)
	ctx := context.Background()
	alice := createTestUser(t, h.db, "alice@example.com", models.TierFree)
	bob := createTestUser(t, h.db, "bob@example.com", models.TierFree)

	_, err := h.svc.RecordSwipe(ctx, alice.ID, bob.ID, models.SwipeLike)
	require.NoError(t, err)

	res, err := h.svc.RecordSwipe(ctx, bob.ID, alice.ID, models.SwipeDislike)
	require.NoError(t, err)
	assert.False(t, res.Matched)

	var matchCount int64
	h.db.Model(&models.Match{}).Count(&matchCount)
	assert.Equal(t, int64(0), matchCount)
}

func TestRecordSwipeValidation(t *testing.T) {
	h := newSwipeHarness(t, 10)
	ctx := context.Background()
	alice := createTestUser(t, h.db, "alice@example.com", models.TierFree)
	bob := createTestUser(t, h.db, "bob@example.com", models.TierFree)

	t.Run("self swipe", func(t *testing.T) {
		_, err := h.svc.RecordSwipe(ctx, alice.ID, alice.ID, models.SwipeLike)
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := h.svc.RecordSwipe(ctx, alice.ID, bob.ID, models.SwipeAction("wink"))
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("suspended target looks absent", func(t *testing.T) {
		suspended := createTestUser(t, h.db, "gone@example.com", models.TierFree)
		suspended.Status = models.UserStatusSuspended
		require.NoError(t, h.db.Save(suspended).Error)

		_, err := h.svc.RecordSwipe(ctx, alice.ID, suspended.ID, models.SwipeLike)
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	})

	t.Run("blocked pair", func(t *testing.T) {
		carol := createTestUser(t, h.db, "carol@example.com", models.TierFree)
		require.NoError(t, h.blockRepo.Create(ctx, carol.ID, alice.ID))

		_, err := h.svc.RecordSwipe(ctx, alice.ID, carol.ID, models.SwipeLike)
		assert.Equal(t, "FORBIDDEN", appErrCode(t, err))
	})
}

func TestRecordSwipeQuota(t *testing.T) {
	h := newSwipeHarness(t, 2)
	ctx := context.Background()
	alice := createTestUser(t, h.db, "alice@example.com", models.TierFree)
	targets := []*models.User{
		createTestUser(t, h.db, "t1@example.com", models.TierFree),
		createTestUser(t, h.db, "t2@example.com", models.TierFree),
		createTestUser(t, h.db, "t3@example.com", models.TierFree),
	}

	_, err := h.svc.RecordSwipe(ctx, alice.ID, targets[0].ID, models.SwipeLike)
	require.NoError(t, err)
	_, err = h.svc.RecordSwipe(ctx, alice.ID, targets[1].ID, models.SwipeLike)
	require.NoError(t, err)

	_, err = h.svc.RecordSwipe(ctx, alice.ID, targets[2].ID, models.SwipeLike)
	assert.Equal(t, "LIMIT_REACHED", appErrCode(t, err))

	// Passing is always free.
	_, err = h.svc.RecordSwipe(ctx, alice.ID, targets[2].ID, models.SwipeDislike)
	assert.NoError(t, err)

	// Re-liking an already-liked profile does not charge the quota again.
	_, err = h.svc.RecordSwipe(ctx, alice.ID, targets[0].ID, models.SwipeLike)
	assert.NoError(t, err)
}

func TestRecordSwipePremiumUnlimited(t *testing.T) {
	h := newSwipeHarness(t, 1)
	ctx := context.Background()
	plus := createTestUser(t, h.db, "plus@example.com", models.TierPlus)

	for i := 0; i < 5; i++ {
		target := createTestUser(t, h.db, fmt.Sprintf("target%d@example.com", i), models.TierFree)
		_, err := h.svc.RecordSwipe(ctx, plus.ID, target.ID, models.SwipeLike)
		require.NoError(t, err)
	}
}

func TestSuperlikeRequiresGold(t *testing.T) {
	h := newSwipeHarness(t, 10)
	ctx := context.Background()
	free := createTestUser(t, h.db, "free@example.com", models.TierFree)
	gold := createTestUser(t, h.db, "gold@example.com", models.TierGold)
	target := createTestUser(t, h.db, "target@example.com", models.TierFree)

	_, err := h.svc.RecordSwipe(ctx, free.ID, target.ID, models.SwipeSuperlike)
	assert.Equal(t, "FORBIDDEN", appErrCode(t, err))

	res, err := h.svc.RecordSwipe(ctx, gold.ID, target.ID, models.SwipeSuperlike)
	require.NoError(t, err)
	assert.False(t, res.Matched)

	// The target learns about the superlike even without a match.
	var notif models.Notification
	require.NoError(t, h.db.Where("user_id = ? AND kind = ?", target.ID, models.NotificationSuperlike).First(&notif).Error)
}

func TestRewindLastSwipe(t *testing.T) {
	h := newSwipeHarness(t, 10)
	ctx := context.Background()
	gold := createTestUser(t, h.db, "gold@example.com", models.TierGold)
	free := createTestUser(t, h.db, "free@example.com", models.TierFree)
	target := createTestUser(t, h.db, "target@example.com", models.TierFree)

	t.Run("requires gold", func(t *testing.T) {
		_, err := h.svc.RewindLastSwipe(ctx, free.ID)
		assert.Equal(t, "FORBIDDEN", appErrCode(t, err))
	})

	t.Run("nothing to rewind", func(t *testing.T) {
		_, err := h.svc.RewindLastSwipe(ctx, gold.ID)
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	})

	t.Run("undoes the latest decision", func(t *testing.T) {
		_, err := h.svc.RecordSwipe(ctx, gold.ID, target.ID, models.SwipeDislike)
		require.NoError(t, err)

		last, err := h.svc.RewindLastSwipe(ctx, gold.ID)
		require.NoError(t, err)
		assert.Equal(t, target.ID, last.SwipedID)

		gone, err := h.swipeRepo.Get(ctx, gold.ID, target.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("cannot rewind into a match", func(t *testing.T) {
		_, err := h.svc.RecordSwipe(ctx, target.ID, gold.ID, models.SwipeLike)
		require.NoError(t, err)
		res, err := h.svc.RecordSwipe(ctx, gold.ID, target.ID, models.SwipeLike)
		require.NoError(t, err)
		require.True(t, res.Matched)

		_, err = h.svc.RewindLastSwipe(ctx, gold.ID)
		assert.Equal(t, "CONFLICT", appErrCode(t, err))
	})
}
