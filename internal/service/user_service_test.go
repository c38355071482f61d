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

func newUserHarness(t *testing.T) (*gorm.DB, *UserService) {
	t.Helper()
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), repository.NewProfileRepository(db))
	return db, svc
}

func TestCreateProfile(t *testing.T) {
	db, svc := newUserHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com", models.TierFree)
	adult := time.Now().UTC().AddDate(-25, 0, 0)

	t.Run("underage rejected", func(t *testing.T) {
		_, err := svc.CreateProfile(ctx, ProfileInput{
			UserID:      user.ID,
			DisplayName: "Alice",
			BirthDate:   time.Now().UTC().AddDate(-17, 0, 0),
			Gender:      "female",
		})
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("bad display name rejected", func(t *testing.T) {
		_, err := svc.CreateProfile(ctx, ProfileInput{
			UserID:      user.ID,
			DisplayName: "<script>",
			BirthDate:   adult,
			Gender:      "female",
		})
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("creates with computed age", func(t *testing.T) {
		profile, err := svc.CreateProfile(ctx, ProfileInput{
			UserID:      user.ID,
			DisplayName: "Alice",
			BirthDate:   adult,
			Gender:      "female",
			Bio:         "hello",
			City:        "Lisbon",
		})
		require.NoError(t, err)
		assert.Equal(t, 25, profile.Age)
	})

	t.Run("second profile conflicts", func(t *testing.T) {
		_, err := svc.CreateProfile(ctx, ProfileInput{
			UserID:      user.ID,
			DisplayName: "Alice Again",
			BirthDate:   adult,
			Gender:      "female",
		})
		assert.Equal(t, "CONFLICT", appErrCode(t, err))
	})
}

func TestUpdateProfile(t *testing.T) {
	db, svc := newUserHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com", models.TierFree)

	_, err := svc.CreateProfile(ctx, ProfileInput{
		UserID:      user.ID,
		DisplayName: "Alice",
		BirthDate:   time.Now().UTC().AddDate(-30, 0, 0),
		Gender:      "female",
		Bio:         "original bio",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, ProfileInput{
		UserID: user.ID,
		Bio:    "new bio",
		City:   "Porto",
	})
	require.NoError(t, err)
	assert.Equal(t, "new bio", updated.Bio)
	assert.Equal(t, "Porto", updated.City)
	// Untouched fields survive.
	assert.Equal(t, "Alice", updated.DisplayName)

	t.Run("no profile yet", func(t *testing.T) {
		other := createTestUser(t, db, "bob@example.com", models.TierFree)
		_, err := svc.UpdateProfile(ctx, ProfileInput{UserID: other.ID, Bio: "hi"})
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	})
}

func TestSetUserStatus(t *testing.T) {
	db, svc := newUserHarness(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice@example.com", models.TierFree)

	banned, err := svc.SetUserStatus(ctx, user.ID, models.UserStatusBanned)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusBanned, banned.Status)

	var persisted models.User
	require.NoError(t, db.First(&persisted, user.ID).Error)
	assert.Equal(t, models.UserStatusBanned, persisted.Status)

	_, err = svc.SetUserStatus(ctx, user.ID, models.UserStatus("frozen"))
	assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
}
