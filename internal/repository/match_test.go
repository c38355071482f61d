package repository

import (
	"context"
	"testing"

	"mix/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCreateNormalizesPair(t *testing.T) {
	db := newTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	match, created, err := repo.Create(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Less(t, match.UserAID, match.UserBID)

	// Creating the reversed pair returns the same row.
	again, created, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, match.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMatchGetByPair(t *testing.T) {
	db := newTestDB(t)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	found, err := repo.GetByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	match, _, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	found, err = repo.GetByPair(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, match.ID, found.ID)
}

func TestMatchDeleteRemovesMessages(t *testing.T) {
	db := newTestDB(t)
	repo := NewMatchRepository(db)
	msgRepo := NewMessageRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	match, _, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, msgRepo.Create(ctx, &models.Message{
			MatchID:  match.ID,
			SenderID: alice.ID,
			Kind:     models.MessageText,
			Content:  "hello",
		}))
	}

	require.NoError(t, repo.Delete(ctx, match.ID))

	var msgCount int64
	require.NoError(t, db.Model(&models.Message{}).Where("match_id = ?", match.ID).Count(&msgCount).Error)
	assert.Zero(t, msgCount, "unmatching removes the conversation history")

	_, err = repo.GetByID(ctx, match.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestMatchListForUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewMatchRepository(db)
	msgRepo := NewMessageRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	carol := createTestUser(t, db, "carol@example.com")

	m1, _, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, _, err = repo.Create(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	require.NoError(t, msgRepo.Create(ctx, &models.Message{
		MatchID: m1.ID, SenderID: bob.ID, Kind: models.MessageText, Content: "hey",
	}))
	require.NoError(t, msgRepo.Create(ctx, &models.Message{
		MatchID: m1.ID, SenderID: bob.ID, Kind: models.MessageText, Content: "you there?",
	}))

	matches, err := repo.ListForUser(ctx, alice.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	for _, m := range matches {
		if m.ID == m1.ID {
			require.NotNil(t, m.LastMessage)
			assert.Equal(t, "you there?", m.LastMessage.Content)
			assert.Equal(t, int64(2), m.UnreadCount)
		} else {
			assert.Nil(t, m.LastMessage)
			assert.Zero(t, m.UnreadCount)
		}
	}

	// Bob sees the unread count from his own side as zero.
	matches, err = repo.ListForUser(ctx, bob.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Zero(t, matches[0].UnreadCount)
}
