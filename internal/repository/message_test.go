package repository

import (
	"context"
	"fmt"
	"testing"

	"mix/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagePagination(t *testing.T) {
	db := newTestDB(t)
	matchRepo := NewMatchRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	match, _, err := matchRepo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for i := 1; i <= 25; i++ {
		require.NoError(t, repo.Create(ctx, &models.Message{
			MatchID:  match.ID,
			SenderID: alice.ID,
			Kind:     models.MessageText,
			Content:  fmt.Sprintf("msg %d", i),
		}))
	}

	// First page: the 10 newest, in chronological order.
	page, err := repo.ListByMatch(ctx, match.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, "msg 16", page[0].Content)
	assert.Equal(t, "msg 25", page[9].Content)

	// Second page continues backwards from the oldest ID of the first.
	page, err = repo.ListByMatch(ctx, match.ID, page[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, "msg 6", page[0].Content)
	assert.Equal(t, "msg 15", page[9].Content)
}

func TestMessageMarkRead(t *testing.T) {
	db := newTestDB(t)
	matchRepo := NewMatchRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	match, _, err := matchRepo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	msg := &models.Message{MatchID: match.ID, SenderID: alice.ID, Kind: models.MessageText, Content: "hi"}
	require.NoError(t, repo.Create(ctx, msg))

	// The sender cannot mark their own message read.
	_, err = repo.MarkRead(ctx, msg.ID, alice.ID)
	require.Error(t, err)

	read, err := repo.MarkRead(ctx, msg.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	// Marking twice is idempotent.
	again, err := repo.MarkRead(ctx, msg.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead)
}

func TestMessageMarkMatchRead(t *testing.T) {
	db := newTestDB(t)
	matchRepo := NewMatchRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	match, _, err := matchRepo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Message{
			MatchID: match.ID, SenderID: alice.ID, Kind: models.MessageText, Content: "from alice",
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Message{
		MatchID: match.ID, SenderID: bob.ID, Kind: models.MessageText, Content: "from bob",
	}))

	ids, err := repo.MarkMatchRead(ctx, match.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3, "only messages sent to the reader are flipped")

	unread, err := repo.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// Alice still has bob's message unread.
	unread, err = repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	// Nothing left to flip.
	ids, err = repo.MarkMatchRead(ctx, match.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
