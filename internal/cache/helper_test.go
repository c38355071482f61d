package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestGetSetJSON(t *testing.T) {
	setupTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	var missing payload
	assert.False(t, GetJSON(ctx, "nope", &missing))

	SetJSON(ctx, UserKey(1), payload{Name: "alex", Age: 30}, UserTTL)

	var got payload
	require.True(t, GetJSON(ctx, UserKey(1), &got))
	assert.Equal(t, "alex", got.Name)
	assert.Equal(t, 30, got.Age)
}

func TestAside(t *testing.T) {
	setupTestCache(t)
	ctx := context.Background()

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return []uint{4, 5, 6}, nil
	}

	var ids []uint
	require.NoError(t, Aside(ctx, CandidatesKey(2), CandidatesTTL, &ids, load))
	assert.Equal(t, []uint{4, 5, 6}, ids)
	assert.Equal(t, 1, calls)

	// Second call is served from cache.
	ids = nil
	require.NoError(t, Aside(ctx, CandidatesKey(2), CandidatesTTL, &ids, load))
	assert.Equal(t, []uint{4, 5, 6}, ids)
	assert.Equal(t, 1, calls)
}

func TestIncrWithTTL(t *testing.T) {
	mr := setupTestCache(t)
	ctx := context.Background()

	key := LikeQuotaKey(9, "2026-09-01")
	cnt, err := IncrWithTTL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
	assert.Positive(t, mr.TTL(key))

	cnt, err = IncrWithTTL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	DecrFloor(ctx, key)
	cnt, err = IncrWithTTL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)
}

func TestIncrWithTTLUnavailable(t *testing.T) {
	SetClient(nil)
	_, err := IncrWithTTL(context.Background(), "any", time.Hour)
	assert.Error(t, err)
}
