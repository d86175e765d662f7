package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRanking(t *testing.T) (Ranking, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRanking(client), mr
}

func TestRanking_RecordKeepsTopTen(t *testing.T) {
	ranking, mr := newTestRanking(t)
	ctx := context.Background()

	for id := uint(1); id <= 15; id++ {
		require.NoError(t, ranking.Record(ctx, id, int(id)))
	}

	members, err := mr.ZMembers(PopularPostsKey)
	require.NoError(t, err)
	assert.Len(t, members, PopularPostsSize)

	top, err := ranking.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{15, 14, 13, 12, 11, 10, 9, 8, 7, 6}, top)
}

func TestRanking_RecordUpdatesScore(t *testing.T) {
	ranking, mr := newTestRanking(t)
	ctx := context.Background()

	require.NoError(t, ranking.Record(ctx, 1, 3))
	require.NoError(t, ranking.Record(ctx, 2, 5))
	require.NoError(t, ranking.Record(ctx, 1, 7))

	score, err := mr.ZScore(PopularPostsKey, "1")
	require.NoError(t, err)
	assert.Equal(t, float64(7), score)

	top, err := ranking.Top(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, top)
}

func TestRanking_RemoveAndReplace(t *testing.T) {
	ranking, _ := newTestRanking(t)
	ctx := context.Background()

	require.NoError(t, ranking.Record(ctx, 1, 3))
	require.NoError(t, ranking.Record(ctx, 2, 5))
	require.NoError(t, ranking.Remove(ctx, 2))

	top, err := ranking.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, top)

	require.NoError(t, ranking.Replace(ctx, []Entry{{PostID: 8, Likes: 1}, {PostID: 9, Likes: 4}}))
	top, err = ranking.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{9, 8}, top)

	require.NoError(t, ranking.Replace(ctx, nil))
	top, err = ranking.Top(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestRanking_Unavailable(t *testing.T) {
	ranking, mr := newTestRanking(t)
	mr.Close()

	_, err := ranking.Top(context.Background(), 10)
	assert.Error(t, err)
}
