// Package cache holds the popular-posts ranking kept in Redis and a small
// in-process TTL cache for rendered responses.
package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	// PopularPostsKey is the sorted set of post IDs scored by likes
	PopularPostsKey = "popular_posts"
	// PopularPostsSize is how many posts the ranking keeps
	PopularPostsSize = 10
)

// Entry is one ranked post
type Entry struct {
	PostID uint
	Likes  int
}

// Ranking keeps the most liked posts
type Ranking interface {
	Record(ctx context.Context, postID uint, likes int) error
	Remove(ctx context.Context, postID uint) error
	Top(ctx context.Context, n int) ([]uint, error)
	Replace(ctx context.Context, entries []Entry) error
}

// redisRanking is the Redis sorted set implementation of Ranking
type redisRanking struct {
	client *redis.Client
	key    string
	size   int
}

// NewRedisClient creates a client from a redis:// URL
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRanking creates a ranking stored under PopularPostsKey
func NewRanking(client *redis.Client) Ranking {
	return &redisRanking{client: client, key: PopularPostsKey, size: PopularPostsSize}
}

// Record sets the score of postID and drops everything below the top entries
func (r *redisRanking) Record(ctx context.Context, postID uint, likes int) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.key, redis.Z{Score: float64(likes), Member: member(postID)})
		pipe.ZRemRangeByRank(ctx, r.key, 0, int64(-r.size-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record post %d in ranking: %w", postID, err)
	}
	return nil
}

// Remove drops postID from the ranking
func (r *redisRanking) Remove(ctx context.Context, postID uint) error {
	if err := r.client.ZRem(ctx, r.key, member(postID)).Err(); err != nil {
		return fmt.Errorf("failed to remove post %d from ranking: %w", postID, err)
	}
	return nil
}

// Top returns up to n post IDs, most liked first
func (r *redisRanking) Top(ctx context.Context, n int) ([]uint, error) {
	if n <= 0 {
		n = r.size
	}
	members, err := r.client.ZRevRange(ctx, r.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// Replace rebuilds the ranking from entries
func (r *redisRanking) Replace(ctx context.Context, entries []Entry) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(entries) == 0 {
			return nil
		}
		zs := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			zs = append(zs, redis.Z{Score: float64(e.Likes), Member: member(e.PostID)})
		}
		pipe.ZAdd(ctx, r.key, zs...)
		pipe.ZRemRangeByRank(ctx, r.key, 0, int64(-r.size-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild ranking: %w", err)
	}
	return nil
}

func member(postID uint) string {
	return strconv.FormatUint(uint64(postID), 10)
}
