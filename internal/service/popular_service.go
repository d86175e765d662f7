package service

import (
	"context"
	"fmt"

	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/metrics"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/repository"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

const popularCacheKey = "popular"

// popularService is the concrete implementation of PopularService. It also
// mirrors like counters into the ranking for the other services.
type popularService struct {
	repos   *repository.Repositories
	ranking cache.Ranking
	cache   *expirable.LRU[string, []*models.Post]
	log     zerolog.Logger
}

// newPopularService creates a new PopularService
func newPopularService(repos *repository.Repositories, ranking cache.Ranking, cfg config.CacheConfig, log zerolog.Logger) (*popularService, error) {
	if cfg.PopularTTL <= 0 {
		return nil, fmt.Errorf("popular posts cache TTL must be positive, got %s", cfg.PopularTTL)
	}
	return &popularService{
		repos:   repos,
		ranking: ranking,
		cache:   expirable.NewLRU[string, []*models.Post](cfg.PopularSize, nil, cfg.PopularTTL),
		log:     log.With().Str("service", "popular").Logger(),
	}, nil
}

// Popular returns the most liked published posts in ranking order. When the
// ranking store is unreachable the database ordering is used instead.
func (s *popularService) Popular(ctx context.Context) ([]*models.Post, error) {
	if posts, ok := s.cache.Get(popularCacheKey); ok {
		metrics.RecordPopularCache(true)
		return posts, nil
	}
	metrics.RecordPopularCache(false)

	var posts []*models.Post
	ids, err := s.ranking.Top(ctx, cache.PopularPostsSize)
	if err != nil {
		metrics.RecordRankingError("top")
		s.log.Warn().Err(err).Msg("Ranking unavailable, falling back to database ordering")
		posts, err = s.repos.Post.TopByLikes(ctx, cache.PopularPostsSize)
	} else {
		posts, err = s.repos.Post.GetPublishedByIDs(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load popular posts: %w", err)
	}

	s.cache.Add(popularCacheKey, posts)
	return posts, nil
}

// Rebuild repopulates the ranking from the database
func (s *popularService) Rebuild(ctx context.Context) (int, error) {
	posts, err := s.repos.Post.TopByLikes(ctx, cache.PopularPostsSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load top posts: %w", err)
	}

	entries := make([]cache.Entry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, cache.Entry{PostID: p.ID, Likes: p.Likes})
	}
	if err := s.ranking.Replace(ctx, entries); err != nil {
		metrics.RecordRankingError("replace")
		return 0, fmt.Errorf("failed to replace ranking: %w", err)
	}

	s.Invalidate()
	s.log.Info().Int("posts", len(entries)).Msg("Popular posts ranking rebuilt")
	return len(entries), nil
}

// Invalidate drops the cached response
func (s *popularService) Invalidate() {
	s.cache.Purge()
}

func (s *popularService) record(ctx context.Context, postID uint, likes int) {
	if err := s.ranking.Record(ctx, postID, likes); err != nil {
		metrics.RecordRankingError("record")
		s.log.Warn().Err(err).Uint("post_id", postID).Msg("Failed to mirror likes into ranking")
	}
	s.Invalidate()
}

func (s *popularService) remove(ctx context.Context, postIDs ...uint) {
	for _, id := range postIDs {
		if err := s.ranking.Remove(ctx, id); err != nil {
			metrics.RecordRankingError("remove")
			s.log.Warn().Err(err).Uint("post_id", id).Msg("Failed to remove post from ranking")
		}
	}
	s.Invalidate()
}

// resync re-mirrors the stored counters of postIDs
func (s *popularService) resync(ctx context.Context, postIDs []uint) {
	for _, id := range postIDs {
		post, err := s.repos.Post.GetByID(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Uint("post_id", id).Msg("Failed to reload post for ranking")
			continue
		}
		if post != nil {
			s.record(ctx, post.ID, post.Likes)
		}
	}
}
