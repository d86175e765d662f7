package service

import (
	"context"
	"fmt"

	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/repository"
)

// statsService is the concrete implementation of StatsService
type statsService struct {
	repos *repository.Repositories
}

// newStatsService creates a new StatsService
func newStatsService(repos *repository.Repositories) *statsService {
	return &statsService{repos: repos}
}

// Counts returns the number of rows of every resource
func (s *statsService) Counts(ctx context.Context) (map[string]int64, error) {
	all := permission.Scope{}
	counters := []struct {
		name  string
		count func(context.Context) (int64, error)
	}{
		{"users", s.repos.User.Count},
		{"posts", func(ctx context.Context) (int64, error) { return s.repos.Post.Count(ctx, all) }},
		{"comments", func(ctx context.Context) (int64, error) { return s.repos.Comment.Count(ctx, all) }},
		{"tags", s.repos.Tag.Count},
	}

	counts := make(map[string]int64, len(counters))
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
		counts[c.name] = n
	}
	return counts, nil
}
