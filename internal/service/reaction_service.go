package service

import (
	"context"
	"fmt"
	"time"

	"github.com/blog-api/internal/events"
	"github.com/blog-api/internal/metrics"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// reactionService is the concrete implementation of ReactionService
type reactionService struct {
	repos   *repository.Repositories
	popular *popularService
	events  *publisher
	log     zerolog.Logger
}

// newReactionService creates a new ReactionService
func newReactionService(repos *repository.Repositories, popular *popularService, events *publisher, log zerolog.Logger) *reactionService {
	return &reactionService{
		repos:   repos,
		popular: popular,
		events:  events,
		log:     log.With().Str("service", "reaction").Logger(),
	}
}

// Toggle flips the actor's reaction on a published post. Giving a reaction
// clears the opposite one. The new like count is mirrored into the ranking.
func (s *reactionService) Toggle(ctx context.Context, actor *models.User, postID uint, reaction models.Reaction) (*ReactionResult, error) {
	if err := permission.Check(actor, permission.IsAuthenticated(actor)); err != nil {
		return nil, err
	}

	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil || !post.IsPublished() {
		return nil, validation.Field("post", invalidPK(postID))
	}

	added, updated, err := s.repos.Post.ToggleReaction(ctx, post.ID, actor.ID, reaction)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle %s: %w", reaction, err)
	}
	if updated == nil {
		return nil, validation.Field("post", invalidPK(postID))
	}

	s.popular.record(ctx, updated.ID, updated.Likes)
	metrics.RecordReaction(string(reaction), added)

	subject := events.PostLiked
	if reaction == models.ReactionDislike {
		subject = events.PostDisliked
	}
	s.events.publish(ctx, subject, events.ReactionEvent{
		PostID:    updated.ID,
		UserID:    actor.ID,
		Added:     added,
		Likes:     updated.Likes,
		Dislikes:  updated.Dislikes,
		Timestamp: time.Now(),
	})

	s.log.Debug().
		Uint("post_id", updated.ID).
		Uint("user_id", actor.ID).
		Str("reaction", string(reaction)).
		Bool("added", added).
		Msg("Reaction toggled")

	return &ReactionResult{
		Added:  added,
		Post:   updated,
		Detail: reactionDetail(actor, updated, reaction, added),
	}, nil
}

func reactionDetail(actor *models.User, post *models.Post, reaction models.Reaction, added bool) string {
	verb := "liked"
	if reaction == models.ReactionDislike {
		verb = "disliked"
	}
	if !added {
		verb = "un" + verb
	}
	return fmt.Sprintf("User %s %s post %s", actor.Username, verb, post.Title)
}
