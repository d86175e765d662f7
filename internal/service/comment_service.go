package service

import (
	"context"
	"fmt"
	"time"

	"github.com/blog-api/internal/events"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/pagination"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos   *repository.Repositories
	popular *popularService
	events  *publisher
	log     zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, popular *popularService, events *publisher, log zerolog.Logger) *commentService {
	return &commentService{
		repos:   repos,
		popular: popular,
		events:  events,
		log:     log.With().Str("service", "comment").Logger(),
	}
}

// List returns one page of the comments visible for status
func (s *commentService) List(ctx context.Context, actor *models.User, status, page, size string) (*pagination.Result[*models.Comment], error) {
	scope := permission.CommentListScope(actor, status)

	count, err := s.repos.Comment.Count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	p := pagination.Comments.Resolve(page, size, count)

	comments, err := s.repos.Comment.List(ctx, scope, p.Offset(), p.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return &pagination.Result[*models.Comment]{Page: p, Items: comments}, nil
}

// Get retrieves a comment the actor is allowed to see
func (s *commentService) Get(ctx context.Context, actor *models.User, id uint) (*models.Comment, error) {
	comment, err := s.repos.Comment.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil || !permission.CanViewComment(actor, comment) {
		return nil, ErrNotFound
	}
	return comment, nil
}

// Create adds a comment by the actor on a post they can see. Only
// superusers choose the active flag; everyone else gets an active comment.
func (s *commentService) Create(ctx context.Context, actor *models.User, in *CommentInput) (*models.Comment, error) {
	if err := permission.Check(actor, permission.IsAuthenticated(actor)); err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: actor.ID, Active: true}
	if err := s.apply(ctx, actor, comment, in, false); err != nil {
		return nil, err
	}

	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	// cached popular posts carry comments_count
	s.popular.Invalidate()

	s.log.Info().Uint("comment_id", comment.ID).Uint("post_id", comment.PostID).Msg("Comment created")
	s.events.publish(ctx, events.CommentCreated, events.CommentEvent{
		CommentID: comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Active:    comment.Active,
		Timestamp: time.Now(),
	})
	return s.reload(ctx, comment.ID)
}

// Update changes a comment. Only its author or a superuser may do so.
func (s *commentService) Update(ctx context.Context, actor *models.User, id uint, in *CommentInput, partial bool) (*models.Comment, error) {
	comment, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Check(actor, permission.IsOwnerOrSuperuser(actor, comment.UserID)); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, actor, comment, in, partial); err != nil {
		return nil, err
	}
	comment.UpdatedAt = time.Now()

	if err := s.repos.Comment.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	s.popular.Invalidate()
	return s.reload(ctx, comment.ID)
}

// Delete removes a comment. Only its author or a superuser may do so.
func (s *commentService) Delete(ctx context.Context, actor *models.User, id uint) error {
	comment, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := permission.Check(actor, permission.IsOwnerOrSuperuser(actor, comment.UserID)); err != nil {
		return err
	}

	if err := s.repos.Comment.Delete(ctx, comment); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.popular.Invalidate()
	s.log.Info().Uint("comment_id", comment.ID).Msg("Comment deleted")
	return nil
}

func (s *commentService) apply(ctx context.Context, actor *models.User, comment *models.Comment, in *CommentInput, partial bool) error {
	verr := validation.New()

	if in.Post != nil {
		post, err := s.repos.Post.GetByID(ctx, *in.Post)
		if err != nil {
			return fmt.Errorf("failed to load post: %w", err)
		}
		if post == nil || !permission.CanViewPost(actor, post) {
			verr.Add("post", invalidPK(*in.Post))
		} else {
			comment.PostID = post.ID
		}
	} else if !partial {
		verr.Add("post", validation.MsgRequired)
	}

	if in.Body != nil {
		if verr.Required("body", *in.Body) {
			comment.Body = *in.Body
		}
	} else if !partial {
		verr.Add("body", validation.MsgRequired)
	}

	if in.Active != nil && permission.IsSuperuser(actor) {
		comment.Active = *in.Active
	}

	return verr.OrNil()
}

func (s *commentService) reload(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.repos.Comment.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}
	if comment == nil {
		return nil, ErrNotFound
	}
	return comment, nil
}
