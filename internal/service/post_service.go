package service

import (
	"context"
	"errors"
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

const (
	// detailRelatedLimit caps every related list on the post detail page
	detailRelatedLimit = 5

	msgTitleTaken = "post with this title already exists."
	msgSlugTaken  = "post with this slug already exists."
	msgEmptyList  = "This list may not be empty."
)

// postService is the concrete implementation of PostService
type postService struct {
	repos   *repository.Repositories
	popular *popularService
	events  *publisher
	log     zerolog.Logger
}

// newPostService creates a new PostService
func newPostService(repos *repository.Repositories, popular *popularService, events *publisher, log zerolog.Logger) *postService {
	return &postService{
		repos:   repos,
		popular: popular,
		events:  events,
		log:     log.With().Str("service", "post").Logger(),
	}
}

// List returns one page of the posts matching scope
func (s *postService) List(ctx context.Context, scope permission.Scope, page, size string) (*pagination.Result[*models.Post], error) {
	count, err := s.repos.Post.Count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	p := pagination.Posts.Resolve(page, size, count)

	posts, err := s.repos.Post.List(ctx, scope, p.Offset(), p.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return &pagination.Result[*models.Post]{Page: p, Items: posts}, nil
}

// Search returns one page of posts whose title resembles query
func (s *postService) Search(ctx context.Context, query string, scope permission.Scope, page, size string) (*pagination.Result[*models.Post], error) {
	count, err := s.repos.Post.SearchCount(ctx, query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count search results: %w", err)
	}
	p := pagination.Posts.Resolve(page, size, count)

	posts, err := s.repos.Post.Search(ctx, query, scope, p.Offset(), p.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return &pagination.Result[*models.Post]{Page: p, Items: posts}, nil
}

// Get retrieves a post the actor is allowed to see
func (s *postService) Get(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil || !permission.CanViewPost(actor, post) {
		return nil, ErrNotFound
	}
	return post, nil
}

// Detail retrieves a post with reactors, recent comments and similar posts
func (s *postService) Detail(ctx context.Context, actor *models.User, id uint) (*PostDetail, error) {
	post, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	detail := &PostDetail{Post: post}
	if detail.UsersLiked, err = s.repos.Post.ReactorUsernames(ctx, post.ID, models.ReactionLike, detailRelatedLimit); err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	if detail.UsersDisliked, err = s.repos.Post.ReactorUsernames(ctx, post.ID, models.ReactionDislike, detailRelatedLimit); err != nil {
		return nil, fmt.Errorf("failed to load dislikes: %w", err)
	}
	if detail.Comments, err = s.repos.Comment.ListActiveForPost(ctx, post.ID, detailRelatedLimit); err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	if detail.Similar, err = s.repos.Post.Similar(ctx, post, detailRelatedLimit); err != nil {
		return nil, fmt.Errorf("failed to load similar posts: %w", err)
	}
	return detail, nil
}

// Reactors returns the IDs of every user who liked and disliked the post
func (s *postService) Reactors(ctx context.Context, postID uint) ([]uint, []uint, error) {
	liked, err := s.repos.Post.ReactorIDs(ctx, postID, models.ReactionLike)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load likes: %w", err)
	}
	disliked, err := s.repos.Post.ReactorIDs(ctx, postID, models.ReactionDislike)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dislikes: %w", err)
	}
	return liked, disliked, nil
}

// Create writes a new post authored by the actor
func (s *postService) Create(ctx context.Context, actor *models.User, in *PostInput) (*models.Post, error) {
	if err := permission.Check(actor, permission.IsAuthenticated(actor)); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: actor.ID, Status: models.StatusDraft}
	change, err := s.apply(ctx, actor, post, in, false)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Post.Create(ctx, post, change.tagIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicatePost(err)
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.log.Info().Uint("post_id", post.ID).Uint("author_id", post.AuthorID).Msg("Post created")
	s.events.publish(ctx, events.PostCreated, postEvent(post))
	return s.reload(ctx, post.ID)
}

// Update changes a post. Only the author or a superuser may do so.
func (s *postService) Update(ctx context.Context, actor *models.User, id uint, in *PostInput, partial bool) (*models.Post, error) {
	post, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Check(actor, permission.IsOwnerOrSuperuser(actor, post.AuthorID)); err != nil {
		return nil, err
	}

	change, err := s.apply(ctx, actor, post, in, partial)
	if err != nil {
		return nil, err
	}
	post.UpdatedAt = time.Now()

	if err := s.repos.Post.Update(ctx, post, change.fields, change.tagIDs, change.replaceTags); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicatePost(err)
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.popular.Invalidate()
	s.events.publish(ctx, events.PostUpdated, postEvent(post))
	return s.reload(ctx, post.ID)
}

// Delete removes a post. Only the author or a superuser may do so.
func (s *postService) Delete(ctx context.Context, actor *models.User, id uint) error {
	post, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := permission.Check(actor, permission.IsOwnerOrSuperuser(actor, post.AuthorID)); err != nil {
		return err
	}

	if err := s.repos.Post.Delete(ctx, post); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.popular.remove(ctx, post.ID)
	s.log.Info().Uint("post_id", post.ID).Msg("Post deleted")
	s.events.publish(ctx, events.PostDeleted, postEvent(post))
	return nil
}

type postChange struct {
	fields      []string
	tagIDs      []uint
	replaceTags bool
}

// apply validates in and copies it onto post. On a partial update absent
// fields keep their stored values.
func (s *postService) apply(ctx context.Context, actor *models.User, post *models.Post, in *PostInput, partial bool) (*postChange, error) {
	verr := validation.New()
	change := &postChange{}

	if title, ok := s.field(verr, "title", in.Title, partial); ok {
		if verr.MaxLength("title", title, 100) {
			taken, err := s.repos.Post.TitleExists(ctx, title, post.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check title: %w", err)
			}
			if taken {
				verr.Add("title", msgTitleTaken)
			} else if err := s.checkSlug(ctx, verr, title, post.ID); err != nil {
				return nil, err
			}
		}
		post.Title = title
		change.fields = append(change.fields, "title")
	}

	if body, ok := s.field(verr, "body", in.Body, partial); ok {
		post.Body = body
		change.fields = append(change.fields, "body")
	}

	if in.Status != nil {
		verr.PostStatus(*in.Status)
		post.Status = models.PostStatus(*in.Status)
		change.fields = append(change.fields, "status")
	}

	if in.WithTags {
		if err := s.applyTags(ctx, verr, in.Tags, partial, change); err != nil {
			return nil, err
		}
	}

	if in.Author != nil && permission.IsSuperuser(actor) {
		author, err := s.repos.User.GetByID(ctx, *in.Author)
		if err != nil {
			return nil, fmt.Errorf("failed to load author: %w", err)
		}
		if author == nil {
			verr.Add("author", invalidPK(*in.Author))
		} else {
			post.AuthorID = author.ID
			change.fields = append(change.fields, "author_id")
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return change, nil
}

// checkSlug reports a title that differs from every stored title but
// slugifies onto a slug already in use
func (s *postService) checkSlug(ctx context.Context, verr *validation.ValidationError, title string, excludeID uint) error {
	taken, err := s.repos.Post.SlugExists(ctx, models.Slugify(title), excludeID)
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		verr.Add("slug", msgSlugTaken)
	}
	return nil
}

// duplicatePost maps a unique violation that slipped past the pre-checks
func duplicatePost(err error) error {
	if repository.DuplicateColumn(err) == "slug" {
		return validation.Field("slug", msgSlugTaken)
	}
	return validation.Field("title", msgTitleTaken)
}

func (s *postService) applyTags(ctx context.Context, verr *validation.ValidationError, ids *[]uint, partial bool, change *postChange) error {
	if ids == nil {
		if !partial {
			verr.Add("tags", validation.MsgRequired)
		}
		return nil
	}
	if len(*ids) == 0 {
		verr.Add("tags", msgEmptyList)
		return nil
	}

	found, err := s.repos.Tag.FindByIDs(ctx, *ids)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	known := make(map[uint]bool, len(found))
	for _, t := range found {
		known[t.ID] = true
	}
	for _, id := range *ids {
		if !known[id] {
			verr.Add("tags", invalidPK(id))
			return nil
		}
	}

	change.tagIDs = *ids
	change.replaceTags = true
	return nil
}

// field resolves a required text field; ok is false when it is absent or blank
func (s *postService) field(verr *validation.ValidationError, name string, value *string, partial bool) (string, bool) {
	if value == nil {
		if !partial {
			verr.Add(name, validation.MsgRequired)
		}
		return "", false
	}
	if !verr.Required(name, *value) {
		return "", false
	}
	return *value, true
}

func (s *postService) reload(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.repos.Post.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload post: %w", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

func postEvent(p *models.Post) events.PostEvent {
	return events.PostEvent{
		PostID:    p.ID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Status:    string(p.Status),
		Timestamp: time.Now(),
	}
}
