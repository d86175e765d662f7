package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/pagination"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

const (
	msgTagTaken     = "tag with this name already exists."
	msgTagSlugTaken = "tag with this slug already exists."
)

// tagService is the concrete implementation of TagService. Route-level
// permissions decide who may call the writes.
type tagService struct {
	repos   *repository.Repositories
	popular *popularService
	log     zerolog.Logger
}

// newTagService creates a new TagService
func newTagService(repos *repository.Repositories, popular *popularService, log zerolog.Logger) *tagService {
	return &tagService{
		repos:   repos,
		popular: popular,
		log:     log.With().Str("service", "tag").Logger(),
	}
}

// List returns one page of tags
func (s *tagService) List(ctx context.Context, page, size string) (*pagination.Result[*models.Tag], error) {
	count, err := s.repos.Tag.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	p := pagination.Tags.Resolve(page, size, count)

	tags, err := s.repos.Tag.List(ctx, p.Offset(), p.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return &pagination.Result[*models.Tag]{Page: p, Items: tags}, nil
}

// Get retrieves a tag by ID
func (s *tagService) Get(ctx context.Context, id uint) (*models.Tag, error) {
	tag, err := s.repos.Tag.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if tag == nil {
		return nil, ErrNotFound
	}
	return tag, nil
}

// Create adds a tag
func (s *tagService) Create(ctx context.Context, in *TagInput) (*models.Tag, error) {
	tag := &models.Tag{}
	if err := s.apply(ctx, tag, in, false); err != nil {
		return nil, err
	}
	if err := s.repos.Tag.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateTag(err)
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	s.log.Info().Uint("tag_id", tag.ID).Str("slug", tag.Slug).Msg("Tag created")
	return tag, nil
}

// Update renames a tag; the slug follows the name
func (s *tagService) Update(ctx context.Context, id uint, in *TagInput, partial bool) (*models.Tag, error) {
	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, tag, in, partial); err != nil {
		return nil, err
	}
	tag.UpdatedAt = time.Now()

	if err := s.repos.Tag.Update(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateTag(err)
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	s.popular.Invalidate()
	return tag, nil
}

// Delete removes a tag and its post links
func (s *tagService) Delete(ctx context.Context, id uint) error {
	tag, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repos.Tag.Delete(ctx, tag); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	s.popular.Invalidate()
	s.log.Info().Uint("tag_id", tag.ID).Msg("Tag deleted")
	return nil
}

func (s *tagService) apply(ctx context.Context, tag *models.Tag, in *TagInput, partial bool) error {
	verr := validation.New()

	switch {
	case in.Name == nil:
		if !partial {
			verr.Add("name", validation.MsgRequired)
		}
	case verr.Required("name", *in.Name) && verr.MaxLength("name", *in.Name, 100):
		taken, err := s.repos.Tag.NameExists(ctx, *in.Name, tag.ID)
		if err != nil {
			return fmt.Errorf("failed to check tag name: %w", err)
		}
		if taken {
			verr.Add("name", msgTagTaken)
		} else {
			slugTaken, err := s.repos.Tag.SlugExists(ctx, models.Slugify(*in.Name), tag.ID)
			if err != nil {
				return fmt.Errorf("failed to check tag slug: %w", err)
			}
			if slugTaken {
				verr.Add("slug", msgTagSlugTaken)
			}
		}
		tag.Name = *in.Name
	}

	return verr.OrNil()
}

// duplicateTag maps a unique violation that slipped past the pre-checks
func duplicateTag(err error) error {
	if repository.DuplicateColumn(err) == "slug" {
		return validation.Field("slug", msgTagSlugTaken)
	}
	return validation.Field("name", msgTagTaken)
}
