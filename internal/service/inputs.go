package service

import (
	"context"
	"fmt"

	"github.com/blog-api/internal/events"
	"github.com/blog-api/internal/models"
	"github.com/rs/zerolog"
)

// Request payloads use pointers so a partial update can tell an absent
// field from an empty one.

// UserInput carries the writable account fields
type UserInput struct {
	Username  *string `json:"username"`
	Name      *string `json:"name"`
	Surname   *string `json:"surname"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Password2 *string `json:"password2"`
}

// PasswordChange is the change-password payload
type PasswordChange struct {
	Current string `json:"current_password" binding:"required"`
	New     string `json:"new_password" binding:"required"`
	Confirm string `json:"confirm_password" binding:"required"`
}

// PostInput carries the writable post fields
type PostInput struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Status *string `json:"status"`
	Tags   *[]uint `json:"tags"`
	// Author is honoured only when the actor is a superuser
	Author *uint `json:"author"`

	// WithTags makes tags part of the payload, required on full writes
	WithTags bool `json:"-"`
}

// TagInput carries the writable tag fields
type TagInput struct {
	Name *string `json:"name"`
}

// CommentInput carries the writable comment fields
type CommentInput struct {
	Post   *uint   `json:"post"`
	Body   *string `json:"body"`
	Active *bool   `json:"active"`
}

// PostDetail is a post with the related data shown on its detail page
type PostDetail struct {
	Post          *models.Post
	UsersLiked    []string
	UsersDisliked []string
	Comments      []*models.Comment
	Similar       []*models.Post
}

// ReactionResult describes the outcome of a toggle
type ReactionResult struct {
	Added  bool
	Post   *models.Post
	Detail string
}

// publisher sends events after commit; failures are only logged
type publisher struct {
	pub events.Publisher
	log zerolog.Logger
}

func newPublisher(pub events.Publisher, log zerolog.Logger) *publisher {
	return &publisher{pub: pub, log: log.With().Str("service", "events").Logger()}
}

func (p *publisher) publish(ctx context.Context, subject string, event interface{}) {
	if err := p.pub.Publish(ctx, subject, event); err != nil {
		p.log.Warn().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}

func invalidPK(id uint) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
