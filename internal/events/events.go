// Package events publishes domain events after writes commit.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects, relative to the configured prefix
const (
	PostCreated    = "post.created"
	PostUpdated    = "post.updated"
	PostDeleted    = "post.deleted"
	PostLiked      = "post.liked"
	PostDisliked   = "post.disliked"
	CommentCreated = "comment.created"
)

// PostEvent describes a post write
type PostEvent struct {
	PostID    uint      `json:"post_id"`
	AuthorID  uint      `json:"author_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReactionEvent describes a like or dislike toggle
type ReactionEvent struct {
	PostID    uint      `json:"post_id"`
	UserID    uint      `json:"user_id"`
	Added     bool      `json:"added"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Timestamp time.Time `json:"timestamp"`
}

// CommentEvent describes a new comment
type CommentEvent struct {
	CommentID uint      `json:"comment_id"`
	PostID    uint      `json:"post_id"`
	UserID    uint      `json:"user_id"`
	Active    bool      `json:"active"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends events to subscribers
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
	Close() error
}

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// natsPublisher publishes JSON events on NATS subjects
type natsPublisher struct {
	conn   conn
	prefix string
	log    zerolog.Logger
}

// NewNATSPublisher connects to url and publishes under prefix
func NewNATSPublisher(url, prefix string, log zerolog.Logger) (Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("blog-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return newNATSPublisher(nc, prefix, log), nil
}

func newNATSPublisher(c conn, prefix string, log zerolog.Logger) *natsPublisher {
	return &natsPublisher{
		conn:   c,
		prefix: prefix,
		log:    log.With().Str("component", "events").Logger(),
	}
}

// Publish marshals event and sends it on prefix.subject
func (p *natsPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}

	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}
	if err := p.conn.Publish(full, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", full, err)
	}

	p.log.Debug().Str("subject", full).Msg("Event published")
	return nil
}

// Close drains pending messages and closes the connection
func (p *natsPublisher) Close() error {
	return p.conn.Drain()
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (nopPublisher) Close() error { return nil }
