package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the publication state of a post
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Post represents a blog post in the system
type Post struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:100;uniqueIndex;not null" json:"title"`
	Slug          string     `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	AuthorID      uint       `gorm:"not null;index" json:"author_id"`
	Author        User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Body          string     `gorm:"type:text;not null" json:"body"`
	Publish       time.Time  `gorm:"not null;index" json:"publish"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Status        PostStatus `gorm:"size:10;not null;index" json:"status"`
	Likes         int        `gorm:"not null;default:0" json:"likes"`
	Dislikes      int        `gorm:"not null;default:0" json:"dislikes"`
	CommentsCount int        `gorm:"not null;default:0" json:"comments_count"`

	UsersLiked    []User `gorm:"many2many:post_users_liked;" json:"-"`
	UsersDisliked []User `gorm:"many2many:post_users_disliked;" json:"-"`
	Tags          []Tag  `gorm:"many2many:post_tags;" json:"-"`
}

// SyncSlug recomputes the slug whenever it diverges from the slugified title
func (p *Post) SyncSlug() {
	if want := Slugify(p.Title); p.Slug == "" || p.Slug != want {
		p.Slug = want
	}
}

// IsPublished reports whether the post is publicly visible
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// BeforeSave keeps slug, status and publish date consistent on every write
func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.SyncSlug()
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Publish.IsZero() {
		p.Publish = time.Now()
	}
	return nil
}

// PostTag is the join row between posts and tags
type PostTag struct {
	PostID uint `gorm:"primaryKey"`
	TagID  uint `gorm:"primaryKey"`
}

func (PostTag) TableName() string { return "post_tags" }

// PostLike is the join row of the "liked by" relation
type PostLike struct {
	PostID uint `gorm:"primaryKey"`
	UserID uint `gorm:"primaryKey"`
}

func (PostLike) TableName() string { return "post_users_liked" }

// PostDislike is the join row of the "disliked by" relation
type PostDislike struct {
	PostID uint `gorm:"primaryKey"`
	UserID uint `gorm:"primaryKey"`
}

func (PostDislike) TableName() string { return "post_users_disliked" }
