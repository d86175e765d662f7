package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Active    bool      `gorm:"not null;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post.comments_count must equal the number of active comments of the post.
// The hooks below keep it in step inside the write's transaction.

// AfterCreate counts a newly created active comment
func (c *Comment) AfterCreate(tx *gorm.DB) error {
	if !c.Active {
		return nil
	}
	return adjustCommentsCount(tx, c.PostID, 1)
}

// BeforeUpdate compares against the stored row so activation toggles and
// moves between posts are reflected on both sides
func (c *Comment) BeforeUpdate(tx *gorm.DB) error {
	if c.ID == 0 {
		return nil
	}

	var stored Comment
	if err := tx.Select("id", "post_id", "active").First(&stored, c.ID).Error; err != nil {
		return err
	}
	if stored.Active == c.Active && stored.PostID == c.PostID {
		return nil
	}

	if stored.Active {
		if err := adjustCommentsCount(tx, stored.PostID, -1); err != nil {
			return err
		}
	}
	if c.Active {
		return adjustCommentsCount(tx, c.PostID, 1)
	}
	return nil
}

// AfterDelete uncounts a removed active comment. The caller must delete a
// loaded row so Active and PostID are known.
func (c *Comment) AfterDelete(tx *gorm.DB) error {
	if !c.Active || c.PostID == 0 {
		return nil
	}
	return adjustCommentsCount(tx, c.PostID, -1)
}

func adjustCommentsCount(tx *gorm.DB, postID uint, delta int) error {
	return tx.Model(&Post{}).
		Where("id = ?", postID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", delta)).
		Error
}
