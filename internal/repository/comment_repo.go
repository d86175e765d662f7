package repository

import (
	"context"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment; the post's comments_count follows via hooks
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.Gorm.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// Update saves body, post and active state of a comment
func (r *commentRepo) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.Gorm.WithContext(ctx).
		Model(comment).
		Omit(clause.Associations).
		Select("post_id", "body", "active", "updated_at").
		Updates(comment).Error
}

// Delete removes a loaded comment; the row must carry PostID and Active
func (r *commentRepo) Delete(ctx context.Context, comment *models.Comment) error {
	return r.db.Gorm.WithContext(ctx).Delete(comment).Error
}

// GetByID retrieves a comment with its author and post
func (r *commentRepo) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := withCommentRelations(r.db.Gorm.WithContext(ctx)).First(&comment, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// List returns a page of comments matching scope, newest first
func (r *commentRepo) List(ctx context.Context, scope permission.Scope, offset, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	q := applyCommentScope(r.db.Gorm.WithContext(ctx).Model(&models.Comment{}), scope)
	err := withCommentRelations(q).
		Order("comments.created_at DESC").Order("comments.id DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	return comments, err
}

// Count returns the number of comments matching scope
func (r *commentRepo) Count(ctx context.Context, scope permission.Scope) (int64, error) {
	var count int64
	err := applyCommentScope(r.db.Gorm.WithContext(ctx).Model(&models.Comment{}), scope).Count(&count).Error
	return count, err
}

// ListActiveForPost returns the newest active comments of a post
func (r *commentRepo) ListActiveForPost(ctx context.Context, postID uint, limit int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := withCommentRelations(r.db.Gorm.WithContext(ctx)).
		Where("comments.post_id = ? AND comments.active = ?", postID, true).
		Order("comments.created_at DESC").Order("comments.id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// CountActiveForPost counts the active comments of a post
func (r *commentRepo) CountActiveForPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.Gorm.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND active = ?", postID, true).
		Count(&count).Error
	return count, err
}

func withCommentRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Post")
}

func applyCommentScope(db *gorm.DB, s permission.Scope) *gorm.DB {
	if s.Unrestricted() {
		return db
	}
	active := s.Status == permission.StatusActive

	switch {
	case s.Status != "" && s.OrOwnerID != 0:
		db = db.Where("(comments.active = ? OR comments.user_id = ?)", active, s.OrOwnerID)
	case s.Status != "":
		db = db.Where("comments.active = ?", active)
	}
	if s.OwnerID != 0 {
		db = db.Where("comments.user_id = ?", s.OwnerID)
	}
	return db
}
