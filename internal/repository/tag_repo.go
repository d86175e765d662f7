package repository

import (
	"context"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"gorm.io/gorm"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

// Create inserts a new tag
func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	return translate(r.db.Gorm.WithContext(ctx).Create(tag).Error)
}

// Update renames a tag; the slug follows the name
func (r *tagRepo) Update(ctx context.Context, tag *models.Tag) error {
	err := r.db.Gorm.WithContext(ctx).Model(tag).Select("name", "slug", "updated_at").Updates(tag).Error
	return translate(err)
}

// Delete removes a tag and unlinks it from posts
func (r *tagRepo) Delete(ctx context.Context, tag *models.Tag) error {
	return r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
}

// GetByID retrieves a tag by ID
func (r *tagRepo) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.Gorm.WithContext(ctx).First(&tag, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByIDs returns the tags among ids that exist
func (r *tagRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.Gorm.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tags).Error
	return tags, err
}

// NameExists checks if another tag already uses name
func (r *tagRepo) NameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	return exists(r.db.Gorm.WithContext(ctx).Model(&models.Tag{}).Where("name = ?", name), excludeID)
}

// SlugExists checks if another tag already uses slug
func (r *tagRepo) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return exists(r.db.Gorm.WithContext(ctx).Model(&models.Tag{}).Where("slug = ?", slug), excludeID)
}

// List returns a page of tags ordered by ID
func (r *tagRepo) List(ctx context.Context, offset, limit int) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.Gorm.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&tags).Error
	return tags, err
}

// Count returns the total number of tags
func (r *tagRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Gorm.WithContext(ctx).Model(&models.Tag{}).Count(&count).Error
	return count, err
}
