package repository

import (
	"context"
	"time"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"gorm.io/gorm"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new user
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.Gorm.WithContext(ctx).Create(user).Error)
}

// Update saves the profile fields of a user
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	err := r.db.Gorm.WithContext(ctx).
		Model(user).
		Select("username", "name", "surname", "email", "is_active", "is_staff", "is_superuser", "updated_at").
		Updates(user).Error
	return translate(err)
}

// UpdatePassword stores a new password hash
func (r *userRepo) UpdatePassword(ctx context.Context, userID uint, hash string) error {
	return r.db.Gorm.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"password": hash, "updated_at": time.Now()}).Error
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.Gorm.WithContext(ctx).First(&user, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.Gorm.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameExists checks if another user holds username
func (r *userRepo) UsernameExists(ctx context.Context, username string, excludeID uint) (bool, error) {
	return exists(r.db.Gorm.WithContext(ctx).Model(&models.User{}).Where("username = ?", username), excludeID)
}

// EmailExists checks if another user holds email (case-insensitive)
func (r *userRepo) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	return exists(r.db.Gorm.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = LOWER(?)", email), excludeID)
}

// List returns a page of users ordered by ID
func (r *userRepo) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.Gorm.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Gorm.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// Delete removes a user with everything they own. Comments go through the
// hooked path and reactions are recounted so counters on other users' posts
// stay correct.
func (r *userRepo) Delete(ctx context.Context, user *models.User) (*UserDeletion, error) {
	result := &UserDeletion{}

	err := r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comments []*models.Comment
		if err := tx.Where("user_id = ?", user.ID).Find(&comments).Error; err != nil {
			return err
		}
		for _, c := range comments {
			if err := tx.Delete(c).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Post{}).Where("author_id = ?", user.ID).
			Pluck("id", &result.DeletedPostIDs).Error; err != nil {
			return err
		}
		for _, postID := range result.DeletedPostIDs {
			if err := deletePostRows(tx, postID); err != nil {
				return err
			}
		}

		affected, err := detachReactions(tx, user.ID)
		if err != nil {
			return err
		}
		result.AffectedPostIDs = affected

		return tx.Delete(user).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// detachReactions removes every like and dislike of userID and recounts the
// posts involved
func detachReactions(tx *gorm.DB, userID uint) ([]uint, error) {
	seen := make(map[uint]bool)
	var postIDs []uint

	for _, reaction := range []models.Reaction{models.ReactionLike, models.ReactionDislike} {
		var ids []uint
		if err := tx.Table(reaction.JoinTable()).Where("user_id = ?", userID).Pluck("post_id", &ids).Error; err != nil {
			return nil, err
		}
		if err := tx.Exec("DELETE FROM "+reaction.JoinTable()+" WHERE user_id = ?", userID).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				postIDs = append(postIDs, id)
			}
		}
	}

	for _, id := range postIDs {
		if _, _, err := recountReactions(tx, id); err != nil {
			return nil, err
		}
	}
	return postIDs, nil
}

func exists(q *gorm.DB, excludeID uint) (bool, error) {
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Limit(1).Count(&count).Error
	return count > 0, err
}
