package repository

import (
	"context"
	"strings"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchThreshold is the minimum trigram similarity of a search hit
const SearchThreshold = 0.1

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// Create inserts a post and links its tags in one transaction
func (r *postRepo) Create(ctx context.Context, post *models.Post, tagIDs []uint) error {
	err := r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if err := linkTags(tx, post.ID, tagIDs); err != nil {
			return err
		}
		return tx.Where("id IN ?", nonEmpty(tagIDs)).Order("id").Find(&post.Tags).Error
	})
	return translate(err)
}

// Update saves the given columns of post and optionally replaces its tags
func (r *postRepo) Update(ctx context.Context, post *models.Post, fields []string, tagIDs []uint, replaceTags bool) error {
	err := r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			cols := append(append([]string{}, fields...), "slug", "updated_at")
			if err := tx.Model(post).Omit(clause.Associations).Select(cols).Updates(post).Error; err != nil {
				return err
			}
		}
		if !replaceTags {
			return nil
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if err := linkTags(tx, post.ID, tagIDs); err != nil {
			return err
		}
		post.Tags = nil
		return tx.Where("id IN ?", nonEmpty(tagIDs)).Order("id").Find(&post.Tags).Error
	})
	return translate(err)
}

// Delete removes a post with its comments, tag links and reactions
func (r *postRepo) Delete(ctx context.Context, post *models.Post) error {
	return r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deletePostRows(tx, post.ID)
	})
}

// GetByID retrieves a post with its author and tags
func (r *postRepo) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withRelations(r.db.Gorm.WithContext(ctx)).First(&post, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns a page of posts matching scope, newest publish date first
func (r *postRepo) List(ctx context.Context, scope permission.Scope, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	q := applyPostScope(r.db.Gorm.WithContext(ctx).Model(&models.Post{}), scope)
	err := r.withRelations(q).
		Order("posts.publish DESC").Order("posts.id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Count returns the number of posts matching scope
func (r *postRepo) Count(ctx context.Context, scope permission.Scope) (int64, error) {
	var count int64
	err := applyPostScope(r.db.Gorm.WithContext(ctx).Model(&models.Post{}), scope).Count(&count).Error
	return count, err
}

// Search returns posts whose title is similar to query, best match first
func (r *postRepo) Search(ctx context.Context, query string, scope permission.Scope, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.searchQuery(r.db.Gorm.WithContext(ctx), query, scope)
	if r.trigram() {
		q = q.Order(clause.OrderBy{Expression: clause.Expr{SQL: "similarity(posts.title, ?) DESC", Vars: []interface{}{query}}})
	}
	err := r.withRelations(q).
		Order("posts.publish DESC").Order("posts.id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// SearchCount returns the number of search hits for query
func (r *postRepo) SearchCount(ctx context.Context, query string, scope permission.Scope) (int64, error) {
	var count int64
	err := r.searchQuery(r.db.Gorm.WithContext(ctx), query, scope).Count(&count).Error
	return count, err
}

func (r *postRepo) searchQuery(db *gorm.DB, query string, scope permission.Scope) *gorm.DB {
	q := applyPostScope(db.Model(&models.Post{}), scope)
	if r.trigram() {
		return q.Where("similarity(posts.title, ?) >= ?", query, SearchThreshold)
	}
	// Dialects without pg_trgm fall back to a substring match
	return q.Where("LOWER(posts.title) LIKE ?", "%"+strings.ToLower(query)+"%")
}

func (r *postRepo) trigram() bool {
	return r.db.Gorm.Dialector.Name() == "postgres"
}

// TitleExists checks if another post already uses title
func (r *postRepo) TitleExists(ctx context.Context, title string, excludeID uint) (bool, error) {
	return exists(r.db.Gorm.WithContext(ctx).Model(&models.Post{}).Where("title = ?", title), excludeID)
}

// SlugExists checks if another post already uses slug
func (r *postRepo) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return exists(r.db.Gorm.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug), excludeID)
}

// ToggleReaction flips userID's reaction on postID. Adding a reaction clears
// the opposite one. Counters are recomputed from the join tables. It reports
// whether the reaction is now present.
func (r *postRepo) ToggleReaction(ctx context.Context, postID, userID uint, reaction models.Reaction) (bool, *models.Post, error) {
	var added, found bool
	var post models.Post

	err := r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, postID).Error; err != nil {
			return err
		}
		found = true

		var present int64
		if err := tx.Table(reaction.JoinTable()).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Count(&present).Error; err != nil {
			return err
		}

		if present > 0 {
			if err := tx.Exec("DELETE FROM "+reaction.JoinTable()+" WHERE post_id = ? AND user_id = ?", postID, userID).Error; err != nil {
				return err
			}
		} else {
			opposite := reaction.Opposite().JoinTable()
			if err := tx.Exec("DELETE FROM "+opposite+" WHERE post_id = ? AND user_id = ?", postID, userID).Error; err != nil {
				return err
			}
			if err := tx.Exec("INSERT INTO "+reaction.JoinTable()+" (post_id, user_id) VALUES (?, ?)", postID, userID).Error; err != nil {
				return err
			}
			added = true
		}

		likes, dislikes, err := recountReactions(tx, postID)
		if err != nil {
			return err
		}
		post.Likes, post.Dislikes = likes, dislikes
		return nil
	})
	if notFound(err) && !found {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return added, &post, nil
}

// ReactorUsernames returns up to limit usernames of users with reaction on postID
func (r *postRepo) ReactorUsernames(ctx context.Context, postID uint, reaction models.Reaction, limit int) ([]string, error) {
	names := []string{}
	err := r.db.Gorm.WithContext(ctx).
		Table("users").
		Joins("JOIN "+reaction.JoinTable()+" j ON j.user_id = users.id").
		Where("j.post_id = ?", postID).
		Order("users.id").
		Limit(limit).
		Pluck("users.username", &names).Error
	return names, err
}

// ReactorIDs returns the IDs of all users with reaction on postID
func (r *postRepo) ReactorIDs(ctx context.Context, postID uint, reaction models.Reaction) ([]uint, error) {
	ids := []uint{}
	err := r.db.Gorm.WithContext(ctx).
		Table(reaction.JoinTable()).
		Where("post_id = ?", postID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// Similar returns published posts sharing at least one tag with post
func (r *postRepo) Similar(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error) {
	posts := []*models.Post{}
	shared := r.db.Gorm.WithContext(ctx).
		Table("post_tags pt").
		Select("DISTINCT other.post_id").
		Joins("JOIN post_tags other ON other.tag_id = pt.tag_id").
		Where("pt.post_id = ? AND other.post_id <> ?", post.ID, post.ID)

	err := r.db.Gorm.WithContext(ctx).
		Preload("Tags", orderTags).
		Where("posts.status = ?", models.StatusPublished).
		Where("posts.id IN (?)", shared).
		Order("posts.publish DESC").Order("posts.id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// GetPublishedByIDs loads published posts keeping the order of ids
func (r *postRepo) GetPublishedByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}

	var found []*models.Post
	err := r.withRelations(r.db.Gorm.WithContext(ctx)).
		Where("posts.id IN ? AND posts.status = ?", ids, models.StatusPublished).
		Find(&found).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]*models.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// TopByLikes returns the most liked published posts
func (r *postRepo) TopByLikes(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withRelations(r.db.Gorm.WithContext(ctx)).
		Where("posts.status = ?", models.StatusPublished).
		Order("posts.likes DESC").Order("posts.id").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepo) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Tags", orderTags)
}

func orderTags(db *gorm.DB) *gorm.DB {
	return db.Order("tags.id")
}

func applyPostScope(db *gorm.DB, s permission.Scope) *gorm.DB {
	if s.Unrestricted() {
		return db
	}
	switch {
	case s.Status != "" && s.OrOwnerID != 0:
		db = db.Where("(posts.status = ? OR posts.author_id = ?)", s.Status, s.OrOwnerID)
	case s.Status != "":
		db = db.Where("posts.status = ?", s.Status)
	}
	if s.OwnerID != 0 {
		db = db.Where("posts.author_id = ?", s.OwnerID)
	}
	return db
}

func linkTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.PostTag, 0, len(tagIDs))
	seen := make(map[uint]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, models.PostTag{PostID: postID, TagID: id})
	}
	return tx.Create(&links).Error
}

// recountReactions recomputes likes and dislikes of postID from the join tables
func recountReactions(tx *gorm.DB, postID uint) (int, int, error) {
	var likes, dislikes int64
	if err := tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&likes).Error; err != nil {
		return 0, 0, err
	}
	if err := tx.Model(&models.PostDislike{}).Where("post_id = ?", postID).Count(&dislikes).Error; err != nil {
		return 0, 0, err
	}
	err := tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{"likes": likes, "dislikes": dislikes}).Error
	return int(likes), int(dislikes), err
}

// deletePostRows removes a post and every row that references it
func deletePostRows(tx *gorm.DB, postID uint) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	for _, model := range []interface{}{&models.PostTag{}, &models.PostLike{}, &models.PostDislike{}} {
		if err := tx.Where("post_id = ?", postID).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&models.Post{}, postID).Error
}

// nonEmpty keeps IN clauses valid when there are no ids
func nonEmpty(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}
