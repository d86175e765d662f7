package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when a write hits a unique constraint
var ErrDuplicate = errors.New("duplicate key")

// DuplicateError names the column whose unique constraint a write hit.
// Column is empty when the driver does not report it. It matches
// ErrDuplicate with errors.Is.
type DuplicateError struct {
	Column string
}

func (e *DuplicateError) Error() string {
	if e.Column == "" {
		return ErrDuplicate.Error()
	}
	return ErrDuplicate.Error() + " on " + e.Column
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// DuplicateColumn returns the column named by a duplicate error, or ""
func DuplicateColumn(err error) string {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Column
	}
	return ""
}

// UserDeletion reports the posts touched by removing a user
type UserDeletion struct {
	// DeletedPostIDs are the user's own posts, removed with the account
	DeletedPostIDs []uint
	// AffectedPostIDs are other posts whose like/dislike counters changed
	AffectedPostIDs []uint
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID uint, hash string) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string, excludeID uint) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID uint) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, user *models.User) (*UserDeletion, error)
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagIDs []uint) error
	Update(ctx context.Context, post *models.Post, fields []string, tagIDs []uint, replaceTags bool) error
	Delete(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, scope permission.Scope, offset, limit int) ([]*models.Post, error)
	Count(ctx context.Context, scope permission.Scope) (int64, error)
	Search(ctx context.Context, query string, scope permission.Scope, offset, limit int) ([]*models.Post, error)
	SearchCount(ctx context.Context, query string, scope permission.Scope) (int64, error)
	TitleExists(ctx context.Context, title string, excludeID uint) (bool, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	ToggleReaction(ctx context.Context, postID, userID uint, reaction models.Reaction) (bool, *models.Post, error)
	ReactorUsernames(ctx context.Context, postID uint, reaction models.Reaction, limit int) ([]string, error)
	ReactorIDs(ctx context.Context, postID uint, reaction models.Reaction) ([]uint, error)
	Similar(ctx context.Context, post *models.Post, limit int) ([]*models.Post, error)
	GetPublishedByIDs(ctx context.Context, ids []uint) ([]*models.Post, error)
	TopByLikes(ctx context.Context, limit int) ([]*models.Post, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	NameExists(ctx context.Context, name string, excludeID uint) (bool, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Tag, error)
	Count(ctx context.Context) (int64, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	List(ctx context.Context, scope permission.Scope, offset, limit int) ([]*models.Comment, error)
	Count(ctx context.Context, scope permission.Scope) (int64, error)
	ListActiveForPost(ctx context.Context, postID uint, limit int) ([]*models.Comment, error)
	CountActiveForPost(ctx context.Context, postID uint) (int64, error)
}

// TokenRepository defines the interface for revoked token storage
type TokenRepository interface {
	Blacklist(ctx context.Context, token *models.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Post    PostRepository
	Tag     TagRepository
	Comment CommentRepository
	Token   TokenRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Post:    NewPostRepo(db),
		Tag:     NewTagRepo(db),
		Comment: NewCommentRepo(db),
		Token:   NewTokenRepo(db),
	}
}

// translate maps driver errors to repository errors
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &DuplicateError{Column: duplicateColumn(err)}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite reports constraint failures only through the message
	return strings.Contains(err.Error(), sqliteUniqueFailed)
}

const sqliteUniqueFailed = "UNIQUE constraint failed: "

// duplicateColumn extracts the violated column. Postgres reports the index
// name (idx_<table>_<column> in the migrations); SQLite lists table.column.
func duplicateColumn(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return strings.TrimPrefix(pqErr.Constraint, "idx_"+pqErr.Table+"_")
	}
	msg := err.Error()
	i := strings.Index(msg, sqliteUniqueFailed)
	if i < 0 {
		return ""
	}
	first := strings.FieldsFunc(msg[i+len(sqliteUniqueFailed):], func(r rune) bool {
		return r == ',' || r == ' ' || r == '('
	})
	if len(first) == 0 {
		return ""
	}
	_, column, _ := strings.Cut(first[0], ".")
	return column
}

// notFound turns gorm's missing-row error into the nil, nil convention
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
