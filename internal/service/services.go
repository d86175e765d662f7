package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/events"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/pagination"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// Sentinel errors returned by services
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = permission.ErrPermissionDenied
	ErrNotAuthenticated   = permission.ErrNotAuthenticated
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)

// UserService defines the interface for account operations
type UserService interface {
	Register(ctx context.Context, in *UserInput) (*models.User, error)
	CreateSuperuser(ctx context.Context, in *UserInput) (*models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context, page, size string) (*pagination.Result[*models.User], error)
	Update(ctx context.Context, actor *models.User, id uint, in *UserInput, partial bool) (*models.User, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
}

// AuthService defines the interface for token and password operations
type AuthService interface {
	Obtain(ctx context.Context, username, password string) (*auth.Pair, error)
	Refresh(ctx context.Context, refresh string) (string, error)
	Blacklist(ctx context.Context, refresh string) error
	Authenticate(ctx context.Context, access string) (*models.User, error)
	ChangePassword(ctx context.Context, actor *models.User, in *PasswordChange) error
}

// PostService defines the interface for post operations
type PostService interface {
	List(ctx context.Context, scope permission.Scope, page, size string) (*pagination.Result[*models.Post], error)
	Search(ctx context.Context, query string, scope permission.Scope, page, size string) (*pagination.Result[*models.Post], error)
	Get(ctx context.Context, actor *models.User, id uint) (*models.Post, error)
	Detail(ctx context.Context, actor *models.User, id uint) (*PostDetail, error)
	Reactors(ctx context.Context, postID uint) (liked, disliked []uint, err error)
	Create(ctx context.Context, actor *models.User, in *PostInput) (*models.Post, error)
	Update(ctx context.Context, actor *models.User, id uint, in *PostInput, partial bool) (*models.Post, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
}

// TagService defines the interface for tag operations
type TagService interface {
	List(ctx context.Context, page, size string) (*pagination.Result[*models.Tag], error)
	Get(ctx context.Context, id uint) (*models.Tag, error)
	Create(ctx context.Context, in *TagInput) (*models.Tag, error)
	Update(ctx context.Context, id uint, in *TagInput, partial bool) (*models.Tag, error)
	Delete(ctx context.Context, id uint) error
}

// CommentService defines the interface for comment operations
type CommentService interface {
	List(ctx context.Context, actor *models.User, status, page, size string) (*pagination.Result[*models.Comment], error)
	Get(ctx context.Context, actor *models.User, id uint) (*models.Comment, error)
	Create(ctx context.Context, actor *models.User, in *CommentInput) (*models.Comment, error)
	Update(ctx context.Context, actor *models.User, id uint, in *CommentInput, partial bool) (*models.Comment, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
}

// ReactionService defines the interface for like and dislike toggles
type ReactionService interface {
	Toggle(ctx context.Context, actor *models.User, postID uint, reaction models.Reaction) (*ReactionResult, error)
}

// PopularService defines the interface for the most liked posts
type PopularService interface {
	Popular(ctx context.Context) ([]*models.Post, error)
	Rebuild(ctx context.Context) (int, error)
	Invalidate()
}

// StatsService defines the interface for row counts
type StatsService interface {
	Counts(ctx context.Context) (map[string]int64, error)
}

// MaintenanceService defines the interface for the background worker
type MaintenanceService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	RunOnce(ctx context.Context) (int64, error)
}

// Dependencies are the collaborators services share besides repositories
type Dependencies struct {
	Tokens  *auth.Manager
	Ranking cache.Ranking
	Events  events.Publisher
}

// Services holds all service interfaces
type Services struct {
	Users       UserService
	Auth        AuthService
	Posts       PostService
	Tags        TagService
	Comments    CommentService
	Reactions   ReactionService
	Popular     PopularService
	Stats       StatsService
	Maintenance MaintenanceService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, deps Dependencies, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	if deps.Tokens == nil || deps.Ranking == nil {
		return nil, fmt.Errorf("token manager and ranking are required")
	}
	if deps.Events == nil {
		deps.Events = events.NewNopPublisher()
	}

	popularSvc, err := newPopularService(repos, deps.Ranking, cfg.Cache, log)
	if err != nil {
		return nil, err
	}
	pub := newPublisher(deps.Events, log)

	return &Services{
		Users:       newUserService(repos, popularSvc, log),
		Auth:        newAuthService(repos, deps.Tokens, log),
		Posts:       newPostService(repos, popularSvc, pub, log),
		Tags:        newTagService(repos, popularSvc, log),
		Comments:    newCommentService(repos, popularSvc, pub, log),
		Reactions:   newReactionService(repos, popularSvc, pub, log),
		Popular:     popularSvc,
		Stats:       newStatsService(repos),
		Maintenance: newMaintenanceService(repos, popularSvc, cfg.Maintenance, log),
	}, nil
}
