package service

import (
	"context"
	"fmt"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// authService is the concrete implementation of AuthService
type authService struct {
	repos  *repository.Repositories
	tokens *auth.Manager
	log    zerolog.Logger
}

// newAuthService creates a new AuthService
func newAuthService(repos *repository.Repositories, tokens *auth.Manager, log zerolog.Logger) *authService {
	return &authService{
		repos:  repos,
		tokens: tokens,
		log:    log.With().Str("service", "auth").Logger(),
	}
}

// Obtain checks credentials and issues an access/refresh pair
func (s *authService) Obtain(ctx context.Context, username, password string) (*auth.Pair, error) {
	user, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	s.log.Debug().Uint("user_id", user.ID).Msg("Token pair issued")
	return pair, nil
}

// Refresh issues a new access token for a valid, non-revoked refresh token
func (s *authService) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.validRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}

	user, err := s.repos.User.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive {
		return "", ErrTokenInvalid
	}

	access, err := s.tokens.Issue(user.ID, auth.TypeAccess)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return access, nil
}

// Blacklist revokes a refresh token until it expires
func (s *authService) Blacklist(ctx context.Context, refresh string) error {
	claims, err := s.validRefresh(ctx, refresh)
	if err != nil {
		return err
	}

	token := &models.BlacklistedToken{
		JTI:       claims.JTI(),
		UserID:    claims.UserID,
		ExpiresAt: claims.Expiry(),
	}
	if err := s.repos.Token.Blacklist(ctx, token); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	s.log.Info().Uint("user_id", claims.UserID).Str("jti", token.JTI).Msg("Refresh token blacklisted")
	return nil
}

// Authenticate resolves the user behind an access token
func (s *authService) Authenticate(ctx context.Context, access string) (*models.User, error) {
	claims, err := s.tokens.Parse(access, auth.TypeAccess)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.repos.User.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrTokenInvalid
	}
	return user, nil
}

// ChangePassword replaces the actor's password after checking the current one
func (s *authService) ChangePassword(ctx context.Context, actor *models.User, in *PasswordChange) error {
	if err := permission.Check(actor, permission.IsAuthenticated(actor)); err != nil {
		return err
	}

	verr := validation.New()
	if !actor.CheckPassword(in.Current) {
		verr.Add("current_password", "Current password is incorrect.")
	}
	if in.New != in.Confirm {
		verr.Add("confirm_password", "Passwords do not match.")
	}
	verr.Password("new_password", in.New, profileAttributes(actor.Username, actor.Name, actor.Surname, actor.Email)...)
	if err := verr.OrNil(); err != nil {
		return err
	}

	if err := actor.SetPassword(in.New); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repos.User.UpdatePassword(ctx, actor.ID, actor.Password); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.Info().Uint("user_id", actor.ID).Msg("Password changed")
	return nil
}

func (s *authService) validRefresh(ctx context.Context, raw string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(raw, auth.TypeRefresh)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	revoked, err := s.repos.Token.IsBlacklisted(ctx, claims.JTI())
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
