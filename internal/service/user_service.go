package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/pagination"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

const (
	msgUsernameTaken    = "A user with that username already exists."
	msgEmailTaken       = "user with this email already exists."
	msgPasswordMismatch = "Password fields didn't match."
)

// userService is the concrete implementation of UserService
type userService struct {
	repos   *repository.Repositories
	popular *popularService
	log     zerolog.Logger
}

// newUserService creates a new UserService
func newUserService(repos *repository.Repositories, popular *popularService, log zerolog.Logger) *userService {
	return &userService{
		repos:   repos,
		popular: popular,
		log:     log.With().Str("service", "user").Logger(),
	}
}

// Register creates an active account after validating the profile and password
func (s *userService) Register(ctx context.Context, in *UserInput) (*models.User, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser creates an active staff superuser with the same checks as Register
func (s *userService) CreateSuperuser(ctx context.Context, in *UserInput) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *userService) create(ctx context.Context, in *UserInput, superuser bool) (*models.User, error) {
	verr := validation.New()
	if err := s.validateProfile(ctx, verr, in, 0, false); err != nil {
		return nil, err
	}

	password, ok1 := requiredString(verr, "password", in.Password)
	password2, ok2 := requiredString(verr, "password2", in.Password2)
	if ok1 && ok2 {
		if password != password2 {
			verr.Add("password", msgPasswordMismatch)
		} else {
			verr.Password("password", password, userAttributes(in)...)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    str(in.Username),
		Name:        str(in.Name),
		Surname:     str(in.Surname),
		Email:       str(in.Email),
		IsActive:    true,
		IsStaff:     superuser,
		IsSuperuser: superuser,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateUser(err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Uint("user_id", user.ID).Str("username", user.Username).Bool("superuser", superuser).Msg("User registered")
	return user, nil
}

// Get retrieves a user by ID
func (s *userService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// List returns one page of users
func (s *userService) List(ctx context.Context, page, size string) (*pagination.Result[*models.User], error) {
	count, err := s.repos.User.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	p := pagination.Users.Resolve(page, size, count)

	users, err := s.repos.User.List(ctx, p.Offset(), p.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &pagination.Result[*models.User]{Page: p, Items: users}, nil
}

// Update changes the profile fields of a user. Only the user themself or a
// superuser may do so.
func (s *userService) Update(ctx context.Context, actor *models.User, id uint, in *UserInput, partial bool) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Check(actor, permission.IsOwnerOrSuperuser(actor, user.ID)); err != nil {
		return nil, err
	}

	verr := validation.New()
	if err := s.validateProfile(ctx, verr, in, user.ID, partial); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Surname != nil {
		user.Surname = *in.Surname
	}
	user.UpdatedAt = time.Now()

	if err := s.repos.User.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateUser(err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes a user with their posts, comments and reactions, then
// brings the popular posts ranking in line
func (s *userService) Delete(ctx context.Context, actor *models.User, id uint) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := permission.Check(actor, permission.IsOwnerOrSuperuser(actor, user.ID)); err != nil {
		return err
	}

	deletion, err := s.repos.User.Delete(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.popular.remove(ctx, deletion.DeletedPostIDs...)
	s.popular.resync(ctx, deletion.AffectedPostIDs)

	s.log.Info().
		Uint("user_id", user.ID).
		Int("posts_deleted", len(deletion.DeletedPostIDs)).
		Int("posts_recounted", len(deletion.AffectedPostIDs)).
		Msg("User deleted")
	return nil
}

// validateProfile checks username, email, name and surname. On a partial
// update absent fields are skipped; otherwise username and email are required.
func (s *userService) validateProfile(ctx context.Context, verr *validation.ValidationError, in *UserInput, excludeID uint, partial bool) error {
	if in.Username != nil {
		verr.Username(*in.Username)
		if !verr.Has("username") {
			taken, err := s.repos.User.UsernameExists(ctx, *in.Username, excludeID)
			if err != nil {
				return fmt.Errorf("failed to check username: %w", err)
			}
			if taken {
				verr.Add("username", msgUsernameTaken)
			}
		}
	} else if !partial {
		verr.Add("username", validation.MsgRequired)
	}

	if in.Email != nil {
		verr.Email(*in.Email)
		if !verr.Has("email") {
			taken, err := s.repos.User.EmailExists(ctx, *in.Email, excludeID)
			if err != nil {
				return fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				verr.Add("email", msgEmailTaken)
			}
		}
	} else if !partial {
		verr.Add("email", validation.MsgRequired)
	}

	if in.Name != nil {
		verr.MaxLength("name", *in.Name, 150)
	}
	if in.Surname != nil {
		verr.MaxLength("surname", *in.Surname, 150)
	}
	return nil
}

// requiredString reports a missing or blank value under field
func requiredString(verr *validation.ValidationError, field string, value *string) (string, bool) {
	if value == nil {
		verr.Add(field, validation.MsgRequired)
		return "", false
	}
	if !verr.Required(field, *value) {
		return "", false
	}
	return *value, true
}

func userAttributes(in *UserInput) []validation.UserAttribute {
	return profileAttributes(str(in.Username), str(in.Name), str(in.Surname), str(in.Email))
}

func profileAttributes(username, name, surname, email string) []validation.UserAttribute {
	attrs := []validation.UserAttribute{
		{Name: "username", Value: username},
		{Name: "name", Value: name},
		{Name: "surname", Value: surname},
		{Name: "email address", Value: email},
	}
	if local, _, ok := strings.Cut(email, "@"); ok {
		attrs = append(attrs, validation.UserAttribute{Name: "email address", Value: local})
	}
	return attrs
}

// duplicateUser maps a unique violation that slipped past the pre-checks
func duplicateUser(err error) error {
	if repository.DuplicateColumn(err) == "email" {
		return validation.Field("email", msgEmailTaken)
	}
	return validation.Field("username", msgUsernameTaken)
}
