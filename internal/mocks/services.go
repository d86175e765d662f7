package mocks

import (
	"context"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/service"
)

// MockAuthService is a mock implementation of AuthService. Access tokens are
// looked up in Users.
type MockAuthService struct {
	Users         map[string]*models.User
	AuthErr       error
	ObtainFunc    func(ctx context.Context, username, password string) (*auth.Pair, error)
	Blacklisted   []string
	PasswordCalls int
}

// Verify interface compliance
var _ service.AuthService = (*MockAuthService)(nil)

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{Users: make(map[string]*models.User)}
}

func (m *MockAuthService) Obtain(ctx context.Context, username, password string) (*auth.Pair, error) {
	if m.ObtainFunc != nil {
		return m.ObtainFunc(ctx, username, password)
	}
	return nil, service.ErrInvalidCredentials
}

func (m *MockAuthService) Refresh(ctx context.Context, refresh string) (string, error) {
	if _, ok := m.Users[refresh]; ok {
		return refresh, nil
	}
	return "", service.ErrTokenInvalid
}

func (m *MockAuthService) Blacklist(ctx context.Context, refresh string) error {
	m.Blacklisted = append(m.Blacklisted, refresh)
	return nil
}

func (m *MockAuthService) Authenticate(ctx context.Context, access string) (*models.User, error) {
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	if user, ok := m.Users[access]; ok {
		return user, nil
	}
	return nil, service.ErrTokenInvalid
}

func (m *MockAuthService) ChangePassword(ctx context.Context, actor *models.User, in *service.PasswordChange) error {
	m.PasswordCalls++
	return nil
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	Result map[string]int64
	Err    error
}

// Verify interface compliance
var _ service.StatsService = (*MockStatsService)(nil)

func NewMockStatsService() *MockStatsService {
	return &MockStatsService{
		Result: map[string]int64{
			"users":    0,
			"posts":    0,
			"comments": 0,
			"tags":     0,
		},
	}
}

func (m *MockStatsService) Counts(ctx context.Context) (map[string]int64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockPopularService is a mock implementation of PopularService
type MockPopularService struct {
	Posts       []*models.Post
	Err         error
	Invalidated int
}

// Verify interface compliance
var _ service.PopularService = (*MockPopularService)(nil)

func NewMockPopularService() *MockPopularService {
	return &MockPopularService{Posts: make([]*models.Post, 0)}
}

func (m *MockPopularService) Popular(ctx context.Context) ([]*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Posts, nil
}

func (m *MockPopularService) Rebuild(ctx context.Context) (int, error) {
	return len(m.Posts), m.Err
}

func (m *MockPopularService) Invalidate() {
	m.Invalidated++
}
