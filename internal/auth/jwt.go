package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken covers malformed, badly signed, expired and wrong-type tokens
var ErrInvalidToken = errors.New("token is invalid or expired")

// Claims are the fields carried by access and refresh tokens
type Claims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JTI returns the unique token id
func (c *Claims) JTI() string {
	return c.ID
}

// Expiry returns the exp claim, or the zero time when absent
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Pair is an access/refresh token pair as returned to clients
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Manager issues and verifies HS256 tokens
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewManager creates a token manager for secret and lifetimes
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair creates a fresh access and refresh token for userID
func (m *Manager) IssuePair(userID uint) (*Pair, error) {
	access, err := m.Issue(userID, TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := m.Issue(userID, TypeRefresh)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

// Issue signs a token of the given type for userID
func (m *Manager) Issue(userID uint, tokenType string) (string, error) {
	ttl := m.accessTTL
	if tokenType == TypeRefresh {
		ttl = m.refreshTTL
	}

	now := m.now()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse verifies raw and checks that it is of tokenType
func (m *Manager) Parse(raw, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.UserID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
