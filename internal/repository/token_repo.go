package repository

import (
	"context"
	"time"

	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/models"
	"gorm.io/gorm/clause"
)

// tokenRepo is the concrete implementation of TokenRepository
type tokenRepo struct {
	db *database.DB
}

// NewTokenRepo creates a new token repository
func NewTokenRepo(db *database.DB) TokenRepository {
	return &tokenRepo{db: db}
}

// Blacklist records a revoked token; revoking twice is a no-op
func (r *tokenRepo) Blacklist(ctx context.Context, token *models.BlacklistedToken) error {
	return r.db.Gorm.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(token).Error
}

// IsBlacklisted checks if the token with jti was revoked
func (r *tokenRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.Gorm.WithContext(ctx).Model(&models.BlacklistedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	return count > 0, err
}

// PurgeExpired deletes entries whose token expired before the given time
func (r *tokenRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.Gorm.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.BlacklistedToken{})
	return result.RowsAffected, result.Error
}
