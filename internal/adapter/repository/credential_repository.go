package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// CredentialRepository implements credential data access using GORM
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindByUserAndProvider returns the credential row for (user, provider)
func (r *CredentialRepository) FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider entities.Provider) (*entities.Credential, error) {
	var cred entities.Credential
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	return &cred, nil
}

// Upsert creates the (user, provider) row or replaces its token fields
func (r *CredentialRepository) Upsert(ctx context.Context, cred *entities.Credential) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token", "refresh_token", "expires_at", "updated_at",
			}),
		}).
		Create(cred).Error; err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

// UpdateTokens persists a refreshed token set in one atomic write. An empty
// refreshToken keeps the stored one.
func (r *CredentialRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"expires_at":   expiresAt,
		"updated_at":   time.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}

	if err := r.db.WithContext(ctx).
		Model(&entities.Credential{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update credential tokens: %w", err)
	}
	return nil
}

// ClearTokens nulls access token, refresh token and expiry
func (r *CredentialRepository) ClearTokens(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.Credential{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  nil,
			"refresh_token": nil,
			"expires_at":    nil,
			"updated_at":    time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to clear credential tokens: %w", err)
	}
	return nil
}
