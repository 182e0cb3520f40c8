package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// OAuthStateRepository implements the CSRF state ledger using GORM
type OAuthStateRepository struct {
	db *gorm.DB
}

// NewOAuthStateRepository creates a new OAuth state repository
func NewOAuthStateRepository(db *gorm.DB) *OAuthStateRepository {
	return &OAuthStateRepository{db: db}
}

// Create persists a new state row
func (r *OAuthStateRepository) Create(ctx context.Context, state *entities.OAuthState) error {
	if err := r.db.WithContext(ctx).Create(state).Error; err != nil {
		return fmt.Errorf("failed to create oauth state: %w", err)
	}
	return nil
}

// Consume atomically looks up and deletes the row for the given state value.
// The DELETE ... RETURNING form guarantees that of two racing callbacks only
// one sees the row.
func (r *OAuthStateRepository) Consume(ctx context.Context, state string) (*entities.OAuthState, error) {
	var row entities.OAuthState
	result := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("state = ?", state).
		Delete(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, entities.ErrStateInvalidOrExpired
	}
	return &row, nil
}

// DeleteExpired removes rows created before the cutoff
func (r *OAuthStateRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&entities.OAuthState{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired oauth states: %w", result.Error)
	}
	return result.RowsAffected, nil
}
