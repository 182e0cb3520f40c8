package repositories

import (
	"context"
	"time"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// OAuthStateRepository defines the interface for the single-use CSRF state
// ledger
type OAuthStateRepository interface {
	// Create persists a new state row
	Create(ctx context.Context, state *entities.OAuthState) error

	// Consume atomically looks up and deletes the row for the given state
	// value. Returns entities.ErrStateInvalidOrExpired when no row exists;
	// consuming exactly once is what closes the replay window.
	Consume(ctx context.Context, state string) (*entities.OAuthState, error)

	// DeleteExpired removes rows created before the cutoff and returns how
	// many were removed
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
