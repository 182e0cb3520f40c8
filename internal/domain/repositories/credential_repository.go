package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// CredentialRepository defines the interface for per-user provider credentials
type CredentialRepository interface {
	// FindByUserAndProvider returns the credential row for (user, provider),
	// or entities.ErrCredentialNotFound
	FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider entities.Provider) (*entities.Credential, error)

	// Upsert creates the (user, provider) row or replaces its token fields
	Upsert(ctx context.Context, cred *entities.Credential) error

	// UpdateTokens persists a refreshed token set in one atomic write. An
	// empty refreshToken keeps the stored one.
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error

	// ClearTokens nulls access token, refresh token and expiry, forcing
	// re-authorization
	ClearTokens(ctx context.Context, id uuid.UUID) error
}
