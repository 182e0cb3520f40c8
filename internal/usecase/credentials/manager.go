package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/domain/repositories"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/oauth"
	"github.com/workpulse-hq/workpulse/pkg/lock"
)

// RefreshMargin is how close to expiry a token may get before it is refreshed
// proactively
const RefreshMargin = 60 * time.Second

// Manager hands out valid provider access tokens, refreshing them on demand.
// All refreshes for one (user, provider) pair are serialized behind a keyed
// lock so concurrent callers share a single refresh instead of racing the
// provider's token endpoint.
type Manager struct {
	credRepo  repositories.CredentialRepository
	providers *oauth.Registry
	locks     *lock.Keyed
	logger    *zap.Logger
	margin    time.Duration
}

// NewManager creates a new credential manager
func NewManager(credRepo repositories.CredentialRepository, providers *oauth.Registry, logger *zap.Logger) *Manager {
	return &Manager{
		credRepo:  credRepo,
		providers: providers,
		locks:     lock.NewKeyed(),
		logger:    logger,
		margin:    RefreshMargin,
	}
}

func refreshKey(userID uuid.UUID, provider entities.Provider) string {
	return userID.String() + ":" + string(provider)
}

// GetValidAccessToken returns an access token that is valid for at least the
// refresh margin. The read-only fast path takes no lock; only callers that
// find the token stale serialize behind the refresh lock, and the first one
// through does the refresh while the rest pick up its result.
//
// A nil stored expiry means the token has never been validated and is treated
// as expired.
func (m *Manager) GetValidAccessToken(ctx context.Context, userID uuid.UUID, provider entities.Provider) (string, error) {
	if !provider.IsValid() {
		return "", entities.ErrProviderNotSupported
	}

	cred, err := m.credRepo.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, entities.ErrCredentialNotFound) {
			return "", entities.ErrReauthRequired
		}
		return "", err
	}

	if !cred.NeedsRefresh(m.margin) {
		return *cred.AccessToken, nil
	}

	key := refreshKey(userID, provider)
	m.locks.Lock(key)
	defer m.locks.Unlock(key)

	// Re-read under the lock: a concurrent caller may have refreshed while
	// we were waiting.
	cred, err = m.credRepo.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, entities.ErrCredentialNotFound) {
			return "", entities.ErrReauthRequired
		}
		return "", err
	}
	if !cred.NeedsRefresh(m.margin) {
		return *cred.AccessToken, nil
	}

	return m.refresh(ctx, cred)
}

// refresh performs the actual token refresh. Caller must hold the refresh
// lock for the credential.
func (m *Manager) refresh(ctx context.Context, cred *entities.Credential) (string, error) {
	if !cred.HasRefreshToken() {
		// Nothing to refresh with; the grant is effectively dead
		if err := m.credRepo.ClearTokens(ctx, cred.ID); err != nil {
			m.logger.Error("failed to clear credential without refresh token",
				zap.String("credential_id", cred.ID.String()),
				zap.Error(err),
			)
		}
		return "", entities.ErrReauthRequired
	}

	provider, err := m.providers.Get(cred.Provider)
	if err != nil {
		return "", err
	}

	token, err := provider.Refresh(ctx, *cred.RefreshToken)
	if err != nil {
		classified := oauth.ClassifyTokenError(err)
		if errors.Is(classified, entities.ErrReauthRequired) {
			// Grant revoked or expired: null all fields so the UI prompts
			// for a fresh handshake
			if clearErr := m.credRepo.ClearTokens(ctx, cred.ID); clearErr != nil {
				m.logger.Error("failed to clear revoked credential",
					zap.String("credential_id", cred.ID.String()),
					zap.Error(clearErr),
				)
			}
			m.logger.Warn("credential refresh rejected, re-auth required",
				zap.String("user_id", cred.UserID.String()),
				zap.String("provider", string(cred.Provider)),
				zap.Error(err),
			)
			return "", entities.ErrReauthRequired
		}

		m.logger.Warn("transient credential refresh failure",
			zap.String("user_id", cred.UserID.String()),
			zap.String("provider", string(cred.Provider)),
			zap.Error(err),
		)
		return "", entities.ErrAuthTransient
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		expiresAt = &expiry
	}

	// New access token, expiry and (if rotated) refresh token land in one
	// atomic write
	if err := m.credRepo.UpdateTokens(ctx, cred.ID, token.AccessToken, token.RefreshToken, expiresAt); err != nil {
		return "", err
	}

	m.logger.Info("credential refreshed",
		zap.String("user_id", cred.UserID.String()),
		zap.String("provider", string(cred.Provider)),
		zap.Bool("refresh_token_rotated", token.RefreshToken != ""),
	)

	return token.AccessToken, nil
}
