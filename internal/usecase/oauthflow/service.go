package oauthflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/domain/repositories"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/oauth"
)

// Service runs the OAuth authorization-code handshake: it issues single-use
// CSRF states, consumes them on callback and stores the exchanged token set.
type Service struct {
	stateRepo repositories.OAuthStateRepository
	credRepo  repositories.CredentialRepository
	userRepo  repositories.UserRepository
	providers *oauth.Registry
	logger    *zap.Logger
}

// NewService creates a new handshake service
func NewService(
	stateRepo repositories.OAuthStateRepository,
	credRepo repositories.CredentialRepository,
	userRepo repositories.UserRepository,
	providers *oauth.Registry,
	logger *zap.Logger,
) *Service {
	return &Service{
		stateRepo: stateRepo,
		credRepo:  credRepo,
		userRepo:  userRepo,
		providers: providers,
		logger:    logger,
	}
}

// Start issues a fresh state bound to the organization and user and returns
// the provider authorization URL to redirect the browser to. The user must
// exist, be active and belong to the claimed organization before any state
// is persisted.
func (s *Service) Start(ctx context.Context, orgID, userID uuid.UUID, provider entities.Provider) (string, error) {
	p, err := s.providers.Get(provider)
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	// Same answer for cross-tenant and inactive users; no detail leaks
	if user.OrganizationID != orgID || !user.IsActive {
		s.logger.Warn("oauth handshake rejected",
			zap.String("user_id", userID.String()),
			zap.String("claimed_org", orgID.String()),
		)
		return "", entities.ErrUserNotFound
	}

	state, err := entities.NewOAuthState(orgID, userID, provider)
	if err != nil {
		return "", err
	}
	if err := s.stateRepo.Create(ctx, state); err != nil {
		return "", err
	}

	s.logger.Info("oauth handshake started",
		zap.String("user_id", userID.String()),
		zap.String("provider", string(provider)),
	)

	return p.AuthCodeURL(state.State), nil
}

// Callback completes the handshake. The state is consumed before the code is
// exchanged, so a replayed callback fails before any token traffic. The state
// must not be expired, must belong to the provider in the callback path, and
// must be bound to the organization the caller claims.
func (s *Service) Callback(ctx context.Context, claimedOrg uuid.UUID, provider entities.Provider, stateValue, code string) (*entities.Credential, error) {
	state, err := s.stateRepo.Consume(ctx, stateValue)
	if err != nil {
		return nil, err
	}

	if state.IsExpired() {
		s.logger.Warn("oauth callback with expired state",
			zap.String("user_id", state.UserID.String()),
			zap.String("provider", string(provider)),
		)
		return nil, entities.ErrStateInvalidOrExpired
	}
	if state.Provider != provider {
		return nil, entities.ErrStateInvalidOrExpired
	}
	// State forged or pasted across tenants; reject without detail
	if state.OrganizationID != claimedOrg {
		s.logger.Warn("oauth callback organization mismatch",
			zap.String("state_org", state.OrganizationID.String()),
			zap.String("claimed_org", claimedOrg.String()),
		)
		return nil, entities.ErrStateInvalidOrExpired
	}

	p, err := s.providers.Get(provider)
	if err != nil {
		return nil, err
	}

	token, err := p.Exchange(ctx, code)
	if err != nil {
		classified := oauth.ClassifyTokenError(err)
		s.logger.Warn("oauth code exchange failed",
			zap.String("user_id", state.UserID.String()),
			zap.String("provider", string(provider)),
			zap.Error(err),
		)
		if errors.Is(classified, entities.ErrReauthRequired) {
			return nil, entities.ErrStateInvalidOrExpired
		}
		return nil, entities.ErrAuthTransient
	}

	cred := entities.NewCredential(state.UserID, provider)
	cred.SetTokens(token.AccessToken, token.RefreshToken, token.Expiry)

	if err := s.credRepo.Upsert(ctx, cred); err != nil {
		return nil, err
	}

	s.logger.Info("oauth handshake completed",
		zap.String("user_id", state.UserID.String()),
		zap.String("provider", string(provider)),
	)

	return cred, nil
}

// PurgeExpiredStates removes handshake states past their TTL. Run periodically;
// expiry is also enforced on read, so this is cleanup, not correctness.
func (s *Service) PurgeExpiredStates(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-entities.OAuthStateTTL)
	n, err := s.stateRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("purged expired oauth states", zap.Int64("count", n))
	}
	return n, nil
}
