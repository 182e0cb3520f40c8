package oauthflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
	"github.com/workpulse-hq/workpulse/internal/infrastructure/external/oauth"
)

type fakeStateRepo struct {
	mu     sync.Mutex
	states map[string]*entities.OAuthState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]*entities.OAuthState)}
}

func (f *fakeStateRepo) Create(_ context.Context, state *entities.OAuthState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *state
	f.states[state.State] = &cp
	return nil
}

func (f *fakeStateRepo) Consume(_ context.Context, state string) (*entities.OAuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.states[state]
	if !ok {
		return nil, entities.ErrStateInvalidOrExpired
	}
	delete(f.states, state)
	return row, nil
}

func (f *fakeStateRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, v := range f.states {
		if v.CreatedAt.Before(cutoff) {
			delete(f.states, k)
			n++
		}
	}
	return n, nil
}

type fakeCredRepo struct {
	mu    sync.Mutex
	creds map[string]*entities.Credential
}

func newFakeCredRepo() *fakeCredRepo {
	return &fakeCredRepo{creds: make(map[string]*entities.Credential)}
}

func (f *fakeCredRepo) FindByUserAndProvider(_ context.Context, userID uuid.UUID, provider entities.Provider) (*entities.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.creds[userID.String()+":"+string(provider)]
	if !ok {
		return nil, entities.ErrCredentialNotFound
	}
	cp := *cred
	return &cp, nil
}

func (f *fakeCredRepo) Upsert(_ context.Context, cred *entities.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *cred
	f.creds[cred.UserID.String()+":"+string(cred.Provider)] = &cp
	return nil
}

func (f *fakeCredRepo) UpdateTokens(_ context.Context, _ uuid.UUID, _, _ string, _ *time.Time) error {
	return nil
}

func (f *fakeCredRepo) ClearTokens(_ context.Context, _ uuid.UUID) error {
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo(orgID, userID uuid.UUID) *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*entities.User{
		userID: {ID: userID, OrganizationID: orgID, IsActive: true},
	}}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

type fakeProvider struct {
	name        entities.Provider
	exchangeErr error
	exchanged   []string
}

func (p *fakeProvider) Name() entities.Provider     { return p.name }
func (p *fakeProvider) AuthCodeURL(s string) string { return "https://auth.example.com/?state=" + s }

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	p.exchanged = append(p.exchanged, code)
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (p *fakeProvider) Refresh(context.Context, string) (*oauth2.Token, error) {
	return nil, errors.New("not implemented")
}

func newTestService(stateRepo *fakeStateRepo, credRepo *fakeCredRepo, userRepo *fakeUserRepo, provider *fakeProvider) *Service {
	return NewService(stateRepo, credRepo, userRepo, oauth.NewRegistry(provider), zap.NewNop())
}

func startHandshake(t *testing.T, svc *Service, stateRepo *fakeStateRepo, orgID, userID uuid.UUID, provider entities.Provider) string {
	t.Helper()
	if _, err := svc.Start(context.Background(), orgID, userID, provider); err != nil {
		t.Fatalf("failed to start handshake: %v", err)
	}
	stateRepo.mu.Lock()
	defer stateRepo.mu.Unlock()
	for value := range stateRepo.states {
		return value
	}
	t.Fatal("no state row created")
	return ""
}

func TestCallback_HappyPathStoresCredential(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	credRepo := newFakeCredRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, credRepo, newFakeUserRepo(orgID, userID), provider)

	stateValue := startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)

	cred, err := svc.Callback(context.Background(), orgID, entities.ProviderCalendar, stateValue, "auth-code")
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if cred.UserID != userID {
		t.Fatalf("credential bound to wrong user: %s", cred.UserID)
	}

	stored, err := credRepo.FindByUserAndProvider(context.Background(), userID, entities.ProviderCalendar)
	if err != nil {
		t.Fatalf("credential not persisted: %v", err)
	}
	if stored.AccessToken == nil || *stored.AccessToken != "access-auth-code" {
		t.Fatalf("unexpected stored access token: %v", stored.AccessToken)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != "refresh-auth-code" {
		t.Fatalf("unexpected stored refresh token: %v", stored.RefreshToken)
	}
}

func TestCallback_ReplayRejectedBeforeExchange(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, newFakeCredRepo(), newFakeUserRepo(orgID, userID), provider)

	stateValue := startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)

	if _, err := svc.Callback(context.Background(), orgID, entities.ProviderCalendar, stateValue, "code-1"); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}

	_, err := svc.Callback(context.Background(), orgID, entities.ProviderCalendar, stateValue, "code-2")
	if !errors.Is(err, entities.ErrStateInvalidOrExpired) {
		t.Fatalf("expected ErrStateInvalidOrExpired on replay, got %v", err)
	}
	if len(provider.exchanged) != 1 {
		t.Fatalf("replay must not reach the token endpoint, got %d exchanges", len(provider.exchanged))
	}
}

func TestCallback_ExpiredStateRejected(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, newFakeCredRepo(), newFakeUserRepo(orgID, userID), provider)

	stateValue := startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)

	// Backdate past the TTL
	stateRepo.mu.Lock()
	stateRepo.states[stateValue].CreatedAt = time.Now().Add(-entities.OAuthStateTTL - time.Minute)
	stateRepo.mu.Unlock()

	_, err := svc.Callback(context.Background(), orgID, entities.ProviderCalendar, stateValue, "code")
	if !errors.Is(err, entities.ErrStateInvalidOrExpired) {
		t.Fatalf("expected ErrStateInvalidOrExpired, got %v", err)
	}
	if len(provider.exchanged) != 0 {
		t.Fatal("expired state must not reach the token endpoint")
	}
}

func TestCallback_StateNearTTLStillExchanges(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, newFakeCredRepo(), newFakeUserRepo(orgID, userID), provider)

	stateValue := startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)

	stateRepo.mu.Lock()
	stateRepo.states[stateValue].CreatedAt = time.Now().Add(-5 * time.Minute)
	stateRepo.mu.Unlock()

	if _, err := svc.Callback(context.Background(), orgID, entities.ProviderCalendar, stateValue, "code"); err != nil {
		t.Fatalf("state within TTL should exchange, got %v", err)
	}
}

func TestCallback_OrganizationMismatchRejected(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, newFakeCredRepo(), newFakeUserRepo(orgID, userID), provider)

	stateValue := startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)

	_, err := svc.Callback(context.Background(), uuid.New(), entities.ProviderCalendar, stateValue, "code")
	if !errors.Is(err, entities.ErrStateInvalidOrExpired) {
		t.Fatalf("expected ErrStateInvalidOrExpired, got %v", err)
	}
	if len(provider.exchanged) != 0 {
		t.Fatal("mismatched organization must not reach the token endpoint")
	}
}

func TestCallback_ProviderMismatchRejected(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	calendar := &fakeProvider{name: entities.ProviderCalendar}
	conferencing := &fakeProvider{name: entities.ProviderConferencing}
	svc := NewService(stateRepo, newFakeCredRepo(), newFakeUserRepo(orgID, userID), oauth.NewRegistry(calendar, conferencing), zap.NewNop())

	stateValue := startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)

	_, err := svc.Callback(context.Background(), orgID, entities.ProviderConferencing, stateValue, "code")
	if !errors.Is(err, entities.ErrStateInvalidOrExpired) {
		t.Fatalf("expected ErrStateInvalidOrExpired, got %v", err)
	}
}

func TestCallback_UnknownStateRejected(t *testing.T) {
	svc := newTestService(newFakeStateRepo(), newFakeCredRepo(), newFakeUserRepo(uuid.New(), uuid.New()), &fakeProvider{name: entities.ProviderCalendar})

	_, err := svc.Callback(context.Background(), uuid.New(), entities.ProviderCalendar, "never-issued", "code")
	if !errors.Is(err, entities.ErrStateInvalidOrExpired) {
		t.Fatalf("expected ErrStateInvalidOrExpired, got %v", err)
	}
}

func TestStart_UnknownUserRejected(t *testing.T) {
	stateRepo := newFakeStateRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, newFakeCredRepo(), newFakeUserRepo(uuid.New(), uuid.New()), provider)

	_, err := svc.Start(context.Background(), uuid.New(), uuid.New(), entities.ProviderCalendar)
	if !errors.Is(err, entities.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(stateRepo.states) != 0 {
		t.Fatal("no state must be persisted for an unknown user")
	}
}

func TestStart_UserOutsideClaimedOrganizationRejected(t *testing.T) {
	userID := uuid.New()
	stateRepo := newFakeStateRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, newFakeCredRepo(), newFakeUserRepo(uuid.New(), userID), provider)

	_, err := svc.Start(context.Background(), uuid.New(), userID, entities.ProviderCalendar)
	if !errors.Is(err, entities.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(stateRepo.states) != 0 {
		t.Fatal("no state must be persisted for a cross-tenant user")
	}
}

func TestStart_InactiveUserRejected(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	users := newFakeUserRepo(orgID, userID)
	users.users[userID].IsActive = false
	svc := newTestService(stateRepo, newFakeCredRepo(), users, &fakeProvider{name: entities.ProviderCalendar})

	_, err := svc.Start(context.Background(), orgID, userID, entities.ProviderCalendar)
	if !errors.Is(err, entities.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPurgeExpiredStates(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	stateRepo := newFakeStateRepo()
	provider := &fakeProvider{name: entities.ProviderCalendar}
	svc := newTestService(stateRepo, newFakeCredRepo(), newFakeUserRepo(orgID, userID), provider)

	stale := startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)
	stateRepo.mu.Lock()
	stateRepo.states[stale].CreatedAt = time.Now().Add(-time.Hour)
	stateRepo.mu.Unlock()

	startHandshake(t, svc, stateRepo, orgID, userID, entities.ProviderCalendar)

	n, err := svc.PurgeExpiredStates(context.Background())
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged state, got %d", n)
	}
}
