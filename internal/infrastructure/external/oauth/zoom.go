package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// ZoomProvider handles OAuth2 for the conferencing provider slot
type ZoomProvider struct {
	config *oauth2.Config
}

// NewZoomProvider creates a new Zoom OAuth provider
func NewZoomProvider(clientID, clientSecret, redirectURL string) *ZoomProvider {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"meeting:read",
			"meeting:write",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://zoom.us/oauth/authorize",
			TokenURL:  "https://zoom.us/oauth/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &ZoomProvider{
		config: config,
	}
}

// Name identifies the provider slot this client serves
func (z *ZoomProvider) Name() entities.Provider {
	return entities.ProviderConferencing
}

// AuthCodeURL returns the OAuth authorization URL
func (z *ZoomProvider) AuthCodeURL(state string) string {
	return z.config.AuthCodeURL(state)
}

// Exchange exchanges the authorization code for tokens
func (z *ZoomProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := z.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// Refresh refreshes the access token using the refresh token. Zoom rotates
// the refresh token on every refresh, so callers must persist the returned
// one.
func (z *ZoomProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	token := &oauth2.Token{
		RefreshToken: refreshToken,
	}

	tokenSource := z.config.TokenSource(ctx, token)
	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, err
	}

	return newToken, nil
}
