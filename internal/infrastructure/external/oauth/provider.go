package oauth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// Provider abstracts one external OAuth2 provider (calendar or conferencing).
// Implementations wrap an oauth2.Config; the credential manager and the
// handshake controller only speak through this interface.
type Provider interface {
	// Name identifies the provider slot this client serves
	Name() entities.Provider

	// AuthCodeURL builds the browser authorization URL embedding the CSRF
	// state value
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token set
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh obtains a fresh token set using the stored refresh token
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Registry resolves a provider client by its slot name
type Registry struct {
	providers map[entities.Provider]Provider
}

// NewRegistry builds a registry from the given providers
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[entities.Provider]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the client for the provider, or entities.ErrProviderNotSupported
func (r *Registry) Get(provider entities.Provider) (Provider, error) {
	p, ok := r.providers[provider]
	if !ok {
		return nil, entities.ErrProviderNotSupported
	}
	return p, nil
}

// ClassifyTokenError maps a token-endpoint failure onto the credential error
// taxonomy: grant-dead failures require re-authorization (and clearing the
// stored credential), everything else is transient and must leave the stored
// credential untouched.
func ClassifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" {
			return entities.ErrReauthRequired
		}
		// Some providers omit the RFC 6749 error code; fall back to the body
		if strings.Contains(string(retrieveErr.Body), "invalid_grant") {
			return entities.ErrReauthRequired
		}
		if retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return entities.ErrReauthRequired
			}
		}
	}
	// Network failures, 5xx and rate limiting are retryable
	return entities.ErrAuthTransient
}
