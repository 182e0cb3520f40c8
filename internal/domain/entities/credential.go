package entities

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies an external OAuth provider
type Provider string

const (
	// ProviderCalendar is the calendar/video provider (Google)
	ProviderCalendar Provider = "calendar"
	// ProviderConferencing is the conferencing provider (Zoom)
	ProviderConferencing Provider = "conferencing"
)

// IsValid checks if the provider is a known provider
func (p Provider) IsValid() bool {
	switch p {
	case ProviderCalendar, ProviderConferencing:
		return true
	}
	return false
}

// Credential holds one user's OAuth tokens for a single external provider.
// There is at most one row per (user, provider). Token fields are mutated only
// by the credential manager under its refresh lock and by the OAuth handshake
// on callback.
type Credential struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_provider"`
	Provider Provider  `json:"provider" gorm:"type:varchar(50);not null;uniqueIndex:idx_user_provider"`

	AccessToken  *string    `json:"-" gorm:"type:text"` // Never expose in JSON
	RefreshToken *string    `json:"-" gorm:"type:text"` // Never expose in JSON
	ExpiresAt    *time.Time `json:"expires_at,omitempty" gorm:"type:timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Credential
func (Credential) TableName() string {
	return "credentials"
}

// NewCredential creates a credential slot for a user and provider
func NewCredential(userID uuid.UUID, provider Provider) *Credential {
	return &Credential{
		ID:       uuid.New(),
		UserID:   userID,
		Provider: provider,
	}
}

// NeedsRefresh reports whether the access token must be refreshed before use.
// A nil expiry means the token has never been validated and is treated as
// expired.
func (c *Credential) NeedsRefresh(margin time.Duration) bool {
	if c.AccessToken == nil || *c.AccessToken == "" {
		return true
	}
	if c.ExpiresAt == nil {
		return true
	}
	return time.Now().Add(margin).After(*c.ExpiresAt)
}

// HasRefreshToken reports whether a refresh attempt is possible at all
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != nil && *c.RefreshToken != ""
}

// SetTokens stores a fresh token set. An empty refreshToken keeps the stored
// one (providers only rotate it sometimes).
func (c *Credential) SetTokens(accessToken, refreshToken string, expiresAt time.Time) {
	c.AccessToken = &accessToken
	if refreshToken != "" {
		c.RefreshToken = &refreshToken
	}
	if !expiresAt.IsZero() {
		c.ExpiresAt = &expiresAt
	} else {
		c.ExpiresAt = nil
	}
	c.UpdatedAt = time.Now()
}

// Clear nulls all token fields, forcing the user to re-authorize
func (c *Credential) Clear() {
	c.AccessToken = nil
	c.RefreshToken = nil
	c.ExpiresAt = nil
	c.UpdatedAt = time.Now()
}
