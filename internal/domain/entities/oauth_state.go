package entities

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// OAuthStateTTL is how long a state value stays valid after creation
const OAuthStateTTL = 10 * time.Minute

// OAuthState is a single-use CSRF token binding an authorization redirect to
// the organization and user that started it. A row is consumed (deleted) by
// the first callback that presents it; rows older than OAuthStateTTL are
// invalid even if never consumed.
type OAuthState struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	State          string    `json:"-" gorm:"type:varchar(255);uniqueIndex;not null"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	Provider       Provider  `json:"provider" gorm:"type:varchar(50);not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for OAuthState
func (OAuthState) TableName() string {
	return "oauth_states"
}

// NewOAuthState creates a state row with a fresh 256-bit random value
func NewOAuthState(orgID, userID uuid.UUID, provider Provider) (*OAuthState, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return &OAuthState{
		ID:             uuid.New(),
		State:          base64.URLEncoding.EncodeToString(b),
		OrganizationID: orgID,
		UserID:         userID,
		Provider:       provider,
		CreatedAt:      time.Now(),
	}, nil
}

// IsExpired reports whether the state is older than the TTL
func (s *OAuthState) IsExpired() bool {
	return time.Since(s.CreatedAt) > OAuthStateTTL
}
