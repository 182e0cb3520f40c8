package entities

import (
	"time"

	"github.com/google/uuid"
)

// User represents a product user (typically a manager scheduling reviews)
type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;index"`
	Email          string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Role           UserRole  `json:"role" gorm:"type:varchar(50);default:'member';not null"`
	IsActive       bool      `json:"is_active" gorm:"default:true;not null"`

	// External provider credentials, one row per provider. Mutated only by the
	// credential manager and the OAuth handshake.
	Credentials []Credential `json:"-" gorm:"foreignKey:UserID"`

	Timezone  string    `json:"timezone" gorm:"type:varchar(50);default:'UTC';not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserRole defines user roles
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleMember  UserRole = "member"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user with default values
func NewUser(orgID uuid.UUID, email, name string) *User {
	now := time.Now()
	return &User{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Email:          email,
		Name:           name,
		Role:           RoleMember,
		IsActive:       true,
		Timezone:       "UTC",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CanManage checks if the user can schedule review meetings
func (u *User) CanManage() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}

// Validate validates user data
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrInvalidEmail
	}
	if u.Name == "" {
		return ErrInvalidName
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
