package entities

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the top-level tenant that owns departments, teams and users
type Organization struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Domain    *string   `json:"domain,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}
