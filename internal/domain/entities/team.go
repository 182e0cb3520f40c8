package entities

import (
	"time"

	"github.com/google/uuid"
)

// Team is a unit inside a department. LeadUserID is optional ownership.
type Team struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty" gorm:"type:uuid;index"`
	Name         string     `json:"name" gorm:"type:varchar(255);not null"`
	LeadUserID   *uuid.UUID `json:"lead_user_id,omitempty" gorm:"type:uuid"`
	LeadUser     *User      `json:"lead_user,omitempty" gorm:"foreignKey:LeadUserID"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Team
func (Team) TableName() string {
	return "teams"
}
