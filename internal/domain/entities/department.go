package entities

import (
	"time"

	"github.com/google/uuid"
)

// Department groups teams inside an organization. HeadID is optional ownership:
// a department may exist before a head is appointed.
type Department struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	Name           string     `json:"name" gorm:"type:varchar(255);not null"`
	HeadID         *uuid.UUID `json:"head_id,omitempty" gorm:"type:uuid"`
	Head           *Employee  `json:"head,omitempty" gorm:"foreignKey:HeadID"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Department
func (Department) TableName() string {
	return "departments"
}
