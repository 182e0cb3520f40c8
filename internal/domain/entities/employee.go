package entities

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a directory record. It may optionally be linked to a product
// User account and may optionally report to another Employee (self-referential
// manager relation).
type Employee struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;not null;index"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty" gorm:"type:uuid;index"`
	TeamID         *uuid.UUID `json:"team_id,omitempty" gorm:"type:uuid;index"`
	UserID         *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	ManagerID      *uuid.UUID `json:"manager_id,omitempty" gorm:"type:uuid;index"`
	FullName       string     `json:"full_name" gorm:"type:varchar(255);not null"`
	JobTitle       *string    `json:"job_title,omitempty" gorm:"type:varchar(255)"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Employee
func (Employee) TableName() string {
	return "employees"
}
