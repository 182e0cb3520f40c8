package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/workpulse-hq/workpulse/internal/domain/entities"
)

// UserRepository defines read access to the user directory needed by the
// OAuth handshake flow
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// EmployeeRepository defines read access to the employee directory needed by
// the ingestion core
type EmployeeRepository interface {
	// FindByID finds an employee by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Employee, error)
}
