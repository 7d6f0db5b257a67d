// Package directory exposes the read-only collaborator data the scheduling
// core consumes: citizens, officers, divisions and the service catalog.
// Slow-moving reference tables (divisions, services) are served from an
// in-memory snapshot with an explicit Reload; citizen and officer lookups
// always hit the database.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrCitizenNotFound  = errors.New("citizen not found")
	ErrOfficerNotFound  = errors.New("officer not found")
	ErrDivisionNotFound = errors.New("division not found")
	ErrServiceNotFound  = errors.New("service not found")
)

type Citizen struct {
	ID         uuid.UUID
	Name       string
	Verified   bool
	DivisionID *uuid.UUID
}

type Officer struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// Division is an administrative region with at most one assigned officer.
type Division struct {
	ID                uuid.UUID
	Name              string
	AssignedOfficerID *uuid.UUID
}

type ServiceEntry struct {
	ID      uuid.UUID
	Name    string
	Enabled bool
}

// Directory is the lookup surface the scheduling services depend on.
type Directory interface {
	GetCitizen(ctx context.Context, id uuid.UUID) (*Citizen, error)
	GetOfficer(ctx context.Context, id uuid.UUID) (*Officer, error)
	GetDivision(ctx context.Context, id uuid.UUID) (*Division, error)
	GetService(ctx context.Context, id uuid.UUID) (*ServiceEntry, error)
	// Reload refreshes the snapshot of divisions and services.
	Reload(ctx context.Context) error
}
