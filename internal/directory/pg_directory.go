package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool

	mu        sync.RWMutex
	divisions map[uuid.UUID]Division
	services  map[uuid.UUID]ServiceEntry
}

// NewPgDirectory builds the directory and loads the initial snapshot.
func NewPgDirectory(ctx context.Context, pool *pgxpool.Pool) (*PgDirectory, error) {
	d := &PgDirectory{
		pool:      pool,
		divisions: make(map[uuid.UUID]Division),
		services:  make(map[uuid.UUID]ServiceEntry),
	}
	if err := d.Reload(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *PgDirectory) GetCitizen(ctx context.Context, id uuid.UUID) (*Citizen, error) {
	var c Citizen
	var divisionID *uuid.UUID

	err := d.pool.QueryRow(ctx, `
		SELECT id, name, verified, division_id
		FROM citizens
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Verified, &divisionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCitizenNotFound
		}
		return nil, err
	}

	c.DivisionID = divisionID
	return &c, nil
}

func (d *PgDirectory) GetOfficer(ctx context.Context, id uuid.UUID) (*Officer, error) {
	var o Officer

	err := d.pool.QueryRow(ctx, `
		SELECT id, name, active
		FROM officers
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Name, &o.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfficerNotFound
		}
		return nil, err
	}

	return &o, nil
}

func (d *PgDirectory) GetDivision(_ context.Context, id uuid.UUID) (*Division, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	dv, ok := d.divisions[id]
	if !ok {
		return nil, ErrDivisionNotFound
	}
	return &dv, nil
}

func (d *PgDirectory) GetService(_ context.Context, id uuid.UUID) (*ServiceEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &s, nil
}

// Reload replaces the division and service snapshots in one swap.
func (d *PgDirectory) Reload(ctx context.Context) error {
	divisions, err := d.loadDivisions(ctx)
	if err != nil {
		return fmt.Errorf("load divisions: %w", err)
	}
	services, err := d.loadServices(ctx)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	d.mu.Lock()
	d.divisions = divisions
	d.services = services
	d.mu.Unlock()

	return nil
}

func (d *PgDirectory) loadDivisions(ctx context.Context) (map[uuid.UUID]Division, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, assigned_officer_id
		FROM divisions
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]Division)
	for rows.Next() {
		var dv Division
		var officerID *uuid.UUID
		if err := rows.Scan(&dv.ID, &dv.Name, &officerID); err != nil {
			return nil, err
		}
		dv.AssignedOfficerID = officerID
		out[dv.ID] = dv
	}
	return out, rows.Err()
}

func (d *PgDirectory) loadServices(ctx context.Context) (map[uuid.UUID]ServiceEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, enabled
		FROM services
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]ServiceEntry)
	for rows.Next() {
		var s ServiceEntry
		if err := rows.Scan(&s.ID, &s.Name, &s.Enabled); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}
