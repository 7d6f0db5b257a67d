package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryDirectory is a fixture-backed Directory for tests.
type MemoryDirectory struct {
	mu        sync.RWMutex
	citizens  map[uuid.UUID]Citizen
	officers  map[uuid.UUID]Officer
	divisions map[uuid.UUID]Division
	services  map[uuid.UUID]ServiceEntry
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		citizens:  make(map[uuid.UUID]Citizen),
		officers:  make(map[uuid.UUID]Officer),
		divisions: make(map[uuid.UUID]Division),
		services:  make(map[uuid.UUID]ServiceEntry),
	}
}

func (d *MemoryDirectory) PutCitizen(c Citizen) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.citizens[c.ID] = c
}

func (d *MemoryDirectory) PutOfficer(o Officer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.officers[o.ID] = o
}

func (d *MemoryDirectory) PutDivision(dv Division) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.divisions[dv.ID] = dv
}

func (d *MemoryDirectory) PutService(s ServiceEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[s.ID] = s
}

func (d *MemoryDirectory) GetCitizen(_ context.Context, id uuid.UUID) (*Citizen, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.citizens[id]
	if !ok {
		return nil, ErrCitizenNotFound
	}
	return &c, nil
}

func (d *MemoryDirectory) GetOfficer(_ context.Context, id uuid.UUID) (*Officer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := d.officers[id]
	if !ok {
		return nil, ErrOfficerNotFound
	}
	return &o, nil
}

func (d *MemoryDirectory) GetDivision(_ context.Context, id uuid.UUID) (*Division, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dv, ok := d.divisions[id]
	if !ok {
		return nil, ErrDivisionNotFound
	}
	return &dv, nil
}

func (d *MemoryDirectory) GetService(_ context.Context, id uuid.UUID) (*ServiceEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &s, nil
}

func (d *MemoryDirectory) Reload(context.Context) error {
	return nil
}
