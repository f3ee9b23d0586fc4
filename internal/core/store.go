package core

import (
	"context"
	"fmt"
	"sync"
)

// Store persists vehicles and inspections. Implementations must be safe for
// concurrent use. Returned slices belong to the caller.
type Store interface {
	Vehicles(ctx context.Context) ([]Vehicle, error)
	Inspections(ctx context.Context) ([]Inspection, error)

	// AddVehicle stores v. A zero ID is replaced by one more than the highest
	// id in use. Returns ErrDuplicateVehicleID when the id is taken.
	AddVehicle(ctx context.Context, v Vehicle) (Vehicle, error)

	// UpdateVehicle applies patch to vehicle id and returns the result.
	UpdateVehicle(ctx context.Context, id int64, patch VehiclePatch) (Vehicle, error)

	// DeleteVehicle removes vehicle id. Its inspections are kept.
	DeleteVehicle(ctx context.Context, id int64) error

	// AddInspection stores in. Returns ErrDuplicateInspection when its id is taken.
	AddInspection(ctx context.Context, in Inspection) (Inspection, error)
}

// MemoryStore keeps records in memory. It is the store used when the service
// runs from snapshot files, and is swapped wholesale by RefreshFrom.
type MemoryStore struct {
	mu          sync.RWMutex
	vehicles    []Vehicle
	inspections []Inspection
	analytics   *Analytics
}

// NewMemoryStore returns a store seeded with a copy of snap.
func NewMemoryStore(snap Snapshot) *MemoryStore {
	m := &MemoryStore{}
	m.RefreshFrom(snap)
	return m
}

// RefreshFrom replaces every record with a copy of snap.
func (m *MemoryStore) RefreshFrom(snap Snapshot) {
	vehicles := append([]Vehicle(nil), snap.Vehicles...)
	inspections := append([]Inspection(nil), snap.Inspections...)
	var analytics *Analytics
	if snap.Analytics != nil {
		a := *snap.Analytics
		analytics = &a
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles = vehicles
	m.inspections = inspections
	m.analytics = analytics
}

// Replace is RefreshFrom for callers that work with any store.
func (m *MemoryStore) Replace(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.RefreshFrom(snap)
	return nil
}

// Snapshot returns a copy of the current records, including the summary row
// the store was last seeded with, if any.
func (m *MemoryStore) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{
		Vehicles:    append([]Vehicle(nil), m.vehicles...),
		Inspections: append([]Inspection(nil), m.inspections...),
	}
	if m.analytics != nil {
		a := *m.analytics
		snap.Analytics = &a
	}
	return snap
}

func (m *MemoryStore) Vehicles(ctx context.Context) ([]Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]Vehicle, 0, len(m.vehicles)), m.vehicles...), nil
}

func (m *MemoryStore) Inspections(ctx context.Context) ([]Inspection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]Inspection, 0, len(m.inspections)), m.inspections...), nil
}

func (m *MemoryStore) AddVehicle(ctx context.Context, v Vehicle) (Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return Vehicle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.ID == 0 {
		v.ID = nextVehicleID(m.vehicles)
	} else if _, ok := findVehicle(m.vehicles, v.ID); ok {
		return Vehicle{}, fmt.Errorf("vehicle %d: %w", v.ID, ErrDuplicateVehicleID)
	}
	m.vehicles = append(m.vehicles, v)
	return v, nil
}

func (m *MemoryStore) UpdateVehicle(ctx context.Context, id int64, patch VehiclePatch) (Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return Vehicle{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.vehicles {
		if m.vehicles[i].ID == id {
			patch.Apply(&m.vehicles[i])
			return m.vehicles[i], nil
		}
	}
	return Vehicle{}, fmt.Errorf("vehicle %d: %w", id, ErrVehicleNotFound)
}

func (m *MemoryStore) DeleteVehicle(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, v := range m.vehicles {
		if v.ID == id {
			m.vehicles = append(m.vehicles[:i:i], m.vehicles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("vehicle %d: %w", id, ErrVehicleNotFound)
}

func (m *MemoryStore) AddInspection(ctx context.Context, in Inspection) (Inspection, error) {
	if err := ctx.Err(); err != nil {
		return Inspection{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.inspections {
		if existing.InspectionID == in.InspectionID {
			return Inspection{}, fmt.Errorf("inspection %s: %w", in.InspectionID, ErrDuplicateInspection)
		}
	}
	m.inspections = append(m.inspections, in)
	return in, nil
}

var _ Store = (*MemoryStore)(nil)
