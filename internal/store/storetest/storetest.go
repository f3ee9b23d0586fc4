// Package storetest holds the behaviour every core.Store implementation must
// share. Store packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/inspections/internal/core"
)

// Store is a core.Store that can also be replaced wholesale.
type Store interface {
	core.Store
	Replace(ctx context.Context, snap core.Snapshot) error
}

// Seed is the snapshot every case starts from.
func Seed() core.Snapshot {
	return core.Snapshot{
		Vehicles: []core.Vehicle{
			{ID: 1, DoorNo: "1001", PlateNo: "ABC-123", Division: "North", VehicleType: "Pickup", VehicleSize: core.Size4x4Offroad, Odometer: 12500, RestrictedAreaSticker: "yes", Status: "Active"},
			{ID: 3, DoorNo: "1003", PlateNo: "XYZ-789", Division: "South", VehicleType: "Sedan", VehicleSize: core.Size4x2, RestrictedAreaSticker: "no", Status: "Active"},
		},
		Inspections: []core.Inspection{
			{
				InspectionID:   "INS-2026-001",
				VehicleID:      1,
				DoorNo:         "1001",
				PlateNo:        "ABC-123",
				InspectionDate: "2026-01-10",
				InspectorName:  "Sara",
				InspectorID:    "E-17",
				SupervisorName: "Omar",
				SupervisorID:   "S-02",
				VehicleCondition: &core.VehicleCondition{
					Inside:      []string{"head-lights"},
					Outside:     []string{},
					Observation: "clean",
				},
				SafetyEquipment: map[string]core.EquipmentCheck{
					"tires": {Condition: core.ConditionActionRequired, Observation: "worn"},
					"horn":  {Condition: core.ConditionOK},
				},
				OverallStatus:  core.StatusActionRequired,
				IssuesFound:    1,
				ActionRequired: true,
			},
			{InspectionID: "INS-2026-002", VehicleID: 3, InspectionDate: "2026-01-12", OverallStatus: core.StatusPassed},
		},
	}
}

// Run exercises newStore against the shared contract. newStore must return
// an empty store; Run seeds it through Replace.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	seeded := func(t *testing.T) Store {
		s := newStore(t)
		require.NoError(t, s.Replace(context.Background(), Seed()))
		return s
	}

	t.Run("replace and read back in order", func(t *testing.T) {
		s := seeded(t)
		ctx := context.Background()

		vehicles, err := s.Vehicles(ctx)
		require.NoError(t, err)
		assert.Equal(t, Seed().Vehicles, vehicles)

		inspections, err := s.Inspections(ctx)
		require.NoError(t, err)
		assert.Equal(t, Seed().Inspections, inspections)
	})

	t.Run("replace drops previous records", func(t *testing.T) {
		s := seeded(t)
		ctx := context.Background()

		require.NoError(t, s.Replace(ctx, core.Snapshot{Vehicles: []core.Vehicle{{ID: 9, DoorNo: "9", PlateNo: "P9"}}}))

		vehicles, err := s.Vehicles(ctx)
		require.NoError(t, err)
		require.Len(t, vehicles, 1)
		assert.Equal(t, int64(9), vehicles[0].ID)

		inspections, err := s.Inspections(ctx)
		require.NoError(t, err)
		assert.Empty(t, inspections)
	})

	t.Run("add vehicle assigns next id", func(t *testing.T) {
		s := seeded(t)
		ctx := context.Background()

		v, err := s.AddVehicle(ctx, core.Vehicle{DoorNo: "2001", PlateNo: "NEW-1", Status: "Active"})
		require.NoError(t, err)
		assert.Equal(t, int64(4), v.ID)

		_, err = s.AddVehicle(ctx, core.Vehicle{ID: 3, DoorNo: "2002", PlateNo: "NEW-2"})
		assert.ErrorIs(t, err, core.ErrDuplicateVehicleID)

		vehicles, err := s.Vehicles(ctx)
		require.NoError(t, err)
		require.Len(t, vehicles, 3)
		assert.Equal(t, "2001", vehicles[2].DoorNo, "new vehicles are listed last")
	})

	t.Run("add vehicle to empty store starts at one", func(t *testing.T) {
		s := newStore(t)
		v, err := s.AddVehicle(context.Background(), core.Vehicle{DoorNo: "1", PlateNo: "P1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), v.ID)
	})

	t.Run("update vehicle", func(t *testing.T) {
		s := seeded(t)
		ctx := context.Background()

		odo := int64(20000)
		status := "  Retired "
		v, err := s.UpdateVehicle(ctx, 3, core.VehiclePatch{Odometer: &odo, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(20000), v.Odometer)
		assert.Equal(t, "Retired", v.Status)
		assert.Equal(t, "1003", v.DoorNo)

		vehicles, err := s.Vehicles(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Retired", vehicles[1].Status)

		_, err = s.UpdateVehicle(ctx, 99, core.VehiclePatch{Status: &status})
		assert.ErrorIs(t, err, core.ErrVehicleNotFound)
	})

	t.Run("delete vehicle keeps inspections", func(t *testing.T) {
		s := seeded(t)
		ctx := context.Background()

		require.NoError(t, s.DeleteVehicle(ctx, 1))
		assert.ErrorIs(t, s.DeleteVehicle(ctx, 1), core.ErrVehicleNotFound)

		vehicles, err := s.Vehicles(ctx)
		require.NoError(t, err)
		assert.Len(t, vehicles, 1)

		inspections, err := s.Inspections(ctx)
		require.NoError(t, err)
		assert.Len(t, inspections, 2)
	})

	t.Run("add inspection", func(t *testing.T) {
		s := seeded(t)
		ctx := context.Background()

		in := core.Inspection{InspectionID: "INS-2026-003", VehicleID: 3, InspectionDate: "2026-02-01", OverallStatus: core.StatusPassed}
		saved, err := s.AddInspection(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in, saved)

		_, err = s.AddInspection(ctx, in)
		assert.ErrorIs(t, err, core.ErrDuplicateInspection)

		inspections, err := s.Inspections(ctx)
		require.NoError(t, err)
		require.Len(t, inspections, 3)
		assert.Equal(t, "INS-2026-003", inspections[2].InspectionID)
	})

	t.Run("service on top of the store", func(t *testing.T) {
		svc := core.NewService(seeded(t))
		ctx := context.Background()

		a, err := svc.Analytics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, a.TotalVehiclesInspected)
		assert.Equal(t, 1, a.ActionRequiredInspections)

		_, err = svc.AddVehicle(ctx, core.NewVehicle{DoorNo: "1001", PlateNo: "ZZZ", Division: "X", VehicleType: "Y", VehicleSize: core.Size4x2})
		assert.ErrorIs(t, err, core.ErrDuplicateDoorNo)
	})
}
