package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

func testSnapshot() Snapshot {
	return Snapshot{
		Vehicles: []Vehicle{
			{ID: 1, DoorNo: "1001", PlateNo: "ABC-123", Division: "North", VehicleType: "Pickup", VehicleSize: Size4x4Offroad, Status: "Active"},
			{ID: 2, DoorNo: "1002", PlateNo: "XYZ-789", Division: "South", VehicleType: "Sedan", VehicleSize: Size4x2, Status: "Active"},
			{ID: 5, DoorNo: "2001", PlateNo: "QRS-555", Division: "North", VehicleType: "Bus", VehicleSize: Size4x4NonOffroad, Status: "Active"},
		},
		Inspections: []Inspection{
			{InspectionID: "INS-2026-001", VehicleID: 1, InspectionDate: "2026-01-10", OverallStatus: StatusPassed},
			{InspectionID: "INS-2026-002", VehicleID: 1, InspectionDate: "2026-02-20", OverallStatus: StatusActionRequired, IssuesFound: 2, ActionRequired: true},
			{InspectionID: "INS-2026-003", VehicleID: 2, InspectionDate: "2026-01-15", OverallStatus: StatusPassed},
		},
	}
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(testSnapshot())
	return NewService(store, WithClock(func() time.Time { return fixedNow })), store
}

func validForm() ChecklistForm {
	return ChecklistForm{
		DoorNo:         "1002",
		PlateNo:        "XYZ-789",
		VehicleSize:    Size4x2,
		InspectorName:  "Sara",
		InspectorID:    "E-17",
		SupervisorName: "Omar",
		SupervisorID:   "S-02",
		Inside:         []string{"windshields", "head-lights"},
	}
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

func TestService_ListVehicles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rows, err := svc.ListVehicles(ctx, VehicleFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2026-02-20", rows[0].LastInspectionDate)
	assert.Equal(t, StatusActionRequired, rows[0].LastStatus)
	assert.Equal(t, "2026-01-15", rows[1].LastInspectionDate)
	assert.Equal(t, NeverInspected, rows[2].LastInspectionDate)
	assert.Equal(t, StatusNotInspected, rows[2].LastStatus)

	rows, err = svc.ListVehicles(ctx, VehicleFilter{Search: "xyz"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ID)

	rows, err = svc.ListVehicles(ctx, VehicleFilter{Search: "00", Division: "North"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []int64{1, 5}, []int64{rows[0].ID, rows[1].ID})
}

func TestService_History(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "INS-2026-002", history[0].InspectionID)
	assert.Equal(t, "INS-2026-001", history[1].InspectionID)

	history, err = svc.History(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = svc.History(ctx, 99)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestService_RecentActivity(t *testing.T) {
	svc, _ := newTestService(t)

	recent, err := svc.RecentActivity(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "INS-2026-002", recent[0].InspectionID)
	assert.Equal(t, "INS-2026-003", recent[1].InspectionID)

	recent, err = svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestService_Analytics(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Analytics{
		TotalVehicles:             3,
		TotalInspections:          3,
		PassedInspections:         2,
		ActionRequiredInspections: 1,
		TotalVehiclesInspected:    2,
		TotalVehiclesNotInspected: 1,
	}, a)
}

func TestService_Lookups(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.Vehicle(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "1002", v.DoorNo)

	_, err = svc.Vehicle(ctx, 42)
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	in, err := svc.Inspection(ctx, "INS-2026-003")
	require.NoError(t, err)
	assert.Equal(t, int64(2), in.VehicleID)

	_, err = svc.Inspection(ctx, "INS-1999-001")
	assert.ErrorIs(t, err, ErrInspectionNotFound)

	divisions, err := svc.Divisions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South"}, divisions)
}

// ----------------------------------------------------------------------------
// SubmitInspection
// ----------------------------------------------------------------------------

func TestService_SubmitInspection(t *testing.T) {
	svc, store := newTestService(t)

	in, err := svc.SubmitInspection(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, "INS-2026-004", in.InspectionID)
	assert.Equal(t, int64(2), in.VehicleID)
	assert.Equal(t, "2026-03-09", in.InspectionDate)
	assert.Equal(t, StatusPassed, in.OverallStatus)
	assert.False(t, in.ActionRequired)
	require.NotNil(t, in.VehicleCondition)
	assert.Equal(t, []string{"head-lights", "windshields"}, in.VehicleCondition.Inside)
	assert.Len(t, in.SafetyEquipment, len(EquipmentItems))
	assert.Equal(t, ConditionOK, in.SafetyEquipment["horn"].Condition)
	assert.Equal(t, ConditionNotApplicable, in.SafetyEquipment["shovel"].Condition)

	assert.Len(t, store.Snapshot().Inspections, 4)
}

func TestService_SubmitInspection_ActionRequired(t *testing.T) {
	svc, _ := newTestService(t)

	form := validForm()
	form.Equipment = map[string]EquipmentCheck{
		"tires":  {Condition: ConditionActionRequired, Observation: "worn tread"},
		"horn":   {Condition: ConditionActionRequired, Observation: "weak"},
		"wheels": {Condition: ConditionOK},
	}

	in, err := svc.SubmitInspection(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, StatusActionRequired, in.OverallStatus)
	assert.Equal(t, 2, in.IssuesFound)
	assert.True(t, in.ActionRequired)
	assert.Equal(t, "worn tread", in.SafetyEquipment["tires"].Observation)
}

func TestService_SubmitInspection_VehicleResolution(t *testing.T) {
	t.Run("door number wins over selected id", func(t *testing.T) {
		svc, _ := newTestService(t)
		form := validForm()
		form.VehicleID = 1

		in, err := svc.SubmitInspection(context.Background(), form)
		require.NoError(t, err)
		assert.Equal(t, int64(2), in.VehicleID)
	})

	t.Run("unknown door falls back to selected id", func(t *testing.T) {
		svc, _ := newTestService(t)
		form := validForm()
		form.DoorNo = "9999"
		form.VehicleID = 5

		in, err := svc.SubmitInspection(context.Background(), form)
		require.NoError(t, err)
		assert.Equal(t, int64(5), in.VehicleID)
	})

	t.Run("selected id must exist", func(t *testing.T) {
		svc, store := newTestService(t)
		form := validForm()
		form.DoorNo = "NOPE"
		form.VehicleID = 999

		_, err := svc.SubmitInspection(context.Background(), form)
		assert.ErrorIs(t, err, ErrVehicleNotFound)
		assert.Len(t, store.Snapshot().Inspections, 3)
	})

	t.Run("nothing to link to", func(t *testing.T) {
		svc, _ := newTestService(t)
		form := validForm()
		form.DoorNo = "9999"

		_, err := svc.SubmitInspection(context.Background(), form)
		assert.ErrorIs(t, err, ErrNoVehicleSelected)
	})
}

func TestService_SubmitInspection_Invalid(t *testing.T) {
	svc, store := newTestService(t)

	form := validForm()
	form.InspectorName = ""
	form.SupervisorID = "  "

	_, err := svc.SubmitInspection(context.Background(), form)
	require.ErrorIs(t, err, ErrValidation)

	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs.Errors, 2)
	assert.Len(t, store.Snapshot().Inspections, 3)
}

func TestService_SubmitInspection_SkipsTakenIDs(t *testing.T) {
	snap := testSnapshot()
	snap.Inspections[2].InspectionID = "INS-2026-004"
	svc := NewService(NewMemoryStore(snap), WithClock(func() time.Time { return fixedNow }))

	in, err := svc.SubmitInspection(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "INS-2026-005", in.InspectionID)
}

func TestService_RecordInspection(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	in, err := svc.RecordInspection(ctx, Inspection{VehicleID: 2, IssuesFound: 1})
	require.NoError(t, err)
	assert.Equal(t, "INS-2026-004", in.InspectionID)
	assert.Equal(t, "2026-03-09", in.InspectionDate)
	assert.Equal(t, StatusActionRequired, in.OverallStatus)
	assert.True(t, in.ActionRequired)

	kept, err := svc.RecordInspection(ctx, Inspection{InspectionID: "INS-2025-900", VehicleID: 5, InspectionDate: "2025-12-31", OverallStatus: StatusPassed})
	require.NoError(t, err)
	assert.Equal(t, "INS-2025-900", kept.InspectionID)
	assert.Equal(t, "2025-12-31", kept.InspectionDate)
	assert.False(t, kept.ActionRequired)

	_, err = svc.RecordInspection(ctx, kept)
	assert.ErrorIs(t, err, ErrDuplicateInspection)

	_, err = svc.RecordInspection(ctx, Inspection{InspectionID: "INS-2026-777"})
	assert.ErrorIs(t, err, ErrNoVehicleSelected)

	_, err = svc.RecordInspection(ctx, Inspection{VehicleID: 999})
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	assert.Len(t, store.Snapshot().Inspections, 5)
}

// ----------------------------------------------------------------------------
// Vehicle mutations
// ----------------------------------------------------------------------------

func TestService_AddVehicle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.AddVehicle(ctx, NewVehicle{
		DoorNo:      " 3001 ",
		PlateNo:     "NEW-001",
		Division:    "East",
		VehicleType: "Truck",
		VehicleSize: Size4x2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), v.ID)
	assert.Equal(t, "3001", v.DoorNo)
	assert.Equal(t, DefaultVehicleStatus, v.Status)
	assert.Equal(t, DefaultRestrictedAreaSticker, v.RestrictedAreaSticker)
	assert.Equal(t, int64(0), v.Odometer)

	_, err = svc.AddVehicle(ctx, NewVehicle{DoorNo: "1001", PlateNo: "OTHER", Division: "East", VehicleType: "Truck", VehicleSize: Size4x2})
	assert.ErrorIs(t, err, ErrDuplicateDoorNo)

	_, err = svc.AddVehicle(ctx, NewVehicle{DoorNo: "4001", PlateNo: "abc-123", Division: "East", VehicleType: "Truck", VehicleSize: Size4x2})
	assert.ErrorIs(t, err, ErrDuplicatePlateNo)

	withID, err := svc.AddVehicle(ctx, NewVehicle{ID: 40, DoorNo: "4000", PlateNo: "ID-040", Division: "East", VehicleType: "Truck", VehicleSize: Size4x2})
	require.NoError(t, err)
	assert.Equal(t, int64(40), withID.ID)

	_, err = svc.AddVehicle(ctx, NewVehicle{ID: 40, DoorNo: "4002", PlateNo: "ID-041", Division: "East", VehicleType: "Truck", VehicleSize: Size4x2})
	assert.ErrorIs(t, err, ErrDuplicateVehicleID)

	_, err = svc.AddVehicle(ctx, NewVehicle{DoorNo: "4001"})
	require.ErrorIs(t, err, ErrValidation)
	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"plateNo", "division", "vehicleType", "vehicleSize"},
		ValidationResult{Errors: verrs.Errors}.Fields())
}

func TestService_UpdateVehicle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	odo := int64(54000)
	division := "West"
	v, err := svc.UpdateVehicle(ctx, 2, VehiclePatch{Odometer: &odo, Division: &division})
	require.NoError(t, err)
	assert.Equal(t, int64(54000), v.Odometer)
	assert.Equal(t, "West", v.Division)
	assert.Equal(t, "1002", v.DoorNo)

	door := "1002"
	_, err = svc.UpdateVehicle(ctx, 2, VehiclePatch{DoorNo: &door})
	assert.NoError(t, err, "keeping its own door number is not a duplicate")

	door = "1001"
	_, err = svc.UpdateVehicle(ctx, 2, VehiclePatch{DoorNo: &door})
	assert.ErrorIs(t, err, ErrDuplicateDoorNo)

	_, err = svc.UpdateVehicle(ctx, 2, VehiclePatch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)

	_, err = svc.UpdateVehicle(ctx, 77, VehiclePatch{Division: &division})
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	bad := VehicleSize("6x6")
	_, err = svc.UpdateVehicle(ctx, 2, VehiclePatch{VehicleSize: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_RemoveVehicle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RemoveVehicle(ctx, 1))
	assert.Len(t, store.Snapshot().Vehicles, 2)
	assert.Len(t, store.Snapshot().Inspections, 3, "history is kept")

	a, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, a.TotalVehicles)
	assert.Equal(t, 2, a.TotalVehiclesInspected)
	assert.Equal(t, 0, a.TotalVehiclesNotInspected)

	assert.ErrorIs(t, svc.RemoveVehicle(ctx, 1), ErrVehicleNotFound)
}

func TestService_Snapshot(t *testing.T) {
	svc, _ := newTestService(t)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Analytics)
	assert.Equal(t, 3, snap.Analytics.TotalInspections)
	assert.Len(t, snap.Vehicles, 3)
}

func TestService_CancelledContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListVehicles(ctx, VehicleFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_BlankNumbersNeverCollide(t *testing.T) {
	snap := Snapshot{Vehicles: []Vehicle{
		{ID: 1, DoorNo: "1001", VehicleSize: Size4x2},
		{ID: 2, DoorNo: "1002", VehicleSize: Size4x2},
		{ID: 3, VehicleSize: Size4x2},
	}}
	svc := NewService(NewMemoryStore(snap))
	ctx := context.Background()

	odo := int64(5)
	v, err := svc.UpdateVehicle(ctx, 1, VehiclePatch{Odometer: &odo})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Odometer)

	_, err = svc.UpdateVehicle(ctx, 3, VehiclePatch{Odometer: &odo})
	require.NoError(t, err)

	plate := "NEW-1"
	_, err = svc.UpdateVehicle(ctx, 2, VehiclePatch{PlateNo: &plate})
	require.NoError(t, err)

	door := "1001"
	_, err = svc.UpdateVehicle(ctx, 3, VehiclePatch{DoorNo: &door})
	assert.ErrorIs(t, err, ErrDuplicateDoorNo)
}
