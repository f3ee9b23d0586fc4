package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/inspections/internal/tabular"
)

// Dataset keys.
const (
	DatasetVehicles    = "vehicles"
	DatasetInspections = "inspections"
	DatasetAnalytics   = "analytics"
)

func init() {
	Register(DatasetDefinition{
		Info: DatasetInfo{
			Key:        DatasetVehicles,
			Label:      "Vehicles",
			FileName:   "vehicles_data.csv",
			Sheet:      "Vehicles",
			SheetIndex: 0,
		},
		FieldSpecs: []FieldSpec{
			{Name: "id", Type: FieldNumeric, Required: true},
			{Name: "doorNo", Type: FieldText, Required: true},
			{Name: "plateNo", Type: FieldText, Required: true},
			{Name: "division", Type: FieldText},
			{Name: "unit", Type: FieldText},
			{Name: "vehicleType", Type: FieldText},
			{Name: "vehicleSize", Type: FieldEnum, EnumValues: []string{"4x2", "4x4-offroad", "4x4-nonoffroad"}},
			{Name: "odometer", Type: FieldNumeric},
			{Name: "inspectionStickerMileage", Type: FieldNumeric},
			{Name: "inspectionStickerDate", Type: FieldDate},
			{Name: "restrictedAreaSticker", Type: FieldText},
			{Name: "stickerExpiryDate", Type: FieldDate},
			{Name: "assignedTo", Type: FieldText},
			{Name: "assignedDate", Type: FieldDate},
			{Name: "status", Type: FieldText},
		},
		Decode: decodeVehicles,
		Encode: encodeVehicles,
	})

	Register(DatasetDefinition{
		Info: DatasetInfo{
			Key:        DatasetInspections,
			Label:      "Inspections",
			FileName:   "inspections_data.csv",
			Sheet:      "Inspections",
			SheetIndex: 1,
		},
		FieldSpecs: []FieldSpec{
			{Name: "inspectionId", Type: FieldText, Required: true},
			{Name: "vehicleId", Type: FieldNumeric, Required: true},
			{Name: "doorNo", Type: FieldText},
			{Name: "plateNo", Type: FieldText},
			{Name: "inspectionDate", Type: FieldDate},
			{Name: "inspectorName", Type: FieldText},
			{Name: "inspectorId", Type: FieldText},
			{Name: "supervisorName", Type: FieldText},
			{Name: "supervisorId", Type: FieldText},
			{Name: "overallStatus", Type: FieldEnum, EnumValues: []string{"Passed", "Action Required"}},
			{Name: "issuesFound", Type: FieldNumeric},
			{Name: "actionRequired", Type: FieldBool},
		},
		Decode: decodeInspections,
		Encode: encodeInspections,
	})

	Register(DatasetDefinition{
		Info: DatasetInfo{
			Key:        DatasetAnalytics,
			Label:      "Analytics",
			FileName:   "analytics_data.csv",
			Sheet:      "Analytics",
			SheetIndex: 2,
		},
		FieldSpecs: []FieldSpec{
			{Name: "totalVehicles", Type: FieldNumeric},
			{Name: "totalInspections", Type: FieldNumeric},
			{Name: "passedInspections", Type: FieldNumeric},
			{Name: "actionRequiredInspections", Type: FieldNumeric},
			{Name: "totalVehiclesInspected", Type: FieldNumeric},
			{Name: "totalVehiclesNotInspected", Type: FieldNumeric},
		},
		Optional: true,
		Decode:   decodeAnalytics,
		Encode:   encodeAnalytics,
	})
}

// columnIndex resolves header names case-insensitively.
// With duplicated names the later column wins, matching tabular.Record.
type columnIndex map[string]string

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for _, h := range header {
		idx[strings.ToLower(h)] = h
	}
	return idx
}

func (c columnIndex) get(rec tabular.Record, name string) tabular.Value {
	if actual, ok := c[strings.ToLower(name)]; ok {
		return rec[actual]
	}
	return tabular.Text("")
}

func (c columnIndex) has(name string) bool {
	_, ok := c[strings.ToLower(name)]
	return ok
}

func (c columnIndex) text(rec tabular.Record, name string) string {
	return ToText(c.get(rec, name))
}

// lenientInt converts to an integer, treating malformed input as zero.
func (c columnIndex) lenientInt(rec tabular.Record, name string) int64 {
	n, err := ToInt(c.get(rec, name))
	if err != nil {
		return 0
	}
	return n
}

func decodeVehicles(t tabular.Table, snap *Snapshot) error {
	cols := newColumnIndex(t.Header)
	vehicles := make([]Vehicle, 0, len(t.Records))

	for i, rec := range t.Records {
		id, err := ToInt(cols.get(rec, "id"))
		if err != nil {
			return fmt.Errorf("vehicles row %d: invalid vehicle id: %w", i+1, err)
		}

		vehicles = append(vehicles, Vehicle{
			ID:                       id,
			DoorNo:                   cols.text(rec, "doorNo"),
			PlateNo:                  cols.text(rec, "plateNo"),
			Division:                 cols.text(rec, "division"),
			Unit:                     cols.text(rec, "unit"),
			VehicleType:              cols.text(rec, "vehicleType"),
			VehicleSize:              VehicleSize(cols.text(rec, "vehicleSize")),
			Odometer:                 cols.lenientInt(rec, "odometer"),
			InspectionStickerMileage: cols.lenientInt(rec, "inspectionStickerMileage"),
			InspectionStickerDate:    ToDate(cols.get(rec, "inspectionStickerDate")),
			RestrictedAreaSticker:    cols.text(rec, "restrictedAreaSticker"),
			StickerExpiryDate:        ToDate(cols.get(rec, "stickerExpiryDate")),
			AssignedTo:               cols.text(rec, "assignedTo"),
			AssignedDate:             ToDate(cols.get(rec, "assignedDate")),
			Status:                   cols.text(rec, "status"),
		})
	}

	assignMissingIDs(vehicles)
	snap.Vehicles = vehicles
	return nil
}

// assignMissingIDs gives rows without an id the next free id, in row order.
func assignMissingIDs(vehicles []Vehicle) {
	next := nextVehicleID(vehicles)
	for i := range vehicles {
		if vehicles[i].ID == 0 {
			vehicles[i].ID = next
			next++
		}
	}
}

func encodeVehicles(snap *Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			v.DoorNo,
			v.PlateNo,
			v.Division,
			v.Unit,
			v.VehicleType,
			string(v.VehicleSize),
			strconv.FormatInt(v.Odometer, 10),
			strconv.FormatInt(v.InspectionStickerMileage, 10),
			v.InspectionStickerDate,
			v.RestrictedAreaSticker,
			v.StickerExpiryDate,
			v.AssignedTo,
			v.AssignedDate,
			v.Status,
		})
	}
	return rows
}

func decodeInspections(t tabular.Table, snap *Snapshot) error {
	cols := newColumnIndex(t.Header)
	inspections := make([]Inspection, 0, len(t.Records))

	for i, rec := range t.Records {
		vehicleID, err := ToInt(cols.get(rec, "vehicleId"))
		if err != nil {
			return fmt.Errorf("inspections row %d: invalid vehicle id: %w", i+1, err)
		}

		status := Status(cols.text(rec, "overallStatus"))
		actionRequired := status == StatusActionRequired
		if cols.has("actionRequired") {
			actionRequired = ToBool(cols.get(rec, "actionRequired"))
		}

		inspections = append(inspections, Inspection{
			InspectionID:   cols.text(rec, "inspectionId"),
			VehicleID:      vehicleID,
			DoorNo:         cols.text(rec, "doorNo"),
			PlateNo:        cols.text(rec, "plateNo"),
			InspectionDate: ToDate(cols.get(rec, "inspectionDate")),
			InspectorName:  cols.text(rec, "inspectorName"),
			InspectorID:    cols.text(rec, "inspectorId"),
			SupervisorName: cols.text(rec, "supervisorName"),
			SupervisorID:   cols.text(rec, "supervisorId"),
			OverallStatus:  status,
			IssuesFound:    int(cols.lenientInt(rec, "issuesFound")),
			ActionRequired: actionRequired,
		})
	}

	snap.Inspections = inspections
	return nil
}

func encodeInspections(snap *Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Inspections))
	for _, in := range snap.Inspections {
		rows = append(rows, []string{
			in.InspectionID,
			strconv.FormatInt(in.VehicleID, 10),
			in.DoorNo,
			in.PlateNo,
			in.InspectionDate,
			in.InspectorName,
			in.InspectorID,
			in.SupervisorName,
			in.SupervisorID,
			string(in.OverallStatus),
			strconv.Itoa(in.IssuesFound),
			strconv.FormatBool(in.ActionRequired),
		})
	}
	return rows
}

// decodeAnalytics reads the first summary row; later rows are ignored.
func decodeAnalytics(t tabular.Table, snap *Snapshot) error {
	if len(t.Records) == 0 {
		return nil
	}
	cols := newColumnIndex(t.Header)
	rec := t.Records[0]

	snap.Analytics = &Analytics{
		TotalVehicles:             int(cols.lenientInt(rec, "totalVehicles")),
		TotalInspections:          int(cols.lenientInt(rec, "totalInspections")),
		PassedInspections:         int(cols.lenientInt(rec, "passedInspections")),
		ActionRequiredInspections: int(cols.lenientInt(rec, "actionRequiredInspections")),
		TotalVehiclesInspected:    int(cols.lenientInt(rec, "totalVehiclesInspected")),
		TotalVehiclesNotInspected: int(cols.lenientInt(rec, "totalVehiclesNotInspected")),
	}
	return nil
}

func encodeAnalytics(snap *Snapshot) [][]string {
	a := snap.Analytics
	if a == nil {
		computed := ComputeAnalytics(snap.Vehicles, snap.Inspections)
		a = &computed
	}
	return [][]string{{
		strconv.Itoa(a.TotalVehicles),
		strconv.Itoa(a.TotalInspections),
		strconv.Itoa(a.PassedInspections),
		strconv.Itoa(a.ActionRequiredInspections),
		strconv.Itoa(a.TotalVehiclesInspected),
		strconv.Itoa(a.TotalVehiclesNotInspected),
	}}
}
