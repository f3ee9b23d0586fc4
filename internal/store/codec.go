// Package store holds what the database-backed stores share: the column
// layout of both tables and the JSON encoding of nested inspection fields.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/inspections/internal/core"
)

// VehicleColumns is the column order used for inserts and selects.
var VehicleColumns = []string{
	"id", "door_no", "plate_no", "division", "unit", "vehicle_type", "vehicle_size",
	"odometer", "inspection_sticker_mileage", "inspection_sticker_date",
	"restricted_area_sticker", "sticker_expiry_date", "assigned_to", "assigned_date", "status",
}

// InspectionColumns is the column order used for inserts and selects.
var InspectionColumns = []string{
	"inspection_id", "vehicle_id", "door_no", "plate_no", "inspection_date",
	"inspector_name", "inspector_id", "supervisor_name", "supervisor_id",
	"vehicle_condition", "safety_equipment", "overall_status", "issues_found", "action_required",
}

// VehicleArgs returns v's values in VehicleColumns order.
func VehicleArgs(v core.Vehicle) []any {
	return []any{
		v.ID, v.DoorNo, v.PlateNo, v.Division, v.Unit, v.VehicleType, string(v.VehicleSize),
		v.Odometer, v.InspectionStickerMileage, v.InspectionStickerDate,
		v.RestrictedAreaSticker, v.StickerExpiryDate, v.AssignedTo, v.AssignedDate, v.Status,
	}
}

// VehicleDest returns scan targets for v in VehicleColumns order.
// The size is scanned through the returned string and must be copied back
// with v.VehicleSize = core.VehicleSize(*size).
func VehicleDest(v *core.Vehicle, size *string) []any {
	return []any{
		&v.ID, &v.DoorNo, &v.PlateNo, &v.Division, &v.Unit, &v.VehicleType, size,
		&v.Odometer, &v.InspectionStickerMileage, &v.InspectionStickerDate,
		&v.RestrictedAreaSticker, &v.StickerExpiryDate, &v.AssignedTo, &v.AssignedDate, &v.Status,
	}
}

// InspectionArgs returns in's values in InspectionColumns order, with the
// nested fields as JSON. Nil nested fields become SQL NULL.
func InspectionArgs(in core.Inspection) ([]any, error) {
	cond, equip, err := MarshalNested(in)
	if err != nil {
		return nil, err
	}
	return []any{
		in.InspectionID, in.VehicleID, in.DoorNo, in.PlateNo, in.InspectionDate,
		in.InspectorName, in.InspectorID, in.SupervisorName, in.SupervisorID,
		cond, equip, string(in.OverallStatus), in.IssuesFound, in.ActionRequired,
	}, nil
}

// InspectionRow holds the scan targets for one inspection row.
type InspectionRow struct {
	Inspection core.Inspection
	Status     string
	Condition  []byte
	Equipment  []byte
}

// Dest returns scan targets in InspectionColumns order.
func (r *InspectionRow) Dest() []any {
	in := &r.Inspection
	return []any{
		&in.InspectionID, &in.VehicleID, &in.DoorNo, &in.PlateNo, &in.InspectionDate,
		&in.InspectorName, &in.InspectorID, &in.SupervisorName, &in.SupervisorID,
		&r.Condition, &r.Equipment, &r.Status, &in.IssuesFound, &in.ActionRequired,
	}
}

// Decode finishes the scanned inspection.
func (r *InspectionRow) Decode() (core.Inspection, error) {
	in := r.Inspection
	in.OverallStatus = core.Status(r.Status)

	if len(r.Condition) > 0 {
		var c core.VehicleCondition
		if err := json.Unmarshal(r.Condition, &c); err != nil {
			return core.Inspection{}, fmt.Errorf("inspection %s: decode vehicle condition: %w", in.InspectionID, err)
		}
		in.VehicleCondition = &c
	}
	if len(r.Equipment) > 0 {
		if err := json.Unmarshal(r.Equipment, &in.SafetyEquipment); err != nil {
			return core.Inspection{}, fmt.Errorf("inspection %s: decode safety equipment: %w", in.InspectionID, err)
		}
	}
	return in, nil
}

// MarshalNested encodes the vehicle condition and safety equipment of in.
// A nil field encodes as a nil slice.
func MarshalNested(in core.Inspection) (cond, equip []byte, err error) {
	if in.VehicleCondition != nil {
		if cond, err = json.Marshal(in.VehicleCondition); err != nil {
			return nil, nil, fmt.Errorf("inspection %s: encode vehicle condition: %w", in.InspectionID, err)
		}
	}
	if in.SafetyEquipment != nil {
		if equip, err = json.Marshal(in.SafetyEquipment); err != nil {
			return nil, nil, fmt.Errorf("inspection %s: encode safety equipment: %w", in.InspectionID, err)
		}
	}
	return cond, equip, nil
}
