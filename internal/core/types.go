// Package core provides the business logic for vehicle inspection records.
// This package has no UI dependencies and can be used by any frontend.
package core

import "strings"

// VehicleSize is the drivetrain class recorded for a vehicle.
type VehicleSize string

const (
	Size4x2           VehicleSize = "4x2"
	Size4x4Offroad    VehicleSize = "4x4-offroad"
	Size4x4NonOffroad VehicleSize = "4x4-nonoffroad"
)

// VehicleSizes lists the accepted sizes in display order.
var VehicleSizes = []VehicleSize{Size4x2, Size4x4Offroad, Size4x4NonOffroad}

// Valid reports whether s is one of the known sizes.
func (s VehicleSize) Valid() bool {
	for _, known := range VehicleSizes {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable size, "N/A" when unset.
func (s VehicleSize) Label() string {
	switch s {
	case "":
		return "N/A"
	case Size4x2:
		return "4x2"
	case Size4x4Offroad:
		return "4x4 Off-Road"
	case Size4x4NonOffroad:
		return "4x4 Non Off-Road"
	default:
		return string(s)
	}
}

// Vehicle is one fleet vehicle. JSON names follow the backend wire format.
type Vehicle struct {
	ID                       int64       `json:"id"`
	DoorNo                   string      `json:"doorNo"`
	PlateNo                  string      `json:"plateNo"`
	Division                 string      `json:"division"`
	Unit                     string      `json:"unit"`
	VehicleType              string      `json:"vehicleType"`
	VehicleSize              VehicleSize `json:"vehicleSize"`
	Odometer                 int64       `json:"odometer"`
	InspectionStickerMileage int64       `json:"inspectionStickerMileage"`
	InspectionStickerDate    string      `json:"inspectionStickerDate"`
	RestrictedAreaSticker    string      `json:"restrictedAreaSticker"`
	StickerExpiryDate        string      `json:"stickerExpiryDate"`
	AssignedTo               string      `json:"assignedTo"`
	AssignedDate             string      `json:"assignedDate"`
	Status                   string      `json:"status"`
}

// DivisionUnit joins division and unit the way the checklist header shows them.
func (v Vehicle) DivisionUnit() string {
	if v.Unit == "" {
		return v.Division
	}
	return v.Division + " / " + v.Unit
}

// VehiclePatch carries a partial vehicle update. Nil fields are left untouched.
type VehiclePatch struct {
	DoorNo                   *string      `json:"doorNo,omitempty"`
	PlateNo                  *string      `json:"plateNo,omitempty"`
	Division                 *string      `json:"division,omitempty"`
	Unit                     *string      `json:"unit,omitempty"`
	VehicleType              *string      `json:"vehicleType,omitempty"`
	VehicleSize              *VehicleSize `json:"vehicleSize,omitempty"`
	Odometer                 *int64       `json:"odometer,omitempty"`
	InspectionStickerMileage *int64       `json:"inspectionStickerMileage,omitempty"`
	InspectionStickerDate    *string      `json:"inspectionStickerDate,omitempty"`
	RestrictedAreaSticker    *string      `json:"restrictedAreaSticker,omitempty"`
	StickerExpiryDate        *string      `json:"stickerExpiryDate,omitempty"`
	AssignedTo               *string      `json:"assignedTo,omitempty"`
	AssignedDate             *string      `json:"assignedDate,omitempty"`
	Status                   *string      `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p VehiclePatch) Empty() bool {
	return p == VehiclePatch{}
}

// Apply writes the set fields of p onto v.
func (p VehiclePatch) Apply(v *Vehicle) {
	setString(&v.DoorNo, p.DoorNo)
	setString(&v.PlateNo, p.PlateNo)
	setString(&v.Division, p.Division)
	setString(&v.Unit, p.Unit)
	setString(&v.VehicleType, p.VehicleType)
	if p.VehicleSize != nil {
		v.VehicleSize = *p.VehicleSize
	}
	if p.Odometer != nil {
		v.Odometer = *p.Odometer
	}
	if p.InspectionStickerMileage != nil {
		v.InspectionStickerMileage = *p.InspectionStickerMileage
	}
	setString(&v.InspectionStickerDate, p.InspectionStickerDate)
	setString(&v.RestrictedAreaSticker, p.RestrictedAreaSticker)
	setString(&v.StickerExpiryDate, p.StickerExpiryDate)
	setString(&v.AssignedTo, p.AssignedTo)
	setString(&v.AssignedDate, p.AssignedDate)
	setString(&v.Status, p.Status)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// Condition is the inspector's verdict on one checklist item.
type Condition string

const (
	ConditionOK             Condition = "OK"
	ConditionActionRequired Condition = "Action Required"
	ConditionNotApplicable  Condition = "N/A"
)

// Valid reports whether c is an accepted verdict.
func (c Condition) Valid() bool {
	switch c {
	case ConditionOK, ConditionActionRequired, ConditionNotApplicable:
		return true
	}
	return false
}

// Status is the overall outcome shown for an inspection or a vehicle.
type Status string

const (
	StatusPassed         Status = "Passed"
	StatusActionRequired Status = "Action Required"
	StatusNotInspected   Status = "Not Inspected"
)

// EquipmentCheck is the recorded verdict for one safety equipment item.
type EquipmentCheck struct {
	Condition   Condition `json:"condition"`
	Observation string    `json:"observation"`
}

// VehicleCondition lists the inside and outside items ticked as checked.
type VehicleCondition struct {
	Inside      []string `json:"inside"`
	Outside     []string `json:"outside"`
	Observation string   `json:"observation"`
}

// Inspection is one completed checklist.
// VehicleCondition and SafetyEquipment are nil for records loaded from flat snapshots.
type Inspection struct {
	InspectionID     string                    `json:"inspectionId"`
	VehicleID        int64                     `json:"vehicleId"`
	DoorNo           string                    `json:"doorNo"`
	PlateNo          string                    `json:"plateNo"`
	InspectionDate   string                    `json:"inspectionDate"`
	InspectorName    string                    `json:"inspectorName"`
	InspectorID      string                    `json:"inspectorId"`
	SupervisorName   string                    `json:"supervisorName"`
	SupervisorID     string                    `json:"supervisorId"`
	VehicleCondition *VehicleCondition         `json:"vehicleCondition,omitempty"`
	SafetyEquipment  map[string]EquipmentCheck `json:"safetyEquipment,omitempty"`
	OverallStatus    Status                    `json:"overallStatus"`
	IssuesFound      int                       `json:"issuesFound"`
	ActionRequired   bool                      `json:"actionRequired"`
}

// Analytics holds the dashboard summary counts.
type Analytics struct {
	TotalVehicles             int `json:"totalVehicles"`
	TotalInspections          int `json:"totalInspections"`
	PassedInspections         int `json:"passedInspections"`
	ActionRequiredInspections int `json:"actionRequiredInspections"`
	TotalVehiclesInspected    int `json:"totalVehiclesInspected"`
	TotalVehiclesNotInspected int `json:"totalVehiclesNotInspected"`
}

// VehicleRow is a vehicle as listed, with its latest inspection outcome.
type VehicleRow struct {
	Vehicle
	LastInspectionDate string `json:"lastInspectionDate"`
	LastStatus         Status `json:"lastStatus"`
}

// VehicleFilter narrows a vehicle listing.
type VehicleFilter struct {
	Search   string // case-insensitive substring of door or plate number
	Division string // exact division; empty matches all
}

// Snapshot is a full copy of the record store at one point in time.
// Analytics is nil when the source carried no summary row.
type Snapshot struct {
	Vehicles    []Vehicle
	Inspections []Inspection
	Analytics   *Analytics
}
