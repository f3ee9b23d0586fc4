package core

import (
	"fmt"
	"strings"
	"time"
)

// EquipmentItems lists every safety equipment item on the checklist, in form order.
var EquipmentItems = []string{
	"windshieldWipers", "reflectiveTriangles", "footBrakes", "emergencyBrakes",
	"horn", "tireChangingKit", "tires", "spareTire", "wheels", "jmFlyer",
	"emergencyContactList", "shovel", "sandBoards", "towingCable", "shackles",
	"tireGauge", "airCompressor", "flashlight",
}

// OffroadItems are only checked on 4x4 off-road vehicles.
var OffroadItems = []string{
	"shovel", "sandBoards", "towingCable", "shackles", "tireGauge", "airCompressor",
}

// InsideItems and OutsideItems are the vehicle condition tick boxes.
var (
	InsideItems  = []string{"rearview-mirror", "head-lights", "windshields", "side-windows"}
	OutsideItems = []string{"rearview-mirrors", "brake-lights", "taillights", "turn-signal"}
)

// IsOffroadItem reports whether item only applies to off-road vehicles.
func IsOffroadItem(item string) bool {
	return contains(OffroadItems, item)
}

// ChecklistForm is a submitted inspection checklist before it becomes an Inspection.
type ChecklistForm struct {
	VehicleID      int64                     `json:"vehicleId"` // selected in the vehicle list
	DoorNo         string                    `json:"doorNo"`
	PlateNo        string                    `json:"plateNo"`
	VehicleSize    VehicleSize               `json:"vehicleSize"`
	InspectionDate string                    `json:"inspectionDate,omitempty"`
	InspectorName  string                    `json:"inspectorName"`
	InspectorID    string                    `json:"inspectorId"`
	SupervisorName string                    `json:"supervisorName"`
	SupervisorID   string                    `json:"supervisorId"`
	Inside         []string                  `json:"inside"`
	Outside        []string                  `json:"outside"`
	Observation    string                    `json:"observation"`
	Equipment      map[string]EquipmentCheck `json:"safetyEquipment"`
}

// Validate checks required fields, item names and condition values.
// Every problem is reported, not just the first.
func (f ChecklistForm) Validate() ValidationResult {
	result := newValidationResult()

	result.require("doorNo", f.DoorNo)
	result.require("plateNo", f.PlateNo)
	result.require("inspectorName", f.InspectorName)
	result.require("inspectorId", f.InspectorID)
	result.require("supervisorName", f.SupervisorName)
	result.require("supervisorId", f.SupervisorID)

	if f.VehicleSize == "" {
		result.add("vehicleSize", "", "required field is empty")
	} else if !f.VehicleSize.Valid() {
		result.add("vehicleSize", string(f.VehicleSize), "unknown vehicle size")
	}

	if f.InspectionDate != "" {
		if _, ok := ParseDate(f.InspectionDate); !ok {
			result.add("inspectionDate", f.InspectionDate, "invalid date")
		}
	}

	for _, item := range f.Inside {
		if !contains(InsideItems, item) {
			result.add("inside", item, "unknown inside item")
		}
	}
	for _, item := range f.Outside {
		if !contains(OutsideItems, item) {
			result.add("outside", item, "unknown outside item")
		}
	}

	for _, item := range EquipmentItems {
		check, ok := f.Equipment[item]
		if !ok || check.Condition == "" {
			continue
		}
		if !check.Condition.Valid() {
			result.add(item, string(check.Condition), "unknown condition")
			continue
		}
		if check.Condition == ConditionActionRequired && strings.TrimSpace(check.Observation) == "" {
			result.add(item+"_note", "", "observation required when action is required")
		}
	}
	for item := range f.Equipment {
		if !contains(EquipmentItems, item) {
			result.add(item, "", "unknown equipment item")
		}
	}

	return result
}

// equipment returns the recorded verdict for every item. Items left blank are
// OK, except off-road items on other sizes, which are N/A.
func (f ChecklistForm) equipment() (map[string]EquipmentCheck, int) {
	out := make(map[string]EquipmentCheck, len(EquipmentItems))
	issues := 0
	for _, item := range EquipmentItems {
		check := f.Equipment[item]
		check.Observation = strings.TrimSpace(check.Observation)
		if check.Condition == "" {
			check.Condition = ConditionOK
			if IsOffroadItem(item) && f.VehicleSize != Size4x4Offroad {
				check.Condition = ConditionNotApplicable
			}
		}
		if check.Condition == ConditionActionRequired {
			issues++
		}
		out[item] = check
	}
	return out, issues
}

// Inspection builds the record for a validated form. The caller assigns the
// vehicle id and inspection id.
func (f ChecklistForm) Inspection(now time.Time) Inspection {
	equipment, issues := f.equipment()

	date := f.InspectionDate
	if date == "" {
		date = now.Format(DateLayout)
	} else if t, ok := ParseDate(date); ok {
		date = t.Format(DateLayout)
	}

	status := StatusPassed
	if issues > 0 {
		status = StatusActionRequired
	}

	return Inspection{
		DoorNo:         strings.TrimSpace(f.DoorNo),
		PlateNo:        strings.TrimSpace(f.PlateNo),
		InspectionDate: date,
		InspectorName:  strings.TrimSpace(f.InspectorName),
		InspectorID:    strings.TrimSpace(f.InspectorID),
		SupervisorName: strings.TrimSpace(f.SupervisorName),
		SupervisorID:   strings.TrimSpace(f.SupervisorID),
		VehicleCondition: &VehicleCondition{
			Inside:      orderedSubset(InsideItems, f.Inside),
			Outside:     orderedSubset(OutsideItems, f.Outside),
			Observation: strings.TrimSpace(f.Observation),
		},
		SafetyEquipment: equipment,
		OverallStatus:   status,
		IssuesFound:     issues,
		ActionRequired:  issues > 0,
	}
}

// InspectionID formats the id of the n-th inspection recorded in year.
func InspectionID(year, n int) string {
	return fmt.Sprintf("INS-%d-%03d", year, n)
}

// orderedSubset returns the members of all that appear in picked, in all's order.
func orderedSubset(all, picked []string) []string {
	out := make([]string, 0, len(picked))
	for _, item := range all {
		if contains(picked, item) {
			out = append(out, item)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
