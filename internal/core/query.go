package core

import (
	"sort"
	"strings"
)

// NeverInspected is shown as the last inspection date of a vehicle with no history.
const NeverInspected = "Never"

// DefaultRecentActivity is how many inspections the dashboard lists.
const DefaultRecentActivity = 5

// FilterVehicles returns the vehicles matching f, in their stored order.
func FilterVehicles(vehicles []Vehicle, f VehicleFilter) []Vehicle {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if search != "" &&
			!strings.Contains(strings.ToLower(v.DoorNo), search) &&
			!strings.Contains(strings.ToLower(v.PlateNo), search) {
			continue
		}
		if f.Division != "" && v.Division != f.Division {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SortNewestFirst orders inspections by date, newest first, in place.
// Undated or unparseable entries sort after dated ones; ties keep their order.
func SortNewestFirst(inspections []Inspection) {
	sort.SliceStable(inspections, func(i, j int) bool {
		ti, okI := ParseDate(inspections[i].InspectionDate)
		tj, okJ := ParseDate(inspections[j].InspectionDate)
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI != okJ:
			return okI
		default:
			return false
		}
	})
}

// InspectionsFor returns the inspections of one vehicle, newest first.
func InspectionsFor(inspections []Inspection, vehicleID int64) []Inspection {
	out := make([]Inspection, 0)
	for _, in := range inspections {
		if in.VehicleID == vehicleID {
			out = append(out, in)
		}
	}
	SortNewestFirst(out)
	return out
}

// LatestInspection returns the newest inspection of a vehicle.
func LatestInspection(inspections []Inspection, vehicleID int64) (Inspection, bool) {
	history := InspectionsFor(inspections, vehicleID)
	if len(history) == 0 {
		return Inspection{}, false
	}
	return history[0], true
}

// BuildVehicleRows attaches each vehicle's latest inspection outcome.
func BuildVehicleRows(vehicles []Vehicle, inspections []Inspection) []VehicleRow {
	latest := make(map[int64]Inspection)
	for _, v := range vehicles {
		if in, ok := LatestInspection(inspections, v.ID); ok {
			latest[v.ID] = in
		}
	}

	rows := make([]VehicleRow, len(vehicles))
	for i, v := range vehicles {
		row := VehicleRow{
			Vehicle:            v,
			LastInspectionDate: NeverInspected,
			LastStatus:         StatusNotInspected,
		}
		if in, ok := latest[v.ID]; ok {
			row.LastInspectionDate = in.InspectionDate
			row.LastStatus = in.OverallStatus
		}
		rows[i] = row
	}
	return rows
}

// Divisions returns the distinct non-empty divisions, sorted.
func Divisions(vehicles []Vehicle) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range vehicles {
		if v.Division != "" && !seen[v.Division] {
			seen[v.Division] = true
			out = append(out, v.Division)
		}
	}
	sort.Strings(out)
	return out
}

// nextVehicleID returns one more than the highest id in use, starting at 1.
func nextVehicleID(vehicles []Vehicle) int64 {
	var max int64
	for _, v := range vehicles {
		if v.ID > max {
			max = v.ID
		}
	}
	return max + 1
}

// findVehicle returns the vehicle with the given id.
func findVehicle(vehicles []Vehicle, id int64) (Vehicle, bool) {
	for _, v := range vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// findVehicleByDoor returns the vehicle whose door number matches exactly.
func findVehicleByDoor(vehicles []Vehicle, doorNo string) (Vehicle, bool) {
	doorNo = strings.TrimSpace(doorNo)
	if doorNo == "" {
		return Vehicle{}, false
	}
	for _, v := range vehicles {
		if v.DoorNo == doorNo {
			return v, true
		}
	}
	return Vehicle{}, false
}
