package core

// ComputeAnalytics derives the dashboard counts from the current records.
// A vehicle counts as inspected when at least one inspection references its id,
// whether or not that vehicle is still listed.
func ComputeAnalytics(vehicles []Vehicle, inspections []Inspection) Analytics {
	a := Analytics{
		TotalVehicles:    len(vehicles),
		TotalInspections: len(inspections),
	}

	inspected := make(map[int64]struct{})
	for _, in := range inspections {
		switch in.OverallStatus {
		case StatusPassed:
			a.PassedInspections++
		case StatusActionRequired:
			a.ActionRequiredInspections++
		}
		inspected[in.VehicleID] = struct{}{}
	}

	a.TotalVehiclesInspected = len(inspected)
	a.TotalVehiclesNotInspected = a.TotalVehicles - a.TotalVehiclesInspected
	return a
}
