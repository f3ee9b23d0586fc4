package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterVehicles(t *testing.T) {
	vehicles := testSnapshot().Vehicles

	tests := []struct {
		name   string
		filter VehicleFilter
		want   []int64
	}{
		{name: "no filter", filter: VehicleFilter{}, want: []int64{1, 2, 5}},
		{name: "door substring", filter: VehicleFilter{Search: "200"}, want: []int64{5}},
		{name: "plate case insensitive", filter: VehicleFilter{Search: "abc"}, want: []int64{1}},
		{name: "search is trimmed", filter: VehicleFilter{Search: "  xyz "}, want: []int64{2}},
		{name: "division exact", filter: VehicleFilter{Division: "North"}, want: []int64{1, 5}},
		{name: "division is not a substring match", filter: VehicleFilter{Division: "Nor"}, want: []int64{}},
		{name: "no match", filter: VehicleFilter{Search: "zzz"}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]int64, 0)
			for _, v := range FilterVehicles(vehicles, tt.filter) {
				got = append(got, v.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterVehicles() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	inspections := []Inspection{
		{InspectionID: "a", InspectionDate: "2026-01-01"},
		{InspectionID: "b", InspectionDate: ""},
		{InspectionID: "c", InspectionDate: "2026-03-01"},
		{InspectionID: "d", InspectionDate: "unknown"},
		{InspectionID: "e", InspectionDate: "2026-01-01"},
	}

	SortNewestFirst(inspections)

	var got []string
	for _, in := range inspections {
		got = append(got, in.InspectionID)
	}
	if diff := cmp.Diff([]string{"c", "a", "e", "b", "d"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildVehicleRows_Empty(t *testing.T) {
	rows := BuildVehicleRows(nil, nil)
	if len(rows) != 0 {
		t.Errorf("BuildVehicleRows(nil) = %d rows, want 0", len(rows))
	}
}

func TestDivisions(t *testing.T) {
	vehicles := []Vehicle{{Division: "South"}, {Division: ""}, {Division: "North"}, {Division: "South"}}
	if diff := cmp.Diff([]string{"North", "South"}, Divisions(vehicles)); diff != "" {
		t.Errorf("Divisions() mismatch (-want +got):\n%s", diff)
	}
}
