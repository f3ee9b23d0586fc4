package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/inspections/internal/core"
)

const (
	vehiclesCSV = "id,doorNo,plateNo,division,vehicleType,vehicleSize,status\n" +
		"1,1001,ABC-123,North,Pickup,4x4-offroad,Active\n" +
		"2,1002,XYZ-789,South,Sedan,4x2,Active\n"
	inspectionsCSV = "inspectionId,vehicleId,doorNo,inspectionDate,overallStatus,issuesFound\n" +
		"INS-2026-001,1,1001,2026-01-10,Passed,0\n" +
		"INS-2026-002,1,1001,2026-02-20,Action Required,1\n"
	analyticsCSV = "totalVehicles,totalInspections,passedInspections,actionRequiredInspections,totalVehiclesInspected,totalVehiclesNotInspected\n" +
		"2,2,1,1,1,1\n"
)

func csvFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestLoad_CSV(t *testing.T) {
	res, err := Load(csvFS(map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": inspectionsCSV,
		"analytics_data.csv":   analyticsCSV,
	}), 0)
	require.NoError(t, err)

	assert.Equal(t, SourceCSV, res.Source)
	assert.Equal(t, []string{"vehicles_data.csv", "inspections_data.csv", "analytics_data.csv"}, res.Files)
	require.Len(t, res.Snapshot.Vehicles, 2)
	assert.Equal(t, "1001", res.Snapshot.Vehicles[0].DoorNo)
	require.Len(t, res.Snapshot.Inspections, 2)
	assert.True(t, res.Snapshot.Inspections[1].ActionRequired)
	require.NotNil(t, res.Snapshot.Analytics)
	assert.Equal(t, 2, res.Snapshot.Analytics.TotalVehicles)
}

func TestLoad_CSV_BOMAndBadBytes(t *testing.T) {
	vehicles := "\xEF\xBB\xBFid,doorNo,plateNo,division\n1,1001,ABC-123,Nor\xFFth\n"
	res, err := Load(csvFS(map[string]string{
		"vehicles_data.csv":    vehicles,
		"inspections_data.csv": "inspectionId,vehicleId\n",
	}), 0)
	require.NoError(t, err)

	require.Len(t, res.Snapshot.Vehicles, 1)
	assert.Equal(t, int64(1), res.Snapshot.Vehicles[0].ID, "BOM must not hide the id column")
	assert.Equal(t, "Nor?th", res.Snapshot.Vehicles[0].Division)
	assert.Empty(t, res.Snapshot.Inspections)
	assert.Nil(t, res.Snapshot.Analytics, "analytics file is optional")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		maxBytes int64
		wantErr  string
		wantCode string
	}{
		{
			name:     "vehicles missing",
			files:    map[string]string{"inspections_data.csv": inspectionsCSV},
			wantErr:  "snapshot file not found: vehicles_data.csv",
			wantCode: "SNAP001",
		},
		{
			name:     "inspections missing",
			files:    map[string]string{"vehicles_data.csv": vehiclesCSV},
			wantErr:  "snapshot file not found: inspections_data.csv",
			wantCode: "SNAP001",
		},
		{
			name: "required column missing",
			files: map[string]string{
				"vehicles_data.csv":    "id,doorNo\n1,1001\n",
				"inspections_data.csv": inspectionsCSV,
			},
			wantErr:  `vehicles_data.csv: missing required column "plateNo"`,
			wantCode: "SNAP002",
		},
		{
			name: "duplicated column",
			files: map[string]string{
				"vehicles_data.csv":    "id,doorNo,plateNo,plateNo\n1,1001,A,B\n",
				"inspections_data.csv": inspectionsCSV,
			},
			wantErr:  `duplicate column in header "plateNo"`,
			wantCode: "SNAP002",
		},
		{
			name: "bad vehicle id",
			files: map[string]string{
				"vehicles_data.csv":    "id,doorNo,plateNo\nfirst,1001,A\n",
				"inspections_data.csv": inspectionsCSV,
			},
			wantErr:  "vehicles_data.csv: vehicles row 1: invalid vehicle id",
			wantCode: "VAL002",
		},
		{
			name: "file too large",
			files: map[string]string{
				"vehicles_data.csv":    vehiclesCSV,
				"inspections_data.csv": inspectionsCSV,
			},
			maxBytes: 16,
			wantErr:  "file too large",
			wantCode: "SNAP003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(csvFS(tt.files), tt.maxBytes)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantCode, core.MapError(err).Code)
		})
	}
}

func TestLoad_EmptyFileIsEmptyDataset(t *testing.T) {
	res, err := Load(csvFS(map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": "",
	}), 0)
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot.Inspections)
}

func TestLoad_WorkbookWins(t *testing.T) {
	src := core.Snapshot{
		Vehicles: []core.Vehicle{
			{ID: 4, DoorNo: "4004", PlateNo: "WB-1", Division: "East", VehicleSize: core.Size4x2, Status: "Active"},
		},
		Inspections: []core.Inspection{
			{InspectionID: "INS-2026-001", VehicleID: 4, DoorNo: "4004", InspectionDate: "2026-02-01", OverallStatus: core.StatusPassed},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, src))

	fsys := csvFS(map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": inspectionsCSV,
	})
	fsys[WorkbookName] = &fstest.MapFile{Data: buf.Bytes()}

	res, err := Load(fsys, 0)
	require.NoError(t, err)
	assert.Equal(t, SourceWorkbook, res.Source)
	assert.Equal(t, []string{
		WorkbookName + "#Vehicles",
		WorkbookName + "#Inspections",
		WorkbookName + "#Analytics",
	}, res.Files)
	require.Len(t, res.Snapshot.Vehicles, 1)
	assert.Equal(t, "4004", res.Snapshot.Vehicles[0].DoorNo)
	require.Len(t, res.Snapshot.Inspections, 1)
	assert.Equal(t, int64(4), res.Snapshot.Inspections[0].VehicleID)
	require.NotNil(t, res.Snapshot.Analytics)
	assert.Equal(t, 1, res.Snapshot.Analytics.TotalVehiclesInspected)
}

func TestLoad_CorruptWorkbook(t *testing.T) {
	fsys := fstest.MapFS{WorkbookName: &fstest.MapFile{Data: []byte("not a zip")}}
	_, err := Load(fsys, 0)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "open "+WorkbookName))
}

func TestLoad_DirFS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vehicles_data.csv"), []byte(vehiclesCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inspections_data.csv"), []byte(inspectionsCSV), 0o644))

	res, err := Load(os.DirFS(dir), 0)
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Vehicles, 2)
}

func TestFindSheet(t *testing.T) {
	info := core.DatasetInfo{Sheet: "Inspections", SheetIndex: 1}

	got, ok := findSheet([]string{"Vehicles", " inspections "}, info)
	assert.True(t, ok)
	assert.Equal(t, " inspections ", got)

	got, ok = findSheet([]string{"Sheet1", "Sheet2"}, info)
	assert.True(t, ok)
	assert.Equal(t, "Sheet2", got, "falls back to position")

	_, ok = findSheet([]string{"Sheet1"}, info)
	assert.False(t, ok)
}
