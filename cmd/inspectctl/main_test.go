package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/inspections/internal/config"
	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/snapshot"
	"github.com/JonMunkholm/inspections/internal/store/storetest"
	"github.com/JonMunkholm/inspections/internal/web"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSnapshotDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"vehicles_data.csv": "id,doorNo,plateNo,division,vehicleSize\n" +
			"1,1001,ABC-123,North,4x4-offroad\n" +
			"2,1002,DEF-456,South,4x2\n",
		"inspections_data.csv": "inspectionId,vehicleId,inspectionDate,overallStatus,issuesFound\n" +
			"INS-2026-001,1,2026-01-10,Action Required,1\n",
		"analytics_data.csv": "totalVehicles,totalInspections\n5,1\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestParseCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vehicles.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffid,doorNo,plateNo\n\n7,\"10,07\",P-7\n"), 0o644))

	out, err := execute(t, "parse", path, "--dataset", "vehicles", "-o", "json")
	require.NoError(t, err)

	var res struct {
		Header  []string         `json:"header"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"id", "doorNo", "plateNo"}, res.Header)
	require.Len(t, res.Records, 1)
	assert.Equal(t, float64(7), res.Records[0]["id"])
	assert.Equal(t, "10,07", res.Records[0]["doorNo"])
}

func TestParseCmd_HeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vehicles.csv")
	require.NoError(t, os.WriteFile(path, []byte("doorNo,doorNo\n1,2\n"), 0o644))

	out, err := execute(t, "parse", path, "--dataset", "vehicles")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match dataset vehicles")
	assert.Contains(t, out, "missing required column")
	assert.Contains(t, out, "duplicate column in header")

	_, err = execute(t, "parse", path, "--dataset", "trucks")
	assert.ErrorContains(t, err, "unknown dataset")
}

func TestSummaryCmd(t *testing.T) {
	dir := writeSnapshotDir(t)

	out, err := execute(t, "summary", "--dir", dir, "-o", "json")
	require.NoError(t, err)

	var s summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, snapshot.SourceCSV, s.Source)
	assert.Equal(t, core.Analytics{
		TotalVehicles:             2,
		TotalInspections:          1,
		ActionRequiredInspections: 1,
		TotalVehiclesInspected:    1,
		TotalVehiclesNotInspected: 1,
	}, s.Analytics)
	require.NotNil(t, s.Stored)
	assert.True(t, s.Drift)
}

func TestExportCmd_RoundTrip(t *testing.T) {
	src := writeSnapshotDir(t)
	dst := filepath.Join(t.TempDir(), "export")

	out, err := execute(t, "export", "--dir", src, "--out", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 vehicles and 1 inspections")
	assert.FileExists(t, filepath.Join(dst, snapshot.WorkbookName))

	out, err = execute(t, "summary", "--dir", dst)
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	assert.Equal(t, "workbook", s["source"])

	_, err = execute(t, "export", "--dir", src, "--out", dst, "--format", "pdf")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestRemoteCmds(t *testing.T) {
	cfg, err := config.LoadFrom(func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	cfg.Rate.Enabled = false

	service := core.NewService(core.NewMemoryStore(storetest.Seed()))
	ts := httptest.NewServer(web.NewServer(service, cfg).Router())
	t.Cleanup(ts.Close)

	out, err := execute(t, "vehicles", "--backend", ts.URL, "--division", "North", "-o", "table")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "ABC-123")
	assert.Contains(t, lines[1], "Action Required")

	out, err = execute(t, "history", "1", "--backend", ts.URL, "-o", "json")
	require.NoError(t, err)
	var history []core.Inspection
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "INS-2026-001", history[0].InspectionID)

	_, err = execute(t, "history", "99", "--backend", ts.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrVehicleNotFound)
	assert.Contains(t, err.Error(), "VEH001")

	_, err = execute(t, "history", "abc", "--backend", ts.URL)
	assert.ErrorContains(t, err, "invalid vehicle id")
}
