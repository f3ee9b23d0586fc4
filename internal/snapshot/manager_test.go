package snapshot

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JonMunkholm/inspections/internal/core"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSnapshotDir(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestManager_Reload(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotDir(t, dir, map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": inspectionsCSV,
		"analytics_data.csv":   analyticsCSV,
	})

	store := core.NewMemoryStore(core.Snapshot{})
	m := NewManager(dir, store, WithLogger(quietLogger()))

	st, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, st.Generation)
	assert.Equal(t, SourceCSV, st.Source)
	assert.Equal(t, 2, st.Vehicles)
	assert.Equal(t, 2, st.Inspections)
	assert.False(t, st.AnalyticsDrift)
	assert.Empty(t, st.LastError)
	assert.Len(t, store.Snapshot().Vehicles, 2)

	again, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, st.Generation, again.Generation, "every load gets a new generation")
}

func TestManager_ReloadDetectsAnalyticsDrift(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotDir(t, dir, map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": inspectionsCSV,
		"analytics_data.csv":   "totalVehicles,totalInspections\n40,90\n",
	})

	m := NewManager(dir, core.NewMemoryStore(core.Snapshot{}), WithLogger(quietLogger()))
	st, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, st.AnalyticsDrift)
}

func TestManager_ReloadFailureKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotDir(t, dir, map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": inspectionsCSV,
	})

	store := core.NewMemoryStore(core.Snapshot{})
	m := NewManager(dir, store, WithLogger(quietLogger()))
	first, err := m.Reload(context.Background())
	require.NoError(t, err)

	writeSnapshotDir(t, dir, map[string]string{"vehicles_data.csv": "id,doorNo\n1,1001\n"})
	st, err := m.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, st.LastError, "missing required column")
	assert.Equal(t, first.Generation, st.Generation)
	assert.Len(t, store.Snapshot().Vehicles, 2)
}

func TestManager_MaxFileSize(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotDir(t, dir, map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": inspectionsCSV,
	})

	m := NewManager(dir, core.NewMemoryStore(core.Snapshot{}), WithLogger(quietLogger()), WithMaxFileSize(10))
	_, err := m.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, "SNAP003", core.MapError(err).Code)
}

func TestManager_RefreshScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeSnapshotDir(t, dir, map[string]string{
		"vehicles_data.csv":    vehiclesCSV,
		"inspections_data.csv": inspectionsCSV,
	})

	m := NewManager(dir, core.NewMemoryStore(core.Snapshot{}), WithLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.StartRefreshScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return m.Status().Generation != ""
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
