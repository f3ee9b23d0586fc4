package snapshot

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/inspections/internal/core"
)

// Replacer swaps every record of a store for a snapshot.
type Replacer interface {
	Replace(ctx context.Context, snap core.Snapshot) error
}

// Status describes the last successful load and the last failure, if any.
type Status struct {
	Generation     string    `json:"generation"`
	Source         Source    `json:"source"`
	Files          []string  `json:"files"`
	LoadedAt       time.Time `json:"loadedAt"`
	Vehicles       int       `json:"vehicles"`
	Inspections    int       `json:"inspections"`
	AnalyticsDrift bool      `json:"analyticsDrift"`
	LastError      string    `json:"lastError,omitempty"`
}

// Manager loads the snapshot directory into a store and reloads it on demand,
// on a schedule, or when the files change.
type Manager struct {
	dir      string
	fsys     fs.FS
	target   Replacer
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time

	reloadMu sync.Mutex // one load at a time

	mu     sync.RWMutex
	status Status
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMaxFileSize caps each snapshot file.
func WithMaxFileSize(n int64) ManagerOption {
	return func(m *Manager) { m.maxBytes = n }
}

// WithLogger sets the logger for reload events.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns a Manager for the files in dir.
func NewManager(dir string, target Replacer, opts ...ManagerOption) *Manager {
	m := &Manager{
		dir:    dir,
		fsys:   os.DirFS(dir),
		target: target,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the watched directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Status returns the state after the latest reload attempt.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.status
	st.Files = append([]string(nil), m.status.Files...)
	return st
}

// Reload reads the directory and replaces the store's records. On failure
// the store keeps its previous records and the error is kept in Status.
func (m *Manager) Reload(ctx context.Context) (Status, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	start := m.now()
	res, err := Load(m.fsys, m.maxBytes)
	if err == nil {
		err = m.target.Replace(ctx, res.Snapshot)
	}
	if err != nil {
		m.mu.Lock()
		m.status.LastError = err.Error()
		m.mu.Unlock()
		return m.Status(), fmt.Errorf("reload snapshot from %s: %w", m.dir, err)
	}

	snap := res.Snapshot
	computed := core.ComputeAnalytics(snap.Vehicles, snap.Inspections)
	drift := snap.Analytics != nil && *snap.Analytics != computed

	st := Status{
		Generation:     uuid.NewString(),
		Source:         res.Source,
		Files:          res.Files,
		LoadedAt:       m.now(),
		Vehicles:       len(snap.Vehicles),
		Inspections:    len(snap.Inspections),
		AnalyticsDrift: drift,
	}

	logger := m.logger.With("generation", st.Generation, "source", st.Source)
	if drift {
		logger.Warn("stored analytics differ from the records; serving computed values",
			"stored", *snap.Analytics,
			"computed", computed,
		)
	}
	logger.Info("snapshot loaded",
		"vehicles", st.Vehicles,
		"inspections", st.Inspections,
		"duration_ms", m.now().Sub(start).Milliseconds(),
	)

	m.mu.Lock()
	m.status = st
	m.mu.Unlock()
	return st, nil
}

// StartRefreshScheduler reloads the snapshot every interval until ctx is
// cancelled. Failed reloads are logged and retried on the next tick.
func (m *Manager) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	m.logger.Info("snapshot refresh scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("snapshot refresh scheduler stopped")
			return
		case <-ticker.C:
			if _, err := m.Reload(ctx); err != nil {
				m.logger.Error("scheduled snapshot refresh failed", "error", err)
			}
		}
	}
}
