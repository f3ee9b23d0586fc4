package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/inspections/internal/web/views"
)

// handleDashboard renders the summary counts and the latest inspections.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	analytics, err := s.service.Analytics(ctx)
	if err != nil {
		fail(w, r, err)
		return
	}
	recent, err := s.service.RecentActivity(ctx, defaultRecent)
	if err != nil {
		fail(w, r, err)
		return
	}

	data := views.DashboardData{Analytics: analytics, Recent: recent}
	if s.snapshots != nil {
		st := s.snapshots.Status()
		info := &views.SnapshotInfo{
			Source:    string(st.Source),
			Drift:     st.AnalyticsDrift,
			LastError: st.LastError,
		}
		if !st.LoadedAt.IsZero() {
			info.LoadedAt = st.LoadedAt.Format(time.DateTime)
		}
		data.Snapshot = info
	}

	s.render(w, r, views.Layout("Dashboard", views.Dashboard(data)))
}

// handleVehiclesPage renders the filterable vehicle list.
func (s *Server) handleVehiclesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := parseFilter(r)

	rows, err := s.service.ListVehicles(ctx, filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	divisions, err := s.service.Divisions(ctx)
	if err != nil {
		fail(w, r, err)
		return
	}

	data := views.VehicleListData{Rows: rows, Divisions: divisions, Filter: filter}
	s.render(w, r, views.Layout("Vehicles", views.VehicleList(data)))
}

// handleHistoryPage renders one vehicle with its inspections.
func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseVehicleID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ctx := r.Context()

	vehicle, err := s.service.Vehicle(ctx, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	history, err := s.service.History(ctx, id)
	if err != nil {
		fail(w, r, err)
		return
	}

	data := views.HistoryData{Vehicle: vehicle, Inspections: history}
	s.render(w, r, views.Layout("History "+vehicle.DoorNo, views.History(data)))
}

// handleGetVehicles returns every vehicle in stored order.
func (s *Server) handleGetVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.service.Vehicles(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(vehicles))
}

// handleGetInspections returns every inspection in stored order.
func (s *Server) handleGetInspections(w http.ResponseWriter, r *http.Request) {
	inspections, err := s.service.Inspections(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(inspections))
}

// handleGetAnalytics returns the counts computed from the current records.
func (s *Server) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.service.Analytics(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, analytics)
}

// handleListVehicles returns the vehicles matching the search and division
// parameters with their latest inspection outcome.
func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.ListVehicles(r.Context(), parseFilter(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(rows))
}

func (s *Server) handleVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseVehicleID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	vehicle, err := s.service.Vehicle(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, vehicle)
}

// handleHistory returns a vehicle's inspections, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseVehicleID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	history, err := s.service.History(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(history))
}

func (s *Server) handleInspection(w http.ResponseWriter, r *http.Request) {
	in, err := s.service.Inspection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, in)
}

// handleActivity returns the newest inspections; ?limit caps the count.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	n := parseIntParam(r, "limit", defaultRecent, maxRecent)
	recent, err := s.service.RecentActivity(r.Context(), n)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(recent))
}

func (s *Server) handleDivisions(w http.ResponseWriter, r *http.Request) {
	divisions, err := s.service.Divisions(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, nonNil(divisions))
}

// handleSnapshotStatus reports the last snapshot load.
func (s *Server) handleSnapshotStatus(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		fail(w, r, errNoSnapshots)
		return
	}
	writeJSON(w, r, http.StatusOK, s.snapshots.Status())
}
