package web

// handlers_common.go holds the request parsing shared by the page, record
// and API handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/logging"
)

// Limits for list parameters.
const (
	defaultRecent = core.DefaultRecentActivity
	maxRecent     = 100
)

// parseIntParam parses an integer query parameter with a default value.
// Values below 1 fall back to the default and values above limit are capped.
func parseIntParam(r *http.Request, name string, defaultVal, limit int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return min(i, limit)
}

// parseVehicleID reads the {id} route parameter.
func parseVehicleID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return id, nil
}

// parseFilter builds a vehicle filter from the search and division query
// parameters.
func parseFilter(r *http.Request) core.VehicleFilter {
	q := r.URL.Query()
	return core.VehicleFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Division: strings.TrimSpace(q.Get("division")),
	}
}

// decodeJSON reads one JSON value from the body into v. Unknown fields are
// ignored.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidBody)
		}
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}

// mutationResult is the body of every successful record change. Vehicle and
// Inspection echo the stored record.
type mutationResult struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Vehicle    *core.Vehicle    `json:"vehicle,omitempty"`
	Inspection *core.Inspection `json:"inspection,omitempty"`
}

// nonNil returns s, or an empty slice so JSON lists encode as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// render writes an HTML page. A failure after the first byte can only be logged.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
