package web

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/snapshot"
	"github.com/JonMunkholm/inspections/internal/tabular"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportCSV downloads one dataset in its snapshot CSV layout.
// The file is built in memory first so a failure still gets an error status.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dataset")
	def, ok := core.Get(key)
	if !ok {
		respondError(w, r, fmt.Errorf("unknown dataset: %s", key), http.StatusNotFound)
		return
	}

	snap, err := s.service.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := snapshot.WriteCSV(&buf, key, snap); err != nil {
		fail(w, r, err)
		return
	}

	download(w, "text/csv; charset=utf-8", exportName(def.Info.Key, "csv"), buf.Bytes())
}

// handleExportWorkbook downloads every dataset as one workbook that the
// snapshot loader reads back.
func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := snapshot.WriteWorkbook(&buf, snap); err != nil {
		fail(w, r, err)
		return
	}

	download(w, xlsxContentType, exportName("vehicle_inspection_database", "xlsx"), buf.Bytes())
}

// parseResponse is a parsed table, plus the header check when a dataset was named.
type parseResponse struct {
	Header     []string               `json:"header"`
	Records    []tabular.Record       `json:"records"`
	Duplicates []string               `json:"duplicates,omitempty"`
	Dataset    string                 `json:"dataset,omitempty"`
	Valid      *bool                  `json:"valid,omitempty"`
	Problems   []core.ValidationError `json:"problems,omitempty"`
}

// handleParse parses a CSV body into typed records. With ?dataset= the
// header is also checked against that dataset's columns.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var def core.DatasetDefinition
	key := r.URL.Query().Get("dataset")
	if key != "" {
		var ok bool
		if def, ok = core.Get(key); !ok {
			respondError(w, r, fmt.Errorf("unknown dataset: %s", key), http.StatusNotFound)
			return
		}
	}

	table, err := tabular.ReadTable(r.Body, s.cfg.Server.MaxBodyBytes)
	if err != nil {
		fail(w, r, err)
		return
	}

	resp := parseResponse{
		Header:     nonNil(table.Header),
		Records:    nonNil(table.Records),
		Duplicates: table.Duplicates(),
	}
	if key != "" {
		result := core.ValidateHeader(def.FieldSpecs, table)
		valid := result.Valid
		resp.Dataset = key
		resp.Valid = &valid
		resp.Problems = result.Errors
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func exportName(base, ext string) string {
	return fmt.Sprintf("%s_%s.%s", base, time.Now().Format("20060102_150405"), ext)
}

func download(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}
