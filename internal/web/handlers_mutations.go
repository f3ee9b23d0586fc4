package web

import (
	"net/http"

	"github.com/JonMunkholm/inspections/internal/core"
)

// Record endpoints. They keep the request and response shapes of the
// browser frontend: every answer carries success and message.

// handleAddVehicle registers a vehicle. The body may carry an id.
func (s *Server) handleAddVehicle(w http.ResponseWriter, r *http.Request) {
	var nv core.NewVehicle
	if err := decodeJSON(r, &nv); err != nil {
		fail(w, r, err)
		return
	}
	v, err := s.service.AddVehicle(r.Context(), nv)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mutationResult{
		Success: true,
		Message: "Vehicle added successfully",
		Vehicle: &v,
	})
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseVehicleID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.RemoveVehicle(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mutationResult{
		Success: true,
		Message: "Vehicle deleted successfully",
	})
}

// handleAddInspection stores an inspection built by the client.
func (s *Server) handleAddInspection(w http.ResponseWriter, r *http.Request) {
	var in core.Inspection
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	stored, err := s.service.RecordInspection(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mutationResult{
		Success:    true,
		Message:    "Inspection saved successfully",
		Inspection: &stored,
	})
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	s.patchVehicle(w, r, "Vehicle updated successfully")
}

// API mutations.

// handleSubmitChecklist validates a checklist form and records it.
func (s *Server) handleSubmitChecklist(w http.ResponseWriter, r *http.Request) {
	var form core.ChecklistForm
	if err := decodeJSON(r, &form); err != nil {
		fail(w, r, err)
		return
	}
	in, err := s.service.SubmitInspection(r.Context(), form)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, mutationResult{
		Success:    true,
		Message:    "Inspection " + in.InspectionID + " saved",
		Inspection: &in,
	})
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var nv core.NewVehicle
	if err := decodeJSON(r, &nv); err != nil {
		fail(w, r, err)
		return
	}
	v, err := s.service.AddVehicle(r.Context(), nv)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/vehicles/"+formatID(v.ID))
	writeJSON(w, r, http.StatusCreated, mutationResult{
		Success: true,
		Message: "Vehicle " + v.DoorNo + " added",
		Vehicle: &v,
	})
}

func (s *Server) handlePatchVehicle(w http.ResponseWriter, r *http.Request) {
	s.patchVehicle(w, r, "Vehicle updated")
}

func (s *Server) handleRemoveVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseVehicleID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.service.RemoveVehicle(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSnapshotReload rereads the snapshot directory into the store.
func (s *Server) handleSnapshotReload(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		fail(w, r, errNoSnapshots)
		return
	}
	st, err := s.snapshots.Reload(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) patchVehicle(w http.ResponseWriter, r *http.Request, message string) {
	id, err := parseVehicleID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var patch core.VehiclePatch
	if err := decodeJSON(r, &patch); err != nil {
		fail(w, r, err)
		return
	}
	v, err := s.service.UpdateVehicle(r.Context(), id, patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mutationResult{
		Success: true,
		Message: message,
		Vehicle: &v,
	})
}
