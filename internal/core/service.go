package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// NewVehicle is the input for registering a vehicle. ID is optional; zero
// lets the store assign the next one.
type NewVehicle struct {
	ID                       int64       `json:"id,omitempty"`
	DoorNo                   string      `json:"doorNo"`
	PlateNo                  string      `json:"plateNo"`
	Division                 string      `json:"division"`
	Unit                     string      `json:"unit"`
	VehicleType              string      `json:"vehicleType"`
	VehicleSize              VehicleSize `json:"vehicleSize"`
	Odometer                 int64       `json:"odometer"`
	InspectionStickerMileage int64       `json:"inspectionStickerMileage"`
	InspectionStickerDate    string      `json:"inspectionStickerDate"`
	RestrictedAreaSticker    string      `json:"restrictedAreaSticker"`
	StickerExpiryDate        string      `json:"stickerExpiryDate"`
	AssignedTo               string      `json:"assignedTo"`
	AssignedDate             string      `json:"assignedDate"`
	Status                   string      `json:"status"`
}

// Defaults applied to new vehicles.
const (
	DefaultVehicleStatus         = "Active"
	DefaultRestrictedAreaSticker = "no"
)

// Validate checks the fields the registration form marks as required.
func (n NewVehicle) Validate() ValidationResult {
	result := newValidationResult()
	result.require("doorNo", n.DoorNo)
	result.require("plateNo", n.PlateNo)
	result.require("division", n.Division)
	result.require("vehicleType", n.VehicleType)
	if n.VehicleSize == "" {
		result.add("vehicleSize", "", "required field is empty")
	} else if !n.VehicleSize.Valid() {
		result.add("vehicleSize", string(n.VehicleSize), "unknown vehicle size")
	}
	if n.Odometer < 0 {
		result.add("odometer", fmt.Sprint(n.Odometer), "must not be negative")
	}
	return result
}

func (n NewVehicle) vehicle() Vehicle {
	v := Vehicle{
		ID:                       n.ID,
		DoorNo:                   strings.TrimSpace(n.DoorNo),
		PlateNo:                  strings.TrimSpace(n.PlateNo),
		Division:                 strings.TrimSpace(n.Division),
		Unit:                     strings.TrimSpace(n.Unit),
		VehicleType:              strings.TrimSpace(n.VehicleType),
		VehicleSize:              n.VehicleSize,
		Odometer:                 n.Odometer,
		InspectionStickerMileage: n.InspectionStickerMileage,
		InspectionStickerDate:    strings.TrimSpace(n.InspectionStickerDate),
		RestrictedAreaSticker:    strings.TrimSpace(n.RestrictedAreaSticker),
		StickerExpiryDate:        strings.TrimSpace(n.StickerExpiryDate),
		AssignedTo:               strings.TrimSpace(n.AssignedTo),
		AssignedDate:             strings.TrimSpace(n.AssignedDate),
		Status:                   strings.TrimSpace(n.Status),
	}
	if v.RestrictedAreaSticker == "" {
		v.RestrictedAreaSticker = DefaultRestrictedAreaSticker
	}
	if v.Status == "" {
		v.Status = DefaultVehicleStatus
	}
	return v
}

// Service provides the inspection record operations on top of a Store.
// Mutations are serialised so duplicate checks and id assignment see a
// consistent view of the store.
type Service struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for inspection dates and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger for mutation records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service that owns store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the backing store.
func (s *Service) Store() Store {
	return s.store
}

// ListVehicles returns the vehicles matching f with their latest inspection outcome.
func (s *Service) ListVehicles(ctx context.Context, f VehicleFilter) ([]VehicleRow, error) {
	vehicles, inspections, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildVehicleRows(FilterVehicles(vehicles, f), inspections), nil
}

// Divisions returns the distinct divisions in use, sorted.
func (s *Service) Divisions(ctx context.Context) ([]string, error) {
	vehicles, err := s.store.Vehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return Divisions(vehicles), nil
}

// Vehicle returns one vehicle by id.
func (s *Service) Vehicle(ctx context.Context, id int64) (Vehicle, error) {
	vehicles, err := s.store.Vehicles(ctx)
	if err != nil {
		return Vehicle{}, fmt.Errorf("list vehicles: %w", err)
	}
	v, ok := findVehicle(vehicles, id)
	if !ok {
		return Vehicle{}, fmt.Errorf("vehicle %d: %w", id, ErrVehicleNotFound)
	}
	return v, nil
}

// History returns the inspections of a vehicle, newest first.
func (s *Service) History(ctx context.Context, vehicleID int64) ([]Inspection, error) {
	vehicles, inspections, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := findVehicle(vehicles, vehicleID); !ok {
		return nil, fmt.Errorf("vehicle %d: %w", vehicleID, ErrVehicleNotFound)
	}
	return InspectionsFor(inspections, vehicleID), nil
}

// Inspection returns one inspection by id.
func (s *Service) Inspection(ctx context.Context, id string) (Inspection, error) {
	inspections, err := s.store.Inspections(ctx)
	if err != nil {
		return Inspection{}, fmt.Errorf("list inspections: %w", err)
	}
	for _, in := range inspections {
		if in.InspectionID == id {
			return in, nil
		}
	}
	return Inspection{}, fmt.Errorf("inspection %s: %w", id, ErrInspectionNotFound)
}

// Inspections returns every inspection in stored order.
func (s *Service) Inspections(ctx context.Context) ([]Inspection, error) {
	inspections, err := s.store.Inspections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	return inspections, nil
}

// Vehicles returns every vehicle in stored order.
func (s *Service) Vehicles(ctx context.Context) ([]Vehicle, error) {
	vehicles, err := s.store.Vehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

// RecentActivity returns the n newest inspections. n <= 0 means DefaultRecentActivity.
func (s *Service) RecentActivity(ctx context.Context, n int) ([]Inspection, error) {
	if n <= 0 {
		n = DefaultRecentActivity
	}
	inspections, err := s.store.Inspections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	SortNewestFirst(inspections)
	if len(inspections) > n {
		inspections = inspections[:n]
	}
	return inspections, nil
}

// Analytics computes the dashboard counts from the current records.
func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	vehicles, inspections, err := s.load(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return ComputeAnalytics(vehicles, inspections), nil
}

// Snapshot returns every record with freshly computed analytics.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	vehicles, inspections, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	a := ComputeAnalytics(vehicles, inspections)
	return Snapshot{Vehicles: vehicles, Inspections: inspections, Analytics: &a}, nil
}

// SubmitInspection validates a checklist and records it as an inspection.
// The vehicle is resolved by door number first, then by the selected id.
func (s *Service) SubmitInspection(ctx context.Context, form ChecklistForm) (Inspection, error) {
	if err := form.Validate().Err(); err != nil {
		return Inspection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vehicles, inspections, err := s.load(ctx)
	if err != nil {
		return Inspection{}, err
	}

	vehicleID := form.VehicleID
	if v, ok := findVehicleByDoor(vehicles, form.DoorNo); ok {
		vehicleID = v.ID
	}
	if vehicleID == 0 {
		return Inspection{}, ErrNoVehicleSelected
	}
	if _, ok := findVehicle(vehicles, vehicleID); !ok {
		return Inspection{}, fmt.Errorf("vehicle %d: %w", vehicleID, ErrVehicleNotFound)
	}

	now := s.now()
	in := form.Inspection(now)
	in.VehicleID = vehicleID
	in.InspectionID = nextInspectionID(inspections, now.Year())

	saved, err := s.store.AddInspection(ctx, in)
	if err != nil {
		return Inspection{}, fmt.Errorf("save inspection: %w", err)
	}

	s.logger.Info("inspection recorded", append([]any{
		"inspection_id", saved.InspectionID,
		"vehicle_id", saved.VehicleID,
		"status", saved.OverallStatus,
		"issues", saved.IssuesFound,
	}, clientAttrs(ctx)...)...)
	return saved, nil
}

// RecordInspection stores an inspection built elsewhere, such as by a remote
// client. A missing id is assigned and a missing status is derived from the
// issue count. The vehicle must exist.
func (s *Service) RecordInspection(ctx context.Context, in Inspection) (Inspection, error) {
	if in.VehicleID == 0 {
		return Inspection{}, ErrNoVehicleSelected
	}
	if in.OverallStatus == "" {
		in.OverallStatus = StatusPassed
		if in.IssuesFound > 0 {
			in.OverallStatus = StatusActionRequired
		}
	}
	in.ActionRequired = in.OverallStatus == StatusActionRequired

	s.mu.Lock()
	defer s.mu.Unlock()

	vehicles, inspections, err := s.load(ctx)
	if err != nil {
		return Inspection{}, err
	}
	if _, ok := findVehicle(vehicles, in.VehicleID); !ok {
		return Inspection{}, fmt.Errorf("vehicle %d: %w", in.VehicleID, ErrVehicleNotFound)
	}

	if in.InspectionID == "" || in.InspectionDate == "" {
		now := s.now()
		if in.InspectionID == "" {
			in.InspectionID = nextInspectionID(inspections, now.Year())
		}
		if in.InspectionDate == "" {
			in.InspectionDate = now.Format(DateLayout)
		}
	}

	saved, err := s.store.AddInspection(ctx, in)
	if err != nil {
		return Inspection{}, fmt.Errorf("save inspection: %w", err)
	}

	s.logger.Info("inspection recorded", append([]any{
		"inspection_id", saved.InspectionID,
		"vehicle_id", saved.VehicleID,
		"status", saved.OverallStatus,
		"issues", saved.IssuesFound,
	}, clientAttrs(ctx)...)...)
	return saved, nil
}

// nextInspectionID numbers inspections by count, skipping ids already taken.
func nextInspectionID(inspections []Inspection, year int) string {
	taken := make(map[string]bool, len(inspections))
	for _, in := range inspections {
		taken[in.InspectionID] = true
	}
	n := len(inspections) + 1
	id := InspectionID(year, n)
	for taken[id] {
		n++
		id = InspectionID(year, n)
	}
	return id
}

// AddVehicle registers a vehicle. Door and plate numbers must be unique.
func (s *Service) AddVehicle(ctx context.Context, nv NewVehicle) (Vehicle, error) {
	if err := nv.Validate().Err(); err != nil {
		return Vehicle{}, err
	}
	v := nv.vehicle()

	s.mu.Lock()
	defer s.mu.Unlock()

	vehicles, err := s.store.Vehicles(ctx)
	if err != nil {
		return Vehicle{}, fmt.Errorf("list vehicles: %w", err)
	}
	if err := checkUnique(vehicles, 0, v.DoorNo, v.PlateNo); err != nil {
		return Vehicle{}, err
	}

	saved, err := s.store.AddVehicle(ctx, v)
	if err != nil {
		return Vehicle{}, fmt.Errorf("save vehicle: %w", err)
	}

	s.logger.Info("vehicle added", append([]any{
		"vehicle_id", saved.ID,
		"door_no", saved.DoorNo,
		"plate_no", saved.PlateNo,
	}, clientAttrs(ctx)...)...)
	return saved, nil
}

// UpdateVehicle applies patch to vehicle id.
func (s *Service) UpdateVehicle(ctx context.Context, id int64, patch VehiclePatch) (Vehicle, error) {
	if patch.Empty() {
		return Vehicle{}, ErrEmptyPatch
	}
	if err := validatePatch(patch).Err(); err != nil {
		return Vehicle{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vehicles, err := s.store.Vehicles(ctx)
	if err != nil {
		return Vehicle{}, fmt.Errorf("list vehicles: %w", err)
	}
	current, ok := findVehicle(vehicles, id)
	if !ok {
		return Vehicle{}, fmt.Errorf("vehicle %d: %w", id, ErrVehicleNotFound)
	}
	next := current
	patch.Apply(&next)
	if err := checkUnique(vehicles, id, next.DoorNo, next.PlateNo); err != nil {
		return Vehicle{}, err
	}

	saved, err := s.store.UpdateVehicle(ctx, id, patch)
	if err != nil {
		return Vehicle{}, fmt.Errorf("update vehicle: %w", err)
	}

	s.logger.Info("vehicle updated", append([]any{"vehicle_id", id}, clientAttrs(ctx)...)...)
	return saved, nil
}

// RemoveVehicle deletes vehicle id. Its inspections stay in the history.
func (s *Service) RemoveVehicle(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteVehicle(ctx, id); err != nil {
		if errors.Is(err, ErrVehicleNotFound) {
			return err
		}
		return fmt.Errorf("delete vehicle: %w", err)
	}

	s.logger.Info("vehicle removed", append([]any{"vehicle_id", id}, clientAttrs(ctx)...)...)
	return nil
}

func (s *Service) load(ctx context.Context) ([]Vehicle, []Inspection, error) {
	vehicles, err := s.store.Vehicles(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list vehicles: %w", err)
	}
	inspections, err := s.store.Inspections(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list inspections: %w", err)
	}
	return vehicles, inspections, nil
}

// checkUnique rejects a door or plate number used by a vehicle other than self.
// Blank numbers, as snapshots may carry, never collide.
func checkUnique(vehicles []Vehicle, self int64, doorNo, plateNo string) error {
	for _, v := range vehicles {
		if v.ID == self {
			continue
		}
		if sameNumber(v.DoorNo, doorNo) {
			return fmt.Errorf("%s: %w", doorNo, ErrDuplicateDoorNo)
		}
		if sameNumber(v.PlateNo, plateNo) {
			return fmt.Errorf("%s: %w", plateNo, ErrDuplicatePlateNo)
		}
	}
	return nil
}

func sameNumber(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && b != "" && strings.EqualFold(a, b)
}

func validatePatch(p VehiclePatch) ValidationResult {
	result := newValidationResult()
	if p.DoorNo != nil {
		result.require("doorNo", *p.DoorNo)
	}
	if p.PlateNo != nil {
		result.require("plateNo", *p.PlateNo)
	}
	if p.VehicleSize != nil && *p.VehicleSize != "" && !p.VehicleSize.Valid() {
		result.add("vehicleSize", string(*p.VehicleSize), "unknown vehicle size")
	}
	if p.Odometer != nil && *p.Odometer < 0 {
		result.add("odometer", fmt.Sprint(*p.Odometer), "must not be negative")
	}
	return result
}
