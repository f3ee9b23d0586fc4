package core

import "errors"

// Sentinel errors returned by the Service and Store implementations.
// Wrap with fmt.Errorf("...: %w", err) to add context; match with errors.Is.
var (
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrInspectionNotFound  = errors.New("inspection not found")
	ErrDuplicateDoorNo     = errors.New("door number already exists")
	ErrDuplicatePlateNo    = errors.New("plate number already exists")
	ErrDuplicateVehicleID  = errors.New("vehicle id already exists")
	ErrDuplicateInspection = errors.New("inspection id already exists")
	ErrNoVehicleSelected   = errors.New("no vehicle selected")
	ErrEmptyPatch          = errors.New("no fields to update")
)
