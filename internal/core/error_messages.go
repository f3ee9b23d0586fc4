package core

// error_messages.go maps technical errors to user-facing messages with codes
// that can be quoted to support.
//
// Codes by category:
//
//	VEH001 - Vehicle not found            (ErrVehicleNotFound)
//	VEH002 - Door number already exists   (ErrDuplicateDoorNo)
//	VEH003 - Plate number already exists  (ErrDuplicatePlateNo)
//	VEH004 - Vehicle id already exists    (ErrDuplicateVehicleID)
//	VEH005 - Nothing to update            (ErrEmptyPatch)
//	INS001 - Inspection not found         (ErrInspectionNotFound)
//	INS002 - No vehicle selected          (ErrNoVehicleSelected)
//	INS003 - Inspection id already exists (ErrDuplicateInspection)
//	VAL001 - Form has missing or invalid fields (ErrValidation)
//	VAL002 - Invalid number               "invalid number"
//	VAL003 - Invalid date                 "invalid date"
//	SNAP001 - Snapshot file missing       "snapshot file not found"
//	SNAP002 - Snapshot header invalid     "missing required column", "duplicate column"
//	SNAP003 - Snapshot too large          "file too large"
//	SNAP004 - Unknown dataset             "unknown dataset"
//	DB001..DB005 - Database constraint and connectivity errors
//	REQ001..REQ005 - Cancelled, timed out, rate limited, unreadable or oversized body
//	BE001 - Backend unreachable           "backend unavailable"
//	ERR000 - Fallback
//
// Sentinels are checked first with errors.Is; the pattern table then matches
// lowercased error text with strings.Contains, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrVehicleNotFound, UserMessage{"Vehicle not found", "Refresh the vehicle list and select again", "VEH001"}},
	{ErrDuplicateDoorNo, UserMessage{"Door number already exists", "Use a different door number or edit the existing vehicle", "VEH002"}},
	{ErrDuplicatePlateNo, UserMessage{"Plate number already exists", "Use a different plate number or edit the existing vehicle", "VEH003"}},
	{ErrDuplicateVehicleID, UserMessage{"A vehicle with this id already exists", "Leave the id empty to have one assigned", "VEH004"}},
	{ErrEmptyPatch, UserMessage{"Nothing to update", "Change at least one field", "VEH005"}},
	{ErrInspectionNotFound, UserMessage{"Inspection not found", "Refresh the inspection history", "INS001"}},
	{ErrNoVehicleSelected, UserMessage{"No vehicle selected", "Select a vehicle from the list before starting the checklist", "INS002"}},
	{ErrDuplicateInspection, UserMessage{"This inspection was already saved", "Refresh the inspection history", "INS003"}},
	{ErrValidation, UserMessage{"Please fill in all required fields", "Fields marked as required must have a value", "VAL001"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: specific patterns before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Snapshot Errors (SNAP001-SNAP003)
	// =========================================================================
	{
		pattern: "snapshot file not found",
		msg: UserMessage{
			Message: "Vehicle data files were not found",
			Action:  "Provide vehicle_inspection_database.xlsx or vehicles_data.csv and inspections_data.csv",
			Code:    "SNAP001",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A required column is missing from the data file",
			Action:  "Check the header row against the export template",
			Code:    "SNAP002",
		},
	},
	{
		pattern: "duplicate column",
		msg: UserMessage{
			Message: "A column appears twice in the data file header",
			Action:  "Remove or rename the duplicated column",
			Code:    "SNAP002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The data file is too large",
			Action:  "Split the file or archive old inspections",
			Code:    "SNAP003",
		},
	},

	// =========================================================================
	// Validation Errors (VAL002-VAL003)
	// =========================================================================
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use digits only, without units",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Backend Errors (BE001), kept ahead of "connection refused"
	// =========================================================================
	{
		pattern: "backend unavailable",
		msg: UserMessage{
			Message: "The inspection server could not be reached",
			Action:  "Check the server address and that it is running",
			Code:    "BE001",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB005)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Refresh and check for an existing record",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Make sure the vehicle exists before saving the inspection",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with another write",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ003)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "too many concurrent jobs",
		msg: UserMessage{
			Message: "The server is busy",
			Action:  "Other exports are running; try again shortly",
			Code:    "REQ006",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send a JSON body with the form fields",
			Code:    "REQ004",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The request is too large",
			Action:  "Send a smaller file or fewer records",
			Code:    "REQ005",
		},
	},
	{
		pattern: "unknown dataset",
		msg: UserMessage{
			Message: "Unknown data set",
			Action:  "Use vehicles, inspections or analytics",
			Code:    "SNAP004",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates "Message (Code: XXX). Action" for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
