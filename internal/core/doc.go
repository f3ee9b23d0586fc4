// Package core provides the business logic for vehicle inspection records.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the CLI, and tests alike.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Datasets: vehicles, inspections and analytics, registered with their
//     field specs and decoders from parsed tables.
//   - Store: where records live. The caller constructs one and hands it to
//     [NewService]; there is no package-level state besides the registry.
//   - Service: the entry point for queries and mutations.
//   - Checklist: the inspection form, its validation, and how it becomes an
//     [Inspection].
//
// # Dataset Registry
//
// Datasets are registered at init time using [Register]:
//
//	core.Register(DatasetDefinition{
//	    Info: DatasetInfo{Key: "vehicles", FileName: "vehicles_data.csv", Sheet: "Vehicles"},
//	    FieldSpecs: []FieldSpec{
//	        {Name: "id", Type: FieldNumeric, Required: true},
//	        {Name: "doorNo", Type: FieldText, Required: true},
//	    },
//	    Decode: decodeVehicles,
//	    Encode: encodeVehicles,
//	})
//
// # Error Handling
//
// Operations return wrapped sentinel errors ([ErrVehicleNotFound],
// [ErrDuplicateDoorNo], ...) and [*ValidationErrors] for bad input.
// [MapError] turns any of them into a user-facing message with a code:
//
//   - VEH, INS: vehicle and inspection lookups and conflicts
//   - VAL: form validation and number/date formats
//   - SNAP: snapshot file problems
//   - DB, REQ, BE: storage, request and backend failures
package core
