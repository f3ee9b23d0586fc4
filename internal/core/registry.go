package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/inspections/internal/tabular"
)

// FieldType represents the expected data type for a dataset column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldBool
)

// String returns the JSON name of the field type.
func (ft FieldType) String() string {
	switch ft {
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	default:
		return "text"
	}
}

// FieldSpec describes one column of a dataset.
type FieldSpec struct {
	Name       string    // Column header name as written in snapshots
	Type       FieldType // Expected data type
	Required   bool      // Column must exist in the header
	EnumValues []string  // Valid values for FieldEnum
}

// DatasetInfo contains display and location information about a dataset.
type DatasetInfo struct {
	Key        string   // Unique identifier: "vehicles"
	Label      string   // Display name: "Vehicles"
	FileName   string   // CSV snapshot file: "vehicles_data.csv"
	Sheet      string   // Workbook sheet name: "Vehicles"
	SheetIndex int      // Workbook sheet position; also the load order
	Columns    []string // Header column names, in export order
}

// DecodeFunc fills its part of snap from a parsed table.
type DecodeFunc func(t tabular.Table, snap *Snapshot) error

// EncodeFunc renders its part of snap as rows in Info.Columns order.
type EncodeFunc func(snap *Snapshot) [][]string

// DatasetDefinition contains everything needed to load and export a dataset.
type DatasetDefinition struct {
	Info       DatasetInfo
	FieldSpecs []FieldSpec
	Optional   bool // a missing source is not an error
	Decode     DecodeFunc
	Encode     EncodeFunc
}

var (
	registry   = make(map[string]DatasetDefinition)
	registryMu sync.RWMutex
)

// Register adds a dataset definition to the registry.
// Panics if a dataset with the same key is already registered.
func Register(def DatasetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", def.Info.Key))
	}

	if len(def.Info.Columns) == 0 && len(def.FieldSpecs) > 0 {
		def.Info.Columns = make([]string, len(def.FieldSpecs))
		for i, spec := range def.FieldSpecs {
			def.Info.Columns[i] = spec.Name
		}
	}

	registry[def.Info.Key] = def
}

// Get returns a dataset definition by key.
func Get(key string) (DatasetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered datasets in sheet order.
func All() []DatasetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DatasetDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.SheetIndex != result[j].Info.SheetIndex {
			return result[i].Info.SheetIndex < result[j].Info.SheetIndex
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// DatasetCount returns the number of registered datasets.
func DatasetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
