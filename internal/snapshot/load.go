// Package snapshot loads and writes the vehicle inspection records kept as
// spreadsheet files: one workbook with a sheet per dataset, or one CSV file
// per dataset. It also keeps a store in sync with those files.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/inspections/internal/core"
	"github.com/JonMunkholm/inspections/internal/tabular"
)

// WorkbookName is the workbook looked up before the CSV files.
const WorkbookName = "vehicle_inspection_database.xlsx"

// Source tells where a snapshot was read from.
type Source string

const (
	SourceWorkbook Source = "workbook"
	SourceCSV      Source = "csv"
)

// Result is a loaded snapshot and where it came from.
type Result struct {
	Snapshot core.Snapshot
	Source   Source
	Files    []string // files or sheets actually read, in load order
}

// Load reads the records in fsys. The workbook wins when present; otherwise
// each dataset is read from its CSV file. A missing optional dataset is
// skipped, anything else missing is an error. maxBytes <= 0 means
// tabular.DefaultMaxBytes per file.
func Load(fsys fs.FS, maxBytes int64) (Result, error) {
	if maxBytes <= 0 {
		maxBytes = tabular.DefaultMaxBytes
	}

	f, err := fsys.Open(WorkbookName)
	switch {
	case err == nil:
		defer f.Close()
		return loadWorkbook(f, maxBytes)
	case !errors.Is(err, fs.ErrNotExist):
		return Result{}, fmt.Errorf("open %s: %w", WorkbookName, err)
	}

	return loadCSV(fsys, maxBytes)
}

func loadCSV(fsys fs.FS, maxBytes int64) (Result, error) {
	res := Result{Source: SourceCSV}

	for _, def := range core.All() {
		name := def.Info.FileName
		table, err := readCSV(fsys, name, maxBytes)
		if errors.Is(err, fs.ErrNotExist) {
			if def.Optional {
				continue
			}
			return Result{}, fmt.Errorf("snapshot file not found: %s", name)
		}
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", name, err)
		}

		if err := decode(def, table, name, &res.Snapshot); err != nil {
			return Result{}, err
		}
		res.Files = append(res.Files, name)
	}

	return res, nil
}

func readCSV(fsys fs.FS, name string, maxBytes int64) (tabular.Table, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return tabular.Table{}, err
	}
	defer f.Close()
	return tabular.ReadTable(f, maxBytes)
}

func loadWorkbook(r io.Reader, maxBytes int64) (Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", WorkbookName, err)
	}
	if int64(len(data)) > maxBytes {
		return Result{}, fmt.Errorf("%s: file too large: workbook exceeds %d bytes", WorkbookName, maxBytes)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", WorkbookName, err)
	}
	defer wb.Close()

	res := Result{Source: SourceWorkbook}
	sheets := wb.GetSheetList()

	for _, def := range core.All() {
		sheet, ok := findSheet(sheets, def.Info)
		if !ok {
			if def.Optional {
				continue
			}
			return Result{}, fmt.Errorf("snapshot file not found: %s has no %s sheet", WorkbookName, def.Info.Sheet)
		}

		rows, err := wb.GetRows(sheet)
		if err != nil {
			return Result{}, fmt.Errorf("%s sheet %s: %w", WorkbookName, sheet, err)
		}

		var table tabular.Table
		if len(rows) > 0 {
			table = tabular.FromRows(rows[0], rows[1:])
		}

		label := WorkbookName + "#" + sheet
		if err := decode(def, table, label, &res.Snapshot); err != nil {
			return Result{}, err
		}
		res.Files = append(res.Files, label)
	}

	return res, nil
}

// findSheet matches a dataset by sheet name, falling back to its position.
func findSheet(sheets []string, info core.DatasetInfo) (string, bool) {
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), info.Sheet) {
			return s, true
		}
	}
	if info.SheetIndex < len(sheets) {
		return sheets[info.SheetIndex], true
	}
	return "", false
}

// decode validates the header and fills snap. A source with no header row at
// all is an empty dataset.
func decode(def core.DatasetDefinition, table tabular.Table, label string, snap *core.Snapshot) error {
	if len(table.Header) == 0 {
		return def.Decode(tabular.Table{Records: []tabular.Record{}}, snap)
	}

	if result := core.ValidateHeader(def.FieldSpecs, table); !result.Valid {
		problems := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			problems[i] = fmt.Sprintf("%s %q", e.Message, e.Field)
		}
		return fmt.Errorf("%s: %s", label, strings.Join(problems, "; "))
	}

	if err := def.Decode(table, snap); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}
