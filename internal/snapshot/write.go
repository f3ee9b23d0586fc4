package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/inspections/internal/core"
)

// WriteCSV writes one dataset of snap as CSV with a header row. Line breaks
// inside a cell are written as spaces.
func WriteCSV(w io.Writer, key string, snap core.Snapshot) error {
	def, ok := core.Get(key)
	if !ok {
		return fmt.Errorf("unknown dataset: %s", key)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(def.Info.Columns); err != nil {
		return fmt.Errorf("write %s header: %w", key, err)
	}
	rows := def.Encode(&snap)
	for _, row := range rows {
		for i, cell := range row {
			row[i] = singleLine(cell)
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s rows: %w", key, err)
	}
	return nil
}

// lineBreaks folds CRLF, CR and LF alike. The CSV reader is line based, so
// a cell must never span lines.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func singleLine(cell string) string {
	if !strings.ContainsAny(cell, "\r\n") {
		return cell
	}
	return lineBreaks.Replace(cell)
}

// WriteWorkbook writes every dataset of snap as a sheet of one xlsx workbook,
// in the layout Load reads back.
func WriteWorkbook(w io.Writer, snap core.Snapshot) error {
	wb := excelize.NewFile()
	defer wb.Close()

	header, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, def := range core.All() {
		sheet := def.Info.Sheet
		if i == 0 {
			if err := wb.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := wb.NewSheet(sheet); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}

		if err := setRow(wb, sheet, 1, def.Info.Columns); err != nil {
			return err
		}
		if err := wb.SetRowStyle(sheet, 1, 1, header); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
		for r, row := range def.Encode(&snap) {
			if err := setRow(wb, sheet, r+2, row); err != nil {
				return err
			}
		}
	}

	wb.SetActiveSheet(0)
	if err := wb.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(wb *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := wb.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// WriteDir writes snap to dir as the workbook or as the CSV files.
// Files are written to a temporary name and renamed so a watcher never
// reads a partial file.
func WriteDir(dir string, snap core.Snapshot, source Source) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	if source == SourceWorkbook {
		return writeFile(filepath.Join(dir, WorkbookName), func(w io.Writer) error {
			return WriteWorkbook(w, snap)
		})
	}

	for _, def := range core.All() {
		key := def.Info.Key
		err := writeFile(filepath.Join(dir, def.Info.FileName), func(w io.Writer) error {
			return WriteCSV(w, key, snap)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
