package tabular

import (
	"sort"
	"strings"
)

const (
	// Delimiter separates fields within a line.
	Delimiter = ','
	// RecordSeparator separates lines within a table.
	RecordSeparator = "\n"

	quote = '"'
)

// Record maps header names to coerced values.
type Record map[string]Value

// Get returns the value for column, or empty text when absent.
func (r Record) Get(column string) Value {
	return r[column]
}

// Table is a parsed table: the header as written plus its records in source order.
type Table struct {
	Header  []string
	Records []Record
}

// ParseLine splits one line into trimmed fields.
//
// A double quote toggles the in-quote state and is never emitted. A comma ends
// the current field only outside quotes. An unterminated quote keeps the
// in-quote state until the end of the line, so the remaining commas on that
// line become literal content.
func ParseLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
	)

	for _, ch := range line {
		switch {
		case ch == quote:
			inQuote = !inQuote
		case ch == Delimiter && !inQuote:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}

// ParseTable parses text into records, one per non-blank data line.
func ParseTable(text string) []Record {
	return Parse(text).Records
}

// Parse parses text and keeps the header alongside the records. Blank
// lines before the header are ignored.
func Parse(text string) Table {
	text = strings.TrimSpace(text)
	if text == "" {
		return Table{Records: []Record{}}
	}

	lines := strings.Split(text, RecordSeparator)
	header := ParseLine(lines[0])

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, ParseLine(line))
	}

	return build(header, rows)
}

// FromRows builds a table from pre-split cells, such as spreadsheet rows.
// Rows whose cells are all blank are skipped, and every cell goes through
// the same trimming and coercion as parsed text.
func FromRows(header []string, rows [][]string) Table {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		kept = append(kept, row)
	}

	return build(names, kept)
}

func build(header []string, rows [][]string) Table {
	records := make([]Record, 0, len(rows))
	for _, values := range rows {
		rec := make(Record, len(header))
		for i, name := range header {
			raw := ""
			if i < len(values) {
				raw = values[i]
			}
			// Duplicate header names: the later column overwrites the earlier one.
			rec[name] = Coerce(raw)
		}
		records = append(records, rec)
	}
	return Table{Header: header, Records: records}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Duplicates returns header names that occur more than once, sorted.
func (t Table) Duplicates() []string {
	seen := make(map[string]int, len(t.Header))
	for _, h := range t.Header {
		seen[h]++
	}

	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// HasColumn reports whether name appears in the header (case-insensitive).
func (t Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}
