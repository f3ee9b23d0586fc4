package core

// convert.go turns coerced tabular values into typed record fields.
//
// Snapshot files are hand-maintained spreadsheets, so the same column can
// arrive as a number in one row and as text in the next (door numbers,
// mileage with thousands separators, dates in whatever format the editor
// chose). These helpers absorb that variation:
//   - Numbers render without a trailing ".0" when used as identifiers
//   - Integers accept "12,500" and numeric text
//   - Dates accept US, EU and ISO layouts and normalise to YYYY-MM-DD

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/inspections/internal/tabular"
)

// DateLayout is the canonical date format for stored records.
const DateLayout = "2006-01-02"

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are moved to the previous century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05",
		"20060102",
	}
)

// ToText renders any value as trimmed text.
func ToText(v tabular.Value) string {
	return strings.TrimSpace(v.String())
}

// ToInt converts a value to an integer. Empty text is zero.
// Returns an error for fractional numbers and non-numeric text.
func ToInt(v tabular.Value) (int64, error) {
	if f, ok := v.Number(); ok {
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("invalid number: %v is not a whole number", f)
		}
		return int64(f), nil
	}
	if b, ok := v.Bool(); ok {
		return 0, fmt.Errorf("invalid number: %v", b)
	}

	s, _ := v.Text()
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %q", s)
	}
	return n, nil
}

// ToBool interprets booleans, and yes/no style text, as a flag.
func ToBool(v tabular.Value) bool {
	if b, ok := v.Bool(); ok {
		return b
	}
	if f, ok := v.Number(); ok {
		return f != 0
	}
	switch strings.ToLower(ToText(v)) {
	case "yes", "y", "1", "x":
		return true
	}
	return false
}

// ParseDate parses a date in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ToDate normalises a date value to YYYY-MM-DD.
// Unparseable text is kept verbatim so nothing the editor typed is lost.
func ToDate(v tabular.Value) string {
	s := ToText(v)
	if t, ok := ParseDate(s); ok {
		return t.Format(DateLayout)
	}
	return s
}
