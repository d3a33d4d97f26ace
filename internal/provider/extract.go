// Package provider defines the contract between the polling pipeline and
// the sites it scrapes, plus helpers shared by the scrapers.
package provider

import (
	"strconv"
	"strings"
)

// ParseCount normalizes a table cell into an appointment count.
//
// Booking pages render empty days as blanks, dashes or "None", and some add
// a unit ("3 appointments"). Numbers may come through as floats ("3.0")
// when a table has been round-tripped through a spreadsheet.
//
// Returns ok=false if the cell is not a count at all.
func ParseCount(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "", "-", "–", "none", "nan":
		return 0, true
	}

	if fields := strings.Fields(s); len(fields) > 1 {
		s = fields[0]
	}

	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

// CollapseSpaces trims a header and folds runs of whitespace (including
// non-breaking spaces) into single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
