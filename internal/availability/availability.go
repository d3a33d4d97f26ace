// Package availability holds the appointment snapshot model shared by the
// availability source, the snapshot stores and the change detector.
//
// A Snapshot is the wide table produced by one poll: one row per office,
// one column per day of the rolling horizon, cells are appointment counts.
package availability

import (
	"fmt"
	"slices"
	"time"
	_ "time/tzdata" // Europe/London on hosts without a zoneinfo database
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// HorizonDays is the number of consecutive days, starting today, that the
	// booking service publishes.
	HorizonDays = 28

	// LabelLayout formats the column labels persisted with each snapshot.
	LabelLayout = "Mon 2 Jan"

	// LongLabelLayout matches the day headers rendered by the booking page.
	LongLabelLayout = "Monday 2 January"

	// DateLayout formats scrape dates and outage marker dates.
	DateLayout = "02/01/2006"
)

// Zone is the booking service's local time. The page's day headers, scrape
// dates and outage marker dates are all days in this zone.
var Zone = mustLoadZone("Europe/London")

func mustLoadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load time zone %s: %v", name, err))
	}
	return loc
}

// Now returns the current time in Zone.
func Now() time.Time {
	return time.Now().In(Zone)
}

// Locations is the fixed set of offices, in table order.
var Locations = []string{
	"London",
	"Peterborough",
	"Newport",
	"Liverpool",
	"Durham",
	"Glasgow",
	"Belfast",
	"Birmingham",
}

// IsLocation reports whether name is one of the known offices.
func IsLocation(name string) bool {
	return slices.Contains(Locations, name)
}

// Labels returns the short column labels for the horizon starting at base.
func Labels(base time.Time) []string {
	return horizon(base, LabelLayout)
}

// LongLabels returns the page-style day headers for the horizon starting at base.
func LongLabels(base time.Time) []string {
	return horizon(base, LongLabelLayout)
}

func horizon(base time.Time, layout string) []string {
	out := make([]string, HorizonDays)
	for i := range out {
		out[i] = base.AddDate(0, 0, i).Format(layout)
	}
	return out
}

// --------------------------------------------------------------------------
// Snapshot
// --------------------------------------------------------------------------

// Snapshot is one observation of the availability table. It is immutable
// once built; accessors hand out copies.
type Snapshot struct {
	labels []string
	rows   map[string][]int
}

// New builds a snapshot from column labels and per-location counts.
// Locations missing from counts get a zero row. Every row must have one
// cell per label.
func New(labels []string, counts map[string][]int) (Snapshot, error) {
	rows := make(map[string][]int, len(Locations))
	for loc, row := range counts {
		if !IsLocation(loc) {
			return Snapshot{}, fmt.Errorf("unknown location %q", loc)
		}
		if len(row) != len(labels) {
			return Snapshot{}, fmt.Errorf("location %s has %d cells, want %d", loc, len(row), len(labels))
		}
		for i, n := range row {
			if n < 0 {
				return Snapshot{}, fmt.Errorf("location %s, %s: negative count %d", loc, labels[i], n)
			}
		}
		rows[loc] = slices.Clone(row)
	}
	for _, loc := range Locations {
		if _, ok := rows[loc]; !ok {
			rows[loc] = make([]int, len(labels))
		}
	}
	return Snapshot{labels: slices.Clone(labels), rows: rows}, nil
}

// IsZero reports whether the snapshot carries no columns.
func (s Snapshot) IsZero() bool {
	return len(s.labels) == 0
}

// Labels returns the column labels in order.
func (s Snapshot) Labels() []string {
	return slices.Clone(s.labels)
}

// Row returns the counts for a location, or nil if it is unknown.
func (s Snapshot) Row(location string) []int {
	return slices.Clone(s.rows[location])
}

// Count returns the cell for (location, label) and whether the label exists.
func (s Snapshot) Count(location, label string) (int, bool) {
	i := slices.Index(s.labels, label)
	if i < 0 {
		return 0, false
	}
	row := s.rows[location]
	if row == nil {
		return 0, false
	}
	return row[i], true
}

// LocationCount pairs an office with an appointment count.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Totals sums each location's counts across the whole horizon.
func (s Snapshot) Totals() []LocationCount {
	return s.TotalsOver(s.labels)
}

// TotalsOver sums each location's counts across the given labels only.
// Labels the snapshot does not carry contribute nothing.
func (s Snapshot) TotalsOver(labels []string) []LocationCount {
	idx := make([]int, 0, len(labels))
	for _, l := range labels {
		if i := slices.Index(s.labels, l); i >= 0 {
			idx = append(idx, i)
		}
	}

	out := make([]LocationCount, 0, len(Locations))
	for _, loc := range Locations {
		row := s.rows[loc]
		total := 0
		for _, i := range idx {
			total += row[i]
		}
		out = append(out, LocationCount{Location: loc, Count: total})
	}
	return out
}

// Total returns the sum of every cell.
func (s Snapshot) Total() int {
	total := 0
	for _, lc := range s.Totals() {
		total += lc.Count
	}
	return total
}

// --------------------------------------------------------------------------
// Long format
// --------------------------------------------------------------------------

// Row is one (location, day) observation in the accumulation history.
type Row struct {
	Location   string `json:"location"`
	ApptDate   string `json:"appt_date"`
	Count      int    `json:"count"`
	ScrapeDate string `json:"scrape_date"`
}

// Long reshapes the snapshot into one row per (location, day), tagged with
// the scrape date. Rows are grouped by day, then location order.
func (s Snapshot) Long(scraped time.Time) []Row {
	date := scraped.Format(DateLayout)
	out := make([]Row, 0, len(s.labels)*len(Locations))
	for i, label := range s.labels {
		for _, loc := range Locations {
			out = append(out, Row{
				Location:   loc,
				ApptDate:   label,
				Count:      s.rows[loc][i],
				ScrapeDate: date,
			})
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Outage marker
// --------------------------------------------------------------------------

// OutageMarker records whether "no appointments" was last reported, and on
// which day.
type OutageMarker struct {
	Date           string `json:"date"`
	NoAppointments bool   `json:"no_appointments"`
}

// MarkerFor builds a marker dated t.
func MarkerFor(t time.Time, noAppointments bool) OutageMarker {
	return OutageMarker{Date: t.Format(DateLayout), NoAppointments: noAppointments}
}

// ReportedOutageOn reports whether the marker says "no appointments" was
// already announced on t's day.
func (m OutageMarker) ReportedOutageOn(t time.Time) bool {
	return m.NoAppointments && m.Date == t.Format(DateLayout)
}
