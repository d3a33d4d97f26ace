package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/provider"
)

// LongHeader is the header of the accumulation CSV.
var LongHeader = []string{"location", "appt_date", "count", "scrape_date"}

// EncodeWide writes a snapshot as CSV: a "location" column followed by one
// column per label, one row per office.
func EncodeWide(w io.Writer, snap availability.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"location"}, snap.Labels()...)); err != nil {
		return err
	}
	for _, loc := range availability.Locations {
		row := snap.Row(loc)
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, loc)
		for _, n := range row {
			rec = append(rec, strconv.Itoa(n))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeWide reads a snapshot written by EncodeWide. Counts written as
// floats ("3.0") are accepted.
func DecodeWide(r io.Reader) (availability.Snapshot, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return availability.Snapshot{}, fmt.Errorf("read csv: no header")
	}
	header := records[0]
	if header[0] != "location" {
		return availability.Snapshot{}, fmt.Errorf("read csv: first column is %q, want location", header[0])
	}
	labels := header[1:]

	counts := make(map[string][]int, len(records)-1)
	for _, rec := range records[1:] {
		loc := rec[0]
		row := make([]int, len(labels))
		for i, cell := range rec[1:] {
			n, ok := provider.ParseCount(cell)
			if !ok {
				return availability.Snapshot{}, fmt.Errorf("read csv: %s, %s: bad count %q", loc, labels[i], cell)
			}
			row[i] = n
		}
		counts[loc] = row
	}
	return availability.New(labels, counts)
}

// EncodeLong writes history rows as CSV, with the header only when
// withHeader is set.
func EncodeLong(w io.Writer, rows []availability.Row, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(LongHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Location, r.ApptDate, strconv.Itoa(r.Count), r.ScrapeDate}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatMarker renders the marker file body, e.g. "15/10/2026 True".
func FormatMarker(m availability.OutageMarker) string {
	v := "False"
	if m.NoAppointments {
		v = "True"
	}
	return m.Date + " " + v
}

// ParseMarker reads a marker file body written by FormatMarker.
func ParseMarker(body string) (availability.OutageMarker, error) {
	fields := strings.Fields(body)
	if len(fields) != 2 {
		return availability.OutageMarker{}, fmt.Errorf("marker %q: want \"<date> <True|False>\"", body)
	}
	if _, err := time.Parse(availability.DateLayout, fields[0]); err != nil {
		return availability.OutageMarker{}, fmt.Errorf("marker date: %w", err)
	}
	none, err := strconv.ParseBool(fields[1])
	if err != nil {
		return availability.OutageMarker{}, fmt.Errorf("marker value: %w", err)
	}
	return availability.OutageMarker{Date: fields[0], NoAppointments: none}, nil
}
