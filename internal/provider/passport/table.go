package passport

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/provider"
)

// ErrNoTable is returned when the page carries no availability rows.
var ErrNoTable = errors.New("no appointments table on page")

// RawTable is the availability table as rendered on the page.
type RawTable struct {
	Headers []string
	Rows    []RawRow
}

// RawRow is one office row of the page table.
type RawRow struct {
	Location string
	Cells    []string
}

// ExtractTable reads the first table of an HTML document. The first header
// cell is the corner above the office names and is dropped.
func ExtractTable(r io.Reader) (RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return RawTable{}, fmt.Errorf("parse page: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return RawTable{}, ErrNoTable
	}

	headerCells := table.Find("thead th")
	bodyRows := table.Find("tbody tr")
	if headerCells.Length() == 0 {
		first := table.Find("tr").First()
		headerCells = first.Find("th")
		bodyRows = first.NextAll()
	}

	var raw RawTable
	headerCells.Each(func(i int, s *goquery.Selection) {
		if i == 0 {
			return
		}
		raw.Headers = append(raw.Headers, provider.CollapseSpaces(s.Text()))
	})

	bodyRows.Each(func(_ int, tr *goquery.Selection) {
		label := tr.Find("th").First()
		cells := tr.Find("td")
		if label.Length() == 0 {
			label = cells.First()
			cells = cells.Slice(1, goquery.ToEnd)
		}
		loc := provider.CollapseSpaces(label.Text())
		if loc == "" {
			return
		}
		row := RawRow{Location: loc}
		cells.Each(func(_ int, td *goquery.Selection) {
			row.Cells = append(row.Cells, strings.TrimSpace(td.Text()))
		})
		raw.Rows = append(raw.Rows, row)
	})

	if len(raw.Rows) == 0 {
		return RawTable{}, ErrNoTable
	}
	return raw, nil
}

// Normalize maps a page table onto the fixed office list and the horizon
// starting at base. Page headers use long day names; the snapshot uses the
// short labels. Days and offices the page leaves out count as zero.
func Normalize(raw RawTable, base time.Time) (availability.Snapshot, error) {
	long := availability.LongLabels(base)
	labels := availability.Labels(base)

	columns := make([]int, len(raw.Headers))
	for i, h := range raw.Headers {
		idx := slices.Index(long, h)
		if idx < 0 {
			return availability.Snapshot{}, fmt.Errorf("column %q is outside the %d day horizon from %s",
				h, availability.HorizonDays, base.Format(availability.DateLayout))
		}
		columns[i] = idx
	}

	counts := make(map[string][]int, len(raw.Rows))
	for _, row := range raw.Rows {
		if !availability.IsLocation(row.Location) {
			return availability.Snapshot{}, fmt.Errorf("unknown location %q", row.Location)
		}
		if len(row.Cells) > len(columns) {
			return availability.Snapshot{}, fmt.Errorf("location %s has %d cells for %d columns",
				row.Location, len(row.Cells), len(columns))
		}
		cells, ok := counts[row.Location]
		if !ok {
			cells = make([]int, len(labels))
			counts[row.Location] = cells
		}
		for i, text := range row.Cells {
			n, ok := provider.ParseCount(text)
			if !ok {
				return availability.Snapshot{}, fmt.Errorf("location %s, %s: bad count %q",
					row.Location, raw.Headers[i], text)
			}
			cells[columns[i]] = n
		}
	}

	return availability.New(labels, counts)
}
