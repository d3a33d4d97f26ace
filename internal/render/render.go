// Package render draws snapshots as text tables, for the console and for
// the artifact file attached to each notifying cycle.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/apptwatch/apptwatch/internal/availability"
)

// SnapshotTable builds the wide table: one row per office, one column per
// day, plus a total column and footer.
func SnapshotTable(snap availability.Snapshot) table.Writer {
	t := table.NewWriter()

	labels := snap.Labels()
	header := table.Row{"Location"}
	for _, l := range labels {
		header = append(header, l)
	}
	header = append(header, "Total")
	t.AppendHeader(header)

	colTotals := make([]int, len(labels))
	grand := 0
	for _, lc := range snap.Totals() {
		row := table.Row{lc.Location}
		for i, n := range snap.Row(lc.Location) {
			row = append(row, n)
			colTotals[i] += n
		}
		row = append(row, lc.Count)
		grand += lc.Count
		t.AppendRow(row)
	}

	footer := table.Row{"Total"}
	for _, n := range colTotals {
		footer = append(footer, n)
	}
	footer = append(footer, grand)
	t.AppendFooter(footer)

	t.SetStyle(table.StyleRounded)
	return t
}

// TotalsTable builds a two-column office/total table.
func TotalsTable(totals []availability.LocationCount) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Location", "Appointments"})
	for _, lc := range totals {
		t.AppendRow(table.Row{lc.Location, lc.Count})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.SetStyle(table.StyleRounded)
	return t
}

// WriteConsole renders the per-office totals to w.
func WriteConsole(w io.Writer, snap availability.Snapshot) {
	t := TotalsTable(snap.Totals())
	t.SetOutputMirror(w)
	t.Render()
}

// ---------------------------------------------------------------------------
// Artifact
// ---------------------------------------------------------------------------

// Artifact writes the full snapshot to a text file, overwriting it.
type Artifact struct {
	Path string
	now  func() time.Time
}

// NewArtifact creates an artifact writer for path.
func NewArtifact(path string) *Artifact {
	return &Artifact{Path: path, now: time.Now}
}

// Render writes the artifact for one snapshot.
func (a *Artifact) Render(ctx context.Context, service string, snap availability.Snapshot) error {
	f, err := os.Create(a.Path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}

	fmt.Fprintf(f, "%s appointments, %s\n\n", service, a.now().Format("02/01/2006 15:04"))
	fmt.Fprintln(f, TotalsTable(snap.Totals()).Render())
	fmt.Fprintln(f)
	fmt.Fprintln(f, SnapshotTable(snap).Render())

	if err := f.Close(); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
