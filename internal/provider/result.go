package provider

import (
	"context"

	"github.com/apptwatch/apptwatch/internal/availability"
)

// Outcome tags the result of one fetch.
type Outcome int

const (
	// Fetched means a usable snapshot was produced.
	Fetched Outcome = iota
	// Unavailable means the site served its "service unavailable" page.
	Unavailable
	// Failed means the page could not be fetched or its table could not be parsed.
	Failed
	// Empty means the page loaded but carried no availability data.
	Empty
)

func (o Outcome) String() string {
	switch o {
	case Fetched:
		return "fetched"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// FetchResult is what a Source returns for one fetch. Snapshot is set only
// when Outcome is Fetched; Err is set only when Outcome is Failed.
type FetchResult struct {
	Outcome  Outcome
	Snapshot availability.Snapshot
	Err      error
}

// Source is a site publishing an availability table.
type Source interface {
	// Probe reports whether the service is up. It returns false, nil when the
	// site answers with its unavailable page.
	Probe(ctx context.Context) (bool, error)
	// Fetch scrapes the current availability table.
	Fetch(ctx context.Context) FetchResult
}
