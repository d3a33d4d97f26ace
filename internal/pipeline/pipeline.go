// Package pipeline runs one polling cycle: probe the booking site, fetch its
// availability table, diff it against the stored snapshot, persist it,
// announce bulk increases and hand off to the next cycle.
//
// A cycle never retries in-process. Every terminal path that wants another
// attempt fires a reschedule instead, so the pipeline is a function of the
// first flag, the store contents and what the site returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/notifications"
	"github.com/apptwatch/apptwatch/internal/provider"
	"github.com/apptwatch/apptwatch/internal/render"
	"github.com/apptwatch/apptwatch/internal/reschedule"
	"github.com/apptwatch/apptwatch/internal/store"
)

// --------------------------------------------------------------------------
// Errors and outcomes
// --------------------------------------------------------------------------

var (
	// ErrFetch means the page could not be fetched or parsed. A reschedule
	// was fired before it was returned.
	ErrFetch = errors.New("fetch failed")
	// ErrEmptyResult means the page loaded without an availability table.
	ErrEmptyResult = errors.New("empty availability table")
	// ErrPersist means the new snapshot could not be stored.
	ErrPersist = errors.New("persist snapshot failed")
	// ErrRemoteRead means the stored snapshot could not be read for diffing.
	// No reschedule is fired.
	ErrRemoteRead = errors.New("read previous snapshot failed")
)

// Outcome is how a successful cycle ended.
type Outcome int

const (
	// OutcomeUnavailable: the site showed its unavailable page. Nothing was
	// written, announced or rescheduled.
	OutcomeUnavailable Outcome = iota
	// OutcomeNoChange: no office crossed the bulk threshold.
	OutcomeNoChange
	// OutcomeNotified: the snapshot was announced.
	OutcomeNotified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeNoChange:
		return "no_change"
	case OutcomeNotified:
		return "notified"
	default:
		return "unknown"
	}
}

// Result describes a finished cycle.
type Result struct {
	CycleID  string
	Outcome  Outcome
	Snapshot availability.Snapshot
	// Bulk lists the offices that crossed the threshold, in table order.
	Bulk []string
	// Message is the bulk announcement, when one was posted.
	Message string
}

// --------------------------------------------------------------------------
// Ports
// --------------------------------------------------------------------------

// Notifier announces availability changes. notifications.Dispatcher
// implements it.
type Notifier interface {
	InitialAvailability(ctx context.Context, service string) error
	BulkIncrease(ctx context.Context, service string, locations []string) (string, error)
	NoAppointments(ctx context.Context, service string) error
	Alert(ctx context.Context, service, message string) error
}

// Scheduler owns the wait interval and the follow-up workflow dispatch.
// reschedule.Scheduler implements it.
type Scheduler interface {
	Wait(ctx context.Context) error
	ForFetchFailure(first bool) reschedule.Workflow
	Reschedule(ctx context.Context, w reschedule.Workflow) error
}

// Artifact writes the visualization for a notifying cycle.
type Artifact interface {
	Render(ctx context.Context, service string, snap availability.Snapshot) error
}

// --------------------------------------------------------------------------
// Pipeline
// --------------------------------------------------------------------------

// Config holds the per-deployment switches.
type Config struct {
	Service       string
	NotifyEnabled bool
	// Console receives the totals table each cycle. Nil discards it.
	Console io.Writer
}

// Deps are the collaborators a Pipeline drives. Artifact may be nil.
type Deps struct {
	Source    provider.Source
	Store     store.SnapshotStore
	Notifier  Notifier
	Scheduler Scheduler
	Artifact  Artifact
}

// Pipeline runs polling cycles for one service.
type Pipeline struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

// New creates a pipeline.
func New(cfg Config, deps Deps, logger *slog.Logger) *Pipeline {
	if cfg.Console == nil {
		cfg.Console = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, deps: deps, logger: logger, now: availability.Now}
}

// Run executes one cycle. first marks the first cycle after an outage: the
// stored snapshot is not read and the initial-availability announcement is
// made instead of a diff.
func (p *Pipeline) Run(ctx context.Context, first bool) (Result, error) {
	res := Result{CycleID: uuid.NewString()}
	log := p.logger.With("service", p.cfg.Service, "cycle_id", res.CycleID, "first", first)

	// 1. Liveness
	up, err := p.deps.Source.Probe(ctx)
	if err != nil {
		return res, fmt.Errorf("probe: %w", err)
	}
	if !up {
		log.Info("Service unavailable, nothing to do")
		res.Outcome = OutcomeUnavailable
		return res, nil
	}

	// 2. Fetch
	fetched := p.deps.Source.Fetch(ctx)
	switch fetched.Outcome {
	case provider.Unavailable:
		log.Info("Service went unavailable during fetch, nothing to do")
		res.Outcome = OutcomeUnavailable
		return res, nil
	case provider.Failed:
		log.Error("Fetch failed", "error", fetched.Err)
		p.reschedule(ctx, log, p.deps.Scheduler.ForFetchFailure(first))
		return res, fmt.Errorf("%w: %w", ErrFetch, fetched.Err)
	case provider.Empty:
		log.Warn("Availability table is empty")
		if err := p.waitThenReschedule(ctx, log); err != nil {
			return res, errors.Join(ErrEmptyResult, err)
		}
		return res, ErrEmptyResult
	}
	snap := fetched.Snapshot
	res.Snapshot = snap

	// 3. Totals
	render.WriteConsole(p.cfg.Console, snap)
	log.Info("Snapshot fetched", "days", len(snap.Labels()), "total", snap.Total())

	// 4. Diff
	if !first {
		prev, err := p.deps.Store.Previous(ctx, p.cfg.Service)
		if err != nil {
			return res, fmt.Errorf("%w: %w", ErrRemoteRead, err)
		}
		res.Bulk = notifications.DetectBulk(prev, snap)
		log.Info("Compared with previous snapshot",
			"shared_days", len(notifications.SharedLabels(prev, snap)),
			"bulk", res.Bulk)
	}

	// 5. Persist
	if err := p.deps.Store.Replace(ctx, p.cfg.Service, snap); err != nil {
		log.Error("Persist failed", "error", err)
		p.reschedule(ctx, log, reschedule.Steady)
		return res, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	// 6. Nothing worth announcing
	if !first && len(res.Bulk) == 0 {
		log.Info("No new appointments")
		res.Outcome = OutcomeNoChange
		return res, p.waitThenReschedule(ctx, log)
	}

	// 7. Artifact
	if p.deps.Artifact != nil {
		if err := p.deps.Artifact.Render(ctx, p.cfg.Service, snap); err != nil {
			log.Warn("Artifact render failed", "error", err)
		}
	}

	// 8. Announce
	if p.cfg.NotifyEnabled {
		res.Message = p.notify(ctx, log, first, res.Bulk)
	} else {
		log.Info("Notifications disabled")
	}

	// 9. History
	if err := p.deps.Store.Append(ctx, p.cfg.Service, snap.Long(p.now())); err != nil {
		log.Warn("History append failed", "error", err)
	}

	// 10. Hand off
	res.Outcome = OutcomeNotified
	return res, p.waitThenReschedule(ctx, log)
}

// notify fires the initial and bulk triggers and returns the bulk message.
// A trigger that fails leaves the outage marker alone.
func (p *Pipeline) notify(ctx context.Context, log *slog.Logger, first bool, bulk []string) string {
	today := p.now()

	if first {
		if err := p.deps.Notifier.InitialAvailability(ctx, p.cfg.Service); err != nil {
			log.Error("Initial availability notification failed", "error", err)
		} else {
			p.clearMarker(ctx, log, today)
		}
	}

	if len(bulk) == 0 {
		return ""
	}
	msg, err := p.deps.Notifier.BulkIncrease(ctx, p.cfg.Service, bulk)
	if err != nil {
		log.Error("Bulk increase notification failed", "error", err)
		return ""
	}
	if err := p.deps.Notifier.Alert(ctx, p.cfg.Service, msg); err != nil {
		log.Error("Direct alert failed", "error", err)
	}
	p.clearMarker(ctx, log, today)
	return msg
}

func (p *Pipeline) clearMarker(ctx context.Context, log *slog.Logger, today time.Time) {
	if err := p.deps.Store.SetOutageMarker(ctx, p.cfg.Service, availability.MarkerFor(today, false)); err != nil {
		log.Warn("Outage marker write failed", "error", err)
	}
}

// ReportOutage announces that the service is up with nothing to book, at
// most once per day. Run never calls it; the `apptwatch outage` command
// runs it for an external scheduled job. Run's notifying cycles reset the
// marker so the next outage is announced again.
func (p *Pipeline) ReportOutage(ctx context.Context) (bool, error) {
	today := p.now()
	log := p.logger.With("service", p.cfg.Service)

	marker, err := p.deps.Store.OutageMarker(ctx, p.cfg.Service)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}
	if marker.ReportedOutageOn(today) {
		log.Info("No-appointments already reported today", "date", marker.Date)
		return false, nil
	}

	if p.cfg.NotifyEnabled {
		if err := p.deps.Notifier.NoAppointments(ctx, p.cfg.Service); err != nil {
			return false, err
		}
	}
	if err := p.deps.Store.SetOutageMarker(ctx, p.cfg.Service, availability.MarkerFor(today, true)); err != nil {
		return true, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	log.Info("No-appointments reported")
	return true, nil
}

func (p *Pipeline) waitThenReschedule(ctx context.Context, log *slog.Logger) error {
	if err := p.deps.Scheduler.Wait(ctx); err != nil {
		log.Warn("Wait interrupted, not rescheduling", "error", err)
		return err
	}
	p.reschedule(ctx, log, reschedule.Steady)
	return nil
}

// reschedule fires w. A failed dispatch is logged; the cycle's own result
// stands.
func (p *Pipeline) reschedule(ctx context.Context, log *slog.Logger, w reschedule.Workflow) {
	if err := p.deps.Scheduler.Reschedule(ctx, w); err != nil {
		log.Error("Reschedule failed", "workflow", w, "error", err)
	}
}
