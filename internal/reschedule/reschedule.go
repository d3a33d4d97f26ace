// Package reschedule decides when and how the next poll cycle is triggered.
//
// A poll cycle never loops on its own. After it finishes it optionally
// sleeps for the wait interval and then fires a workflow dispatch, which
// starts the next cycle on the CI runner. There are two workflows: the
// first-run one re-seeds a snapshot from scratch, the steady-state one diffs
// against the stored snapshot.
package reschedule

import (
	"context"
	"log/slog"
	"time"
)

// Default workflow IDs for the passport appointment repository.
const (
	DefaultFirstRunWorkflowID = "28968845"
	DefaultSteadyWorkflowID   = "32513748"
	DefaultInterval           = 10 * time.Minute
)

// Workflow selects which follow-up workflow to dispatch.
type Workflow int

const (
	Steady Workflow = iota
	FirstRun
)

func (w Workflow) String() string {
	if w == FirstRun {
		return "first-run"
	}
	return "steady"
}

// Dispatcher fires a workflow by ID.
type Dispatcher interface {
	DispatchWorkflow(ctx context.Context, workflowID string) error
}

// Options configures a Scheduler.
type Options struct {
	Interval           time.Duration
	Enabled            bool
	FirstRunWorkflowID string
	SteadyWorkflowID   string
}

// Scheduler makes the single-shot wait and reschedule decisions for one cycle.
type Scheduler struct {
	opts       Options
	dispatcher Dispatcher
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a scheduler. dispatcher may be nil when triggering is disabled.
func New(opts Options, dispatcher Dispatcher, logger *slog.Logger) *Scheduler {
	if opts.FirstRunWorkflowID == "" {
		opts.FirstRunWorkflowID = DefaultFirstRunWorkflowID
	}
	if opts.SteadyWorkflowID == "" {
		opts.SteadyWorkflowID = DefaultSteadyWorkflowID
	}
	return &Scheduler{
		opts:       opts,
		dispatcher: dispatcher,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks for the configured interval or until ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.logger.Info("Waiting before next cycle", "interval", s.opts.Interval)
	return s.sleep(ctx, s.opts.Interval)
}

// ForFetchFailure picks the workflow to re-run after a failed fetch: a
// failed first run is retried as a first run.
func (s *Scheduler) ForFetchFailure(first bool) Workflow {
	if first {
		return FirstRun
	}
	return Steady
}

// WorkflowID maps w to its configured ID.
func (s *Scheduler) WorkflowID(w Workflow) string {
	if w == FirstRun {
		return s.opts.FirstRunWorkflowID
	}
	return s.opts.SteadyWorkflowID
}

// Reschedule dispatches w. It does nothing when triggering is disabled.
func (s *Scheduler) Reschedule(ctx context.Context, w Workflow) error {
	id := s.WorkflowID(w)
	if !s.opts.Enabled || s.dispatcher == nil {
		s.logger.Info("Reschedule skipped (triggering disabled)", "workflow", w, "workflow_id", id)
		return nil
	}
	if err := s.dispatcher.DispatchWorkflow(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Next cycle dispatched", "workflow", w, "workflow_id", id)
	return nil
}
