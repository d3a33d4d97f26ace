// Command apptwatch polls the passport appointment page and announces bulk
// increases in availability.
//
// Usage:
//
//	apptwatch poll              # steady-state cycle
//	apptwatch poll --first      # first cycle after an outage
//	apptwatch poll True         # same as --first
//	apptwatch outage            # announce "no appointments", once per day;
//	                            # run by a separate scheduled job, never by poll
//	apptwatch show --totals     # print the stored snapshot
//	apptwatch migrate           # create sqlite/postgres tables
//	apptwatch prune             # drop history older than HISTORY_RETENTION_DAYS
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/apptwatch/apptwatch/internal/backend"
	"github.com/apptwatch/apptwatch/internal/config"
	"github.com/apptwatch/apptwatch/internal/external"
	"github.com/apptwatch/apptwatch/internal/maintenance"
	"github.com/apptwatch/apptwatch/internal/notifications"
	"github.com/apptwatch/apptwatch/internal/pipeline"
	"github.com/apptwatch/apptwatch/internal/provider/passport"
	"github.com/apptwatch/apptwatch/internal/render"
	"github.com/apptwatch/apptwatch/internal/reschedule"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "apptwatch",
		Short:        "Passport appointment availability watcher",
		SilenceUsage: true,
	}

	root.AddCommand(pollCmd())
	root.AddCommand(outageCmd())
	root.AddCommand(showCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(pruneCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// poll command
// --------------------------------------------------------------------------

func pollCmd() *cobra.Command {
	var first bool
	cmd := &cobra.Command{
		Use:   "poll [first]",
		Short: "Run one polling cycle",
		Long: "Run one polling cycle: probe the booking page, fetch the table, diff it against\n" +
			"the stored snapshot, announce bulk increases and dispatch the next cycle.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v, err := strconv.ParseBool(args[0])
				if err != nil {
					return fmt.Errorf("first flag %q: %w", args[0], err)
				}
				first = first || v
			}
			return run(func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				p := newPipeline(cfg, b)
				start := time.Now()
				res, err := p.Run(ctx, first)
				if err != nil {
					logCycleError(res, err)
					return err
				}
				logger.Info("Cycle finished",
					"cycle_id", res.CycleID,
					"outcome", res.Outcome,
					"bulk", res.Bulk,
					"duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&first, "first", false, "First cycle after an outage: skip the diff and announce availability")
	return cmd
}

func logCycleError(res pipeline.Result, err error) {
	kind := "unexpected"
	switch {
	case errors.Is(err, pipeline.ErrFetch):
		kind = "fetch"
	case errors.Is(err, pipeline.ErrEmptyResult):
		kind = "empty"
	case errors.Is(err, pipeline.ErrPersist):
		kind = "persist"
	case errors.Is(err, pipeline.ErrRemoteRead):
		kind = "remote_read"
	}
	logger.Error("Cycle failed", "cycle_id", res.CycleID, "kind", kind, "error", err)
}

// --------------------------------------------------------------------------
// outage command
// --------------------------------------------------------------------------

func outageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outage",
		Short: "Announce that no appointments are bookable (at most once per day)",
		Long: "Announce that the service is up but nothing is bookable, then record the\n" +
			"day in the no-appointments marker so later runs that day stay quiet.\n\n" +
			"poll never calls this. Run it from a separate scheduled workflow that\n" +
			"checks the booking page while the poll chain is idle, e.g. an hourly job\n" +
			"that runs `apptwatch outage` when `poll` reports the service unavailable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				sent, err := newPipeline(cfg, b).ReportOutage(ctx)
				if err != nil {
					return err
				}
				logger.Info("Outage report finished", "sent", sent)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// show command
// --------------------------------------------------------------------------

func showCmd() *cobra.Command {
	var totals bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored snapshot and outage marker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				snap, err := b.Store.Previous(ctx, cfg.Service)
				if err != nil {
					return fmt.Errorf("read snapshot: %w", err)
				}
				out := cmd.OutOrStdout()
				if totals {
					render.WriteConsole(out, snap)
				} else {
					t := render.SnapshotTable(snap)
					t.SetOutputMirror(out)
					t.Render()
				}

				if m, err := b.Store.OutageMarker(ctx, cfg.Service); err == nil {
					fmt.Fprintf(out, "no-appointments marker: %s %t\n", m.Date, m.NoAppointments)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&totals, "totals", false, "Print per-office totals only")
	return cmd
}

// --------------------------------------------------------------------------
// migrate / prune commands
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the sqlite or postgres tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a database backend applies its schema.
			return run(func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				switch cfg.StoreBackend {
				case config.StoreSQLite, config.StorePostgres:
					logger.Info("Schema up to date", "backend", cfg.StoreBackend)
					return nil
				default:
					return fmt.Errorf("store backend %q has no schema to migrate", cfg.StoreBackend)
				}
			})
		},
	}
}

func pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop accumulated history older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, b *backend.Backend) error {
				pruner := b.Pruner()
				if pruner == nil {
					return fmt.Errorf("store backend %q does not support pruning", cfg.StoreBackend)
				}
				n, err := maintenance.Prune(ctx, pruner, cfg.HistoryRetention, time.Now(), logger)
				if err != nil {
					return err
				}
				logger.Info("Prune finished", "rows", n)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Wiring
// --------------------------------------------------------------------------

func newPipeline(cfg *config.Config, b *backend.Backend) *pipeline.Pipeline {
	source := passport.NewClient(passport.Options{
		URL:               cfg.SourceURL,
		UnavailableMarker: cfg.UnavailableMarker,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.HTTPTimeout,
		ProxyURL:          proxyURL(cfg),
		CloudflareBypass:  cfg.CloudflareBypass,
		Logger:            logger,
	})

	var poster notifications.Poster
	if cfg.TwitterBearerToken != "" {
		poster = external.NewTwitterService(cfg.TwitterBearerToken)
	}
	var alerter notifications.Alerter
	if a := notifications.NewEmailAlerter(notifications.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.AlertFrom,
		To:       cfg.AlertTo,
	}, logger); a != nil {
		alerter = a
	}

	var dispatcher reschedule.Dispatcher
	if cfg.TriggerEnabled {
		dispatcher = backend.GitHub(cfg)
	}
	scheduler := reschedule.New(reschedule.Options{
		Interval:           cfg.WaitInterval,
		Enabled:            cfg.TriggerEnabled,
		FirstRunWorkflowID: cfg.FirstRunWorkflowID,
		SteadyWorkflowID:   cfg.SteadyWorkflowID,
	}, dispatcher, logger)

	var artifact pipeline.Artifact
	if cfg.ArtifactPath != "" {
		artifact = render.NewArtifact(cfg.ArtifactPath)
	}

	return pipeline.New(
		pipeline.Config{
			Service:       cfg.Service,
			NotifyEnabled: cfg.NotifyEnabled,
			Console:       os.Stdout,
		},
		pipeline.Deps{
			Source:    source,
			Store:     b.Store,
			Notifier:  notifications.NewDispatcher(poster, alerter, logger),
			Scheduler: scheduler,
			Artifact:  artifact,
		},
		logger,
	)
}

func proxyURL(cfg *config.Config) string {
	if !cfg.UseProxy {
		return ""
	}
	return cfg.ProxyURL
}

// run is the shared helper: loads config, opens the store, handles signals.
func run(fn func(ctx context.Context, cfg *config.Config, b *backend.Backend) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(ctx, cfg, b)
}
