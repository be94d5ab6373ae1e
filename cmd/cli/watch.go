package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/netscan/internal/config"
	"github.com/anstrom/netscan/internal/errors"
	"github.com/anstrom/netscan/internal/logging"
	"github.com/anstrom/netscan/internal/scheduler"
)

var (
	watchOpts      scanOptions
	watchImmediate bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan a target on a cron schedule",
	Long: `Run the same scan repeatedly on a schedule until interrupted.

The schedule is a standard five field cron expression or a descriptor such as
"@every 30m" or "@hourly". A run is skipped while the previous one is still
in progress. Combine with --metrics-file to feed a node exporter textfile
collector.`,
	Example: `  netscan watch -a 192.168.1.0/24 -p 22,80,443 --schedule "*/15 * * * *"
  netscan watch -a 10.0.0.5 --schedule "@every 5m" --metrics-file /var/lib/node_exporter/netscan.prom`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(viper.GetViper(), cmd.Flags(), scanFlagKeys)
		bindFlags(viper.GetViper(), cmd.Flags(), map[string]string{"schedule": "watch.schedule"})
	},
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addScanFlags(watchCmd, &watchOpts)

	watchCmd.Flags().String("schedule", config.Default().Watch.Schedule, "Cron schedule for repeated scans")
	watchCmd.Flags().BoolVar(&watchImmediate, "now", true, "Run the first scan immediately")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveSettings(cmd.ErrOrStderr(), watchOpts)
	if err != nil {
		return err
	}
	return executeWatch(ctx, cfg, watchOpts, watchImmediate, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// executeWatch runs the scan on cfg.Watch.Schedule until ctx is done.
func executeWatch(
	ctx context.Context, cfg *config.Config, opts scanOptions, immediate bool, stdout, stderr io.Writer,
) error {
	if _, err := cron.ParseStandard(cfg.Watch.Schedule); err != nil {
		return inputFailure(stderr, errors.ErrConfigInvalid("watch.schedule", cfg.Watch.Schedule))
	}

	job, err := prepareScan(cfg, opts, stdout, stderr)
	if err != nil {
		return err
	}
	if cfg.Output.Banner {
		job.printer.Banner()
	}

	logger := logging.Default().WithComponent("watch").WithTarget(opts.target)
	sched := scheduler.NewScheduler(logger)

	id, err := sched.AddJob("scan "+opts.target, cfg.Watch.Schedule, func(ctx context.Context) error {
		return job.run(ctx, cfg, stderr)
	})
	if err != nil {
		return inputFailure(stderr, errors.ErrConfigInvalid("watch.schedule", cfg.Watch.Schedule))
	}
	if err := sched.Start(); err != nil {
		return failure(stderr, err)
	}
	if immediate {
		go func() { _, _ = sched.RunNow(id) }()
	}
	logger.Info("Watching target", "schedule", cfg.Watch.Schedule, "next_run", sched.GetJobs()[0].NextRun)

	<-ctx.Done()
	sched.Stop()

	for _, j := range sched.GetJobs() {
		l := logger
		if j.LastError != nil {
			l = l.WithError(j.LastError)
		}
		l.Info("Watch stopped", "runs", j.Runs, "skipped", j.Skipped)
	}
	return nil
}
