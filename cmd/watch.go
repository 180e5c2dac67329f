// =============================================================================
// Vision Connector - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which runs the import pass of
// 'process' on a fixed interval until it is interrupted.
//
// COMMAND USAGE:
//   visionctl watch [--interval 5m]
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/schedule"
)

// interval overrides ingest.interval when set.
var interval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import expense export files on a schedule",
	Long: `The watch command imports the files found in the input directory, waits
for the configured interval and starts over. A failed file does not stop the
loop; it stays in the input directory and is retried on the next pass.

Stop it with Ctrl-C or SIGTERM. The pass in progress is finished first.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(
		&interval,
		"interval",
		0,
		"Pause between passes (default is ingest.interval)",
	)
}

func runWatch(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Trace(err)
	}
	conv, err := newConverter(cfg, false)
	if err != nil {
		return errors.Trace(err)
	}
	every := cfg.Ingest.Interval
	if interval > 0 {
		every = interval
	}

	pterm.Info.Printfln("Watching %s every %s", cfg.Ingest.InputDir, every)
	err = schedule.Every(ctx, clock.WallClock, every, func(ctx context.Context) error {
		// The pass runs to completion so a file is never left half imported.
		summary, err := conv.Run(context.WithoutCancel(ctx))
		if summary.TotalFiles > 0 {
			printSummary(summary)
		}
		if err != nil {
			logger.Errorf("import pass: %v", err)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		pterm.Info.Println("Stopped.")
		return nil
	}
	return errors.Trace(err)
}
