package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"sourcescan/internal/config"
	"sourcescan/internal/history"
	"sourcescan/internal/results"
	"sourcescan/internal/scan"
	"sourcescan/internal/scanapi"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		outFlag      string
		nameFlag     string
		intervalFlag float64
		timeoutFlag  float64
	)

	cmd := &cobra.Command{
		Use:   "run <input.csv>",
		Short: "Upload a CSV, wait for the scan to finish, and save results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("interval") {
				cfg.Polling.Interval = intervalFlag
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Polling.Timeout = timeoutFlag
			}
			if nameFlag != "" {
				payload, err := scan.OverridePayloadName(cfg.Scan.PayloadTemplate, nameFlag)
				if err != nil {
					return err
				}
				cfg.Scan.PayloadTemplate = payload
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			inputPath, err := resolveInputPath(cfg, args[0])
			if err != nil {
				return err
			}
			outPath := resolveOutputPath(cfg, outFlag)

			return runScan(cmd, cfg, logger, inputPath, outPath)
		},
	}

	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file (relative paths land in the data directory)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Scan name override for the creation payload")
	cmd.Flags().Float64Var(&intervalFlag, "interval", 0, "Seconds between status checks")
	cmd.Flags().Float64Var(&timeoutFlag, "timeout", 0, "Polling deadline in seconds (0 checks exactly once)")
	return cmd
}

func runScan(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, inputPath, outPath string) error {
	// One run at a time per data directory. A concurrent local run is
	// the same condition as the service's in-progress rejection.
	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "sourcescan.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: another run holds %s", scanapi.ErrScanInProgress, lock.Path())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release run lock", "error", err)
		}
	}()

	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID, err := store.StartRun(runCtx, inputPath, outPath)
	if err != nil {
		return err
	}

	client, err := scan.New(cfg, logger)
	if err != nil {
		return err
	}

	outcome, err := client.Run(runCtx, inputPath)
	if err != nil {
		recordFailure(store, logger, runID, err)
		return err
	}

	if err := store.SetIdentifiers(runCtx, runID, outcome.UploadID, outcome.ScanID); err != nil {
		logger.Warn("record scan identifiers", "error", err)
	}

	if err := results.Write(outcome.Result.ContentType, outcome.Result.Body, outPath); err != nil {
		recordFailure(store, logger, runID, err)
		return err
	}
	logger.Info("results saved", "scan_id", outcome.ScanID, "output", outPath)

	if err := store.Complete(context.Background(), runID); err != nil {
		logger.Warn("record run completion", "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scan %s finished with status %s\n", outcome.ScanID, titleStatus(outcome.FinalStatus))
	fmt.Fprintf(out, "Results saved to %s\n", outPath)
	return nil
}

// recordFailure marks the run failed using a fresh context; the run
// context may already be canceled.
func recordFailure(store *history.Store, logger *slog.Logger, runID int64, cause error) {
	if err := store.Fail(context.Background(), runID, cause.Error()); err != nil {
		logger.Warn("record run failure", "error", err)
	}
}

// resolveInputPath places bare filenames in the data directory, leaving
// anything with a directory component alone.
func resolveInputPath(cfg *config.Config, arg string) (string, error) {
	path := arg
	if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
		path = filepath.Join(cfg.Paths.DataDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("input file: %w", err)
	}
	return path, nil
}

// resolveOutputPath defaults to scan_results.csv in the data directory
// and resolves relative outputs against it.
func resolveOutputPath(cfg *config.Config, arg string) string {
	if arg == "" {
		return filepath.Join(cfg.Paths.DataDir, "scan_results.csv")
	}
	if filepath.IsAbs(arg) {
		return arg
	}
	return filepath.Join(cfg.Paths.DataDir, arg)
}
