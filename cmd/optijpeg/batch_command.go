package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"optijpeg/internal/deps"
	"optijpeg/internal/fileutil"
	"optijpeg/internal/logging"
	"optijpeg/internal/pipeline"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var encFlags encodeFlags
	var jobsFlag int
	var inPlace bool
	var overwrite bool
	var backup bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "batch <input>...",
		Short: "Optimize many images concurrently",
		Long: `Batch optimizes every named image with a pool of workers. Arguments may
be plain paths, directories (scanned for image files), or shell-style
globs; each input gets its own staging session so concurrent runs never
collide.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := encFlags.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}

			if status := deps.CheckJpegtran(cfg.Jpegtran.Binary); !status.Available {
				return fmt.Errorf("jpegtran is not available: %s", status.Detail)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			jobs := cfg.Batch.Jobs
			if cmd.Flags().Changed("jobs") {
				jobs = jobsFlag
			}
			allowOverwrite := cfg.Batch.Overwrite
			if cmd.Flags().Changed("overwrite") {
				allowOverwrite = overwrite
			}

			items := make([]pipeline.BatchItem, 0, len(inputs))
			sourceSizes := make(map[string]int64, len(inputs))
			for _, input := range inputs {
				info, err := os.Stat(input)
				if err != nil {
					return fmt.Errorf("inspect %s: %w", input, err)
				}
				sourceSizes[input] = info.Size()

				output := input
				if !inPlace {
					output = defaultOutputPath(input)
					if _, err := os.Stat(output); err == nil && !allowOverwrite {
						return fmt.Errorf("output %s already exists (use --overwrite to replace it)", output)
					}
				}
				if backup {
					if _, err := os.Stat(output); err == nil {
						if err := fileutil.CopyFileVerified(output, backupPath(output)); err != nil {
							return fmt.Errorf("back up %s: %w", output, err)
						}
					}
				}
				items = append(items, pipeline.BatchItem{InputPath: input, OutputPath: output})
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			sweep := staleSweep(runCtx, cfg.Paths.StagingDir, cfg.Batch.StaleAgeHours, logger)
			out := cmd.OutOrStdout()
			if sweep > 0 && !ctx.JSONMode() {
				fmt.Fprintf(out, "Removed %d stale staging directories\n", sweep)
			}

			pipe, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			store, err := ctx.openHistory()
			if err != nil {
				logger.Warn("history unavailable", logging.Error(err))
			}
			if store != nil {
				defer store.Close()
			}

			// observe runs on the collector goroutine only, so these are safe
			// to mutate without locking.
			var done int
			verifyErrs := make(map[string]string)
			summary := pipe.SaveMany(runCtx, items, opts, jobs, func(outcome pipeline.BatchOutcome) {
				done++
				if outcome.Err == nil && verify {
					if vErr := verifyOutput(outcome.Item.OutputPath, opts); vErr != nil {
						outcome.Err = vErr
						verifyErrs[outcome.Item.InputPath] = vErr.Error()
					}
				}
				sourceBytes := sourceSizes[outcome.Item.InputPath]
				record := outcomeRecord(sourceBytes, outcome.Item.InputPath, outcome.Item.OutputPath, outcome.Result, outcome.Err)
				recordOutcome(cmd.Context(), store, logger, record)

				if ctx.JSONMode() {
					return
				}
				name := filepath.Base(outcome.Item.InputPath)
				if outcome.Err != nil {
					fmt.Fprintf(out, "[%d/%d] %s: %v\n", done, len(items), name, outcome.Err)
					return
				}
				fmt.Fprintf(out, "[%d/%d] %s: %s -> %s (saved %s)\n",
					done, len(items), name,
					logging.FormatBytes(sourceBytes),
					logging.FormatBytes(outcome.Result.OptimizedBytes),
					logging.FormatPercent(record.SavedPercent()),
				)
			})

			completed := summary.Completed - len(verifyErrs)
			failed := summary.Failed + len(verifyErrs)
			notAttempted := len(items) - len(summary.Outcomes)

			var sourceTotal, optimizedTotal int64
			for _, outcome := range summary.Outcomes {
				if outcome.Err != nil {
					continue
				}
				if _, bad := verifyErrs[outcome.Item.InputPath]; bad {
					continue
				}
				sourceTotal += sourceSizes[outcome.Item.InputPath]
				optimizedTotal += outcome.Result.OptimizedBytes
			}
			savedPercent := 0.0
			if sourceTotal > 0 {
				savedPercent = 100 * (1 - float64(optimizedTotal)/float64(sourceTotal))
			}

			if ctx.JSONMode() {
				results := make([]map[string]any, 0, len(summary.Outcomes))
				for _, outcome := range summary.Outcomes {
					entry := map[string]any{
						"input":           outcome.Item.InputPath,
						"output":          outcome.Item.OutputPath,
						"session_id":      outcome.Result.SessionID,
						"source_bytes":    sourceSizes[outcome.Item.InputPath],
						"optimized_bytes": outcome.Result.OptimizedBytes,
						"grayscale":       outcome.Result.Grayscale,
						"elapsed_ms":      outcome.Result.Elapsed.Milliseconds(),
					}
					if outcome.Err != nil {
						entry["error"] = outcome.Err.Error()
					} else if message, bad := verifyErrs[outcome.Item.InputPath]; bad {
						entry["error"] = message
					}
					results = append(results, entry)
				}
				if err := writeJSON(cmd, map[string]any{
					"completed":       completed,
					"failed":          failed,
					"not_attempted":   notAttempted,
					"source_bytes":    sourceTotal,
					"optimized_bytes": optimizedTotal,
					"saved_percent":   savedPercent,
					"elapsed_ms":      summary.Elapsed.Milliseconds(),
					"results":         results,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"Files", "Source", "Optimized", "Saved", "Elapsed"},
					[][]string{{
						fmt.Sprintf("%d/%d", completed, len(items)),
						logging.FormatBytes(sourceTotal),
						logging.FormatBytes(optimizedTotal),
						logging.FormatPercent(savedPercent),
						summary.Elapsed.Round(time.Millisecond).String(),
					}},
					1, 2, 3, 4,
				))
				if notAttempted > 0 {
					fmt.Fprintf(out, "%d files were not attempted (run interrupted)\n", notAttempted)
				}
			}

			if err := runCtx.Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(items))
			}
			return nil
		},
	}

	encFlags.register(cmd)
	cmd.Flags().IntVarP(&jobsFlag, "jobs", "j", 1, "Number of concurrent workers")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Replace each source file with its optimized result")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace destinations that already exist")
	cmd.Flags().BoolVar(&backup, "backup", false, "Keep a verified .bak copy of each replaced file")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-walk each optimized bitstream and check it matches the options")

	return cmd
}
