package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"optijpeg/internal/document"
	"optijpeg/internal/encode"
	"optijpeg/internal/fileutil"
	"optijpeg/internal/logging"
	"optijpeg/internal/services/jpegtran"
)

func newOptimizeCommand(ctx *commandContext) *cobra.Command {
	var encFlags encodeFlags
	var outputFlag string
	var inPlace bool
	var overwrite bool
	var backup bool
	var dryRun bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "optimize <input>",
		Short: "Optimize one image into a fresh JPEG",
		Long: `Optimize re-encodes the source image into a staged JPEG, runs jpegtran
over it, and writes the optimized bitstream to the destination atomically.
PNG and GIF sources are converted; JPEG sources are re-encoded at the
configured quality before optimization.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPlace && strings.TrimSpace(outputFlag) != "" {
				return errors.New("specify only one of --output or --in-place")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := encFlags.resolve(cmd, cfg)
			if err != nil {
				return err
			}

			input, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			sourceInfo, err := os.Stat(input)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", input)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if sourceInfo.IsDir() {
				return fmt.Errorf("%s is a directory", input)
			}

			output := input
			if !inPlace {
				output = strings.TrimSpace(outputFlag)
				if output == "" {
					output = defaultOutputPath(input)
				}
				if output, err = filepath.Abs(output); err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
			}

			if dryRun {
				return printDryRun(cmd, ctx, cfg.Jpegtran.Binary, input, output, opts)
			}

			if _, err := os.Stat(output); err == nil {
				if !inPlace && !overwrite {
					return fmt.Errorf("output %s already exists (use --overwrite to replace it)", output)
				}
				if backup {
					if err := fileutil.CopyFileVerified(output, backupPath(output)); err != nil {
						return fmt.Errorf("back up %s: %w", output, err)
					}
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check output path: %w", err)
			}

			pipe, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
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

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, saveErr := pipe.SaveFile(runCtx, input, output, opts)
			if saveErr == nil && verify {
				saveErr = verifyOutput(output, opts)
			}

			outcome := outcomeRecord(sourceInfo.Size(), input, output, result, saveErr)
			recordOutcome(cmd.Context(), store, logger, outcome)

			if saveErr != nil {
				return saveErr
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"input":           input,
					"output":          output,
					"session_id":      result.SessionID,
					"source_bytes":    sourceInfo.Size(),
					"staged_bytes":    result.StagedBytes,
					"optimized_bytes": result.OptimizedBytes,
					"saved_percent":   outcome.SavedPercent(),
					"grayscale":       result.Grayscale,
					"elapsed_ms":      result.Elapsed.Milliseconds(),
					"state":           result.State.String(),
				})
			}

			out := cmd.OutOrStdout()
			if inPlace {
				fmt.Fprintf(out, "Optimized %s in place\n", filepath.Base(input))
			} else {
				fmt.Fprintf(out, "Optimized %s -> %s\n", filepath.Base(input), filepath.Base(output))
			}
			fmt.Fprintf(out, "  %s -> %s (saved %s)\n",
				logging.FormatBytes(sourceInfo.Size()),
				logging.FormatBytes(result.OptimizedBytes),
				logging.FormatPercent(outcome.SavedPercent()),
			)
			if result.Grayscale {
				fmt.Fprintln(out, "  Encoded as grayscale (every source pixel is neutral)")
			}
			return nil
		},
	}

	encFlags.register(cmd)
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination path (defaults to <input>.opt.jpg)")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Replace the source file with the optimized result")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the destination if it already exists")
	cmd.Flags().BoolVar(&backup, "backup", false, "Keep a verified .bak copy of a replaced file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the optimizer invocation without running it")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-walk the optimized bitstream and check it matches the options")

	return cmd
}

// printDryRun reports the jpegtran argument vector the run would use. The
// source is still decoded because the grayscale flag depends on its pixels.
func printDryRun(cmd *cobra.Command, ctx *commandContext, binary, input, output string, opts encode.Options) error {
	doc, err := document.LoadFile(input)
	if err != nil {
		return err
	}
	grayscale := encode.IsGrayscale(doc.RGBA())
	args := jpegtran.BuildArgs(opts, grayscale, input, output)

	if ctx.JSONMode() {
		return writeJSON(cmd, map[string]any{
			"binary":    binary,
			"args":      args,
			"grayscale": grayscale,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Would run: %s %s\n", binary, strings.Join(args, " "))
	return nil
}
