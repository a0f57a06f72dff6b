package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"optijpeg/internal/logging"
	"optijpeg/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean staging sessions",
	}
	cmd.AddCommand(newStagingListCommand(ctx))
	cmd.AddCommand(newStagingCleanCommand(ctx))
	return cmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging session directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			var total int64
			for _, dir := range dirs {
				total += dir.Size
			}

			if ctx.JSONMode() {
				sessions := make([]map[string]any, 0, len(dirs))
				for _, dir := range dirs {
					sessions = append(sessions, map[string]any{
						"session":    dir.Name,
						"path":       dir.Path,
						"modified":   dir.ModTime.Format(time.RFC3339),
						"size_bytes": dir.Size,
					})
				}
				return writeJSON(cmd, map[string]any{
					"root":        cfg.Paths.StagingDir,
					"sessions":    sessions,
					"total_bytes": total,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging sessions found")
				return nil
			}

			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{
					dir.Name,
					formatAge(time.Since(dir.ModTime)),
					logging.FormatBytes(dir.Size),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Session", "Age", "Size"}, rows, 2))

			noun := "sessions"
			if len(dirs) == 1 {
				noun = "session"
			}
			fmt.Fprintf(out, "%d %s, %s total\n", len(dirs), noun, logging.FormatBytes(total))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAgeHours int
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale staging sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			hours := cfg.Batch.StaleAgeHours
			if cmd.Flags().Changed("max-age") {
				hours = maxAgeHours
			}
			if all {
				hours = 0
			}

			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, time.Duration(hours)*time.Hour, logger)

			if ctx.JSONMode() {
				removed := result.Removed
				if removed == nil {
					removed = []string{}
				}
				errs := make([]map[string]any, 0, len(result.Errors))
				for _, cleanupErr := range result.Errors {
					errs = append(errs, map[string]any{
						"path":  cleanupErr.Path,
						"error": cleanupErr.Error.Error(),
					})
				}
				if err := writeJSON(cmd, map[string]any{
					"removed": removed,
					"skipped": result.Skipped,
					"errors":  errs,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if result.Skipped {
					fmt.Fprintln(out, "Another cleanup is already running; nothing removed")
					return nil
				}
				fmt.Fprintf(out, "Removed %d staging directories\n", len(result.Removed))
				for _, cleanupErr := range result.Errors {
					fmt.Fprintf(out, "  failed: %s: %v\n", cleanupErr.Path, cleanupErr.Error)
				}
			}

			if len(result.Errors) > 0 {
				return fmt.Errorf("%d staging directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeHours, "max-age", 0, "Remove sessions older than this many hours (defaults to the configured stale age)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every session regardless of age")

	return cmd
}

// staleSweep clears leftover session directories from crashed runs before new
// work is queued. A sweep already running in another process is fine; that
// sweep will clear them instead.
func staleSweep(ctx context.Context, stagingRoot string, staleHours int, logger *slog.Logger) int {
	maxAge := time.Duration(staleHours) * time.Hour
	result := staging.CleanStale(ctx, stagingRoot, maxAge, logger)
	return len(result.Removed)
}
