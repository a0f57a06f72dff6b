package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"optijpeg/internal/document"
	"optijpeg/internal/history"
	"optijpeg/internal/logging"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the optimization history ledger",
	}
	cmd.AddCommand(newHistoryListCommand(ctx))
	cmd.AddCommand(newHistoryStatsCommand(ctx))
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded optimization runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return printHistoryDisabled(cmd, ctx)
			}
			defer store.Close()

			statuses := make([]history.Status, 0, len(statusFlags))
			for _, raw := range statusFlags {
				status, err := history.ParseStatus(raw)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}

			records, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			if ctx.JSONMode() {
				entries := make([]map[string]any, 0, len(records))
				for _, record := range records {
					entries = append(entries, historyRecordJSON(record))
				}
				return writeJSON(cmd, map[string]any{"records": entries})
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No optimization history recorded")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				saved := "-"
				if record.Status == history.StatusCompleted {
					saved = logging.FormatPercent(record.SavedPercent())
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", record.ID),
					document.DisplayTitle(record.SourcePath),
					string(record.Status),
					saved,
					record.CreatedAt.Format(time.RFC3339),
					shortSession(record.SessionID),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Status", "Saved", "Created", "Session"}, rows, 0, 3))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Only show records with this status (repeatable)")

	return cmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded runs by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return printHistoryDisabled(cmd, ctx)
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read history stats: %w", err)
			}

			statuses := make([]string, 0, len(stats))
			total := 0
			for status, count := range stats {
				statuses = append(statuses, string(status))
				total += count
			}
			sort.Strings(statuses)

			if ctx.JSONMode() {
				counts := make(map[string]int, len(stats))
				for status, count := range stats {
					counts[string(status)] = count
				}
				return writeJSON(cmd, map[string]any{"total": total, "by_status": counts})
			}

			out := cmd.OutOrStdout()
			if total == 0 {
				fmt.Fprintln(out, "No optimization history recorded")
				return nil
			}

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{status, fmt.Sprintf("%d", stats[history.Status(status)])})
			}
			fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, 1))
			fmt.Fprintf(out, "%d records total\n", total)
			return nil
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				return printHistoryDisabled(cmd, ctx)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear history: %w", err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d history records\n", removed)
			return nil
		},
	}
}

func printHistoryDisabled(cmd *cobra.Command, ctx *commandContext) error {
	if ctx.JSONMode() {
		return writeJSON(cmd, map[string]any{"enabled": false})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History is disabled in the configuration")
	return nil
}

func historyRecordJSON(record *history.Record) map[string]any {
	entry := map[string]any{
		"id":          record.ID,
		"session_id":  record.SessionID,
		"source":      record.SourcePath,
		"output":      record.OutputPath,
		"status":      string(record.Status),
		"bytes_in":    record.BytesIn,
		"bytes_out":   record.BytesOut,
		"grayscale":   record.Grayscale,
		"duration_ms": record.DurationMS,
		"created_at":  record.CreatedAt.Format(time.RFC3339),
	}
	if record.Status == history.StatusCompleted {
		entry["saved_percent"] = record.SavedPercent()
	}
	if record.ErrorMessage != "" {
		entry["error"] = record.ErrorMessage
	}
	return entry
}
