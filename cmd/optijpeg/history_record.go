package main

import (
	"context"
	"log/slog"

	"optijpeg/internal/history"
	"optijpeg/internal/logging"
	"optijpeg/internal/pipeline"
	"optijpeg/internal/services"
)

// outcomeRecord converts one optimization run into a history row. Failed runs
// keep their session and timing but report zero delivered bytes.
func outcomeRecord(sourceBytes int64, input, output string, result pipeline.Result, err error) *history.Record {
	record := &history.Record{
		SessionID:  result.SessionID,
		SourcePath: input,
		OutputPath: output,
		Status:     history.StatusCompleted,
		BytesIn:    sourceBytes,
		BytesOut:   result.OptimizedBytes,
		Grayscale:  result.Grayscale,
		DurationMS: result.Elapsed.Milliseconds(),
	}
	if err != nil {
		record.Status = services.FailureStatus(err)
		record.ErrorMessage = err.Error()
		record.BytesOut = 0
	}
	return record
}

// recordOutcome appends a run to the history store when one is open. Append
// failures are logged rather than returned so a broken ledger cannot fail an
// otherwise successful optimization.
func recordOutcome(ctx context.Context, store *history.Store, logger *slog.Logger, record *history.Record) {
	if store == nil || record == nil {
		return
	}
	if _, err := store.Append(ctx, record); err != nil && logger != nil {
		logger.Warn("failed to record history entry", logging.Error(err))
	}
}
