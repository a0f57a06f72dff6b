package history_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"optijpeg/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestOpenCreatesSchema(t *testing.T) {
	store := openStore(t)

	ctx := context.Background()
	record, err := store.Append(ctx, &history.Record{
		SessionID:  "session-1",
		SourcePath: "/photos/a.jpg",
		OutputPath: "/photos/a.min.jpg",
		Status:     history.StatusCompleted,
		BytesIn:    120_000,
		BytesOut:   90_000,
		Grayscale:  true,
		DurationMS: 310,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected record ID to be assigned")
	}
	if record.CreatedAt.IsZero() {
		t.Fatal("expected created timestamp to be stamped")
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourcePath != "/photos/a.jpg" {
		t.Fatalf("unexpected fetched record: %#v", fetched)
	}
	if !fetched.Grayscale {
		t.Fatal("expected grayscale flag to round-trip")
	}
	if fetched.Status != history.StatusCompleted {
		t.Fatalf("unexpected status %q", fetched.Status)
	}
}

func TestAppendRejectsUnknownStatus(t *testing.T) {
	store := openStore(t)

	if _, err := store.Append(context.Background(), &history.Record{Status: "exploded"}); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, &history.Record{
			SourcePath: fmt.Sprintf("/photos/%d.jpg", i),
			Status:     history.StatusCompleted,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].SourcePath != "/photos/4.jpg" {
		t.Fatalf("expected newest record first, got %q", records[0].SourcePath)
	}
	if records[2].SourcePath != "/photos/2.jpg" {
		t.Fatalf("unexpected record order: %q", records[2].SourcePath)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	seed := []history.Status{
		history.StatusCompleted,
		history.StatusFailed,
		history.StatusCompleted,
		history.StatusSkipped,
	}
	for i, status := range seed {
		_, err := store.Append(ctx, &history.Record{
			SourcePath: fmt.Sprintf("/photos/%d.jpg", i),
			Status:     status,
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	failed, err := store.List(ctx, 0, history.StatusFailed, history.StatusSkipped)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 filtered records, got %d", len(failed))
	}
	for _, record := range failed {
		if record.Status == history.StatusCompleted {
			t.Fatalf("completed record leaked into filter: %#v", record)
		}
	}
}

func TestStatsGroupsByStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, status := range []history.Status{
		history.StatusCompleted,
		history.StatusCompleted,
		history.StatusFailed,
	} {
		if _, err := store.Append(ctx, &history.Record{Status: status}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[history.StatusCompleted] != 2 || stats[history.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestClearRemovesAllRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Append(ctx, &history.Record{Status: history.StatusCompleted}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %d records", len(records))
	}
}

func TestParseStatus(t *testing.T) {
	status, err := history.ParseStatus(" Completed ")
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}
	if status != history.StatusCompleted {
		t.Fatalf("unexpected status %q", status)
	}
	if _, err := history.ParseStatus("pending"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSavedPercent(t *testing.T) {
	record := &history.Record{BytesIn: 200, BytesOut: 150}
	if got := record.SavedPercent(); got != 25 {
		t.Fatalf("SavedPercent = %v, expected 25", got)
	}
	empty := &history.Record{}
	if got := empty.SavedPercent(); got != 0 {
		t.Fatalf("SavedPercent with no input = %v, expected 0", got)
	}
}
