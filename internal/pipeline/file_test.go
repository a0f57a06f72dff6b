package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"optijpeg/internal/encode"
	"optijpeg/internal/pipeline"
	"optijpeg/internal/services"
)

func writeSourceJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	defer file.Close()
	if err := encode.WriteIntermediate(file, colorImage(12, 9), defaultOptions()); err != nil {
		t.Fatalf("encode source: %v", err)
	}
	return path
}

func TestSaveFileWritesOptimizedOutput(t *testing.T) {
	stub := &stubOptimizer{}
	p, root := newPipeline(t, stub)

	dir := t.TempDir()
	input := writeSourceJPEG(t, dir, "source.jpg")
	output := filepath.Join(dir, "source.opt.jpg")

	result, err := p.SaveFile(context.Background(), input, output, defaultOptions())
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if result.State != pipeline.StateCleanedUp {
		t.Fatalf("State = %s, expected cleaned_up", result.State)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if int64(len(data)) != result.OptimizedBytes {
		t.Fatalf("output holds %d bytes, result reports %d", len(data), result.OptimizedBytes)
	}
	if _, format, err := image.Decode(bytes.NewReader(data)); err != nil || format != "jpeg" {
		t.Fatalf("output did not decode as jpeg: format %q err %v", format, err)
	}
	if dirs := sessionDirs(t, root); len(dirs) != 0 {
		t.Fatalf("staging sessions left behind: %v", dirs)
	}
}

func TestSaveFileOptimizesInPlace(t *testing.T) {
	stub := &stubOptimizer{}
	p, _ := newPipeline(t, stub)

	dir := t.TempDir()
	input := writeSourceJPEG(t, dir, "photo.jpg")

	result, err := p.SaveFile(context.Background(), input, input, defaultOptions())
	if err != nil {
		t.Fatalf("SaveFile in place: %v", err)
	}

	info, err := os.Stat(input)
	if err != nil {
		t.Fatalf("stat replaced file: %v", err)
	}
	if info.Size() != result.OptimizedBytes {
		t.Fatalf("replaced file holds %d bytes, result reports %d", info.Size(), result.OptimizedBytes)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the replaced file in %s, found %d entries", dir, len(entries))
	}
}

func TestSaveFileRejectsBlankPaths(t *testing.T) {
	stub := &stubOptimizer{}
	p, _ := newPipeline(t, stub)

	if _, err := p.SaveFile(context.Background(), "  ", "/tmp/out.jpg", defaultOptions()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank input, got %v", err)
	}
	if _, err := p.SaveFile(context.Background(), "/tmp/in.jpg", "", defaultOptions()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank output, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("optimizer ran %d times for invalid arguments", stub.calls)
	}
}

func TestSaveFileRejectsUnreadableSource(t *testing.T) {
	stub := &stubOptimizer{}
	p, _ := newPipeline(t, stub)

	missing := filepath.Join(t.TempDir(), "nope.jpg")
	if _, err := p.SaveFile(context.Background(), missing, missing+".out", defaultOptions()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing source, got %v", err)
	}

	garbage := filepath.Join(t.TempDir(), "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if _, err := p.SaveFile(context.Background(), garbage, garbage+".out", defaultOptions()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for undecodable source, got %v", err)
	}
}

func TestSaveFileKeepsExistingOutputOnFailure(t *testing.T) {
	runErr := services.Wrap(services.ErrRun, "optimize", "jpegtran", "exit status 2", errors.New("exit status 2"))
	stub := &stubOptimizer{err: runErr}
	p, _ := newPipeline(t, stub)

	dir := t.TempDir()
	input := writeSourceJPEG(t, dir, "source.jpg")
	output := filepath.Join(dir, "existing.jpg")
	if err := os.WriteFile(output, []byte("previous contents"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	if _, err := p.SaveFile(context.Background(), input, output, defaultOptions()); !errors.Is(err, services.ErrRun) {
		t.Fatalf("expected run error, got %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "previous contents" {
		t.Fatalf("failed run replaced the existing output: %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("temporary files left beside output: %d entries", len(entries))
	}
}

func TestSaveManyRunsAllItems(t *testing.T) {
	stub := &stubOptimizer{}
	p, root := newPipeline(t, stub)

	dir := t.TempDir()
	items := make([]pipeline.BatchItem, 0, 4)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		input := writeSourceJPEG(t, dir, name)
		items = append(items, pipeline.BatchItem{InputPath: input, OutputPath: input + ".opt"})
	}

	var observed int
	summary := p.SaveMany(context.Background(), items, defaultOptions(), 2, func(pipeline.BatchOutcome) {
		observed++
	})

	if summary.Completed != len(items) || summary.Failed != 0 {
		t.Fatalf("summary = %d completed %d failed, expected %d/0", summary.Completed, summary.Failed, len(items))
	}
	if observed != len(items) {
		t.Fatalf("observe ran %d times, expected %d", observed, len(items))
	}
	if len(summary.Outcomes) != len(items) {
		t.Fatalf("outcomes = %d, expected %d", len(summary.Outcomes), len(items))
	}
	if summary.StagedBytes <= 0 || summary.OptimizedBytes <= 0 {
		t.Fatalf("summary totals not accumulated: %+v", summary)
	}
	for _, item := range items {
		if _, err := os.Stat(item.OutputPath); err != nil {
			t.Errorf("missing output %s: %v", item.OutputPath, err)
		}
	}
	if dirs := sessionDirs(t, root); len(dirs) != 0 {
		t.Fatalf("staging sessions left behind: %v", dirs)
	}
}

func TestSaveManyReportsFailuresPerItem(t *testing.T) {
	stub := &stubOptimizer{}
	p, _ := newPipeline(t, stub)

	dir := t.TempDir()
	good := writeSourceJPEG(t, dir, "good.jpg")
	missing := filepath.Join(dir, "missing.jpg")

	items := []pipeline.BatchItem{
		{InputPath: good, OutputPath: good + ".opt"},
		{InputPath: missing, OutputPath: missing + ".opt"},
	}

	summary := p.SaveMany(context.Background(), items, defaultOptions(), 1, nil)
	if summary.Completed != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %d completed %d failed, expected 1/1", summary.Completed, summary.Failed)
	}

	var sawFailure bool
	for _, outcome := range summary.Outcomes {
		if outcome.Item.InputPath == missing {
			sawFailure = true
			if !errors.Is(outcome.Err, services.ErrValidation) {
				t.Fatalf("missing source should classify as validation, got %v", outcome.Err)
			}
		}
	}
	if !sawFailure {
		t.Fatal("failed item absent from outcomes")
	}
}

func TestSaveManyStopsOnCanceledContext(t *testing.T) {
	stub := &stubOptimizer{}
	p, _ := newPipeline(t, stub)

	dir := t.TempDir()
	input := writeSourceJPEG(t, dir, "a.jpg")
	items := []pipeline.BatchItem{
		{InputPath: input, OutputPath: input + ".opt"},
		{InputPath: input, OutputPath: input + ".opt2"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := p.SaveMany(ctx, items, defaultOptions(), 1, nil)
	if len(summary.Outcomes) != 0 {
		t.Fatalf("canceled run still produced %d outcomes", len(summary.Outcomes))
	}
	if summary.Completed != 0 || summary.Failed != 0 {
		t.Fatalf("canceled run counted work: %+v", summary)
	}
}

func TestBatchSummaryReductionPercent(t *testing.T) {
	summary := pipeline.BatchSummary{StagedBytes: 2000, OptimizedBytes: 1500}
	if got := summary.ReductionPercent(); got != 25 {
		t.Fatalf("ReductionPercent = %v, expected 25", got)
	}
	if got := (pipeline.BatchSummary{}).ReductionPercent(); got != 0 {
		t.Fatalf("empty summary reduction = %v, expected 0", got)
	}
}
