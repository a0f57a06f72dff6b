package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOptimizeCreatesOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)

	out, _, err := runCLI(t, env.configPath, "optimize", source)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	requireContains(t, out, "Optimized photo.jpg -> photo.opt.jpg")
	requireContains(t, out, "saved")

	output := filepath.Join(env.baseDir, "photo.opt.jpg")
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Fatalf("output does not start with a JPEG SOI marker")
	}

	lines := readArgsLog(t, env)
	if len(lines) != 1 {
		t.Fatalf("expected one optimizer invocation, got %d", len(lines))
	}
	requireContains(t, lines[0], "-copy comments -optimize -outfile")
	requireNotContains(t, lines[0], "-progressive")
	requireNotContains(t, lines[0], "-grayscale")
	if !strings.HasSuffix(lines[0], "/source.jpg") {
		t.Fatalf("expected invocation to end with the staged input, got %q", lines[0])
	}
	requireContains(t, lines[0], "optimized.jpg")

	if leftovers := stagingLeftovers(t, env); len(leftovers) != 0 {
		t.Fatalf("staging directories left behind: %v", leftovers)
	}
}

func TestOptimizeJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)

	out, _, err := runCLI(t, env.configPath, "--json", "optimize", source)
	if err != nil {
		t.Fatalf("optimize --json: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("parse JSON output: %v\n%s", err, out)
	}
	if payload["state"] != "cleaned_up" {
		t.Fatalf("expected state cleaned_up, got %v", payload["state"])
	}
	if payload["session_id"] == "" || payload["session_id"] == nil {
		t.Fatalf("expected a session id, got %v", payload["session_id"])
	}
	if _, ok := payload["optimized_bytes"]; !ok {
		t.Fatalf("expected optimized_bytes in payload: %v", payload)
	}
}

func TestOptimizeDryRunPrintsInvocation(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)

	out, _, err := runCLI(t, env.configPath, "optimize", "--dry-run", source)
	if err != nil {
		t.Fatalf("optimize --dry-run: %v", err)
	}
	requireContains(t, out, "Would run: "+env.binaryPath)
	requireContains(t, out, "-copy comments -optimize -outfile")
	requireNotContains(t, out, "-progressive")
	requireNotContains(t, out, "-grayscale")

	if _, err := os.Stat(filepath.Join(env.baseDir, "photo.opt.jpg")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create output, stat err: %v", err)
	}
	if lines := readArgsLog(t, env); len(lines) != 0 {
		t.Fatalf("dry run must not invoke the optimizer, got %v", lines)
	}
}

func TestOptimizeDryRunFlagOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)

	out, _, err := runCLI(t, env.configPath, "optimize", "--dry-run", "--progressive", "--copy", "none", source)
	if err != nil {
		t.Fatalf("optimize --dry-run: %v", err)
	}
	requireContains(t, out, "-copy none")
	requireContains(t, out, "-progressive")
}

func TestOptimizeDryRunDetectsGrayscale(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "mono.png")
	writeGrayTestPNG(t, source)

	out, _, err := runCLI(t, env.configPath, "optimize", "--dry-run", source)
	if err != nil {
		t.Fatalf("optimize --dry-run: %v", err)
	}
	requireContains(t, out, "-grayscale")
}

func TestOptimizeRefusesExistingOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)
	output := filepath.Join(env.baseDir, "photo.opt.jpg")
	previous := []byte("previous contents")
	if err := os.WriteFile(output, previous, 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	_, _, err := runCLI(t, env.configPath, "optimize", source)
	if err == nil {
		t.Fatal("expected an error for existing output")
	}
	requireContains(t, err.Error(), "already exists")
	if got, readErr := os.ReadFile(output); readErr != nil || !bytes.Equal(got, previous) {
		t.Fatalf("existing output modified: %q %v", got, readErr)
	}

	out, _, err := runCLI(t, env.configPath, "optimize", "--overwrite", "--backup", source)
	if err != nil {
		t.Fatalf("optimize --overwrite: %v", err)
	}
	requireContains(t, out, "Optimized")

	backup, err := os.ReadFile(backupPath(output))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(backup, previous) {
		t.Fatalf("backup does not hold the previous output")
	}
	replaced, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(replaced, []byte{0xFF, 0xD8}) {
		t.Fatalf("replaced output is not a JPEG")
	}
}

func TestOptimizeInPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)
	original, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "optimize", "--in-place", "--backup", source)
	if err != nil {
		t.Fatalf("optimize --in-place: %v", err)
	}
	requireContains(t, out, "Optimized photo.jpg in place")

	backup, err := os.ReadFile(backupPath(source))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Fatalf("backup does not hold the original source")
	}
	replaced, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("read replaced source: %v", err)
	}
	if !bytes.HasPrefix(replaced, []byte{0xFF, 0xD8}) {
		t.Fatalf("replaced source is not a JPEG")
	}
}

func TestOptimizeRejectsConflictingDestinations(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "optimize", "--in-place", "--output", "other.jpg", "in.jpg")
	if err == nil {
		t.Fatal("expected an error for --in-place with --output")
	}
	requireContains(t, err.Error(), "only one of")
}

func TestOptimizeFailingOptimizer(t *testing.T) {
	env := setupCLITestEnv(t)
	failing := writeFailingJpegtran(t, env.baseDir)
	configPath := filepath.Join(env.baseDir, "failing-config.toml")
	writeTestConfig(t, configPath, failing, env)

	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)

	_, _, err := runCLI(t, configPath, "optimize", source)
	if err == nil {
		t.Fatal("expected the optimizer failure to surface")
	}
	requireContains(t, err.Error(), "exit status 2")

	if _, statErr := os.Stat(filepath.Join(env.baseDir, "photo.opt.jpg")); !os.IsNotExist(statErr) {
		t.Fatalf("failed run must not leave an output file, stat err: %v", statErr)
	}
	if leftovers := stagingLeftovers(t, env); len(leftovers) != 0 {
		t.Fatalf("staging directories left behind: %v", leftovers)
	}
}

func TestOptimizeVerifyCatchesCodingMismatch(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.baseDir, "photo.jpg")
	writeTestJPEG(t, source)

	// The stub copies the sequential staged file verbatim, so a progressive
	// request cannot be satisfied and verification must fail.
	_, _, err := runCLI(t, env.configPath, "optimize", "--verify", "--progressive", source)
	if err == nil {
		t.Fatal("expected verification to fail")
	}
	requireContains(t, err.Error(), "expected progressive coding")
}

func TestOptimizeMissingSource(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "optimize", filepath.Join(env.baseDir, "absent.jpg"))
	if err == nil {
		t.Fatal("expected an error for a missing source")
	}
	requireContains(t, err.Error(), "does not exist")
}
