package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"optijpeg/internal/encode"
	"optijpeg/internal/logging"
	"optijpeg/internal/services"
	"optijpeg/internal/staging"
)

// Optimizer runs the external lossless optimizer over a staged file.
type Optimizer interface {
	Optimize(ctx context.Context, o encode.Options, grayscale bool, inputPath, outputPath string) error
}

// Pipeline carries the fixed dependencies shared by optimization runs.
type Pipeline struct {
	optimizer   Optimizer
	stagingRoot string
	logger      *slog.Logger
}

// New constructs a pipeline writing staging sessions under stagingRoot.
func New(optimizer Optimizer, stagingRoot string, logger *slog.Logger) (*Pipeline, error) {
	if optimizer == nil {
		return nil, errors.New("optimizer required")
	}
	stagingRoot = strings.TrimSpace(stagingRoot)
	if stagingRoot == "" {
		return nil, errors.New("staging root required")
	}
	return &Pipeline{
		optimizer:   optimizer,
		stagingRoot: stagingRoot,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Result describes one optimization run.
type Result struct {
	SessionID      string
	StagedBytes    int64
	OptimizedBytes int64
	Grayscale      bool
	State          State
	Elapsed        time.Duration
}

// ReductionPercent reports how much smaller the optimized output is than the
// staged intermediate. Runs that never staged anything report zero.
func (r Result) ReductionPercent() float64 {
	if r.StagedBytes <= 0 {
		return 0
	}
	return 100 * (1 - float64(r.OptimizedBytes)/float64(r.StagedBytes))
}

// Save stages img as a fresh JPEG, runs the optimizer over it, and relays the
// optimized bytes to output unmodified. The staging session directory is
// removed on every path out, including failures. On failure the returned
// State reports the last stage that completed.
func (p *Pipeline) Save(ctx context.Context, img image.Image, output io.Writer, opts encode.Options) (result Result, err error) {
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	result.State = StateIdle
	if img == nil {
		return result, services.Wrap(services.ErrValidation, "save", "arguments", "image required", nil)
	}
	if output == nil {
		return result, services.Wrap(services.ErrValidation, "save", "arguments", "output writer required", nil)
	}
	if optErr := opts.Validate(); optErr != nil {
		return result, services.Wrap(services.ErrValidation, "save", "options", "invalid encode options", optErr)
	}

	result.Grayscale = encode.IsGrayscale(img)

	session, sessionErr := staging.NewSession(p.stagingRoot)
	if sessionErr != nil {
		return result, services.Wrap(services.ErrStaging, "save", "create session", "failed to create staging session", sessionErr)
	}
	result.SessionID = session.ID()

	ctx = services.WithSessionID(ctx, session.ID())
	logger := logging.WithContext(ctx, p.logger)

	defer func() {
		if cleanupErr := session.Cleanup(); cleanupErr != nil {
			logger.Warn("failed to remove staging session", logging.Error(cleanupErr))
			return
		}
		if err == nil && result.State == StateRelayed {
			result.State = StateCleanedUp
		}
	}()

	staged, stageErr := stageInput(img, opts, session.InputPath())
	if stageErr != nil {
		return result, services.Wrap(services.ErrStaging, "save", "stage input", "failed to stage intermediate JPEG", stageErr)
	}
	result.StagedBytes = staged
	result.State = StateStaged
	logger.Debug("staged intermediate input",
		logging.Int64("bytes", staged),
		logging.Bool("grayscale", result.Grayscale),
	)

	optimizeCtx := services.WithStage(ctx, "optimize")
	logging.WithContext(optimizeCtx, p.logger).Debug("running optimizer")
	if err = p.optimizer.Optimize(optimizeCtx, opts, result.Grayscale, session.InputPath(), session.OutputPath()); err != nil {
		return result, err
	}
	result.State = StateOptimizerRan

	relayed, relayErr := relayOutput(session.OutputPath(), output)
	if relayErr != nil {
		return result, services.Wrap(services.ErrRelay, "save", "relay output", "failed to relay optimized bytes", relayErr)
	}
	result.OptimizedBytes = relayed
	result.State = StateRelayed

	logger.Info("optimization complete",
		logging.Int64("staged_bytes", result.StagedBytes),
		logging.Int64("optimized_bytes", result.OptimizedBytes),
		logging.Float64("reduction_percent", result.ReductionPercent()),
		logging.Bool("grayscale", result.Grayscale),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// stageInput writes img to path as the intermediate JPEG the optimizer will
// consume, returning the staged size.
func stageInput(img image.Image, opts encode.Options, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create staged input: %w", err)
	}
	if err := encode.WriteIntermediate(file, img, opts); err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("encode staged input: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close staged input: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat staged input: %w", err)
	}
	return info.Size(), nil
}

// relayOutput streams the optimizer's output file to w byte for byte.
func relayOutput(path string, w io.Writer) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open optimized output: %w", err)
	}
	defer file.Close()

	copied, err := io.Copy(w, file)
	if err != nil {
		return copied, fmt.Errorf("relay optimized output: %w", err)
	}
	return copied, nil
}
