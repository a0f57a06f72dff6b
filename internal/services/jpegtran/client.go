package jpegtran

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"optijpeg/internal/encode"
	"optijpeg/internal/services"
)

// ExecResult captures the outcome of one optimizer invocation. ExitCode is
// zero on success, positive when the process ran and failed, and negative
// when it never started or was killed.
type ExecResult struct {
	ExitCode int
	Stderr   string
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (ExecResult, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps jpegtran CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a jpegtran client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("jpegtran binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured optimizer binary.
func (c *Client) Binary() string {
	return c.binary
}

// BuildArgs maps the encode settings onto the jpegtran argument vector. The
// mapping is pure: identical inputs always produce identical tokens, and no
// token is ever empty for non-empty paths. The staged input path is the
// single positional argument and always comes last.
func BuildArgs(o encode.Options, grayscale bool, inputPath, outputPath string) []string {
	args := make([]string, 0, 8)

	// Metadata policy is always explicit so jpegtran's own default never
	// leaks into the output.
	args = append(args, "-copy", o.CopyMode.String())

	if o.Optimize {
		args = append(args, "-optimize")
	}
	if o.Progressive {
		args = append(args, "-progressive")
	}
	if grayscale {
		args = append(args, "-grayscale")
	}

	args = append(args, "-outfile", outputPath)
	args = append(args, inputPath)
	return args
}

// Optimize runs jpegtran over the staged input, writing the optimized file to
// outputPath. The argument vector is handed to the executor as-is; nothing is
// ever joined into a shell string. A binary that cannot be started maps to
// services.ErrSpawn; a nonzero exit or an expired deadline maps to
// services.ErrRun.
func (c *Client) Optimize(ctx context.Context, o encode.Options, grayscale bool, inputPath, outputPath string) error {
	if strings.TrimSpace(inputPath) == "" {
		return services.Wrap(services.ErrValidation, "optimize", "arguments", "staged input path required", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrValidation, "optimize", "arguments", "staged output path required", nil)
	}
	if err := o.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "optimize", "options", "invalid encode options", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.exec.Run(runCtx, c.binary, BuildArgs(o, grayscale, inputPath, outputPath))
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return services.Wrap(services.ErrSpawn, "optimize", "jpegtran", fmt.Sprintf("cannot start %q", c.binary), err)
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		message := "optimizer run cancelled"
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			message = "optimizer deadline exceeded"
			if c.timeout > 0 {
				message = fmt.Sprintf("optimizer exceeded %s deadline", c.timeout)
			}
		}
		return services.Wrap(services.ErrRun, "optimize", "jpegtran", message, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) || result.ExitCode > 0 {
		detail := fmt.Sprintf("exit status %d", result.ExitCode)
		if line := lastStderrLine(result.Stderr); line != "" {
			detail = detail + ": " + line
		}
		return services.Wrap(services.ErrRun, "optimize", "jpegtran", detail, err)
	}

	return services.Wrap(services.ErrSpawn, "optimize", "jpegtran", fmt.Sprintf("cannot start %q", c.binary), err)
}

// lastStderrLine extracts the final non-empty stderr line, which is where
// jpegtran reports its failure reason.
func lastStderrLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	hideConsole(cmd)

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return ExecResult{ExitCode: -1}, fmt.Errorf("start command: %w", err)
	}

	err := cmd.Wait()
	result := ExecResult{ExitCode: 0, Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, fmt.Errorf("wait command: %w", err)
	}
	return result, nil
}
