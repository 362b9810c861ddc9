package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// waitDelay caps how long pipes held open by the tool's children may delay Wait.
const waitDelay = time.Second

// WithLogger sets the logger for the runner
func WithLogger(logger *slog.Logger) func(r *Runner) {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(timeout time.Duration) func(r *Runner) {
	return func(r *Runner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// Runner executes external tools with a bounded run time. Lines written to
// stderr are logged as warnings.
type Runner struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a new Runner instance with a discard logger
func NewRunner(options ...func(r *Runner)) *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	r := Runner{
		timeout: DefaultTimeout,
		logger:  logger,
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Output runs the tool to completion and returns its trimmed stdout.
func (r *Runner) Output(ctx context.Context, runtime string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd, stderr, err := r.command(ctx, runtime, args)
	if err != nil {
		return nil, err
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err = cmd.Run()
	stderr.Flush()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoResult, runtime, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s exited with error: %w", ErrNoResult, runtime, err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s produced no output", ErrNoResult, runtime)
	}

	return out, nil
}

type decodeResult struct {
	raw json.RawMessage
	err error
}

// FirstJSON starts a streaming tool, returns the first complete JSON value it
// writes and stops the process.
func (r *Runner) FirstJSON(ctx context.Context, runtime string, args ...string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd, stderr, err := r.command(ctx, runtime, args)
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: error creating stdout pipe: %w", ErrNoResult, err)
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: error starting %s: %w", ErrNoResult, runtime, err)
	}

	decoded := make(chan decodeResult, 1)
	go func() {
		var raw json.RawMessage
		err := json.NewDecoder(stdout).Decode(&raw)
		decoded <- decodeResult{raw, err}
	}()

	var (
		res      decodeResult
		received bool
	)
	select {
	case res = <-decoded:
		received = true
	case <-ctx.Done():
	}

	ctxErr := ctx.Err()

	// the tool keeps streaming otherwise
	cancel()
	waitErr := cmd.Wait()
	stderr.Flush()

	if !received {
		// Wait closed the pipe, the decoder has returned
		res = <-decoded
	}

	if res.err == nil && len(res.raw) > 0 {
		return res.raw, nil
	}

	switch {
	case ctxErr != nil:
		return nil, fmt.Errorf("%w: %s: %w", ErrNoResult, runtime, ctxErr)
	case errors.Is(res.err, io.EOF):
		if waitErr != nil {
			return nil, fmt.Errorf("%w: %s exited with error: %w", ErrNoResult, runtime, waitErr)
		}
		return nil, fmt.Errorf("%w: %s produced no output", ErrNoResult, runtime)
	default:
		return nil, fmt.Errorf("%w: decoding %s output: %w", ErrNoResult, runtime, res.err)
	}
}

func (r *Runner) command(ctx context.Context, runtime string, args []string) (*exec.Cmd, *stderrLogger, error) {
	binPath, err := FindRuntime(runtime)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNoResult, err)
	}

	stderr := &stderrLogger{runtime: runtime, logger: r.logger}

	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	r.logger.Debug("running tool", slog.String("runtime", runtime), slog.String("args", strings.Join(args, " ")))

	return cmd, stderr, nil
}

// stderrLogger logs every complete line written by the tool.
type stderrLogger struct {
	runtime string
	logger  *slog.Logger
	buf     []byte
}

func (w *stderrLogger) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.log(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs a trailing line without a newline.
func (w *stderrLogger) Flush() {
	w.log(w.buf)
	w.buf = nil
}

func (w *stderrLogger) log(line []byte) {
	if s := strings.TrimSpace(string(line)); s != "" {
		w.logger.Warn(fmt.Sprintf("%s >> %s", w.runtime, s)) // simple logging here
	}
}
