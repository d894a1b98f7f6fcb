// Package process runs slim-leaderboard as a child process, one process per analysis.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	domain "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/leaderboard"
)

// waitDelay bounds how long Wait blocks on output pipes after the child was killed.
const waitDelay = 2 * time.Second

type Options struct {
	// Command is the program plus any fixed leading arguments,
	// e.g. ["slim-leaderboard"] or ["python", "-m", "jpl.slim.leaderboard"].
	Command []string
	// TempDir holds the per-run config files. Empty means os.TempDir().
	TempDir string
	// Timeout bounds the whole run, including the wait for a free slot.
	Timeout time.Duration
	// MaxConcurrent bounds the number of simultaneous child processes.
	MaxConcurrent int64
	// Env is appended to the server's own environment.
	Env []string
}

type Runner struct {
	command []string
	tempDir string
	timeout time.Duration
	env     []string
	slots   *semaphore.Weighted
}

func NewRunner(opts Options) *Runner {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	return &Runner{
		command: opts.Command,
		tempDir: opts.TempDir,
		timeout: opts.Timeout,
		env:     opts.Env,
		slots:   semaphore.NewWeighted(opts.MaxConcurrent),
	}
}

// Run writes the invocation config, runs the command and removes the config again.
// A non-zero exit is reported through RunResult.ExitCode, not as an error.
// Errors are domain.ErrCommandNotFound, domain.ErrRunTimeout or a context error.
func (r *Runner) Run(ctx context.Context, req domain.RunRequest) (domain.RunResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.slots.Acquire(ctx, 1); err != nil {
		return domain.RunResult{}, r.contextError(ctx, err)
	}
	defer r.slots.Release(1)

	configPath, err := r.writeConfig(req)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("write invocation config: %w", err)
	}
	// config selalu dihapus, apapun hasilnya
	defer removeConfig(configPath)

	args := req.Flags.Args(configPath)
	cmdArgs := make([]string, 0, len(r.command)-1+len(args))
	cmdArgs = append(cmdArgs, r.command[1:]...)
	cmdArgs = append(cmdArgs, args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command[0], cmdArgs...)
	cmd.Env = append(os.Environ(), r.env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()

	result := domain.RunResult{
		Output:      stdout.String(),
		ErrorOutput: stderr.String(),
		DurationMS:  time.Since(start).Milliseconds(),
		Args:        args,
		ConfigPath:  configPath,
	}
	if runErr == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		return result, r.contextError(ctx, runErr)
	}
	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
		return result, fmt.Errorf("%w: %v", domain.ErrCommandNotFound, runErr)
	}

	var ee *exec.ExitError
	if errors.As(runErr, &ee) {
		result.ExitCode = ee.ExitCode()
		if result.ExitCode < 0 {
			// terminated by a signal
			result.ExitCode = 1
		}
		return result, nil
	}

	// failed to start for another reason: report as exit 1 with the error as output
	result.ExitCode = 1
	result.ErrorOutput = fmt.Sprintf("Error: %v", runErr)
	return result, nil
}

func (r *Runner) writeConfig(req domain.RunRequest) (string, error) {
	id := req.InvocationID
	if id == "" {
		id = uuid.NewString()
	}
	f, err := os.CreateTemp(r.tempDir, "slim-leaderboard-"+id+"-*.json")
	if err != nil {
		return "", err
	}
	if err := json.NewEncoder(f).Encode(req.Config); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (r *Runner) contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", domain.ErrRunTimeout, r.timeout)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func removeConfig(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("failed to remove invocation config", zap.String("path", path), zap.Error(err))
	}
}
