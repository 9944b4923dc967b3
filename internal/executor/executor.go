package executor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultMaxOutputBytes caps each of stdout and stderr when a Spec leaves
// MaxOutputBytes unset.
const DefaultMaxOutputBytes = 100 * 1024

// waitDelay bounds how long Wait blocks on output pipes held open by
// orphaned grandchildren after the group was killed.
const waitDelay = 2 * time.Second

// Spec describes one command execution.
type Spec struct {
	Args           []string
	Dir            string
	Env            []string
	Stdin          string
	Timeout        time.Duration
	MaxOutputBytes int
}

// Result represents the outcome of a command execution.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	TimedOut  bool
	Duration  time.Duration
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Result, error)
}

// OSCommandExecutor runs commands in their own process group so that a
// timeout or cancellation kills every descendant.
type OSCommandExecutor struct {
	now func() time.Time
}

// NewOSCommandExecutor creates a new OSCommandExecutor.
func NewOSCommandExecutor() *OSCommandExecutor {
	return &OSCommandExecutor{now: time.Now}
}

// Run executes spec. A non-zero exit status is reported through
// Result.ExitCode, not as an error. Timeout yields ErrTimeout and
// cancellation yields the context error; both come with the partial output
// and exit code -1.
func (f *OSCommandExecutor) Run(ctx context.Context, spec Spec) (*Result, error) {
	if len(spec.Args) == 0 {
		return nil, os.ErrInvalid
	}

	maxBytes := spec.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxOutputBytes
	}
	stdout := newCollector(maxBytes)
	stderr := newCollector(maxBytes)

	cmd := exec.Command(spec.Args[0], spec.Args[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}
	setProcessGroup(cmd)

	start := f.now()
	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: spec.Args[0], Cause: err, Stage: "start"}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timer <-chan time.Time
	if spec.Timeout > 0 {
		t := time.NewTimer(spec.Timeout)
		defer t.Stop()
		timer = t.C
	}

	var execErr error
	timedOut := false
	select {
	case err := <-done:
		execErr = err
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		execErr = ctx.Err()
	case <-timer:
		killProcessGroup(cmd)
		<-done
		timedOut = true
		execErr = ErrTimeout
	}

	res := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		TimedOut:  timedOut,
		Duration:  f.now().Sub(start),
	}

	switch {
	case execErr == nil:
		res.ExitCode = 0
	case timedOut, errors.Is(execErr, context.Canceled), errors.Is(execErr, context.DeadlineExceeded):
		res.ExitCode = -1
		return res, execErr
	default:
		res.ExitCode = getExitCode(execErr)
		if res.ExitCode < 0 {
			return res, execErr
		}
	}
	return res, nil
}

func getExitCode(err error) int {
	type exitCoder interface {
		ExitCode() int
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}
