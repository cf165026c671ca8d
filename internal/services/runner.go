package services

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

var toolErrorRe = regexp.MustCompile(`(?i)ERROR[:\s]+(.+?)(?:\n|$)`)

const (
	stderrTailBytes = 8 * 1024
	maxStderrReport = 500
	waitDelay       = 5 * time.Second
)

// Runner executes one external tool to completion. Every invocation carries a
// deadline; the process is killed when ctx is cancelled or the timeout passes.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) error
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	stderr := &tailBuffer{max: stderrTailBytes}
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	toolErr := &ToolExecutionError{
		Tool:     name,
		ExitCode: -1,
		Stderr:   summarizeStderr(stderr.String()),
		Err:      err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		toolErr.TimedOut = true
		toolErr.Timeout = timeout
	} else if ctx.Err() != nil {
		toolErr.Err = ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	return toolErr
}

// summarizeStderr prefers the last "ERROR:" line a tool printed and falls back
// to the tail of its output.
func summarizeStderr(out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return ""
	}
	if m := toolErrorRe.FindAllStringSubmatch(out, -1); len(m) > 0 {
		return strings.TrimSpace(m[len(m)-1][1])
	}
	if len(out) > maxStderrReport {
		out = out[len(out)-maxStderrReport:]
	}
	lines := strings.Split(out, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
