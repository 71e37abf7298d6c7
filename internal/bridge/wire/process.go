// internal/bridge/wire/process.go
package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// process owns a host subprocess speaking the wire protocol on its stdin and stdout.
type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Close ends the session by closing the host's stdin, then waits for it to exit.
func (p *process) Close() error {
	closeErr := p.stdin.Close()
	waitErr := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == -1 {
		// Killed because ctx ended.
		waitErr = nil
	}
	return errors.Join(closeErr, waitErr)
}

// StartProcess launches a host process and returns a client connected to it. The
// process is killed if ctx ends; Close shuts it down cleanly.
func StartProcess(ctx context.Context, logger *zap.Logger, name string, args ...string) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open host stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open host stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start host %q: %w", name, err)
	}
	logger.Info("Host process started", zap.String("command", name), zap.Int("pid", cmd.Process.Pid))

	return NewClient(stdout, stdin,
		WithClientLogger(logger),
		WithCloser(&process{cmd: cmd, stdin: stdin}),
	), nil
}
