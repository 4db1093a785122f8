//go:build linux

package processmgr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// RunCapture runs argv to completion and returns its stdout together with
// the exit status. The returned error is non-nil only when the command could
// not be run at all or ctx ended first; a failing exit is reported through
// ExitStatus.
func RunCapture(ctx context.Context, argv []string) ([]byte, ExitStatus, error) {
	if len(argv) == 0 {
		return nil, ExitStatus{}, errors.New("run: empty argv")
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ExitStatus{}, fmt.Errorf("run %s: %w", argv[0], ctxErr)
	}

	st, ok := statusOf(cmd.ProcessState)
	if !ok {
		return nil, ExitStatus{}, fmt.Errorf("run %s: %w", argv[0], err)
	}
	return stdout.Bytes(), st, nil
}
