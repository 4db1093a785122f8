//go:build linux

package processmgr

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Process is one spawned encoder with two side channels:
//
//   - fd 3 carries the fragmented live stream (Live)
//   - fd 4 carries completed segment filenames (Segments)
//
// stdin/stdout/stderr are attached to /dev/null. The child leads its own
// process group so that Kill reaches anything it forks.
//
// Canonical usage:
//
//	p, err := Spawn(...) → read Live()/Segments() → <-Done() → Status() → Release()
type Process struct {
	log *zap.Logger
	cmd *exec.Cmd
	pid int

	live     *os.File // read end of fd 3
	segments *os.File // read end of fd 4

	// Closed after the process is fully reaped; status is valid afterwards.
	done   chan struct{}
	status ExitStatus

	killOnce    sync.Once
	releaseOnce sync.Once
}

// Spawn starts argv with the two side-channel pipes attached.
// The parent's copies of the write ends are closed once the child holds them,
// so readers see EOF when the child exits.
func Spawn(log *zap.Logger, env, argv []string) (*Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("spawn: empty argv")
	}

	liveR, liveW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("live pipe creation failure: %w", err)
	}
	segR, segW, err := os.Pipe()
	if err != nil {
		_ = liveR.Close()
		_ = liveW.Close()
		return nil, fmt.Errorf("segment pipe creation failure: %w", err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.ExtraFiles = []*os.File{liveW, segW} // fd 3, fd 4
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // new process group so we can signal the group
	}

	if err := cmd.Start(); err != nil {
		_ = liveR.Close()
		_ = liveW.Close()
		_ = segR.Close()
		_ = segW.Close()
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}

	// The child has its own copies now.
	_ = liveW.Close()
	_ = segW.Close()

	p := &Process{
		log:      log,
		cmd:      cmd,
		pid:      cmd.Process.Pid,
		live:     liveR,
		segments: segR,
		done:     make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

// wait reaps the child once and records its exit status.
func (p *Process) wait() {
	err := p.cmd.Wait()

	if st, ok := statusOf(p.cmd.ProcessState); ok {
		p.status = st
	} else {
		p.log.Error("failed to wait for process", zap.Int("pid", p.pid), zap.Error(err))
		p.status = ExitStatus{Code: -1}
	}

	p.log.Debug("process reaped", zap.Int("pid", p.pid), zap.Stringer("status", p.status))
	close(p.done)
}

func (p *Process) Pid() int              { return p.pid }
func (p *Process) Live() *os.File        { return p.live }
func (p *Process) Segments() *os.File    { return p.segments }
func (p *Process) Done() <-chan struct{} { return p.done }

// Status is valid only after Done() is closed.
func (p *Process) Status() ExitStatus {
	<-p.done
	return p.status
}

// Kill sends SIGKILL to the process group. It is idempotent and a no-op
// once the process has been reaped.
func (p *Process) Kill() {
	p.killOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}

		if err := syscall.Kill(-p.pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
			p.log.Warn("SIGKILL failed", zap.Error(err), zap.Int("pgid", p.pid))
			return
		}
		p.log.Debug("SIGKILL sent to process group", zap.Int("pgid", p.pid))
	})
}

// Terminate asks the process group to exit with SIGTERM and escalates to
// SIGKILL after grace. It blocks until the process is reaped.
func (p *Process) Terminate(grace time.Duration) {
	select {
	case <-p.done:
		return
	default:
	}

	if err := syscall.Kill(-p.pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		p.log.Warn("SIGTERM failed", zap.Error(err), zap.Int("pgid", p.pid))
	}

	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-p.done:
		return
	case <-t.C:
		p.log.Warn("graceful shutdown timeout exceeded, sending SIGKILL",
			zap.Int("pid", p.pid), zap.Duration("timeout", grace))
		p.Kill()
		<-p.done
	}
}

// Release closes the parent's read ends of both side channels.
func (p *Process) Release() {
	p.releaseOnce.Do(func() {
		_ = p.live.Close()
		_ = p.segments.Close()
	})
}
