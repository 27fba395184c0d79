package audio

import (
	"os/exec"
	"syscall"

	"github.com/pccr10001/ringline/pkg/logger"
)

// Process is a launched capture or playback subprocess.
type Process interface {
	Pid() int
	// Terminate sends SIGTERM and returns without waiting for exit.
	Terminate() error
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
}

type Launcher interface {
	Start(name string, args ...string) (Process, error)
}

// ExecLauncher runs real binaries (arecord, aplay).
type ExecLauncher struct{}

func (ExecLauncher) Start(name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		logger.Log.Debugf("%s (pid %d) exited: %v", name, cmd.Process.Pid, err)
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Terminate() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}
