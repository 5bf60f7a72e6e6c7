package supervisor

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"plotbench/internal/common/fsutil"
)

const (
	defaultGracePeriod = 2 * time.Second
	defaultLineBuffer  = 1024
	maxLineBytes       = 1 << 20
)

// LaunchSpec is everything needed to spawn one server.
type LaunchSpec struct {
	Binary      string
	ModelPath   string
	Port        int
	ContextSize int
	GPULayers   int
	BindHost    string
	ExtraArgs   []string
	// Env is appended to the parent environment.
	Env []string
}

// Args returns the server command line, excluding the binary.
func (s LaunchSpec) Args() []string {
	args := []string{
		"--model", s.ModelPath,
		"--port", strconv.Itoa(s.Port),
		"--ctx-size", strconv.Itoa(s.ContextSize),
		"--n-gpu-layers", strconv.Itoa(s.GPULayers),
		"--host", s.BindHost,
	}
	return append(args, s.ExtraArgs...)
}

// Process is a running server. Lines delivers stdout and stderr merged, one
// line at a time, and is closed once the output stream ends.
type Process interface {
	PID() int
	Lines() <-chan string
	// ExitStatus never blocks; exited is false while the process runs.
	ExitStatus() (code int, exited bool)
	Done() <-chan struct{}
	// Terminate signals a graceful shutdown and is a no-op on a dead process.
	Terminate() error
}

// Launcher spawns server processes.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) (Process, error)
}

// ExecLauncher launches real subprocesses.
type ExecLauncher struct {
	// GracePeriod between SIGTERM and Kill. Zero means 2s.
	GracePeriod time.Duration
	// LineBuffer is the capacity of the Lines channel. Zero means 1024.
	LineBuffer int
}

// Launch checks the binary and model file, then starts the process with
// stdout and stderr sharing one pipe.
func (l ExecLauncher) Launch(ctx context.Context, spec LaunchSpec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bin, err := fsutil.ResolveBinary(spec.Binary)
	if err != nil {
		return nil, &LaunchError{Reason: "server binary not found", Path: spec.Binary, Err: err}
	}
	if !fsutil.FileExists(spec.ModelPath) {
		return nil, &LaunchError{Reason: "model file not found", Path: spec.ModelPath, Err: os.ErrNotExist}
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, &LaunchError{Reason: "create output pipe", Err: err}
	}
	cmd := exec.Command(bin, spec.Args()...)
	cmd.Stdout = w
	cmd.Stderr = w
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, &LaunchError{Reason: "start server", Path: bin, Err: err}
	}
	// The child holds its own copy of the write end.
	_ = w.Close()

	grace := l.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	size := l.LineBuffer
	if size <= 0 {
		size = defaultLineBuffer
	}
	p := &execProcess{
		cmd:   cmd,
		grace: grace,
		lines: make(chan string, size),
		done:  make(chan struct{}),
	}
	go p.readLines(r)
	go p.wait()
	return p, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	grace time.Duration
	lines chan string
	done  chan struct{}

	mu       sync.Mutex
	exitCode int
	termMu   sync.Mutex
}

func (p *execProcess) PID() int              { return p.cmd.Process.Pid }
func (p *execProcess) Lines() <-chan string  { return p.lines }
func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) readLines(r *os.File) {
	defer close(p.lines)
	defer r.Close()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
}

func (p *execProcess) wait() {
	_ = p.cmd.Wait()
	code := -1
	if st := p.cmd.ProcessState; st != nil {
		code = st.ExitCode()
	}
	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()
	close(p.done)
}

func (p *execProcess) ExitStatus() (int, bool) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.exitCode, true
	default:
		return 0, false
	}
}

func (p *execProcess) Terminate() error {
	p.termMu.Lock()
	defer p.termMu.Unlock()
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// Platforms without SIGTERM fall through to Kill.
		_ = p.cmd.Process.Kill()
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(p.grace):
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(p.grace):
		return errors.New("process did not exit after kill")
	}
}
