package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskmill/internal/core"
	"taskmill/internal/logging"
)

// childEnvVar marks a process as a spawned task process. The value is
// checked before any other startup work, both in the real binary and in
// test binaries via TestMain.
const childEnvVar = "TASKMILL_CHILD"

// outcomeFd is the file descriptor the child writes its outcome record
// to. Fd 3 is the first ExtraFiles slot.
const outcomeFd = 3

// DefaultTerminateWait bounds how long Terminate waits for the process
// and its enumerated descendants to disappear.
const DefaultTerminateWait = time.Second

// SpawnSpec is the serialized description a child process needs to
// reconstruct and execute its task.
type SpawnSpec struct {
	Family               string          `json:"family"`
	Params               json.RawMessage `json:"params"`
	WorkerID             string          `json:"worker_id"`
	CheckUnfulfilledDeps bool            `json:"check_unfulfilled_deps"`
	CheckCompleteOnRun   bool            `json:"check_complete_on_run"`
}

// SpecFor builds a SpawnSpec from a task and options. The task must carry
// a derivable identity; params must round-trip through JSON so the child
// can rebuild an equivalent task from the registry.
func SpecFor(task core.Task, workerID string, opts Options) (SpawnSpec, error) {
	if _, err := task.ID(); err != nil {
		return SpawnSpec{}, err
	}
	params, err := json.Marshal(task.Params())
	if err != nil {
		return SpawnSpec{}, &core.TaskError{Kind: core.KindConstruction, Msg: "serializing task parameters", Err: err}
	}
	return SpawnSpec{
		Family:               task.Family(),
		Params:               params,
		WorkerID:             workerID,
		CheckUnfulfilledDeps: opts.CheckUnfulfilledDeps,
		CheckCompleteOnRun:   opts.CheckCompleteOnRun,
	}, nil
}

// Handle is the worker-side view of a spawned task process. The only
// channel back from the child is the outcome pipe; the only control
// operation is Terminate.
type Handle struct {
	// TerminateWait bounds the post-kill confirmation wait.
	TerminateWait time.Duration

	cmd        *exec.Cmd
	logger     *zap.Logger
	outcome    chan Outcome
	done       chan struct{}
	waitErr    error
	terminated atomic.Bool
	termOnce   sync.Once
	termErr    error
}

// Spawn re-executes the current binary as an isolated task process in its
// own process group, with the spec on stdin and the outcome pipe on a
// dedicated descriptor.
func Spawn(spec SpawnSpec, logger *zap.Logger) (*Handle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving executable: %w", err)
	}
	payload, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encoding spawn spec: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating outcome pipe: %w", err)
	}

	cmd := exec.Command(exe)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), childEnvVar+"=1")
	cmd.ExtraFiles = []*os.File{pw}
	// Own process group, so forced termination can signal the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("starting task process: %w", err)
	}
	pw.Close()

	h := &Handle{
		TerminateWait: DefaultTerminateWait,
		cmd:           cmd,
		logger:        logger,
		outcome:       make(chan Outcome, 1),
		done:          make(chan struct{}),
	}

	go h.readOutcome(pr)
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()

	return h, nil
}

// readOutcome decodes at most one outcome record from the pipe. The pipe
// reaches EOF when the child exits (cleanly or killed).
func (h *Handle) readOutcome(r io.ReadCloser) {
	defer r.Close()
	var out Outcome
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		if err != io.EOF {
			h.logger.Warn("decoding outcome record", zap.Error(err))
		}
		return
	}
	h.outcome <- out
}

// Pid returns the OS process id of the task process.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// Outcome delivers the child's outcome record, at most once.
func (h *Handle) Outcome() <-chan Outcome { return h.outcome }

// Done is closed once the task process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task process has exited and returns its exit
// error, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.waitErr
}

// TryOutcome returns the outcome record if one was enqueued, without
// blocking.
func (h *Handle) TryOutcome() (Outcome, bool) {
	select {
	case out := <-h.outcome:
		return out, true
	default:
		return Outcome{}, false
	}
}

// Terminated reports whether Terminate was invoked on this handle.
func (h *Handle) Terminated() bool { return h.terminated.Load() }

// Terminate forcefully ends the task process and every descendant process
// alive at enumeration time, then confirms within TerminateWait that none
// of them is still running. Idempotent; a no-op once the process has
// already exited.
func (h *Handle) Terminate() error {
	h.terminated.Store(true)
	h.termOnce.Do(func() {
		select {
		case <-h.done:
			// Already exited and reaped; nothing to kill.
			return
		default:
		}
		h.logger.Info("terminating task process", zap.Int("pid", h.Pid()))
		h.termErr = terminateTree(h.Pid(), h.TerminateWait)
	})
	return h.termErr
}

// IsChildProcess reports whether this process was spawned as an isolated
// task process.
func IsChildProcess() bool {
	return os.Getenv(childEnvVar) == "1"
}

// ChildMain is the entrypoint of a spawned task process. It reconstructs
// the task from the registry, runs the TaskProcess state machine, and
// writes the outcome record to the outcome pipe.
//
// The returned value is the process exit code: 0 when an outcome record
// was emitted, non-zero when emission itself failed or the task could not
// be reconstructed. The worker treats a non-zero exit without a record as
// an anomaly, never as success.
func ChildMain() int {
	logger := logging.New()
	defer logger.Sync()

	var spec SpawnSpec
	if err := json.NewDecoder(os.Stdin).Decode(&spec); err != nil {
		fmt.Fprintf(os.Stderr, "taskmill: decoding spawn spec: %v\n", err)
		return 1
	}

	task, err := core.NewTask(spec.Family, spec.Params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskmill: %v\n", err)
		return 1
	}

	outPipe := os.NewFile(outcomeFd, "outcome-pipe")
	if outPipe == nil {
		fmt.Fprintln(os.Stderr, "taskmill: outcome pipe descriptor missing")
		return 1
	}
	defer outPipe.Close()

	tp := NewTaskProcess(task, spec.WorkerID, NewPipeChannel(outPipe), NewLogReporter(logger), Options{
		CheckUnfulfilledDeps: spec.CheckUnfulfilledDeps,
		CheckCompleteOnRun:   spec.CheckCompleteOnRun,
	}, logger)

	if err := tp.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "taskmill: %v\n", err)
		return 1
	}
	return 0
}
