package runner

import (
	"fmt"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// terminateTree kills the task process, its process group, and every
// descendant alive at enumeration time, then polls until all of them are
// gone or the bounded wait expires.
//
// A race exists between a descendant being spawned and the enumeration:
// only descendants that exist when the process listing happens are
// guaranteed cleaned up. The process-group signal narrows that window for
// descendants that stayed in the group.
func terminateTree(pid int, wait time.Duration) error {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		// Already gone.
		return nil
	}

	victims := append([]*process.Process{proc}, descendantsOf(proc)...)

	// Group first: covers children that kept the child's pgid, including
	// ones racing with the enumeration above.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
	for _, v := range victims {
		_ = v.Kill()
	}

	deadline := time.Now().Add(wait)
	for {
		alive := 0
		for _, v := range victims {
			if processAlive(v.Pid) {
				alive++
			}
		}
		if alive == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("terminate: %d process(es) still running after %s", alive, wait)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// descendantsOf enumerates the live descendant processes, depth first.
func descendantsOf(p *process.Process) []*process.Process {
	children, err := p.Children()
	if err != nil {
		return nil
	}
	var out []*process.Process
	for _, c := range children {
		out = append(out, c)
		out = append(out, descendantsOf(c)...)
	}
	return out
}

// processAlive reports whether the pid still refers to a running process.
// A zombie counts as dead: it has been killed and only awaits reaping by
// its parent.
func processAlive(pid int32) bool {
	exists, err := process.PidExists(pid)
	if err != nil || !exists {
		return false
	}
	p, err := process.NewProcess(pid)
	if err != nil {
		return false
	}
	statuses, err := p.Status()
	if err != nil {
		return false
	}
	for _, s := range statuses {
		if s == process.Zombie {
			return false
		}
	}
	return true
}
