// Package watchdog notifies a callback when a watched child process exits.
// Waiting needs no polling loop: os/exec.Cmd.Wait already blocks a
// goroutine without spinning, so one goroutine per watched child is the
// whole mechanism. WatchCrossProcess adds only a short bounded check after
// Wait returns.
package watchdog

import (
	"os"
	"time"

	"github.com/Zaltu/AIGIS/internal/plugin/childproc"
)

// OnExit is invoked exactly once, from the watcher goroutine, after the
// watched process has exited.
type OnExit func(state *os.ProcessState, err error)

// Watch spawns the goroutine that blocks on h.Wait() and reports back
// through onExit.
func Watch(h *childproc.Handle, onExit OnExit) {
	go func() {
		state, err := h.Wait()
		onExit(state, err)
	}()
}

// WatchCrossProcess is the variant used for spawns that cross a process
// boundary before the child is fully attached (internal-local and
// internal-remote launches, which exec the injector rather than the
// plugin's own binary). It adds a short bounded poll after Wait returns,
// since on some platforms the exit notification can be observed a moment
// before the exit code is readable. The loop re-checks the state Wait
// returned; it does not read it again. On this host's os/exec
// implementation ProcessState is already populated synchronously, so for a
// normal exit the loop ends on its first check. For a child ended by a
// signal, ExitCode reports -1, so the loop sleeps until its 200ms bound
// before onExit runs.
func WatchCrossProcess(h *childproc.Handle, onExit OnExit) {
	go func() {
		state, err := h.Wait()
		deadline := time.Now().Add(200 * time.Millisecond)
		for state != nil && state.ExitCode() < 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		onExit(state, err)
	}()
}
