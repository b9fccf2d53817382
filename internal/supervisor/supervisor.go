// Package supervisor tracks simulator processes launched by this server. It
// enforces at most one running instance per project identity and holds only
// in-memory, process-lifetime state: a supervisor restart loses tracking while
// the external simulators keep running.
package supervisor

import (
	"fmt"
	"log"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// terminateGrace is how long a superseded instance gets to exit after SIGTERM
// before it is force-killed.
const terminateGrace = 2 * time.Second

// Instance is a simulator process handle registered under a project identity.
type Instance struct {
	Identity string
	PID      int
	MainLua  string
	LogFile  string

	cmd  *exec.Cmd
	done chan struct{}
}

// Alive reports whether the process is still running. It is a non-blocking
// check against the reaper goroutine, evaluated freshly on every call.
func (in *Instance) Alive() bool {
	select {
	case <-in.done:
		return false
	default:
		return true
	}
}

// Status is the snapshot returned by List.
type Status struct {
	Identity string
	PID      int
	MainLua  string
	LogFile  string
	Running  bool
}

// Supervisor owns the identity -> instance map. One value lives for the whole
// host process and is handed to every tool that needs it; there is no ambient
// global registry.
type Supervisor struct {
	mu        sync.Mutex
	instances map[string]*Instance
}

func New() *Supervisor {
	return &Supervisor{instances: make(map[string]*Instance)}
}

// Launch terminates and evicts any instance already registered for identity,
// then starts cmd detached from the supervisor's session and registers the new
// handle. Between eviction and registration no instance exists for identity.
func (s *Supervisor) Launch(identity, mainLua, logFile string, cmd *exec.Cmd) (*Instance, error) {
	if old := s.evict(identity); old != nil {
		old.terminate()
	}

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	// New session: shutting the server down must not take the simulator with it.
	cmd.SysProcAttr.Setsid = true

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch simulator %s: %w", cmd.Path, err)
	}

	in := &Instance{
		Identity: identity,
		PID:      cmd.Process.Pid,
		MainLua:  mainLua,
		LogFile:  logFile,
		cmd:      cmd,
		done:     make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(in.done)
	}()

	s.mu.Lock()
	s.instances[identity] = in
	s.mu.Unlock()

	log.Printf("[Supervisor] Launched %s (pid %d)", identity, in.PID)
	return in, nil
}

// Evict terminates and unregisters the instance for identity, if any. Callers
// use it when a relaunch is aborted after the old instance must already be
// gone, for example because the project no longer exists on disk.
func (s *Supervisor) Evict(identity string) {
	if old := s.evict(identity); old != nil {
		old.terminate()
	}
}

// List snapshots every tracked instance with a fresh liveness check.
func (s *Supervisor) List() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]Status, 0, len(s.instances))
	for _, in := range s.instances {
		statuses = append(statuses, Status{
			Identity: in.Identity,
			PID:      in.PID,
			MainLua:  in.MainLua,
			LogFile:  in.LogFile,
			Running:  in.Alive(),
		})
	}
	return statuses
}

// evict removes and returns the instance registered for identity.
func (s *Supervisor) evict(identity string) *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.instances[identity]
	delete(s.instances, identity)
	return old
}

// terminate asks the process to exit and force-kills after the grace period.
// Safe to call on an already-exited instance.
func (in *Instance) terminate() {
	if !in.Alive() {
		return
	}

	log.Printf("[Supervisor] Terminating %s (pid %d)", in.Identity, in.PID)
	if err := in.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return
	}

	select {
	case <-in.done:
	case <-time.After(terminateGrace):
		log.Printf("[Supervisor] Force-killing %s (pid %d)", in.Identity, in.PID)
		_ = in.cmd.Process.Kill()
		<-in.done
	}
}
