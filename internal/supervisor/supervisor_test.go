package supervisor

import (
	"os/exec"
	"testing"
	"time"
)

func sleepCmd(seconds string) *exec.Cmd {
	return exec.Command("sleep", seconds)
}

func TestLaunchAndList(t *testing.T) {
	s := New()

	in, err := s.Launch("game-a", "/tmp/game-a/main.lua", "/tmp/log-a.txt", sleepCmd("30"))
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer in.terminate()

	if !in.Alive() {
		t.Error("freshly launched instance should be alive")
	}

	statuses := s.List()
	if len(statuses) != 1 {
		t.Fatalf("List returned %d statuses, want 1", len(statuses))
	}
	st := statuses[0]
	if st.Identity != "game-a" || st.PID != in.PID || !st.Running {
		t.Errorf("status = %+v", st)
	}
}

func TestLaunchReplacesSameIdentity(t *testing.T) {
	s := New()

	first, err := s.Launch("game-b", "/tmp/game-b/main.lua", "/tmp/log-b.txt", sleepCmd("30"))
	if err != nil {
		t.Fatalf("first Launch: %v", err)
	}

	second, err := s.Launch("game-b", "/tmp/game-b/main.lua", "/tmp/log-b.txt", sleepCmd("30"))
	if err != nil {
		t.Fatalf("second Launch: %v", err)
	}
	defer second.terminate()

	// The first instance was terminated before the second registered.
	select {
	case <-first.done:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded instance never exited")
	}
	if first.Alive() {
		t.Error("superseded instance still reports alive")
	}

	statuses := s.List()
	if len(statuses) != 1 {
		t.Fatalf("List returned %d statuses, want 1", len(statuses))
	}
	if statuses[0].PID != second.PID {
		t.Errorf("registered PID = %d, want the replacement %d", statuses[0].PID, second.PID)
	}
}

func TestAliveAfterNaturalExit(t *testing.T) {
	s := New()

	in, err := s.Launch("game-c", "/tmp/game-c/main.lua", "/tmp/log-c.txt", sleepCmd("0"))
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	select {
	case <-in.done:
	case <-time.After(5 * time.Second):
		t.Fatal("short-lived process never reaped")
	}
	if in.Alive() {
		t.Error("exited instance reports alive")
	}

	// Stopped instances stay listed until replaced.
	statuses := s.List()
	if len(statuses) != 1 || statuses[0].Running {
		t.Errorf("statuses = %+v, want one stopped entry", statuses)
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	s := New()

	in, err := s.Launch("game-d", "/tmp/game-d/main.lua", "/tmp/log-d.txt", sleepCmd("30"))
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	in.terminate()
	in.terminate() // second call on a dead instance must not panic
	if in.Alive() {
		t.Error("terminated instance reports alive")
	}
}

func TestEvictTerminatesAndUnregisters(t *testing.T) {
	s := New()

	s.Evict("missing") // no-op on an unknown identity

	in, err := s.Launch("game-e", "/tmp/game-e/main.lua", "/tmp/log-e.txt", sleepCmd("30"))
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	s.Evict("game-e")

	select {
	case <-in.done:
	case <-time.After(5 * time.Second):
		t.Fatal("evicted instance never exited")
	}
	if len(s.List()) != 0 {
		t.Errorf("evicted instance still registered: %+v", s.List())
	}
}
