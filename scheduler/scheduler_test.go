package scheduler

import (
	"testing"

	"github.com/rcornwell/t3vm/process"
)

// TestScenarioS6 follows the spec's reference scheduler scenario: three
// priority-1 processes under round-robin with quantum 3. Over 9 ticks
// with only clock preemption, each process accumulates exactly 3 ticks
// of CPU time, matching invariant 9 (N processes * Q ticks => each runs
// exactly Q ticks).
func TestScenarioS6(t *testing.T) {
	s := New(RoundRobin, 3)
	p1 := s.CreateProcess("p1", 1)
	p2 := s.CreateProcess("p2", 1)
	p3 := s.CreateProcess("p3", 1)

	if got := s.Schedule(); got != p1.PID {
		t.Fatalf("initial dispatch = %d, want %d", got, p1.PID)
	}

	for i := 0; i < 9; i++ {
		s.Tick()
	}

	for _, p := range []*process.PCB{p1, p2, p3} {
		if p.Counters.CPUTime != 3 {
			t.Errorf("pid %d ran %d ticks, want 3", p.PID, p.Counters.CPUTime)
		}
	}
}

func TestAtMostOneRunningAndPCBSetPartitioned(t *testing.T) {
	s := New(RoundRobin, 2)
	s.CreateProcess("a", 0)
	s.CreateProcess("b", 0)
	s.Schedule()

	for i := 0; i < 20; i++ {
		s.Tick()
		running := 0
		for _, pid := range s.PIDs() {
			p, _ := s.PCB(pid)
			if p.State == process.Running {
				running++
			}
		}
		if running > 1 {
			t.Fatalf("more than one running pid at tick %d", i)
		}
	}
}

func TestPriorityPolicyPicksHighest(t *testing.T) {
	s := New(Priority, 100)
	low := s.CreateProcess("low", 0)
	high := s.CreateProcess("high", 3)
	if got := s.Schedule(); got != high.PID {
		t.Errorf("Schedule() = %d, want highest-priority pid %d", got, high.PID)
	}
	_ = low
}

func TestMultilevelScansHighToLow(t *testing.T) {
	s := New(Multilevel, 100)
	s.CreateProcess("low", 0)
	mid := s.CreateProcess("mid", 2)
	if got := s.Schedule(); got != mid.PID {
		t.Errorf("Schedule() = %d, want mid-priority pid %d (no priority-3 process exists)", got, mid.PID)
	}
}

func TestBlockUnblock(t *testing.T) {
	s := New(RoundRobin, 100)
	p := s.CreateProcess("a", 0)
	s.Schedule()
	if err := s.Block(p.PID); err != nil {
		t.Fatal(err)
	}
	if p.State != process.Blocked {
		t.Errorf("state = %v, want Blocked", p.State)
	}
	if s.Running() != 0 {
		t.Error("blocking the running process should clear Running()")
	}
	if err := s.Unblock(p.PID); err != nil {
		t.Fatal(err)
	}
	if p.State != process.Ready {
		t.Errorf("state after unblock = %v, want Ready", p.State)
	}
}

func TestTerminateRemovesFromAllQueues(t *testing.T) {
	s := New(RoundRobin, 100)
	p1 := s.CreateProcess("a", 0)
	p2 := s.CreateProcess("b", 0)
	s.Schedule()
	if err := s.Terminate(p1.PID); err != nil {
		t.Fatal(err)
	}
	if p1.State != process.Terminated {
		t.Errorf("state = %v, want Terminated", p1.State)
	}
	if s.Running() != p2.PID {
		t.Errorf("terminating the running process should dispatch the next one, got %d", s.Running())
	}
}

func TestUnknownPID(t *testing.T) {
	s := New(RoundRobin, 100)
	if err := s.Block(999); err != ErrUnknownPID {
		t.Errorf("expected ErrUnknownPID, got %v", err)
	}
}
