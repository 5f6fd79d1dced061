package process

import (
	"testing"

	"github.com/rcornwell/t3vm/protection"
)

func TestNewPCBStartsReady(t *testing.T) {
	p := New(1, "init", 0, 1, protection.User)
	if p.State != Ready {
		t.Errorf("new PCB state = %v, want Ready", p.State)
	}
}

func TestTerminateFromAnyState(t *testing.T) {
	for _, s := range []State{Ready, Running, Blocked} {
		p := New(1, "p", 0, 0, protection.User)
		p.State = s
		p.Terminate()
		if p.State != Terminated {
			t.Errorf("Terminate from %v left state %v, want Terminated", s, p.State)
		}
	}
}

func TestReapOnlyFromTerminated(t *testing.T) {
	p := New(1, "p", 0, 0, protection.User)
	p.Reap()
	if p.State != Ready {
		t.Error("Reap should be a no-op from a non-terminated state")
	}
	p.Terminate()
	p.Reap()
	if p.State != Zombie {
		t.Errorf("Reap after Terminate = %v, want Zombie", p.State)
	}
}

func TestAddChildTracksPIDs(t *testing.T) {
	p := New(1, "parent", 0, 0, protection.User)
	p.AddChild(2)
	p.AddChild(3)
	if len(p.Children) != 2 || p.Children[0] != 2 || p.Children[1] != 3 {
		t.Errorf("Children = %v, want [2 3]", p.Children)
	}
}
