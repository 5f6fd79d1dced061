package protection

import "testing"

func TestUnprotectedAddressAlwaysAllowed(t *testing.T) {
	m := New()
	if !m.Check(50, 1, Write, User) {
		t.Error("unstamped address should be unrestricted")
	}
}

func TestReadOnlyDeniesWrite(t *testing.T) {
	m := New()
	m.Set(0, 10, ReadOnly, User)
	if !m.Check(5, 1, Read, User) {
		t.Error("read should be permitted on read-only")
	}
	if m.Check(5, 1, Write, User) {
		t.Error("write should be denied on read-only")
	}
	if m.ViolationCount() != 1 {
		t.Errorf("ViolationCount = %d, want 1", m.ViolationCount())
	}
}

func TestSecurityGating(t *testing.T) {
	m := New()
	m.Set(0, 10, RWX, Kernel)
	if m.Check(3, 1, Read, User) {
		t.Error("user-level caller should be denied on a kernel-required range")
	}
	if !m.Check(3, 1, Read, Kernel) {
		t.Error("kernel-level caller should be permitted")
	}
	if !m.Check(3, 1, Read, Supervisor) {
		t.Error("supervisor should satisfy a kernel requirement")
	}
}

func TestExecuteGating(t *testing.T) {
	m := New()
	m.Set(0, 1, Execute, User)
	if !m.Check(0, 1, Exec, User) {
		t.Error("execute should be permitted on execute-only")
	}
	if m.Check(0, 1, Read, User) {
		t.Error("read should be denied on execute-only")
	}
}

func TestClearRemovesStamp(t *testing.T) {
	m := New()
	m.Set(0, 5, ReadOnly, User)
	m.Clear(0, 5)
	if !m.Check(2, 1, Write, User) {
		t.Error("cleared range should be unrestricted")
	}
}

func TestViolationRingBounded(t *testing.T) {
	m := New()
	m.Set(0, 1, ReadOnly, User)
	for i := 0; i < violationRingSize+10; i++ {
		m.Check(0, 1, Write, User)
	}
	if len(m.Violations()) != violationRingSize {
		t.Errorf("ring length = %d, want %d", len(m.Violations()), violationRingSize)
	}
	if m.ViolationCount() != int64(violationRingSize+10) {
		t.Errorf("ViolationCount = %d, want %d", m.ViolationCount(), violationRingSize+10)
	}
}
