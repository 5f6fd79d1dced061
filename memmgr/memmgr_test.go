package memmgr

import (
	"testing"

	"github.com/rcornwell/t3vm/memory"
	"github.com/rcornwell/t3vm/protection"
	"github.com/rcornwell/t3vm/ternary"
)

func TestAllocateWriteReadRoundTrip(t *testing.T) {
	m := New(729)
	v, err := m.Allocate(27, memory.Data, protection.ReadWrite, protection.User)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	w := ternary.WordFromInt(99, 9)
	if err := m.Write(v, w, protection.User); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := m.Read(v, 9, protection.User)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Decimal() != 99 {
		t.Errorf("Read = %d, want 99", got.Decimal())
	}
}

func TestReadDeniedAcrossSecurityLevels(t *testing.T) {
	m := New(729)
	v, err := m.Allocate(27, memory.Kernel, protection.ReadWrite, protection.Kernel)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if _, err := m.Read(v, 9, protection.User); err == nil {
		t.Error("expected a protection violation for a user-level reader")
	}
}

func TestDeallocateUnmapsAddress(t *testing.T) {
	m := New(729)
	v, err := m.Allocate(27, memory.Data, protection.ReadWrite, protection.User)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := m.Deallocate(v); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	if _, err := m.Read(v, 9, protection.User); err == nil {
		t.Error("expected a page fault reading an unmapped, deallocated address")
	}
}

func TestAllocationFailsWhenRegionExhausted(t *testing.T) {
	m := New(108) // 4 pages total, 1 page per quarter segment
	if _, err := m.Allocate(27, memory.Data, protection.ReadWrite, protection.User); err != nil {
		t.Fatalf("first allocation in a 1-page segment should succeed: %v", err)
	}
	if _, err := m.Allocate(27, memory.Data, protection.ReadWrite, protection.User); err != ErrAllocationFailed {
		t.Errorf("expected ErrAllocationFailed once the data segment's only page is used, got %v", err)
	}
}
