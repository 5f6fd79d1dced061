package memory

import (
	"testing"

	"github.com/rcornwell/t3vm/ternary"
)

func TestNewLaysOutFiveEqualQuarterSegments(t *testing.T) {
	m := New(729)
	if m.Pages() != 27 {
		t.Fatalf("Pages() = %d, want 27", m.Pages())
	}
	quarter := (m.Pages() / 4) * PageSize
	for _, s := range []SegmentID{Code, Data, Stack, Heap} {
		if got := m.SegmentRange(s).Size; got != quarter {
			t.Errorf("segment %v size = %d, want %d", s, got, quarter)
		}
	}
	total := int64(0)
	for s := Code; s <= Kernel; s++ {
		total += m.SegmentRange(s).Size
	}
	if total != m.Size() {
		t.Errorf("segments sum to %d, want total size %d", total, m.Size())
	}
}

func TestLoadStoreWordRoundTrip(t *testing.T) {
	m := New(729)
	w := ternary.WordFromInt(42, 9)
	if err := m.StoreWord(100, w); err != nil {
		t.Fatal(err)
	}
	got, err := m.LoadWord(100, 9)
	if err != nil {
		t.Fatal(err)
	}
	if got.Decimal() != 42 {
		t.Errorf("LoadWord = %d, want 42", got.Decimal())
	}
}

func TestOutOfRangeErrors(t *testing.T) {
	m := New(729)
	if _, err := m.LoadTrit(m.Size()); err == nil {
		t.Error("expected error loading at size boundary")
	}
	if _, err := m.LoadWord(m.Size()-5, 10); err == nil {
		t.Error("expected error for range crossing total size")
	}
}

func TestCrossingSegmentBoundaryIsPermitted(t *testing.T) {
	m := New(729)
	codeEnd := m.SegmentRange(Code).Start + m.SegmentRange(Code).Size
	w := ternary.WordFromInt(7, 5)
	addr := codeEnd - 2
	if err := m.StoreWord(addr, w); err != nil {
		t.Fatalf("expected boundary-crossing store to succeed: %v", err)
	}
	got, err := m.LoadWord(addr, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got.Decimal() != 7 {
		t.Errorf("LoadWord across boundary = %d, want 7", got.Decimal())
	}
}

func TestClearSegment(t *testing.T) {
	m := New(729)
	seg := m.SegmentRange(Data)
	if err := m.StoreWord(seg.Start, ternary.WordFromInt(5, 3)); err != nil {
		t.Fatal(err)
	}
	m.ClearSegment(Data)
	got, err := m.LoadWord(seg.Start, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("segment not cleared: %d", got.Decimal())
	}
}

func TestCopySegmentSizeMismatch(t *testing.T) {
	m := New(2187) // larger so kernel != quarter, guaranteed mismatch with Code
	if err := m.CopySegment(Code, Kernel); err != ErrSegmentSizeMismatch {
		t.Errorf("expected ErrSegmentSizeMismatch, got %v", err)
	}
}
