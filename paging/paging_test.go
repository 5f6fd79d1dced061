package paging

import (
	"testing"

	"github.com/rcornwell/t3vm/memory"
	"github.com/rcornwell/t3vm/ternary"
)

func newTestPageTable(numPages int64) *PageTable {
	return NewPageTable(memory.New(numPages * PageSize))
}

func TestMapUnmapPage(t *testing.T) {
	pt := newTestPageTable(10)
	pt.MapPage(3, 7)
	if p, ok := pt.GetPhysicalPage(3); !ok || p != 7 {
		t.Fatalf("GetPhysicalPage(3) = %d,%v want 7,true", p, ok)
	}
	if pt.free[7] {
		t.Error("physical page 7 should no longer be free")
	}
	freed, ok := pt.UnmapPage(3)
	if !ok || freed != 7 {
		t.Fatalf("UnmapPage = %d,%v want 7,true", freed, ok)
	}
	if !pt.free[7] {
		t.Error("physical page 7 should be free again")
	}
	if pt.IsPageMapped(3) {
		t.Error("virtual page 3 should be unmapped")
	}
}

func TestTranslate(t *testing.T) {
	pt := newTestPageTable(10)
	pt.MapPage(2, 5)
	phys, err := pt.Translate(2*PageSize + 4)
	if err != nil {
		t.Fatal(err)
	}
	if phys != 5*PageSize+4 {
		t.Errorf("Translate = %d, want %d", phys, 5*PageSize+4)
	}
}

func TestTranslateUnmappedFaults(t *testing.T) {
	pt := newTestPageTable(10)
	if _, err := pt.Translate(0); err != ErrPageFault {
		t.Errorf("expected ErrPageFault, got %v", err)
	}
}

func TestPageAccessMetadata(t *testing.T) {
	pt := newTestPageTable(10)
	p := pt.Page(3)
	if !p.IsEmpty() {
		t.Error("new page should be empty")
	}
	p.StoreTrit(0, ternary.Positive)
	if p.IsEmpty() {
		t.Error("page with a stored trit should not be empty")
	}
	if !p.Accessed || !p.Modified {
		t.Error("store should mark accessed and modified")
	}
	if p.Usage() <= 0 {
		t.Error("usage should reflect the stored trit")
	}
}

func TestDefragmentCompactsToLowestPages(t *testing.T) {
	pt := newTestPageTable(10)
	pt.MapPage(0, 8)
	pt.MapPage(1, 9)
	pt.Defragment()
	p0, _ := pt.GetPhysicalPage(0)
	p1, _ := pt.GetPhysicalPage(1)
	if p0 >= 8 && p1 >= 8 {
		t.Errorf("defragment did not compact: p0=%d p1=%d", p0, p1)
	}
	// mapping set must remain a bijection over the same virtual pages
	if !pt.IsPageMapped(0) || !pt.IsPageMapped(1) {
		t.Error("defragment must preserve all virtual mappings")
	}
}
