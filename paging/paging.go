/*
 * T3VM - Virtual-to-physical page table.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package paging implements the bidirectional virtual-to-physical page
// table and per-page metadata/usage tracking.
package paging

import (
	"errors"
	"sort"

	"github.com/rcornwell/t3vm/memory"
	"github.com/rcornwell/t3vm/ternary"
)

// PageSize is the fixed page width in trits, matching memory.PageSize.
const PageSize = 27

// ErrPageFault is returned when a translation misses: the virtual page is
// not mapped.
var ErrPageFault = errors.New("paging: page fault")

// Page is a view onto one 27-trit physical page of the backing Memory,
// plus access metadata. It owns no storage of its own: LoadTrit/StoreTrit
// and IsEmpty/Usage read and write straight through to mem, so they see
// exactly what memmgr's Read/Write/Allocate leave there.
type Page struct {
	mem       *memory.Memory
	base      int64 // physical trit address of this page's first trit
	Accessed  bool
	Modified  bool
	Timestamp int64
	RefCount  int
}

// LoadTrit reads the trit at intra-page offset i and marks the page
// accessed.
func (p *Page) LoadTrit(i int) ternary.Trit {
	p.Accessed = true
	t, _ := p.mem.LoadTrit(p.base + int64(i))
	return t
}

// StoreTrit writes t at intra-page offset i and marks the page accessed
// and modified.
func (p *Page) StoreTrit(i int, t ternary.Trit) {
	p.Accessed = true
	p.Modified = true
	_ = p.mem.StoreTrit(p.base+int64(i), t)
}

// LoadTritArray reads length trits starting at offset i.
func (p *Page) LoadTritArray(i, length int) []ternary.Trit {
	p.Accessed = true
	w, err := p.mem.LoadWord(p.base+int64(i), length)
	if err != nil {
		return make([]ternary.Trit, length)
	}
	return w.Trits()
}

// StoreTritArray writes trits starting at offset i.
func (p *Page) StoreTritArray(i int, trits []ternary.Trit) {
	p.Accessed = true
	p.Modified = true
	_ = p.mem.StoreWord(p.base+int64(i), ternary.WordFromTrits(trits))
}

// Clear zeroes the page's backing trits and resets its metadata.
func (p *Page) Clear() {
	for i := 0; i < PageSize; i++ {
		_ = p.mem.StoreTrit(p.base+int64(i), ternary.Neutral)
	}
	p.Accessed = false
	p.Modified = false
	p.RefCount = 0
}

// IsEmpty reports whether every trit backing the page is Neutral.
func (p *Page) IsEmpty() bool {
	for i := 0; i < PageSize; i++ {
		t, _ := p.mem.LoadTrit(p.base + int64(i))
		if t != ternary.Neutral {
			return false
		}
	}
	return true
}

// Usage returns the fraction of non-zero trits backing the page, in [0,1].
func (p *Page) Usage() float64 {
	nonzero := 0
	for i := 0; i < PageSize; i++ {
		t, _ := p.mem.LoadTrit(p.base + int64(i))
		if t != ternary.Neutral {
			nonzero++
		}
	}
	return float64(nonzero) / float64(PageSize)
}

// Metadata is a read-only snapshot of a page's access bookkeeping.
type Metadata struct {
	Accessed  bool
	Modified  bool
	Timestamp int64
	RefCount  int
}

// PageTable is the bidirectional virtual-page <-> physical-page mapping
// plus the set of free physical pages it manages.
type PageTable struct {
	forward  map[int64]int64 // virtual -> physical
	backward map[int64]int64 // physical -> virtual
	free     map[int64]bool
	pages    []*Page
	clock    int64
}

// NewPageTable constructs a table over mem's physical pages, all initially
// free. Each Page is a view onto its own 27-trit slice of mem.
func NewPageTable(mem *memory.Memory) *PageTable {
	numPages := mem.Pages()
	pt := &PageTable{
		forward:  make(map[int64]int64),
		backward: make(map[int64]int64),
		free:     make(map[int64]bool, numPages),
		pages:    make([]*Page, numPages),
	}
	for i := int64(0); i < numPages; i++ {
		pt.free[i] = true
		pt.pages[i] = &Page{mem: mem, base: i * PageSize}
	}
	return pt
}

// MapPage establishes v -> p in both directions and removes p from the
// free set.
func (pt *PageTable) MapPage(v, p int64) {
	pt.forward[v] = p
	pt.backward[p] = v
	delete(pt.free, p)
}

// UnmapPage clears v's mapping in both directions and returns the
// physical page that was mapped, adding it back to the free set.
func (pt *PageTable) UnmapPage(v int64) (int64, bool) {
	p, ok := pt.forward[v]
	if !ok {
		return 0, false
	}
	delete(pt.forward, v)
	delete(pt.backward, p)
	pt.free[p] = true
	return p, true
}

// GetPhysicalPage returns the physical page mapped from v.
func (pt *PageTable) GetPhysicalPage(v int64) (int64, bool) {
	p, ok := pt.forward[v]
	return p, ok
}

// IsPageMapped reports whether virtual page v has a mapping.
func (pt *PageTable) IsPageMapped(v int64) bool {
	_, ok := pt.forward[v]
	return ok
}

// Translate converts a virtual address to a physical address, or fails
// with ErrPageFault if the containing virtual page is unmapped. It marks
// the containing page accessed, matching §4.5's "on each access".
func (pt *PageTable) Translate(vaddr int64) (int64, error) {
	return pt.translate(vaddr, false)
}

// TranslateWrite is Translate for a store: it additionally marks the
// containing page modified.
func (pt *PageTable) TranslateWrite(vaddr int64) (int64, error) {
	return pt.translate(vaddr, true)
}

func (pt *PageTable) translate(vaddr int64, write bool) (int64, error) {
	v := vaddr / PageSize
	off := vaddr % PageSize
	p, ok := pt.forward[v]
	if !ok {
		return 0, ErrPageFault
	}
	pt.touch(p, write)
	return p*PageSize + off, nil
}

func (pt *PageTable) touch(p int64, write bool) {
	pt.clock++
	if int(p) < len(pt.pages) {
		pg := pt.pages[p]
		pg.Timestamp = pt.clock
		pg.Accessed = true
		if write {
			pg.Modified = true
		}
	}
}

// Page returns the Page object backing physical page p.
func (pt *PageTable) Page(p int64) *Page {
	if int(p) >= len(pt.pages) {
		return nil
	}
	return pt.pages[p]
}

// GetMetadata returns a snapshot of physical page p's metadata.
func (pt *PageTable) GetMetadata(p int64) Metadata {
	pg := pt.Page(p)
	if pg == nil {
		return Metadata{}
	}
	return Metadata{Accessed: pg.Accessed, Modified: pg.Modified, Timestamp: pg.Timestamp, RefCount: pg.RefCount}
}

// GetFreePage removes and returns the lowest-numbered free physical
// page, a deterministic policy matching the allocator's own.
func (pt *PageTable) GetFreePage() (int64, bool) {
	p := pt.lowestFree()
	if p == -1 {
		return 0, false
	}
	delete(pt.free, p)
	return p, true
}

// ReturnFreePage adds p back to the free set (used when an allocation
// attempt fails after removing pages from it).
func (pt *PageTable) ReturnFreePage(p int64) {
	pt.free[p] = true
}

// FreeCount returns the number of free physical pages.
func (pt *PageTable) FreeCount() int { return len(pt.free) }

// Defragment walks the virtual pages in order and moves their physical
// mappings to the lowest free physical page numbers, updating the
// bidirectional table. It is a non-destructive reordering: page content
// is not touched, only the mapping.
func (pt *PageTable) Defragment() {
	virtuals := make([]int64, 0, len(pt.forward))
	for v := range pt.forward {
		virtuals = append(virtuals, v)
	}
	sort.Slice(virtuals, func(i, j int) bool { return virtuals[i] < virtuals[j] })

	for _, v := range virtuals {
		oldP := pt.forward[v]
		lowest := pt.lowestFree()
		if lowest < 0 || lowest >= oldP {
			continue
		}
		delete(pt.backward, oldP)
		pt.free[oldP] = true
		delete(pt.free, lowest)
		pt.forward[v] = lowest
		pt.backward[lowest] = v
		pt.pages[lowest], pt.pages[oldP] = pt.pages[oldP], pt.pages[lowest]
	}
}

func (pt *PageTable) lowestFree() int64 {
	best := int64(-1)
	for p := range pt.free {
		if best == -1 || p < best {
			best = p
		}
	}
	return best
}
