/*
 * T3VM - Top-level memory manager composing paging, the buddy allocator,
 * protection, and garbage collection.
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

// Package memmgr is the top-level allocator the rest of the system calls:
// it composes memory, paging, buddy, protection, and gc per §4.9.
package memmgr

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/rcornwell/t3vm/buddy"
	"github.com/rcornwell/t3vm/gc"
	"github.com/rcornwell/t3vm/memory"
	"github.com/rcornwell/t3vm/paging"
	"github.com/rcornwell/t3vm/protection"
	"github.com/rcornwell/t3vm/ternary"
)

// ErrAllocationFailed covers both physical-page exhaustion and virtual
// region exhaustion.
var ErrAllocationFailed = errors.New("memmgr: allocation failed")

// allocation is one MemoryManager-tracked mapping.
type allocation struct {
	id         int64
	virtual    int64
	size       int64
	region     memory.SegmentID
	protection protection.Level
	security   protection.Security
	blockID    int64
	pages      []int64 // virtual pages, in order
	timestamp  time.Time
}

// Manager composes the memory subsystems into a single entry point that
// turns requests into mapped, protected, backed virtual addresses. The
// TVM does not go through it; it reads and writes memory.Memory directly.
type Manager struct {
	mem        *memory.Memory
	pages      *paging.PageTable
	buddy      *buddy.Allocator
	protect    *protection.Map
	collector  *gc.Collector
	nextVirt   map[memory.SegmentID]int64
	allocs     map[int64]*allocation
	nextAllocID int64
}

// New constructs a Manager over a Memory of the given size, with a page
// table and buddy allocator sized to match.
func New(size int64) *Manager {
	mem := memory.New(size)
	pages := mem.Pages()
	m := &Manager{
		mem:      mem,
		pages:    paging.NewPageTable(mem),
		buddy:    buddy.NewAllocator(pages),
		protect:  protection.New(),
		nextVirt: make(map[memory.SegmentID]int64),
		allocs:   make(map[int64]*allocation),
	}
	for s := memory.Code; s <= memory.Kernel; s++ {
		m.nextVirt[s] = mem.SegmentRange(s).Start
	}
	m.collector = gc.New(readerAdapter{m}, writerAdapter{m}, mem.SegmentRange(memory.Heap).Size)
	return m
}

type readerAdapter struct{ m *Manager }

func (r readerAdapter) ReadTrits(addr int64, length int) ([]int8, error) {
	w, err := r.m.mem.LoadWord(addr, length)
	if err != nil {
		return nil, err
	}
	trits := w.Trits()
	out := make([]int8, len(trits))
	for i, t := range trits {
		out[i] = int8(t)
	}
	return out, nil
}

type writerAdapter struct{ m *Manager }

func (w writerAdapter) ClearTrits(addr, size int64) error {
	return w.m.mem.StoreWord(addr, ternary.NewWord(int(size)))
}

// Memory exposes the underlying linear memory for components (e.g. the
// TVM) that need direct physical access outside the MemoryManager's own
// virtual-address operations.
func (m *Manager) Memory() *memory.Memory { return m.mem }

// Collector exposes the garbage collector for host-level scheduling of
// collection cycles.
func (m *Manager) Collector() *gc.Collector { return m.collector }

// Allocate reserves size trits of virtual address space in region,
// stamped with the given protection level, per the 7-step §4.9
// algorithm.
func (m *Manager) Allocate(size int64, region memory.SegmentID, level protection.Level, security protection.Security) (int64, error) {
	pagesNeeded := (size + paging.PageSize - 1) / paging.PageSize
	seg := m.mem.SegmentRange(region)
	if m.nextVirt[region]+pagesNeeded*paging.PageSize > seg.Start+seg.Size {
		slog.Error("allocation failed: virtual region exhausted", "region", region, "size", size)
		return 0, ErrAllocationFailed
	}

	blockID, physStart, err := m.buddy.Allocate(pagesNeeded)
	if err != nil {
		slog.Error("allocation failed: physical pages exhausted", "region", region, "pages", pagesNeeded)
		return 0, ErrAllocationFailed
	}

	virtStart := m.nextVirt[region]
	virtPage0 := virtStart / paging.PageSize
	pages := make([]int64, pagesNeeded)
	for i := int64(0); i < pagesNeeded; i++ {
		m.pages.MapPage(virtPage0+i, physStart+i)
		pages[i] = virtPage0 + i
	}
	m.nextVirt[region] = virtStart + pagesNeeded*paging.PageSize

	m.protect.Set(virtStart, pagesNeeded*paging.PageSize, level, security)

	id := m.nextAllocID
	m.nextAllocID++
	m.allocs[id] = &allocation{
		id: id, virtual: virtStart, size: size, region: region,
		protection: level, security: security, blockID: blockID,
		pages: pages, timestamp: time.Now(),
	}
	return virtStart, nil
}

// Deallocate tears down a prior allocation: unmaps its pages, frees the
// backing physical pages, clears protection, and removes the record.
func (m *Manager) Deallocate(v int64) error {
	id, rec := m.find(v)
	if rec == nil {
		return ErrAllocationFailed
	}
	for _, vp := range rec.pages {
		m.pages.UnmapPage(vp)
	}
	if err := m.buddy.Deallocate(rec.blockID); err != nil {
		return err
	}
	m.protect.Clear(rec.virtual, int64(len(rec.pages))*paging.PageSize)
	delete(m.allocs, id)
	return nil
}

func (m *Manager) find(v int64) (int64, *allocation) {
	for id, rec := range m.allocs {
		if rec.virtual == v {
			return id, rec
		}
	}
	return 0, nil
}

// Read translates v, checks protection for the caller's security level,
// and reads size trits through Memory.
func (m *Manager) Read(v, size int64, security protection.Security) (ternary.Word, error) {
	if !m.protect.Check(v, size, protection.Read, security) {
		slog.Error("protection violation", "op", "read", "addr", v, "security", security)
		return ternary.Word{}, errors.New("memmgr: protection violation on read")
	}
	phys, err := m.pages.Translate(v)
	if err != nil {
		slog.Error("page fault", "op", "read", "addr", v)
		return ternary.Word{}, err
	}
	return m.mem.LoadWord(phys, int(size))
}

// Write translates v, checks protection, and writes data through Memory.
func (m *Manager) Write(v int64, data ternary.Word, security protection.Security) error {
	if !m.protect.Check(v, int64(data.Len()), protection.Write, security) {
		slog.Error("protection violation", "op", "write", "addr", v, "security", security)
		return errors.New("memmgr: protection violation on write")
	}
	phys, err := m.pages.TranslateWrite(v)
	if err != nil {
		slog.Error("page fault", "op", "write", "addr", v)
		return err
	}
	return m.mem.StoreWord(phys, data)
}

// GarbageCollect delegates to the collector.
func (m *Manager) GarbageCollect() int {
	reclaimed := m.collector.Collect(time.Now())
	slog.Info("garbage collection run", "reclaimed", reclaimed)
	return reclaimed
}

// Defragment walks current allocations in virtual-address order and
// recreates each at a compacted address, copying data through
// read/write so protection continues to be observed.
func (m *Manager) Defragment(security protection.Security) error {
	ids := make([]int64, 0, len(m.allocs))
	for id := range m.allocs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return m.allocs[ids[i]].virtual < m.allocs[ids[j]].virtual })

	// compacted holds each region's packing cursor; nextVirt keeps its old
	// value until the walk completes, so nothing lands on unmoved ranges.
	compacted := make(map[memory.SegmentID]int64, len(m.nextVirt))
	for s := range m.nextVirt {
		compacted[s] = m.mem.SegmentRange(s).Start
	}
	for _, id := range ids {
		rec := m.allocs[id]
		data, err := m.Read(rec.virtual, rec.size, security)
		if err != nil {
			return err
		}
		if err := m.Deallocate(rec.virtual); err != nil {
			return err
		}
		saved := m.nextVirt[rec.region]
		m.nextVirt[rec.region] = compacted[rec.region]
		newAddr, err := m.Allocate(rec.size, rec.region, rec.protection, rec.security)
		compacted[rec.region] = m.nextVirt[rec.region]
		m.nextVirt[rec.region] = saved
		if err != nil {
			return err
		}
		if err := m.Write(newAddr, data, security); err != nil {
			return err
		}
	}
	for s, next := range compacted {
		m.nextVirt[s] = next
	}
	return nil
}
