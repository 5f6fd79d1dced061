/*
 * T3VM - Buddy allocator over powers of three.
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

// Package buddy implements a buddy-style allocator over physical pages,
// sized to powers of three instead of the conventional powers of two.
package buddy

import (
	"errors"
	"sort"
)

// ErrAllocationFailed is returned when no free block, after splitting,
// can satisfy a request.
var ErrAllocationFailed = errors.New("buddy: allocation failed")

// ErrUnknownBlock is returned by Deallocate for an unrecognized block id.
var ErrUnknownBlock = errors.New("buddy: unknown block id")

type block struct {
	start int64
	level int
	size  int64 // requested size in pages; may be < 3^level
}

// Allocator manages contiguous runs of physical pages sized to powers of
// three: free lists indexed by power k (block size 3^k pages), and a
// table of outstanding allocations keyed by an incrementing block id.
type Allocator struct {
	maxPower  int
	free      map[int]map[int64]bool // level -> set of block-start pages
	allocated map[int64]block        // block id -> allocation record
	nextID    int64
	totalSize int64
}

// NewAllocator constructs an allocator over totalPages physical pages,
// rounded down to the largest power of three it fully covers. The
// remainder (if any) is simply not offered by the allocator.
func NewAllocator(totalPages int64) *Allocator {
	maxPower := 0
	size := int64(1)
	for size*3 <= totalPages {
		size *= 3
		maxPower++
	}
	a := &Allocator{
		maxPower:  maxPower,
		free:      make(map[int]map[int64]bool),
		allocated: make(map[int64]block),
		totalSize: size,
	}
	for k := 0; k <= maxPower; k++ {
		a.free[k] = make(map[int64]bool)
	}
	a.free[maxPower][0] = true
	return a
}

func pow3(k int) int64 {
	v := int64(1)
	for i := 0; i < k; i++ {
		v *= 3
	}
	return v
}

func smallestPowerAtLeast(n int64) int {
	k := 0
	size := int64(1)
	for size < n {
		size *= 3
		k++
	}
	return k
}

// Allocate reserves n pages, returning a block id identifying the
// reservation. It finds the smallest k with 3^k >= n; if free[k] is
// non-empty it takes a block directly, otherwise it splits the smallest
// larger free block down to level k.
func (a *Allocator) Allocate(n int64) (int64, int64, error) {
	if n <= 0 {
		return 0, 0, ErrAllocationFailed
	}
	k := smallestPowerAtLeast(n)
	if k > a.maxPower {
		return 0, 0, ErrAllocationFailed
	}
	start, ok := a.takeFree(k)
	if !ok {
		if !a.split(k) {
			return 0, 0, ErrAllocationFailed
		}
		start, ok = a.takeFree(k)
		if !ok {
			return 0, 0, ErrAllocationFailed
		}
	}
	id := a.nextID
	a.nextID++
	a.allocated[id] = block{start: start, level: k, size: n}
	return id, start, nil
}

// takeFree removes and returns the lowest-addressed free block at level
// k, a deterministic policy so repeated runs over the same request
// sequence always produce the same layout.
func (a *Allocator) takeFree(k int) (int64, bool) {
	best := int64(-1)
	for start := range a.free[k] {
		if best == -1 || start < best {
			best = start
		}
	}
	if best == -1 {
		return 0, false
	}
	delete(a.free[k], best)
	return best, true
}

// split finds the smallest j > k with a free block, pops it, and
// recursively splits down to level k, leaving the two freed siblings at
// each intermediate level in their free lists.
func (a *Allocator) split(k int) bool {
	j := -1
	for level := k + 1; level <= a.maxPower; level++ {
		if len(a.free[level]) > 0 {
			j = level
			break
		}
	}
	if j == -1 {
		return false
	}
	start, _ := a.takeFree(j)
	for level := j; level > k; level-- {
		sub := pow3(level - 1)
		a.free[level-1][start] = true
		a.free[level-1][start+sub] = true
		a.free[level-1][start+2*sub] = true
		// keep the first sub-block as the "current" being split further;
		// remove it from the free list we just added it to.
		delete(a.free[level-1], start)
	}
	a.free[k][start] = true
	return true
}

// Deallocate releases block id, returning the full 3^level block to the
// free list and attempting to coalesce with its buddies.
func (a *Allocator) Deallocate(id int64) error {
	b, ok := a.allocated[id]
	if !ok {
		return ErrUnknownBlock
	}
	delete(a.allocated, id)
	a.free[b.level][b.start] = true
	a.coalesce(b.start, b.level)
	return nil
}

// coalesce merges a freed block with its buddies up the level chain: if
// both sibling starts at level k are present in free[k], remove them and
// add the combined block to free[k+1], then retry at k+1.
func (a *Allocator) coalesce(start int64, k int) {
	for k < a.maxPower {
		size := pow3(k)
		// a level-k block's parent triple starts at a multiple of 3*size;
		// the block occupies one of three slots within it.
		parentStart := (start / (3 * size)) * (3 * size)
		slot0 := parentStart
		slot1 := parentStart + size
		slot2 := parentStart + 2*size
		if a.free[k][slot0] && a.free[k][slot1] && a.free[k][slot2] {
			delete(a.free[k], slot0)
			delete(a.free[k], slot1)
			delete(a.free[k], slot2)
			a.free[k+1][parentStart] = true
			start = parentStart
			k++
			continue
		}
		break
	}
}

// Fragmentation returns 1 - largest_free_block/total_free_pages, or 0
// when there is no free space.
func (a *Allocator) Fragmentation() float64 {
	var total, largest int64
	for k := 0; k <= a.maxPower; k++ {
		n := pow3(k)
		for range a.free[k] {
			total += n
			if n > largest {
				largest = n
			}
		}
	}
	if total == 0 {
		return 0
	}
	return 1 - float64(largest)/float64(total)
}

// TotalFreePages returns the sum of pages across all free blocks.
func (a *Allocator) TotalFreePages() int64 {
	var total int64
	for k := 0; k <= a.maxPower; k++ {
		total += pow3(k) * int64(len(a.free[k]))
	}
	return total
}

// Defragment compacts active allocations to the lowest page numbers. It
// rebuilds the free-list/allocation-table bookkeeping from scratch and
// returns a map from block id to its new start page, so callers (the
// PageTable) can update their own mappings in lockstep.
func (a *Allocator) Defragment() map[int64]int64 {
	ids := make([]int64, 0, len(a.allocated))
	for id := range a.allocated {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return a.allocated[ids[i]].start < a.allocated[ids[j]].start })

	moved := make(map[int64]int64, len(ids))
	cursor := int64(0)
	newAllocated := make(map[int64]block, len(ids))
	for _, id := range ids {
		b := a.allocated[id]
		moved[id] = cursor
		b.start = cursor
		newAllocated[id] = b
		cursor += pow3(b.level)
	}
	a.allocated = newAllocated

	for k := range a.free {
		a.free[k] = make(map[int64]bool)
	}
	a.rebuildFreeSpace(cursor)
	return moved
}

// rebuildFreeSpace reconstructs free lists covering [from, totalSize):
// at each position it places the largest power-of-three block that is
// aligned there and fits before totalSize.
func (a *Allocator) rebuildFreeSpace(from int64) {
	cursor := from
	for cursor < a.totalSize {
		k := a.maxPower
		for k > 0 && (cursor%pow3(k) != 0 || cursor+pow3(k) > a.totalSize) {
			k--
		}
		a.free[k][cursor] = true
		cursor += pow3(k)
	}
}
