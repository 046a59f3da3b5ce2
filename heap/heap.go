// This file is part of glulxcore.
//
// glulxcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// glulxcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with glulxcore.  If not, see <https://www.gnu.org/licenses/>.


// Package heap implements the Glulx malloc/free heap:
// best-fit allocation with coalescing, living inside the tail of the VM's
// memory image and growing it on demand.
//
// The allocator never touches the memory image directly; it is handed a
// MemoryResizer so it can be unit-tested against a fake and so the vm
// package (which owns the real image) can depend on heap without heap
// needing to import vm back.
package heap

import (
	"sort"

	"github.com/erkyrath/glulxcore/internal/curated"
	"github.com/erkyrath/glulxcore/internal/logger"
)

// MemoryResizer is the slice of the memory image the heap needs: it can
// grow on demand (in 256-byte-aligned chunks) and it reports its
// current size.
type MemoryResizer interface {
	EndMem() uint32
	ChangeMemSize(newLen uint32, internal bool) error
}

// Heap tracks live allocations inside [heapstart, endmem) of the memory
// image.
type Heap struct {
	heapstart uint32
	active    bool

	usedheads map[uint32]uint32 // addr -> size
	freeheads map[uint32]uint32 // addr -> size
	freetails map[uint32]uint32 // end  -> size
}

// New returns an inactive heap. HeapStart is established on the first
// live allocation.
func New() *Heap {
	return &Heap{
		usedheads: make(map[uint32]uint32),
		freeheads: make(map[uint32]uint32),
		freetails: make(map[uint32]uint32),
	}
}

// Active reports whether the heap currently owns any live allocation.
func (h *Heap) Active() bool {
	return h.active
}

// HeapStart returns the address the heap was established at. Only
// meaningful while Active().
func (h *Heap) HeapStart() uint32 {
	return h.heapstart
}

// Count returns the number of live (used) blocks.
func (h *Heap) Count() int {
	return len(h.usedheads)
}

func ceil256(n uint32) uint32 {
	return (n + 255) &^ 255
}

// Malloc allocates size bytes, returning the address of the new block.
// First allocation establishes heapstart at the current end of memory.
func (h *Heap) Malloc(mem MemoryResizer, size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}

	if !h.active {
		h.heapstart = mem.EndMem()
		h.active = true
	}

	if addr, ok := h.allocateFromFreeList(size); ok {
		return addr, nil
	}

	// no free block big enough: grow the image and carve the new block
	// out of the low end of the new region.
	growBy := ceil256(size)
	oldEnd := mem.EndMem()
	if err := mem.ChangeMemSize(oldEnd+growBy, true); err != nil {
		return 0, curated.Errorf("heap", "failed to grow heap by %d bytes", growBy, err)
	}

	addr := oldEnd
	h.usedheads[addr] = size

	tailSize := growBy - size
	if tailSize > 0 {
		h.insertFree(addr+size, tailSize)
	}

	return addr, nil
}

// allocateFromFreeList finds the smallest free block of at least size
// bytes (best-fit, lowest address first among equal sizes), splits off
// any residual, and returns its address.
func (h *Heap) allocateFromFreeList(size uint32) (uint32, bool) {
	var candidates []uint32
	for addr, fsize := range h.freeheads {
		if fsize >= size {
			candidates = append(candidates, addr)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}

	// best-fit: smallest block that still satisfies the request, lowest
	// address breaking ties so allocation order is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := h.freeheads[candidates[i]], h.freeheads[candidates[j]]
		if si != sj {
			return si < sj
		}
		return candidates[i] < candidates[j]
	})
	addr := candidates[0]
	fsize := h.freeheads[addr]

	delete(h.freeheads, addr)
	delete(h.freetails, addr+fsize)

	h.usedheads[addr] = size

	residual := fsize - size
	if residual > 0 {
		h.insertFree(addr+size, residual)
	}

	return addr, true
}

func (h *Heap) insertFree(addr, size uint32) {
	h.freeheads[addr] = size
	h.freetails[addr+size] = size
}

// Free releases the block at addr, coalescing it with any adjacent free
// blocks. When the last live block is freed, the heap deactivates and
// shrinks the image back to heapstart.
func (h *Heap) Free(mem MemoryResizer, addr uint32) error {
	size, ok := h.usedheads[addr]
	if !ok {
		return curated.Errorf("heap", "free of unknown address %#x", addr)
	}
	delete(h.usedheads, addr)

	start := addr
	end := addr + size

	// coalesce with the immediately-following free block.
	if fsize, ok := h.freeheads[end]; ok {
		delete(h.freeheads, end)
		delete(h.freetails, end+fsize)
		end += fsize
	}

	// coalesce with the immediately-preceding free block.
	if fsize, ok := h.freetails[start]; ok {
		delete(h.freetails, start)
		delete(h.freeheads, start-fsize)
		start -= fsize
	}

	h.insertFree(start, end-start)

	if len(h.usedheads) == 0 {
		logger.Logf("heap", "last block freed, deactivating heap at %#x", h.heapstart)
		h.active = false
		for k := range h.freeheads {
			delete(h.freeheads, k)
		}
		for k := range h.freetails {
			delete(h.freetails, k)
		}
		if err := mem.ChangeMemSize(h.heapstart, true); err != nil {
			return curated.Errorf("heap", "failed to shrink heap back to origin", err)
		}
	}

	return nil
}

// State is an exported snapshot of the heap's bookkeeping maps, used by
// the undo package to take and restore a deep clone without undo needing
// to know this package's internal representation.
type State struct {
	HeapStart uint32
	Active    bool
	UsedHeads map[uint32]uint32
	FreeHeads map[uint32]uint32
	FreeTails map[uint32]uint32
}

// Export returns a deep copy of the heap's current bookkeeping.
func (h *Heap) Export() State {
	return State{
		HeapStart: h.heapstart,
		Active:    h.active,
		UsedHeads: cloneMap(h.usedheads),
		FreeHeads: cloneMap(h.freeheads),
		FreeTails: cloneMap(h.freetails),
	}
}

// Import restores the heap's bookkeeping from a previously exported
// state, deep-copying so the stored snapshot remains untouched by future
// mutation.
func (h *Heap) Import(s State) {
	h.heapstart = s.HeapStart
	h.active = s.Active
	h.usedheads = cloneMap(s.UsedHeads)
	h.freeheads = cloneMap(s.FreeHeads)
	h.freetails = cloneMap(s.FreeTails)
}

func cloneMap(m map[uint32]uint32) map[uint32]uint32 {
	out := make(map[uint32]uint32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
