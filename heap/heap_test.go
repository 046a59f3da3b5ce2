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

package heap_test

import (
	"testing"

	"github.com/erkyrath/glulxcore/heap"
	"github.com/erkyrath/glulxcore/internal/test"
)

// fakeMem satisfies heap.MemoryResizer without a real image.
type fakeMem struct {
	end uint32
}

func (m *fakeMem) EndMem() uint32 {
	return m.end
}

func (m *fakeMem) ChangeMemSize(newLen uint32, internal bool) error {
	m.end = newLen
	return nil
}

// tiled checks the heap invariant: allocated and free blocks exactly
// tile [heapstart, endmem) while the heap is active.
func tiled(t *testing.T, h *heap.Heap, m *fakeMem) {
	t.Helper()
	s := h.Export()
	var sum uint32
	for _, v := range s.UsedHeads {
		sum += v
	}
	for _, v := range s.FreeHeads {
		sum += v
	}
	test.ExpectEquality(t, sum, m.end-s.HeapStart)
}

func TestMallocEstablishesHeap(t *testing.T) {
	h := heap.New()
	m := &fakeMem{end: 0x1000}

	test.ExpectEquality(t, h.Active(), false)

	addr, err := h.Malloc(m, 100)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, addr, uint32(0x1000))
	test.ExpectEquality(t, h.Active(), true)
	test.ExpectEquality(t, h.HeapStart(), uint32(0x1000))
	test.ExpectEquality(t, m.end, uint32(0x1100))
	test.ExpectEquality(t, h.Count(), 1)
	tiled(t, h, m)
}

func TestFreeReuse(t *testing.T) {
	h := heap.New()
	m := &fakeMem{end: 0x1000}

	a, err := h.Malloc(m, 100)
	test.ExpectSuccess(t, err)
	b, err := h.Malloc(m, 50)
	test.ExpectSuccess(t, err)

	test.ExpectSuccess(t, h.Free(m, a))
	test.ExpectEquality(t, h.Count(), 1)
	tiled(t, h, m)

	c, err := h.Malloc(m, 100)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, c, a)
	test.ExpectEquality(t, h.Count(), 2)
	tiled(t, h, m)

	_ = b
}

func TestCoalesce(t *testing.T) {
	h := heap.New()
	m := &fakeMem{end: 0x1000}

	a, _ := h.Malloc(m, 64)
	b, _ := h.Malloc(m, 64)
	c, _ := h.Malloc(m, 64)

	// free the middle block, then its neighbours: the three must merge
	// into a single free run (adjacent free blocks never exist).
	test.ExpectSuccess(t, h.Free(m, b))
	test.ExpectSuccess(t, h.Free(m, a))
	test.ExpectSuccess(t, h.Free(m, c))

	// all blocks freed: heap deactivates and memory shrinks back.
	test.ExpectEquality(t, h.Active(), false)
	test.ExpectEquality(t, m.end, uint32(0x1000))

	s := h.Export()
	test.ExpectEquality(t, len(s.FreeHeads), 0)
	test.ExpectEquality(t, len(s.UsedHeads), 0)
}

func TestCoalesceMiddle(t *testing.T) {
	h := heap.New()
	m := &fakeMem{end: 0x1000}

	a, _ := h.Malloc(m, 64)
	b, _ := h.Malloc(m, 64)
	c, _ := h.Malloc(m, 64)
	d, _ := h.Malloc(m, 32)

	test.ExpectSuccess(t, h.Free(m, a))
	test.ExpectSuccess(t, h.Free(m, c))
	test.ExpectSuccess(t, h.Free(m, b))
	tiled(t, h, m)

	// a+b+c coalesced into one block: a fresh allocation of their
	// combined size must land at a.
	e, err := h.Malloc(m, 192)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, e, a)

	_ = d
}

func TestFreeUnknownAddress(t *testing.T) {
	h := heap.New()
	m := &fakeMem{end: 0x1000}

	_, _ = h.Malloc(m, 16)
	test.ExpectFailure(t, h.Free(m, 0x9999))
}

func TestExportImportDeepCopy(t *testing.T) {
	h := heap.New()
	m := &fakeMem{end: 0x1000}

	a, _ := h.Malloc(m, 16)
	snap := h.Export()

	// mutate after the export; the snapshot must be unaffected.
	_, _ = h.Malloc(m, 16)
	test.ExpectEquality(t, len(snap.UsedHeads), 1)

	h.Import(snap)
	test.ExpectEquality(t, h.Count(), 1)
	test.ExpectSuccess(t, h.Free(m, a))
}
