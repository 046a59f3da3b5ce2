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

// Package vm is the Glulx bytecode execution engine: the memory image,
// the dispatcher that drives the compiler and opcode packages, the
// call-frame discipline, verify, and randomness.
//
// vm.State is the single owning record the whole machine hangs off;
// the vm package keeps no package-level mutable state.
package vm

import "github.com/erkyrath/glulxcore/internal/curated"

// Memory is the byte-addressable image: ROM bytes below ramstart, RAM
// above, growable in 256-byte-aligned chunks.
type Memory struct {
	bytes     []byte
	ramStart  uint32
	origEnd   uint32
	protStart uint32
	protEnd   uint32
}

// NewMemory wraps image (the freshly-loaded executable bytes, already
// padded by the caller to origendmem) as the initial memory image.
func NewMemory(image []byte, ramStart, origEndMem uint32) *Memory {
	return &Memory{bytes: image, ramStart: ramStart, origEnd: origEndMem}
}

// RAMStart reports the boundary below which bytes are immutable ROM.
func (m *Memory) RAMStart() uint32 { return m.ramStart }

// EndMem reports the current length of the memory image.
func (m *Memory) EndMem() uint32 { return uint32(len(m.bytes)) }

func (m *Memory) Mem1(addr uint32) uint8 { return m.bytes[addr] }

func (m *Memory) Mem2(addr uint32) uint16 {
	return uint16(m.bytes[addr])<<8 | uint16(m.bytes[addr+1])
}

func (m *Memory) Mem4(addr uint32) uint32 {
	return uint32(m.bytes[addr])<<24 | uint32(m.bytes[addr+1])<<16 |
		uint32(m.bytes[addr+2])<<8 | uint32(m.bytes[addr+3])
}

func (m *Memory) MemW1(addr uint32, v uint8) { m.bytes[addr] = v }

func (m *Memory) MemW2(addr uint32, v uint16) {
	m.bytes[addr] = byte(v >> 8)
	m.bytes[addr+1] = byte(v)
}

func (m *Memory) MemW4(addr uint32, v uint32) {
	m.bytes[addr] = byte(v >> 24)
	m.bytes[addr+1] = byte(v >> 16)
	m.bytes[addr+2] = byte(v >> 8)
	m.bytes[addr+3] = byte(v)
}

// ChangeMemSize implements change_memsize: fails if
// newLen is below origendmem, not a multiple of 256, or (when internal is
// false) the heap is currently active. Newly added bytes are zeroed;
// shrinking simply truncates.
func (m *Memory) ChangeMemSize(newLen uint32, internal bool, heapActive bool) error {
	if newLen < m.origEnd {
		return curated.Errorf("resize", "new memory size %#x below origendmem %#x", newLen, m.origEnd)
	}
	if newLen%256 != 0 {
		return curated.Errorf("resize", "new memory size %#x is not a multiple of 256", newLen)
	}
	if !internal && heapActive {
		return curated.Errorf("resize", "setmemsize cannot shrink/grow memory while the heap is active")
	}

	cur := uint32(len(m.bytes))
	switch {
	case newLen > cur:
		grown := make([]byte, newLen)
		copy(grown, m.bytes)
		m.bytes = grown
	case newLen < cur:
		m.bytes = m.bytes[:newLen]
	}
	return nil
}

// SetProtectedRange implements protect: a zero-length
// range disables protection.
func (m *Memory) SetProtectedRange(start, length uint32) {
	if length == 0 {
		m.protStart, m.protEnd = 0, 0
		return
	}
	m.protStart, m.protEnd = start, start+length
}

// CopyProtectedRange snapshots the protected range [protectstart,
// protectend), logically zero-padding past the current endmem.
func (m *Memory) CopyProtectedRange() []byte {
	if m.protEnd <= m.protStart {
		return nil
	}
	out := make([]byte, m.protEnd-m.protStart)
	end := m.EndMem()
	for i := range out {
		addr := m.protStart + uint32(i)
		if addr < end {
			out[i] = m.bytes[addr]
		}
	}
	return out
}

// PasteProtectedRange restores a previously captured protected range,
// clipping any bytes that now fall beyond endmem.
func (m *Memory) PasteProtectedRange(saved []byte) {
	if len(saved) == 0 {
		return
	}
	end := m.EndMem()
	for i, b := range saved {
		addr := m.protStart + uint32(i)
		if addr >= end {
			break
		}
		m.bytes[addr] = b
	}
}

// Reset replaces the whole image, used by restart. The caller supplies
// the pristine bytes already padded to origendmem.
func (m *Memory) Reset(image []byte) {
	m.bytes = image
}

// RAMSlice returns the live [ramstart, endmem) region, for the undo
// package to copy out of.
func (m *Memory) RAMSlice() []byte {
	return m.bytes[m.ramStart:]
}

// ReplaceRAM overwrites [ramstart, ramstart+len(ram)) and truncates the
// image to that length, used when restoring an undo snapshot.
func (m *Memory) ReplaceRAM(ram []byte) {
	m.bytes = append(m.bytes[:m.ramStart:m.ramStart], ram...)
}
