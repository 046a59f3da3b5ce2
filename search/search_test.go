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

package search_test

import (
	"testing"

	"github.com/erkyrath/glulxcore/internal/test"
	"github.com/erkyrath/glulxcore/search"
)

// byteMem backs the search primitives with a plain slice.
type byteMem []byte

func (m byteMem) Mem1(addr uint32) uint8 {
	return m[addr]
}

// packed builds an array of 4-byte big-endian keys at offset 0 of each
// 4-byte struct.
func packed(keys ...uint32) byteMem {
	out := make(byteMem, 0, len(keys)*4)
	for _, k := range keys {
		out = append(out, byte(k>>24), byte(k>>16), byte(k>>8), byte(k))
	}
	return out
}

func TestLinearFindsFirstMatch(t *testing.T) {
	mem := packed(5, 3, 9, 3)

	addr := search.Linear(mem, 3, 4, 0, 4, 4, 0, 0)
	test.ExpectEquality(t, addr, uint32(4))

	idx := search.Linear(mem, 3, 4, 0, 4, 4, 0, search.OptReturnIndex)
	test.ExpectEquality(t, idx, uint32(1))
}

func TestLinearNotFound(t *testing.T) {
	mem := packed(5, 3, 9)

	test.ExpectEquality(t, search.Linear(mem, 7, 4, 0, 4, 3, 0, 0), search.NotFoundAddr)
	test.ExpectEquality(t, search.Linear(mem, 7, 4, 0, 4, 3, 0, search.OptReturnIndex), search.NotFoundIndex)
}

func TestLinearZeroTerminator(t *testing.T) {
	mem := packed(5, 0, 9)

	// the zero struct stops the scan before 9 is reached.
	test.ExpectEquality(t, search.Linear(mem, 9, 4, 0, 4, -1, 0, search.OptZeroTerm), search.NotFoundAddr)
}

func TestLinearIndirectKey(t *testing.T) {
	mem := append(packed(5, 7, 9), 0, 0, 0, 7)
	keyAddr := uint32(12)

	addr := search.Linear(mem, keyAddr, 4, 0, 4, 3, 0, search.OptKeyIndirect)
	test.ExpectEquality(t, addr, uint32(4))
}

func TestBinaryAgreesWithLinear(t *testing.T) {
	keys := []uint32{2, 3, 5, 8, 13, 21, 34, 55, 89, 144}
	mem := packed(keys...)

	for _, k := range keys {
		lin := search.Linear(mem, k, 4, 0, 4, int32(len(keys)), 0, 0)
		bin := search.Binary(mem, k, 4, 0, 4, int32(len(keys)), 0, 0)
		test.ExpectEquality(t, bin, lin)
	}

	test.ExpectEquality(t, search.Binary(mem, 6, 4, 0, 4, int32(len(keys)), 0, 0), search.NotFoundAddr)
}

func TestBinaryReturnIndex(t *testing.T) {
	mem := packed(10, 20, 30, 40)

	test.ExpectEquality(t, search.Binary(mem, 30, 4, 0, 4, 4, 0, search.OptReturnIndex), uint32(2))
	test.ExpectEquality(t, search.Binary(mem, 35, 4, 0, 4, 4, 0, search.OptReturnIndex), search.NotFoundIndex)
}

// linked nodes: 4-byte key at offset 0, 4-byte next pointer at offset 4.
func linkedNode(mem byteMem, addr, key, next uint32) byteMem {
	for uint32(len(mem)) < addr+8 {
		mem = append(mem, 0)
	}
	put := func(off, v uint32) {
		mem[off] = byte(v >> 24)
		mem[off+1] = byte(v >> 16)
		mem[off+2] = byte(v >> 8)
		mem[off+3] = byte(v)
	}
	put(addr, key)
	put(addr+4, next)
	return mem
}

func TestLinkedSearch(t *testing.T) {
	var mem byteMem
	mem = linkedNode(mem, 8, 5, 24)
	mem = linkedNode(mem, 24, 7, 40)
	mem = linkedNode(mem, 40, 9, 0)

	test.ExpectEquality(t, search.Linked(mem, 7, 4, 8, 0, 4, 0), uint32(24))
	test.ExpectEquality(t, search.Linked(mem, 9, 4, 8, 0, 4, 0), uint32(40))
	test.ExpectEquality(t, search.Linked(mem, 11, 4, 8, 0, 4, 0), search.NotFoundAddr)
}

func TestLinkedZeroTerminator(t *testing.T) {
	var mem byteMem
	mem = linkedNode(mem, 8, 5, 24)
	mem = linkedNode(mem, 24, 0, 40)
	mem = linkedNode(mem, 40, 9, 0)

	// the zero key at the second node ends the walk before 9.
	test.ExpectEquality(t, search.Linked(mem, 9, 4, 8, 0, 4, search.OptZeroTerm), search.NotFoundAddr)
}

func TestKeySizes(t *testing.T) {
	mem := byteMem{0x05, 0x07, 0x09, 0x00}

	test.ExpectEquality(t, search.Linear(mem, 7, 1, 0, 1, 4, 0, 0), uint32(1))
	test.ExpectEquality(t, search.Linear(mem, 0x0709, 2, 1, 2, 1, 0, 0), uint32(1))
}
