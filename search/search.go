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


// Package search implements the Glulx search opcodes:
// linear, binary and linked search over packed arrays of structs living
// in the VM's memory image.
package search

// MemoryReader is the slice of the memory image the search primitives
// need: plain byte reads, so the package can be tested against a fake
// without depending on the vm package.
type MemoryReader interface {
	Mem1(addr uint32) uint8
}

// Option bits.
const (
	OptKeyIndirect  uint32 = 1 << 0
	OptZeroTerm     uint32 = 1 << 1
	OptReturnIndex  uint32 = 1 << 2
)

// NotFound sentinels: 0 for address results, 0xFFFFFFFF
// for index results.
const (
	NotFoundAddr  uint32 = 0
	NotFoundIndex uint32 = 0xFFFFFFFF
)

func notFound(options uint32) uint32 {
	if options&OptReturnIndex != 0 {
		return NotFoundIndex
	}
	return NotFoundAddr
}

// readKeyBytes returns the key bytes to compare against: either the
// literal bytes of key (truncated/zero-extended to keysize, for keysize
// in {1,2,4}) or, if OptKeyIndirect is set, the keysize bytes found at
// address key in memory.
func readKeyBytes(mem MemoryReader, key uint32, keysize uint32, options uint32) []byte {
	out := make([]byte, keysize)
	if options&OptKeyIndirect != 0 {
		for i := uint32(0); i < keysize; i++ {
			out[i] = mem.Mem1(key + i)
		}
		return out
	}
	for i := uint32(0); i < keysize && i < 4; i++ {
		shift := uint(8 * (keysize - 1 - i))
		out[i] = byte(key >> shift)
	}
	return out
}

func readStructBytes(mem MemoryReader, addr uint32, n uint32) []byte {
	out := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		out[i] = mem.Mem1(addr + i)
	}
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bytesLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Linear performs a linear_search: iterate numstructs structs of
// structsize bytes starting at start, each compared at byte offset
// keyoffset, first match wins.
func Linear(mem MemoryReader, key, keysize, start, structsize uint32, numstructs int32, keyoffset, options uint32) uint32 {
	wantKey := readKeyBytes(mem, key, keysize, options)

	addr := start
	for i := int32(0); numstructs < 0 || i < numstructs; i++ {
		candidate := readStructBytes(mem, addr+keyoffset, keysize)

		if options&OptZeroTerm != 0 && allZero(candidate) {
			break
		}

		if bytesEqual(candidate, wantKey) {
			if options&OptReturnIndex != 0 {
				return uint32(i)
			}
			return addr
		}

		addr += structsize
	}

	return notFound(options)
}

// Binary performs a binary_search over a sorted packed array. The
// zero-terminator option is not honoured.
func Binary(mem MemoryReader, key, keysize, start, structsize uint32, numstructs int32, keyoffset, options uint32) uint32 {
	wantKey := readKeyBytes(mem, key, keysize, options)

	lo, hi := int32(0), numstructs-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		addr := start + uint32(mid)*structsize
		candidate := readStructBytes(mem, addr+keyoffset, keysize)

		switch {
		case bytesEqual(candidate, wantKey):
			if options&OptReturnIndex != 0 {
				return uint32(mid)
			}
			return addr
		case bytesLess(candidate, wantKey):
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}

	return notFound(options)
}

// Linked performs a linked_search: follow nextoffset pointers from start
// until a null link, honouring the zero-terminator option. There is no
// index to report for a linked structure, so the return-index option bit
// is ignored here and a match always yields an address.
func Linked(mem MemoryReader, key, keysize, start, keyoffset, nextoffset, options uint32) uint32 {
	wantKey := readKeyBytes(mem, key, keysize, options)

	addr := start
	for addr != 0 {
		candidate := readStructBytes(mem, addr+keyoffset, keysize)

		if options&OptZeroTerm != 0 && allZero(candidate) {
			break
		}

		if bytesEqual(candidate, wantKey) {
			return addr
		}

		next := uint32(0)
		for i := uint32(0); i < 4; i++ {
			next = (next << 8) | uint32(mem.Mem1(addr+nextoffset+i))
		}
		addr = next
	}

	return NotFoundAddr
}
