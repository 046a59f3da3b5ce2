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

// Package decode implements the Glulx operand decoder:
// addressing-mode nibbles, the L/E/S/F/C slot kinds, and the handful of
// helpers that turn a decoded mode+field pair into a loaded value or a
// store destination.
//
// This package knows nothing about opcodes or the dispatch loop; it is a
// leaf the compiler and opcode packages both sit on, the same
// dependency-inversion shape as heap.MemoryResizer and search.MemoryReader.
package decode

import "github.com/erkyrath/glulxcore/internal/curated"

// Mem is the memory access surface the decoder needs to read instruction
// bytes and, for absolute-address operands, to load or store values.
type Mem interface {
	Mem1(addr uint32) uint8
	Mem2(addr uint32) uint16
	Mem4(addr uint32) uint32
	MemW1(addr uint32, v uint8)
	MemW2(addr uint32, v uint16)
	MemW4(addr uint32, v uint32)
	RAMStart() uint32
}

// Locals is the per-frame local-variable storage the decoder reads and
// writes for local-addressing-mode operands.
type Locals interface {
	LocalGet(byteIndex uint32) uint32
	LocalSet(byteIndex uint32, v uint32)
}

// Addressing modes, packed two per byte, low nibble first.
const (
	ModeConstZero    uint8 = 0
	ModeImmed1       uint8 = 1
	ModeImmed2       uint8 = 2
	ModeImmed4       uint8 = 3
	ModeStack        uint8 = 8
	ModeMem1         uint8 = 5
	ModeMem2         uint8 = 6
	ModeMem4         uint8 = 7
	ModeLocal1       uint8 = 9
	ModeLocal2       uint8 = 10
	ModeLocal4       uint8 = 11
	ModeRAMRelative1 uint8 = 13
	ModeRAMRelative2 uint8 = 14
	ModeRAMRelative4 uint8 = 15
)

func validMode(m uint8) bool {
	switch m {
	case ModeConstZero, ModeImmed1, ModeImmed2, ModeImmed4, ModeStack,
		ModeMem1, ModeMem2, ModeMem4, ModeLocal1, ModeLocal2, ModeLocal4,
		ModeRAMRelative1, ModeRAMRelative2, ModeRAMRelative4:
		return true
	}
	return false
}

// ModeBytes reports the width of the field that follows the mode nibbles
// for a given mode, in bytes (0 for modes with no following field).
func ModeBytes(mode uint8) uint32 {
	switch mode {
	case ModeImmed1, ModeMem1, ModeLocal1, ModeRAMRelative1:
		return 1
	case ModeImmed2, ModeMem2, ModeLocal2, ModeRAMRelative2:
		return 2
	case ModeImmed4, ModeMem4, ModeLocal4, ModeRAMRelative4:
		return 4
	}
	return 0
}

// DecodeModeNibbles reads the packed mode nibbles for n operand slots,
// starting at addr, and returns them along with the address immediately
// following the nibble bytes.
func DecodeModeNibbles(mem Mem, addr uint32, n int) ([]uint8, uint32, error) {
	modes := make([]uint8, n)
	nibbleBytes := (n + 1) / 2
	for i := 0; i < n; i++ {
		b := mem.Mem1(addr + uint32(i/2))
		var nibble uint8
		if i%2 == 0 {
			nibble = b & 0x0F
		} else {
			nibble = (b >> 4) & 0x0F
		}
		if !validMode(nibble) {
			return nil, 0, curated.Errorf("opcode", "invalid operand addressing mode %#x", nibble)
		}
		modes[i] = nibble
	}
	return modes, addr + uint32(nibbleBytes), nil
}

// Field is a decoded-but-unresolved operand: its addressing mode and the
// raw field value that followed it in the instruction stream (an
// immediate constant already sign-extended, an absolute address, or a
// local byte index; the mode says which). ArgSize is the opcode's data
// width: the memory modes encode only the width of the address field, so
// the width of the access itself comes from the opcode (4 for everything
// except copys and copyb).
type Field struct {
	Mode    uint8
	Value   uint32
	ArgSize uint8
}

// DecodeField reads the field bytes (if any) following a mode nibble at
// addr, returning the decoded Field and the address past the field.
func DecodeField(mem Mem, addr uint32, mode uint8, argSize uint8) (Field, uint32, error) {
	n := ModeBytes(mode)
	var raw uint32
	switch n {
	case 0:
		raw = 0
	case 1:
		raw = uint32(mem.Mem1(addr))
	case 2:
		raw = uint32(mem.Mem2(addr))
	case 4:
		raw = mem.Mem4(addr)
	}

	value := raw
	switch mode {
	case ModeImmed1:
		value = uint32(int32(int8(raw)))
	case ModeImmed2:
		value = uint32(int32(int16(raw)))
	case ModeRAMRelative1, ModeRAMRelative2, ModeRAMRelative4:
		value = raw + mem.RAMStart()
	}

	if argSize == 0 {
		argSize = 4
	}
	return Field{Mode: mode, Value: value, ArgSize: argSize}, addr + n, nil
}

// Stack is the pop/push surface used for stack-addressed (mode 8)
// operands. The dispatcher supplies an implementation backed by its
// offstack-then-real-stack discipline.
type Stack interface {
	Pop() uint32
	Push(v uint32)
}

// Load resolves a decoded Field to its 32-bit value: an immediate or
// RAM-relative-address's own value is already final; mode 0 is the
// constant zero; stack pops; memory modes read ArgSize bytes at the
// decoded address; local modes read the local at its declared width.
func Load(mem Mem, locals Locals, stack Stack, f Field) uint32 {
	switch f.Mode {
	case ModeConstZero:
		return 0
	case ModeImmed1, ModeImmed2, ModeImmed4:
		return f.Value
	case ModeStack:
		return stack.Pop()
	case ModeMem1, ModeMem2, ModeMem4, ModeRAMRelative1, ModeRAMRelative2, ModeRAMRelative4:
		switch f.ArgSize {
		case 1:
			return uint32(mem.Mem1(f.Value))
		case 2:
			return uint32(mem.Mem2(f.Value))
		default:
			return mem.Mem4(f.Value)
		}
	case ModeLocal1, ModeLocal2, ModeLocal4:
		return locals.LocalGet(f.Value)
	}
	return 0
}

// Store delivers v to the destination described by a decoded Field. Mode
// 0 discards the value.
func Store(mem Mem, locals Locals, stack Stack, f Field, v uint32) {
	switch f.Mode {
	case ModeConstZero:
		// discard
	case ModeStack:
		stack.Push(v)
	case ModeMem1, ModeMem2, ModeMem4, ModeRAMRelative1, ModeRAMRelative2, ModeRAMRelative4:
		switch f.ArgSize {
		case 1:
			mem.MemW1(f.Value, uint8(v))
		case 2:
			mem.MemW2(f.Value, uint16(v))
		default:
			mem.MemW4(f.Value, v)
		}
	case ModeLocal1, ModeLocal2, ModeLocal4:
		locals.LocalSet(f.Value, v)
	}
}
