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

// Package compiler implements the Glulx path compiler: it decodes one
// linear run of opcodes starting at a program counter into a
// Path, a slice of Micro instructions the dispatcher replays, stopping
// at the first opcode that transfers control non-locally, changes
// iosysmode to a non-constant value, or reaches an already-known
// path-entry address.
//
// A Path is interpreted directly by vm/dispatch.go rather than
// compiled to native code. Caching (memoize for ROM, recompile fresh
// for RAM) is the caller's responsibility; vmfunc.go holds the cache
// this package's Decode results are stored into.
package compiler

import (
	"github.com/erkyrath/glulxcore/decode"
	"github.com/erkyrath/glulxcore/internal/curated"
)

// Micro is one decoded opcode within a compiled path.
type Micro struct {
	Addr    uint32
	Len     uint32
	Opcode  uint32
	Loads   []decode.Field
	Stores  []decode.Field
	Stub    [2]decode.Field // C-slot (desttype, destaddr) operands, if any
	HasStub bool
}

// Path is a compiled run of Micro instructions beginning at Entry.
type Path struct {
	Entry  uint32
	Micros []Micro

	// FallsThrough is true when compilation stopped because addr reached
	// an already-known path-entry point, rather than because the last
	// Micro's opcode itself transfers control. The dispatcher must still
	// flush the offstack and advance the PC itself in this case.
	FallsThrough bool
}

// OpInfo is the shape of opcode metadata the compiler needs: its operand
// slot layout and whether it ends a path. The opcode package supplies the
// real registry; this indirection keeps compiler from importing opcode
// (which in turn wants to call back into compiled paths' Micro type;
// vm owns both and wires them together instead).
type OpInfo struct {
	Slots    []SlotKind
	ArgSize  uint8
	Terminal bool
}

// SlotKind is the operand-slot taxonomy, trimmed to what the compiler
// needs to know: does this slot load, store, or carry call-stub
// destination fields.
type SlotKind uint8

const (
	SlotLoad  SlotKind = iota // L or E
	SlotStore                 // S or F
	SlotStub                  // C
)

// Mem is the subset of the memory image needed to decode an opcode
// stream: reading the opcode number and operand mode/field bytes.
type Mem interface {
	decode.Mem
}

// Lookup resolves an opcode number to its metadata, reporting ok=false
// for an unrecognised opcode (an invalid-opcode fatal error).
type Lookup func(opcode uint32) (OpInfo, bool)

// KnownEntry reports whether addr is already a known path-entry point
// for the function currently being compiled, causing Decode to stop
// with a fall-through path.
type KnownEntry func(addr uint32) bool

// Decode compiles one Path starting at entry, by iterating opcode decode
// until a terminal opcode or a known entry point is reached.
func Decode(mem Mem, lookup Lookup, known KnownEntry, entry uint32) (Path, error) {
	path := Path{Entry: entry}

	addr := entry
	first := true
	for {
		if !first && known(addr) {
			path.FallsThrough = true
			break
		}
		first = false

		opcode, next, err := decodeOpcodeNumber(mem, addr)
		if err != nil {
			return Path{}, err
		}

		info, ok := lookup(opcode)
		if !ok {
			return Path{}, curated.Errorf("opcode", "invalid opcode %#x at %#x", opcode, addr)
		}

		m, next, err := decodeOperands(mem, next, opcode, addr, info)
		if err != nil {
			return Path{}, err
		}

		path.Micros = append(path.Micros, m)
		addr = next

		if info.Terminal {
			break
		}
	}

	return path, nil
}

// decodeOpcodeNumber reads a Glulx opcode number. The first byte's top
// bits select the field width: 0x00-0x7F is a 1-byte opcode; a leading
// 10 bit pair is a 2-byte field whose 0x8000 bit is masked off (opcodes
// up to 0x3FFF); a leading 11 pair is a 4-byte field whose 0xC0000000
// bits are masked off.
func decodeOpcodeNumber(mem Mem, addr uint32) (uint32, uint32, error) {
	b0 := mem.Mem1(addr)
	switch {
	case b0&0x80 == 0:
		return uint32(b0), addr + 1, nil
	case b0&0xC0 == 0x80:
		return uint32(mem.Mem2(addr)) &^ 0x8000, addr + 2, nil
	default:
		return mem.Mem4(addr) &^ 0xC0000000, addr + 4, nil
	}
}

func decodeOperands(mem Mem, addr uint32, opcode uint32, instrAddr uint32, info OpInfo) (Micro, uint32, error) {
	n := len(info.Slots)
	modes, addr, err := decode.DecodeModeNibbles(mem, addr, n)
	if err != nil {
		return Micro{}, 0, err
	}

	m := Micro{Addr: instrAddr, Opcode: opcode}

	for i, kind := range info.Slots {
		f, next, err := decode.DecodeField(mem, addr, modes[i], info.ArgSize)
		if err != nil {
			return Micro{}, 0, err
		}
		addr = next

		switch kind {
		case SlotLoad:
			m.Loads = append(m.Loads, f)
		case SlotStore:
			m.Stores = append(m.Stores, f)
		case SlotStub:
			if !m.HasStub {
				m.Stub[0] = f
				m.HasStub = true
			} else {
				m.Stub[1] = f
			}
		}
	}

	m.Len = addr - instrAddr
	return m, addr, nil
}
