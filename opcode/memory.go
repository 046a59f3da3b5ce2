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

// Array and bit-array opcodes.
package opcode

import "github.com/erkyrath/glulxcore/compiler"

func init() {
	register(OpALoad, "aload", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		addr := loads[0] + loads[1]*4
		m.Store(mi.Stores[0], m.Mem4(addr))
		return nil
	})
	register(OpALoadS, "aloads", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		addr := loads[0] + loads[1]*2
		m.Store(mi.Stores[0], uint32(m.Mem2(addr)))
		return nil
	})
	register(OpALoadB, "aloadb", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		addr := loads[0] + loads[1]
		m.Store(mi.Stores[0], uint32(m.Mem1(addr)))
		return nil
	})
	register(OpALoadBit, "aloadbit", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		addr, bit := bitAddr(loads[0], int32(loads[1]))
		v := (m.Mem1(addr) >> bit) & 1
		if v != 0 {
			m.Store(mi.Stores[0], 1)
		} else {
			m.Store(mi.Stores[0], 0)
		}
		return nil
	})

	register(OpAStore, "astore", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			addr := loads[0] + loads[1]*4
			m.MemW4(addr, loads[2])
			return nil
		})
	register(OpAStoreS, "astores", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			addr := loads[0] + loads[1]*2
			m.MemW2(addr, uint16(loads[2]))
			return nil
		})
	register(OpAStoreB, "astoreb", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			addr := loads[0] + loads[1]
			m.MemW1(addr, uint8(loads[2]))
			return nil
		})
	register(OpAStoreBit, "astorebit", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			addr, bit := bitAddr(loads[0], int32(loads[1]))
			cur := m.Mem1(addr)
			if loads[2] != 0 {
				cur |= 1 << bit
			} else {
				cur &^= 1 << bit
			}
			m.MemW1(addr, cur)
			return nil
		})

	register(OpCopy, "copy", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], loads[0])
		return nil
	})
	registerSized(OpCopyS, "copys", lsS(), 2, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], uint32(uint16(loads[0])))
		return nil
	})
	registerSized(OpCopyB, "copyb", lsS(), 1, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], uint32(uint8(loads[0])))
		return nil
	})

	register(OpMZero, "mzero", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.MZero(loads[0], loads[1])
			return nil
		})
	register(OpMCopy, "mcopy", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.MCopy(loads[0], loads[1], loads[2])
			return nil
		})
}

// bitAddr resolves a Glulx signed bit index against a base address: a
// negative index extends leftward of addr (the bit index is signed).
func bitAddr(addr uint32, bitIndex int32) (byteAddr uint32, bit uint) {
	byteOffset := bitIndex >> 3
	bit = uint(bitIndex & 7)
	return uint32(int64(addr) + int64(byteOffset)), bit
}
