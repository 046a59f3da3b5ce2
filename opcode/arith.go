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

// Arithmetic opcodes: 32-bit unsigned results, truncated;
// signed interpretation for mul/div/mod and the sign-extension ops.
// Division and shift edge cases follow the spec's explicit rules rather
// than Go's native operator behaviour (Go's / truncates toward zero like
// Glulx's div, but Go panics on division by zero where Glulx wants a
// fatal curated error, and Go has no direct sign-extend-from-width op).
package opcode

import (
	"github.com/erkyrath/glulxcore/compiler"
	"github.com/erkyrath/glulxcore/internal/curated"
)

func init() {
	binArith := func(name string, fn func(a, b uint32) uint32) Handler {
		return func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.Store(mi.Stores[0], fn(loads[0], loads[1]))
			return nil
		}
	}

	register(OpAdd, "add", lslsS(), false, binArith("add", func(a, b uint32) uint32 { return a + b }))
	register(OpSub, "sub", lslsS(), false, binArith("sub", func(a, b uint32) uint32 { return a - b }))
	register(OpMul, "mul", lslsS(), false, binArith("mul", func(a, b uint32) uint32 {
		return uint32(int32(a) * int32(b))
	}))
	register(OpBitAnd, "bitand", lslsS(), false, binArith("bitand", func(a, b uint32) uint32 { return a & b }))
	register(OpBitOr, "bitor", lslsS(), false, binArith("bitor", func(a, b uint32) uint32 { return a | b }))
	register(OpBitXor, "bitxor", lslsS(), false, binArith("bitxor", func(a, b uint32) uint32 { return a ^ b }))

	register(OpDiv, "div", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		b := int32(loads[1])
		if b == 0 {
			return curated.Errorf("arith", "division by zero")
		}
		a := int32(loads[0])
		m.Store(mi.Stores[0], uint32(a/b)) // Go / truncates toward zero, like Glulx div
		return nil
	})
	register(OpMod, "mod", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		b := int32(loads[1])
		if b == 0 {
			return curated.Errorf("arith", "modulo by zero")
		}
		a := int32(loads[0])
		m.Store(mi.Stores[0], uint32(a%b)) // Go % follows the dividend's sign, like Glulx mod
		return nil
	})

	register(OpNeg, "neg", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], uint32(-int32(loads[0])))
		return nil
	})
	register(OpBitNot, "bitnot", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], ^loads[0])
		return nil
	})

	register(OpShiftL, "shiftl", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		n := loads[1]
		if n >= 32 {
			m.Store(mi.Stores[0], 0)
			return nil
		}
		m.Store(mi.Stores[0], loads[0]<<n)
		return nil
	})
	register(OpUShiftR, "ushiftr", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		n := loads[1]
		if n >= 32 {
			m.Store(mi.Stores[0], 0)
			return nil
		}
		m.Store(mi.Stores[0], loads[0]>>n)
		return nil
	})
	register(OpSShiftR, "sshiftr", lslsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		n := loads[1]
		v := int32(loads[0])
		if n >= 32 {
			if v < 0 {
				m.Store(mi.Stores[0], 0xFFFFFFFF)
			} else {
				m.Store(mi.Stores[0], 0)
			}
			return nil
		}
		m.Store(mi.Stores[0], uint32(v>>n))
		return nil
	})

	register(OpSexS, "sexs", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], uint32(int32(int16(loads[0]))))
		return nil
	})
	register(OpSexB, "sexb", lsS(), false, func(m Machine, mi compiler.Micro, loads []uint32) error {
		m.Store(mi.Stores[0], uint32(int32(int8(loads[0]))))
		return nil
	})
}

func lsS() []compiler.SlotKind  { return []compiler.SlotKind{compiler.SlotLoad, compiler.SlotStore} }
func lslsS() []compiler.SlotKind {
	return []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore}
}
