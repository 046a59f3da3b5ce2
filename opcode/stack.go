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

// Direct stack-manipulation opcodes: stkcount, stkpeek, stkswap,
// stkcopy, stkroll. These are handled by Machine itself
// (vm.State), since only it knows whether a given value currently lives
// in the offstack buffer or the frame's real stack.
package opcode

import "github.com/erkyrath/glulxcore/compiler"

func init() {
	register(OpStkCount, "stkcount", []compiler.SlotKind{compiler.SlotStore}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.Store(mi.Stores[0], m.StackCount())
			return nil
		})
	register(OpStkPeek, "stkpeek", lsS(), false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.Store(mi.Stores[0], m.StackPeek(loads[0]))
			return nil
		})
	register(OpStkSwap, "stkswap", nil, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.StackSwap()
			return nil
		})
	register(OpStkCopy, "stkcopy", []compiler.SlotKind{compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.StackCopy(loads[0])
			return nil
		})
	register(OpStkRoll, "stkroll", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad}, false,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.StackRoll(loads[0], int32(loads[1]))
			return nil
		})
}
