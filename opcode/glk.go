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

// The Glk opcode: the one bytecode-level
// seam between the VM core and the host-provided Glk dispatcher.
package opcode

import "github.com/erkyrath/glulxcore/compiler"

func init() {
	register(OpGlk, "glk", []compiler.SlotKind{compiler.SlotLoad, compiler.SlotLoad, compiler.SlotStore}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			selector, argc := loads[0], loads[1]
			fr := m.CurrentFrame()
			args := make([]uint32, argc)
			for i := uint32(0); i < argc; i++ {
				args[i] = fr.Pop()
			}

			// the continuation PC must be in place before the call: a
			// suspending selector (glk_select, glk_exit) ends the path
			// and the host re-enters at this address.
			m.SetPC(nextPC(mi))

			result, didReturn, err := m.Glk(selector, args)
			if err != nil {
				return err
			}
			if !didReturn {
				m.Store(mi.Stores[0], 0)
				return nil
			}
			m.Store(mi.Stores[0], result)
			return nil
		})
}
