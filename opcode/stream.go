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

// Stream opcodes, dispatched per iosysmode. All four are Terminal: in
// filter mode every one of them may enter a Glulx function mid-print,
// which cannot be analysed past statically, so each handler advances the
// PC itself and ends its path. The string machinery relies on the PC
// already pointing past the instruction when it pushes its
// string-terminator stub.
package opcode

import "github.com/erkyrath/glulxcore/compiler"

func init() {
	register(OpStreamChar, "streamchar", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			return m.StreamChar(byte(loads[0]))
		})
	register(OpStreamUniChar, "streamunichar", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			return m.StreamUniChar(rune(loads[0]))
		})
	register(OpStreamNum, "streamnum", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			return m.StreamNum(int32(loads[0]))
		})
	register(OpStreamStr, "streamstr", []compiler.SlotKind{compiler.SlotLoad}, true,
		func(m Machine, mi compiler.Micro, loads []uint32) error {
			m.SetPC(nextPC(mi))
			return m.StreamStr(loads[0])
		})
}
