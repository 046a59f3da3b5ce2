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

// Gestalt selectors.
package vm

const (
	gestaltResize     = 2
	gestaltUndo       = 3
	gestaltIOSystem   = 4
	gestaltMemCopy    = 6
	gestaltMAlloc     = 7
	gestaltMAllocHeap = 8
)

// Gestalt implements the gestalt opcode's capability queries.
func (s *State) Gestalt(selector, extra uint32) uint32 {
	switch selector {
	case gestaltResize:
		return 1
	case gestaltUndo:
		return 1
	case gestaltIOSystem:
		switch extra {
		case IOSysNull, IOSysFilter, IOSysGlk:
			return 1
		default:
			return 0
		}
	case gestaltMemCopy:
		return 1
	case gestaltMAlloc:
		return 1
	case gestaltMAllocHeap:
		return s.heap.HeapStart()
	default:
		return 0
	}
}
