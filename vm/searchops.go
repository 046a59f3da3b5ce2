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

// The search opcodes, wired straight through to
// the search package against the memory image.
package vm

import "github.com/erkyrath/glulxcore/search"

func (s *State) LinearSearch(key, keysize, start, structsize uint32, numstructs int32, keyoffset, options uint32) uint32 {
	return search.Linear(s.mem, key, keysize, start, structsize, numstructs, keyoffset, options)
}

func (s *State) BinarySearch(key, keysize, start, structsize uint32, numstructs int32, keyoffset, options uint32) uint32 {
	return search.Binary(s.mem, key, keysize, start, structsize, numstructs, keyoffset, options)
}

func (s *State) LinkedSearch(key, keysize, start, keyoffset, nextoffset, options uint32) uint32 {
	return search.Linked(s.mem, key, keysize, start, keyoffset, nextoffset, options)
}
