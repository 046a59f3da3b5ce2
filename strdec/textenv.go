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

package strdec

// TextEnv is a per-stringtable-address cache: the located decoding
// tree plus, for tables living wholly
// in ROM, the decoded literal text of ROM strings that printed without
// any sub-invocation. Such strings always produce the same characters,
// so re-walking the tree for them is wasted work.
//
// Only glk-mode results are memoized: null mode produces nothing worth
// caching and filter mode always re-enters the interpreter.
type TextEnv struct {
	Table uint32
	Tree  Tree

	literals map[uint32]string
}

// NewTextEnv locates the decoding tree for the string table at table.
func NewTextEnv(h Host, table uint32, ramStart uint32) *TextEnv {
	return &TextEnv{
		Table:    table,
		Tree:     BuildTree(h, table, ramStart),
		literals: make(map[uint32]string),
	}
}

// Literal returns the cached decoded text for the ROM string at addr,
// if a previous pure print recorded one.
func (e *TextEnv) Literal(addr uint32) (string, bool) {
	s, ok := e.literals[addr]
	return s, ok
}

// Memoize records the decoded text of a pure print of the string at
// addr. The caller is responsible for only memoizing when both the
// table and the string lie in ROM (RAM string tables and
// RAM strings recompile on every visit).
func (e *TextEnv) Memoize(addr uint32, text string) {
	e.literals[addr] = text
}
