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


// Package glk declares the interfaces the VM core consumes from its host
// I/O layer. Glulx itself never implements Glk; the protocol, windows,
// streams and file refs all live on the other side of this boundary.
package glk

// DidNotReturn is the sentinel Dispatcher.Call returns in place of a value
// when the requested selector suspends execution (eg. glk_select,
// glk_exit) rather than returning synchronously.
var DidNotReturn = &struct{ _ int }{}

// Dispatcher invokes Glk calls on behalf of the VM. The VM does not
// interpret opaque object results; it only stores the 32-bit value the
// dispatcher returns for them.
type Dispatcher interface {
	// Call invokes the Glk selector with the given arguments (already
	// decoded from the operand list of opcode 0x130), returning either a
	// 32-bit result or DidNotReturn.
	Call(selector uint32, args []uint32) (interface{}, error)

	// MayNotReturn hints whether a given selector can suspend execution.
	// The core does not consult it: every glk call ends the current
	// compiled path.
	MayNotReturn(selector uint32) bool
}

// SaveStore is the external serializer a host may provide for the real
// save/restore opcodes. The core routes save and restore here rather
// than stubbing them out with a bare success result.
type SaveStore interface {
	// Save persists the given serialized snapshot under a host-chosen
	// identity (a file reference, a slot, etc) and reports success.
	Save(data []byte) (bool, error)

	// Restore retrieves a previously saved snapshot. ok is false if there
	// is nothing to restore.
	Restore() (data []byte, ok bool, err error)
}

// NullDispatcher is a Dispatcher that accepts every call and always
// returns 0, useful for running the VM with iosysmode=null or for tests
// that do not exercise glk at all.
type NullDispatcher struct{}

func (NullDispatcher) Call(selector uint32, args []uint32) (interface{}, error) {
	return uint32(0), nil
}

func (NullDispatcher) MayNotReturn(selector uint32) bool {
	return false
}
