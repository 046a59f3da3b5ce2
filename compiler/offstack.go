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

package compiler

// Offstack is the small buffer of values that logically sit atop a
// frame's real value stack but have not yet been pushed onto it. Paths
// here are interpreted micro-instruction sequences, so the buffering
// happens at run time: a push whose value is immediately popped again
// never touches the real stack at all.
//
// A stack-addressed operand consumes from here first, falling through to
// the frame's real stack only once this buffer is empty; a push-mode
// destination is satisfied here whenever doing so is safe, deferring the
// real push until the entries must become visible.
type Offstack struct {
	entries []uint32
}

// Len reports how many values are currently held off the real stack.
func (o *Offstack) Len() int {
	return len(o.entries)
}

// Push defers a value, holding it off the real stack.
func (o *Offstack) Push(v uint32) {
	o.entries = append(o.entries, v)
}

// Pop removes and returns the most recently deferred value. The caller
// must check Len() first; an empty Offstack has nothing to give.
func (o *Offstack) Pop() uint32 {
	n := len(o.entries) - 1
	v := o.entries[n]
	o.entries = o.entries[:n]
	return v
}

// Peek returns the value at depth i from the top without removing it.
func (o *Offstack) Peek(i int) uint32 {
	return o.entries[len(o.entries)-1-i]
}

// RealStack is the frame value-stack surface Offstack flushes onto.
type RealStack interface {
	Push(v uint32)
}

// Flush pushes every deferred entry onto the real stack, in the order
// they were deferred, and empties the buffer. Every control-transfer,
// call, glk invocation, saveundo/restoreundo, setiosys and streamstr
// point must flush before touching the real stack.
func (o *Offstack) Flush(real RealStack) {
	for _, v := range o.entries {
		real.Push(v)
	}
	o.entries = o.entries[:0]
}

// Discard drops every deferred entry without pushing it, used after an
// unconditional control transfer where the fall-through stack state is
// irrelevant.
func (o *Offstack) Discard() {
	o.entries = o.entries[:0]
}

// Swap exchanges the top two values, preferring entries already held off
// the real stack and falling through to the real stack only for values
// this buffer does not have (stkswap).
func (o *Offstack) Swap(real interface {
	Pop() uint32
	Push(uint32)
}) {
	switch o.Len() {
	case 0:
		a := real.Pop()
		b := real.Pop()
		real.Push(a)
		real.Push(b)
	case 1:
		a := o.Pop()
		b := real.Pop()
		real.Push(a)
		o.Push(b)
	default:
		n := len(o.entries)
		o.entries[n-1], o.entries[n-2] = o.entries[n-2], o.entries[n-1]
	}
}
