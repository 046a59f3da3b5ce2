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


// Package prefs implements small runtime-tunable settings cells with a
// Get()/Set() surface.
//
// The cells exist so a host can tune the handful of runtime options the
// VM recognises (undo-ring capacity, RNG seeding policy, whether fatal
// errors are rethrown) without poking at VM internals directly, and so
// the values can be read safely from internal/vmstats's dashboard
// goroutine while the dispatcher runs.
package prefs

import "sync/atomic"

// Value is a concurrency-safe settings cell holding an int.
type Value struct {
	v int64
}

// NewValue creates a cell initialised to def.
func NewValue(def int) *Value {
	return &Value{v: int64(def)}
}

// Get returns the current value.
func (p *Value) Get() int {
	return int(atomic.LoadInt64(&p.v))
}

// Set updates the value.
func (p *Value) Set(n int) {
	atomic.StoreInt64(&p.v, int64(n))
}

// Bool is a concurrency-safe settings cell holding a bool.
type Bool struct {
	v int32
}

// NewBool creates a cell initialised to def.
func NewBool(def bool) *Bool {
	b := &Bool{}
	b.Set(def)
	return b
}

// Get returns the current value.
func (b *Bool) Get() bool {
	return atomic.LoadInt32(&b.v) != 0
}

// Set updates the value.
func (b *Bool) Set(v bool) {
	if v {
		atomic.StoreInt32(&b.v, 1)
	} else {
		atomic.StoreInt32(&b.v, 0)
	}
}

// Options bundles the recognised runtime options.
type Options struct {
	// RethrowExceptions lets fatal errors propagate to the host (eg. for a
	// debugger) rather than being reported through the failure surface only.
	RethrowExceptions *Bool

	// UndoMaxEntries bounds the undo ring.
	UndoMaxEntries *Value

	// RandomSeed is the seed applied at Init before any setrandom opcode
	// runs. Zero means host-entropy seeded.
	RandomSeed *Value
}

// NewOptions returns the default option set.
func NewOptions() *Options {
	return &Options{
		RethrowExceptions: NewBool(false),
		UndoMaxEntries:    NewValue(10),
		RandomSeed:        NewValue(0),
	}
}
