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


// Package logger is a minimal diagnostic sink: a tag plus a
// printf-style message, written to a ring buffer a host can drain at
// its leisure rather than to stdout directly.
package logger

import (
	"fmt"
	"sync"
)

// Entry is a single logged line.
type Entry struct {
	Tag     string
	Message string
}

var (
	mu      sync.Mutex
	entries []Entry
	cap_    = 500
	sink    func(Entry)
)

// SetSink installs a callback invoked for every logged entry, in addition
// to the ring buffer. Pass nil to remove it.
func SetSink(f func(Entry)) {
	mu.Lock()
	defer mu.Unlock()
	sink = f
}

// Logf records a diagnostic message under tag.
func Logf(tag string, format string, args ...interface{}) {
	e := Entry{Tag: tag, Message: fmt.Sprintf(format, args...)}

	mu.Lock()
	entries = append(entries, e)
	if len(entries) > cap_ {
		entries = entries[len(entries)-cap_:]
	}
	s := sink
	mu.Unlock()

	if s != nil {
		s(e)
	}
}

// Recent returns a copy of the most recently logged entries, oldest first.
func Recent() []Entry {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Clear empties the ring buffer. Used between test cases.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	entries = nil
}
