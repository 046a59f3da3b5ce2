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


// Package curated provides tagged, wrappable errors for the VM core.
//
// Every fatal condition described by the Glulx core (bad image, invalid
// opcode, stack-invariant violation, heap corruption, and so on) is raised
// through Errorf so that a host can distinguish error families with Is
// without resorting to string matching.
package curated

import (
	"errors"
	"fmt"
)

// Error is a tagged error. The tag identifies the error family (eg. "heap",
// "stack", "opcode") independently of the formatted message, which may
// change across versions.
type Error struct {
	Tag     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf constructs a tagged error. If the last argument is an error it is
// recorded as the cause and omitted from the formatted message.
func Errorf(tag string, format string, args ...interface{}) error {
	var cause error
	if n := len(args); n > 0 {
		if err, ok := args[n-1].(error); ok {
			cause = err
			args = args[:n-1]
		}
	}
	return &Error{
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err is a curated error (anywhere in its chain) tagged
// with the given tag.
func Is(err error, tag string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Tag == tag {
			return true
		}
		err = e.Cause
	}
	return false
}
