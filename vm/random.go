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

// Randomness. A nonzero setrandom seed drives a SplitMix64-seeded
// PRNG, so the sequence is genuinely deterministic and reproducible; a
// zero seed switches to a host-entropy source.
package vm

import "math/rand"

// randSource is the random(range)/setrandom(seed) backend.
type randSource struct {
	seeded bool
	r      *rand.Rand
}

func newRandSource(seed int32) randSource {
	rs := randSource{}
	rs.reseed(seed)
	return rs
}

func (rs *randSource) reseed(seed int32) {
	if seed == 0 {
		rs.seeded = false
		rs.r = rand.New(rand.NewSource(hostEntropySeed()))
		return
	}
	rs.seeded = true
	rs.r = rand.New(rand.NewSource(int64(splitmix64(uint64(int64(seed))))))
}

// hostEntropySeed draws a fresh seed from the host's default source,
// standing in for "the host RNG" the spec describes for the zero-seed
// case. math/rand's package-level source is reseeded by Go at process
// start from OS entropy, so reading it here once is enough.
func hostEntropySeed() int64 {
	return rand.Int63()
}

// splitmix64 is the well-known fast-mixing generator used to turn a
// small seed into a well-distributed 64-bit state, the standard
// companion to seeding other PRNGs deterministically.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Random implements the random opcode: 0 gives any
// 32-bit unsigned value, a positive range gives [0, range), a negative
// range gives (range, 0] (sign-preserving).
func (s *State) Random(rng int32) uint32 {
	switch {
	case rng == 0:
		return s.rng.r.Uint32()
	case rng > 0:
		return uint32(s.rng.r.Int63n(int64(rng)))
	default:
		n := int64(-rng)
		return uint32(-s.rng.r.Int63n(n))
	}
}

// SetRandom implements setrandom: a
// nonzero seed selects a deterministic sequence; zero reseeds from host
// entropy.
func (s *State) SetRandom(seed int32) {
	s.rng.reseed(seed)
}
