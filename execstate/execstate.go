// Package execstate implements the process-wide execution-state bitflag
// word described in the motion control spec §3/§5: a word-atomic set of
// flags mutated from both foreground and interrupt context.
package execstate

import (
	"strings"
	"sync/atomic"
)

// Flag is one bit of the execution-state word.
type Flag uint32

const (
	Run Flag = 1 << iota
	Hold
	Jog
	Homing
	Alarm
	Abort
	Limits
	Door
	CheckMode
)

var names = map[Flag]string{
	Run:       "RUN",
	Hold:      "HOLD",
	Jog:       "JOG",
	Homing:    "HOMING",
	Alarm:     "ALARM",
	Abort:     "ABORT",
	Limits:    "LIMITS",
	Door:      "DOOR",
	CheckMode: "CHECKMODE",
}

// order fixes the bit-name join order so String() is deterministic.
var order = []Flag{Run, Hold, Jog, Homing, Alarm, Abort, Limits, Door, CheckMode}

// String renders the set of raised flags, e.g. "RUN|HOLD", or "IDLE" when
// none are set. f need not be a single bit.
func (f Flag) String() string {
	if f == 0 {
		return "IDLE"
	}
	var set []string
	for _, bit := range order {
		if f&bit != 0 {
			set = append(set, names[bit])
		}
	}
	return strings.Join(set, "|")
}

// State is a word-atomic bitflag register. The zero value is a valid,
// all-clear state. Set/Clear may be called from an ISR; reads are tolerant
// of staleness within one foreground loop iteration, as required by §5.
type State struct {
	bits atomic.Uint32
}

// Set raises the given flags.
func (s *State) Set(mask Flag) {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old|uint32(mask)) {
			return
		}
	}
}

// Clear lowers the given flags. Clearing is order-tolerant: it is safe to
// call from either foreground or ISR context regardless of who raised the
// flag.
func (s *State) Clear(mask Flag) {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old&^uint32(mask)) {
			return
		}
	}
}

// Get returns the full current word.
func (s *State) Get() Flag {
	return Flag(s.bits.Load())
}

// Has reports whether every bit in mask is currently set.
func (s *State) Has(mask Flag) bool {
	return Flag(s.bits.Load())&mask == mask
}

// HasAny reports whether any bit in mask is currently set.
func (s *State) HasAny(mask Flag) bool {
	return Flag(s.bits.Load())&mask != 0
}

// Reset clears the entire word.
func (s *State) Reset() {
	s.bits.Store(0)
}
