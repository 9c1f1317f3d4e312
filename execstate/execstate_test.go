package execstate

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSetClearHas(t *testing.T) {
	c := qt.New(t)

	var s State
	c.Assert(s.Has(Run), qt.IsFalse)

	s.Set(Run | Hold)
	c.Assert(s.Has(Run), qt.IsTrue)
	c.Assert(s.Has(Hold), qt.IsTrue)
	c.Assert(s.Has(Run|Hold), qt.IsTrue)
	c.Assert(s.HasAny(Jog), qt.IsFalse)

	s.Clear(Hold)
	c.Assert(s.Has(Hold), qt.IsFalse)
	c.Assert(s.Has(Run), qt.IsTrue)
}

func TestReset(t *testing.T) {
	c := qt.New(t)

	var s State
	s.Set(Run | Alarm | Abort)
	s.Reset()
	c.Assert(s.Get(), qt.Equals, Flag(0))
}

func TestClearIsOrderTolerant(t *testing.T) {
	c := qt.New(t)

	var s State
	// Clearing a flag that was never set is a no-op, not an error.
	s.Clear(Door)
	c.Assert(s.Has(Door), qt.IsFalse)
}
