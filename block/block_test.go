package block

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestAccumulateStepPicksDominantAxis(t *testing.T) {
	c := qt.New(t)

	var b Block
	b.AccumulateStep(0, 2000)
	b.AccumulateStep(1, 0)
	b.AccumulateStep(2, 500)

	c.Assert(b.TotalSteps, qt.Equals, uint32(2000))
	c.Assert(b.StepIndexer, qt.Equals, uint8(0))
	c.Assert(b.FullSteps, qt.Equals, uint32(2500))
}

func TestResetPreservesCallerFields(t *testing.T) {
	c := qt.New(t)

	b := Block{Feed: 600, MotionMode: Feed, DirBits: 0b101}
	b.AccumulateStep(0, 10)
	b.Reset()

	c.Assert(b.DirBits, qt.Equals, uint8(0))
	c.Assert(b.TotalSteps, qt.Equals, uint32(0))
	c.Assert(b.Feed, qt.Equals, float32(600))
	c.Assert(b.MotionMode, qt.Equals, Feed)
}

func TestMotionModeHas(t *testing.T) {
	c := qt.New(t)

	m := Feed | BacklashCompensation
	c.Assert(m.Has(Feed), qt.IsTrue)
	c.Assert(m.Has(BacklashCompensation), qt.IsTrue)
	c.Assert(m.Has(Rapid), qt.IsFalse)
}
