package interpolator

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/mcu"
	"github.com/gocnc/ucnc/planner"
	"github.com/gocnc/ucnc/settings"
)

type recordingSink struct {
	dirBits    uint8
	pulses     []uint8
	resetCount int
}

func (s *recordingSink) SetDirBits(bits uint8) { s.dirBits = bits }
func (s *recordingSink) Step(bits uint8)       { s.pulses = append(s.pulses, bits) }
func (s *recordingSink) ResetSteps()           { s.resetCount++ }

func newHarness() (*Interpolator, *planner.Planner, *recordingSink) {
	cfg := settings.Defaults()
	pl := planner.New(&cfg)
	ctrl := cnc.New(nil)
	sink := &recordingSink{}
	interp := New(pl, mcu.NewMock(), sink, ctrl, nil)
	return interp, pl, sink
}

func TestStepPulseISRBresenhamPattern(t *testing.T) {
	c := qt.New(t)

	interp, _, sink := newHarness()
	interp.haveBlock = true
	interp.activeSteps = block.Steps{4, 2, 0}
	interp.activeTotal = 4
	interp.curSegStepsLeft.Store(4)

	for i := 0; i < 4; i++ {
		interp.StepPulseISR()
	}

	c.Assert(sink.pulses, qt.HasLen, 4)
	for _, p := range sink.pulses {
		c.Assert(p&1, qt.Equals, uint8(1)) // dominant axis pulses every tick
	}
	// Axis 1 runs at half rate: overflows on ticks 2 and 4 (0-indexed 1, 3).
	c.Assert(sink.pulses[0]&2, qt.Equals, uint8(0))
	c.Assert(sink.pulses[1]&2, qt.Equals, uint8(2))
	c.Assert(sink.pulses[2]&2, qt.Equals, uint8(0))
	c.Assert(sink.pulses[3]&2, qt.Equals, uint8(2))
	c.Assert(interp.stepsExecuted.Load(), qt.Equals, uint32(4))
}

func TestStepPulseISRReentrancyGuard(t *testing.T) {
	c := qt.New(t)

	interp, _, sink := newHarness()
	interp.haveBlock = true
	interp.activeSteps = block.Steps{1, 0, 0}
	interp.activeTotal = 1
	interp.curSegStepsLeft.Store(1)

	interp.stepBusy.Store(true) // simulate an in-flight call
	interp.StepPulseISR()

	c.Assert(sink.pulses, qt.HasLen, 0)
	c.Assert(interp.stepsExecuted.Load(), qt.Equals, uint32(0))
}

func TestStepResetISRDrivesSinkAndGuardsReentrancy(t *testing.T) {
	c := qt.New(t)

	interp, _, sink := newHarness()
	interp.StepResetISR()
	c.Assert(sink.resetCount, qt.Equals, 1)

	interp.resetBusy.Store(true)
	interp.StepResetISR()
	c.Assert(sink.resetCount, qt.Equals, 1)
}

func TestRunDrainsAPlannerBlockToCompletion(t *testing.T) {
	c := qt.New(t)

	interp, pl, sink := newHarness()

	var b block.Block
	b.AccumulateStep(0, 10)
	b.Feed = 6000
	b.MotionMode = block.Feed
	b.DirVect = block.DirVector{1, 0, 0}
	pl.AddLine(nil, b)

	for n := 0; n < 10000 && !pl.IsEmpty(); n++ {
		interp.Run()
		interp.StepPulseISR()
	}

	c.Assert(pl.IsEmpty(), qt.IsTrue)
	c.Assert(len(sink.pulses) >= 10, qt.IsTrue)
	c.Assert(sink.dirBits, qt.Equals, uint8(0))
}

func TestClearDropsQueuedSegmentsAndBlock(t *testing.T) {
	c := qt.New(t)

	interp, pl, _ := newHarness()

	var b block.Block
	b.AccumulateStep(0, 100)
	b.Feed = 6000
	b.MotionMode = block.Feed
	pl.AddLine(nil, b)

	interp.Run()
	c.Assert(interp.haveBlock, qt.IsTrue)

	interp.Clear()
	c.Assert(interp.haveBlock, qt.IsFalse)
	c.Assert(interp.segCount.Load(), qt.Equals, int32(0))
	c.Assert(interp.running.Load(), qt.IsFalse)
}
