package trigger

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/ioboard"
	"github.com/gocnc/ucnc/status"
)

func TestDispatchLimitsRaisesHardLimitOutsideHoming(t *testing.T) {
	c := qt.New(t)

	board := ioboard.NewMock()
	ctrl := cnc.New(nil)
	tr := New(board, ctrl, nil)

	board.Limits = 0x01
	tr.DispatchISR()

	c.Assert(ctrl.GetExecState(execstate.Limits), qt.IsTrue)
	c.Assert(ctrl.GetExecState(execstate.Alarm), qt.IsTrue)
	c.Assert(ctrl.Alarm, qt.Equals, status.AlarmHardLimit)
}

func TestDispatchLimitsDuringHomingDoesNotAlarm(t *testing.T) {
	c := qt.New(t)

	board := ioboard.NewMock()
	ctrl := cnc.New(nil)
	ctrl.SetExecState(execstate.Homing)
	tr := New(board, ctrl, nil)

	board.Limits = 0x01
	tr.DispatchISR()

	c.Assert(ctrl.GetExecState(execstate.Limits), qt.IsTrue)
	c.Assert(ctrl.GetExecState(execstate.Alarm), qt.IsFalse)
}

func TestDispatchLimitsOnlyTriggersOnRisingEdge(t *testing.T) {
	c := qt.New(t)

	board := ioboard.NewMock()
	ctrl := cnc.New(nil)
	tr := New(board, ctrl, nil)

	board.Limits = 0x01
	tr.DispatchISR()
	ctrl.Unlock()
	ctrl.ClearExecState(execstate.Limits)

	tr.DispatchISR() // no new edge; limits bit still 0x01 from before
	c.Assert(ctrl.GetExecState(execstate.Limits), qt.IsFalse)
	c.Assert(ctrl.GetExecState(execstate.Alarm), qt.IsFalse)
}

func TestDispatchControlsHoldAndResume(t *testing.T) {
	c := qt.New(t)

	board := ioboard.NewMock()
	ctrl := cnc.New(nil)
	tr := New(board, ctrl, nil)

	board.Controls = uint8(ControlHold)
	tr.DispatchISR()
	c.Assert(ctrl.GetExecState(execstate.Hold), qt.IsTrue)

	board.Controls = uint8(ControlResume)
	tr.DispatchISR()
	c.Assert(ctrl.GetExecState(execstate.Hold), qt.IsFalse)
}

func TestDispatchControlsDoorForcesHoldUntilResume(t *testing.T) {
	c := qt.New(t)

	board := ioboard.NewMock()
	ctrl := cnc.New(nil)
	tr := New(board, ctrl, nil)

	board.Controls = uint8(ControlDoor)
	tr.DispatchISR()
	c.Assert(ctrl.GetExecState(execstate.Door), qt.IsTrue)
	c.Assert(ctrl.GetExecState(execstate.Hold), qt.IsTrue)

	board.Controls = 0
	tr.DispatchISR()
	c.Assert(ctrl.GetExecState(execstate.Door), qt.IsFalse)
	c.Assert(ctrl.GetExecState(execstate.Hold), qt.IsTrue) // requires explicit resume
}

func TestDispatchControlsAbortStopsAndSetsFlag(t *testing.T) {
	c := qt.New(t)

	board := ioboard.NewMock()
	ctrl := cnc.New(nil)
	ctrl.SetExecState(execstate.Run)
	tr := New(board, ctrl, nil)

	board.Controls = uint8(ControlAbort)
	tr.DispatchISR()

	c.Assert(ctrl.GetExecState(execstate.Abort), qt.IsTrue)
	c.Assert(ctrl.GetExecState(execstate.Run), qt.IsFalse)
}

func TestDispatchProbeCallsProbeISROnRisingEdgeOnly(t *testing.T) {
	c := qt.New(t)

	board := ioboard.NewMock()
	ctrl := cnc.New(nil)
	tr := New(board, ctrl, nil)

	board.Probe = true
	tr.DispatchISR()
	tr.DispatchISR()
	c.Assert(board.ProbeISRHit, qt.Equals, 1)
}
