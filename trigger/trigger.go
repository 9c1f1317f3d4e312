// Package trigger implements the Trigger Control of the motion control
// spec §6: the pin-change dispatcher that turns raw limit/control/probe
// input edges into execution-state transitions.
//
// The original firmware wires four separate PCINT vectors (one per GPIO
// port) to a shared ISR body; DispatchISR collapses that into a single
// entry point a caller wires to however many real pin-change interrupts
// the board exposes (spec.md §6, §9's note on redesigning incidental
// MCU-specific structure without changing observable behavior).
package trigger

import (
	"log/slog"

	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/ioboard"
	"github.com/gocnc/ucnc/status"
)

// Control is one bit of the control-input bitmask ioboard.Board.GetControls
// returns.
const (
	ControlHold Control = 1 << iota
	ControlResume
	ControlDoor
	ControlAbort
)

// Control identifies a control-input line.
type Control uint8

// Trigger dispatches debounced limit/control/probe pin edges into the
// shared execution-state word. It holds no timing state of its own: input
// debounce (the original's software bounce filter) is assumed to already
// be applied by the Board implementation before GetLimits/GetControls
// return, consistent with spec.md placing MCU-specific pin timing out of
// scope.
type Trigger struct {
	board ioboard.Board
	cnc   *cnc.Controller
	log   *slog.Logger

	lastLimits   uint8
	lastControls uint8
	lastProbe    bool
}

// New wires a Trigger to its collaborators.
func New(board ioboard.Board, ctrl *cnc.Controller, log *slog.Logger) *Trigger {
	if log == nil {
		log = slog.Default()
	}
	return &Trigger{board: board, cnc: ctrl, log: log}
}

// DispatchISR is the single collapsed pin-change handler. Call it whenever
// any watched input may have changed — from a real interrupt, or from a
// foreground poll loop on hardware with no pin-change interrupt at all.
func (t *Trigger) DispatchISR() {
	t.dispatchLimits(t.board.GetLimits())
	t.dispatchControls(t.board.GetControls())
	t.dispatchProbe(t.board.GetProbe())
}

func (t *Trigger) dispatchLimits(cur uint8) {
	rising := cur &^ t.lastLimits
	t.lastLimits = cur
	if rising == 0 {
		return
	}

	t.cnc.SetExecState(execstate.Limits)
	if t.cnc.GetExecState(execstate.Homing) {
		// Homing owns interpreting which axis tripped and when that is
		// expected; it polls GetLimits()/execstate.Limits itself rather
		// than being unwound here.
		return
	}
	t.cnc.RaiseAlarm(status.AlarmHardLimit)
	t.log.Warn("hard limit triggered", "bits", rising)
}

func (t *Trigger) dispatchControls(cur uint8) {
	rising := cur &^ t.lastControls
	falling := t.lastControls &^ cur
	t.lastControls = cur

	if rising&uint8(ControlHold) != 0 {
		t.cnc.SetExecState(execstate.Hold)
	}
	if rising&uint8(ControlResume) != 0 {
		t.cnc.ClearExecState(execstate.Hold)
	}
	if rising&uint8(ControlDoor) != 0 {
		t.cnc.SetExecState(execstate.Door | execstate.Hold)
	}
	if falling&uint8(ControlDoor) != 0 {
		// The door flag clears on its own; HOLD still requires an
		// explicit resume, same as a manually requested hold.
		t.cnc.ClearExecState(execstate.Door)
	}
	if rising&uint8(ControlAbort) != 0 {
		t.cnc.SetExecState(execstate.Abort)
		t.cnc.Stop()
		t.log.Warn("abort control triggered")
	}
}

func (t *Trigger) dispatchProbe(cur bool) {
	rising := cur && !t.lastProbe
	t.lastProbe = cur
	if !rising {
		return
	}
	t.board.ProbeISR()
}
