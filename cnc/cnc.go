// Package cnc implements the CNC-state collaborator of the motion control
// spec §6: the shared execution-state word plus the event pump every
// foreground wait point yields through.
package cnc

import (
	"log/slog"

	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/status"
)

// Controller owns the process-wide execution state and the alarm code
// latched alongside it. It is the seam Motion Control, the Interpolator and
// Trigger Control call through for state reads/writes, so there is a
// single word-atomic source of truth (spec.md §3, §5).
type Controller struct {
	State execstate.State
	Alarm status.AlarmCode

	log *slog.Logger

	// pump is called on every foreground wait point (planner-full spin,
	// homing/probe wait loops). It returns false on a fatal condition
	// (abort/reset), the signal that unwinds every caller to
	// status.CriticalFail.
	pump func() bool
}

// New returns a Controller whose event pump always reports "keep going".
// Call SetEventPump to install real servicing (serial I/O, watchdog feed,
// ...); the motion pipeline itself never assumes a particular pump
// implementation.
func New(log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{log: log, pump: func() bool { return true }}
}

// SetEventPump installs the foreground event pump (cnc_doevents in the
// original). It must never block indefinitely and must return promptly
// once ABORT has been raised.
func (c *Controller) SetEventPump(pump func() bool) {
	c.pump = pump
}

// DoEvents drives one iteration of the event pump. Every long wait in
// Motion Control calls this and bails the moment it returns false.
func (c *Controller) DoEvents() bool {
	if c.pump == nil {
		return true
	}
	return c.pump()
}

// GetExecState reports whether every bit of mask is currently set.
func (c *Controller) GetExecState(mask execstate.Flag) bool {
	return c.State.Has(mask)
}

// SetExecState raises the given flags.
func (c *Controller) SetExecState(mask execstate.Flag) {
	c.State.Set(mask)
}

// ClearExecState lowers the given flags.
func (c *Controller) ClearExecState(mask execstate.Flag) {
	c.State.Clear(mask)
}

// RaiseAlarm latches the given alarm code, clears RUN, sets ALARM, and
// logs the transition. It never unwinds a
// caller on its own — callers observe ALARM on their next state read.
func (c *Controller) RaiseAlarm(code status.AlarmCode) {
	c.Alarm = code
	c.State.Clear(execstate.Run)
	c.State.Set(execstate.Alarm)
	c.log.Warn("alarm raised", "code", code.String())
}

// Unlock clears ALARM, ABORT and HOMING and resets the latched alarm code.
// It does not clear HOLD, LIMITS or DOOR: those require the underlying
// condition (a still-engaged switch, an open door) to clear first.
func (c *Controller) Unlock() {
	c.Alarm = status.AlarmNone
	c.State.Clear(execstate.Alarm | execstate.Abort | execstate.Homing)
	c.log.Info("unlocked")
}

// Stop clears RUN and HOLD, the same coarse stop used by both a normal
// cycle stop and the end of a probe cycle.
func (c *Controller) Stop() {
	c.State.Clear(execstate.Run | execstate.Hold)
}

// WaitWhile blocks the foreground caller, pumping events, until cond
// returns false or the pump reports a fatal condition. It is the common
// shape behind every "while (planner_buffer_is_full()) { ... }"/
// "do { ... } while (cnc_get_exec_state(EXEC_RUN))" loop in the original:
// callers supply cond, WaitWhile supplies the propagate-CRITICAL_FAIL
// discipline exactly once.
func (c *Controller) WaitWhile(cond func() bool) status.Code {
	for cond() {
		if !c.DoEvents() {
			return status.CriticalFail
		}
	}
	return status.OK
}
