package cnc

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/status"
)

func TestWaitWhileReturnsCriticalFailOnPumpFailure(t *testing.T) {
	c := qt.New(t)

	ctrl := New(nil)
	calls := 0
	ctrl.SetEventPump(func() bool {
		calls++
		return calls < 2
	})

	code := ctrl.WaitWhile(func() bool { return true })
	c.Assert(code, qt.Equals, status.CriticalFail)
	c.Assert(calls, qt.Equals, 2)
}

func TestRaiseAlarmClearsRunSetsAlarm(t *testing.T) {
	c := qt.New(t)

	ctrl := New(nil)
	ctrl.SetExecState(execstate.Run)
	ctrl.RaiseAlarm(status.AlarmSoftLimit)

	c.Assert(ctrl.GetExecState(execstate.Run), qt.IsFalse)
	c.Assert(ctrl.GetExecState(execstate.Alarm), qt.IsTrue)
	c.Assert(ctrl.Alarm, qt.Equals, status.AlarmSoftLimit)
}

func TestUnlockPreservesHold(t *testing.T) {
	c := qt.New(t)

	ctrl := New(nil)
	ctrl.SetExecState(execstate.Alarm | execstate.Abort | execstate.Homing | execstate.Hold)
	ctrl.Unlock()

	c.Assert(ctrl.GetExecState(execstate.Alarm), qt.IsFalse)
	c.Assert(ctrl.GetExecState(execstate.Abort), qt.IsFalse)
	c.Assert(ctrl.GetExecState(execstate.Homing), qt.IsFalse)
	c.Assert(ctrl.GetExecState(execstate.Hold), qt.IsTrue)
	c.Assert(ctrl.Alarm, qt.Equals, status.AlarmNone)
}
