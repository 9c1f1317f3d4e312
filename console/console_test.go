package console

import (
	"bytes"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/interpolator"
	"github.com/gocnc/ucnc/ioboard"
	"github.com/gocnc/ucnc/kinematics"
	"github.com/gocnc/ucnc/mcu"
	"github.com/gocnc/ucnc/motion"
	"github.com/gocnc/ucnc/planner"
	"github.com/gocnc/ucnc/settings"
)

type nullSink struct{}

func (nullSink) SetDirBits(uint8) {}
func (nullSink) Step(uint8)       {}
func (nullSink) ResetSteps()      {}

func newHarness() (*Console, *cnc.Controller) {
	cfg := settings.Defaults()
	kin := kinematics.NewLinear([block.AxisCount]float32{100, 100, 100})
	board := ioboard.NewMock()
	pl := planner.New(&cfg)
	ctrl := cnc.New(nil)
	itp := interpolator.New(pl, mcu.NewMock(), nullSink{}, ctrl, nil)
	mc := motion.New(kin, board, pl, itp, &cfg, ctrl, nil)
	return New(mc, ctrl, nil), ctrl
}

func TestStatusReportsPositionAndState(t *testing.T) {
	c := qt.New(t)
	console, _ := newHarness()

	var buf bytes.Buffer
	err := console.Run(&buf, "status")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.Contains(buf.String(), "pos="), qt.IsTrue)
}

func TestUnknownCommandErrors(t *testing.T) {
	c := qt.New(t)
	console, _ := newHarness()

	err := console.Run(&bytes.Buffer{}, "frobnicate")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestHoldAndResumeToggleFlag(t *testing.T) {
	c := qt.New(t)
	console, ctrl := newHarness()

	c.Assert(console.Run(&bytes.Buffer{}, "hold"), qt.IsNil)
	c.Assert(ctrl.GetExecState(execstate.Hold), qt.IsTrue)

	c.Assert(console.Run(&bytes.Buffer{}, "resume"), qt.IsNil)
	c.Assert(ctrl.GetExecState(execstate.Hold), qt.IsFalse)
}

func TestJogParsesArgsAndIssuesLine(t *testing.T) {
	c := qt.New(t)
	console, _ := newHarness()

	var buf bytes.Buffer
	err := console.Run(&buf, `jog 0 5 "600"`)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.TrimSpace(buf.String()), qt.Equals, "ok")
}

func TestJogRejectsBadAxis(t *testing.T) {
	c := qt.New(t)
	console, _ := newHarness()

	err := console.Run(&bytes.Buffer{}, "jog 9 5 600")
	c.Assert(err, qt.Not(qt.IsNil))
}
