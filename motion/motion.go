// Package motion implements Motion Control, the motion control spec §4.1
// collaborator every command-level caller (a G-code interpreter, the
// console, a jog request) goes through before a move reaches the Planner.
//
// Control decouples the caller's target from the rest of the pipeline,
// applies kinematic transforms, checks soft limits, converts the target to
// an absolute step position, and derives the per-axis direction/step
// delta the Planner and Interpolator need (motion_control.c's mc_line).
package motion

import (
	"log/slog"
	"math"

	"github.com/orsinium-labs/tinymath"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/interpolator"
	"github.com/gocnc/ucnc/ioboard"
	"github.com/gocnc/ucnc/kinematics"
	"github.com/gocnc/ucnc/planner"
	"github.com/gocnc/ucnc/settings"
	"github.com/gocnc/ucnc/status"
)

// cosTaylor1 is the cosine Taylor-series coefficient used by the
// incremental-rotation arc approximation, reproduced exactly from the
// original's M_COS_TAYLOR_1.
const cosTaylor1 = 0.16666667163372039794921875

// arcCorrectionInterval bounds how many consecutive segments use the cheap
// incremental rotation matrix before one exact trig recompute resets its
// accumulated error (the original's N_ARC_CORRECTION).
const arcCorrectionInterval = 12

// Control is Motion Control: the seam between a command source and the
// Planner/Interpolator pipeline.
type Control struct {
	kin   kinematics.Kinematics
	board ioboard.Board
	pl    *planner.Planner
	itp   *interpolator.Interpolator
	cfg   *settings.Settings
	ctrl  *cnc.Controller
	log   *slog.Logger

	checkMode bool

	lastTarget            block.Position
	prevTransformedTarget block.Position

	backlashEnabled bool
	lastDirBits     uint8
}

// New wires Motion Control to its collaborators.
func New(kin kinematics.Kinematics, board ioboard.Board, pl *planner.Planner, itp *interpolator.Interpolator, cfg *settings.Settings, ctrl *cnc.Controller, log *slog.Logger) *Control {
	if log == nil {
		log = slog.Default()
	}
	c := &Control{kin: kin, board: board, pl: pl, itp: itp, cfg: cfg, ctrl: ctrl, log: log}
	c.ResyncPosition()
	return c
}

// EnableBacklashCompensation turns on synthesizing a take-up-slack block
// ahead of any move whose direction differs from the previous one, the
// same opt-in ENABLE_BACKLASH_COMPENSATION build switch gates in the
// original.
func (c *Control) EnableBacklashCompensation(enabled bool) {
	c.backlashEnabled = enabled
}

// CheckMode reports whether the machine is in simulate-only mode.
func (c *Control) CheckMode() bool { return c.checkMode }

// SetCheckMode toggles simulate-only mode (G-code parsing still runs but
// nothing reaches the Planner).
func (c *Control) SetCheckMode(v bool) { c.checkMode = v }

// GetPosition returns Motion Control's cached last target, the
// work-coordinate position of the most recent line/arc endpoint.
func (c *Control) GetPosition() block.Position { return c.lastTarget }

// ResyncPosition recomputes the cached last-target position from the
// Planner's tracked absolute step position. Called at startup and after
// any buffer flush (homing, probing) where Motion Control's idea of
// "where we are" must be re-derived from the ground truth.
func (c *Control) ResyncPosition() {
	steps := c.pl.GetPosition()
	var pos block.Position
	c.kin.ApplyForward(steps, &pos)
	c.kin.ApplyReverseTransform(&pos)
	c.lastTarget = pos
	c.prevTransformedTarget = pos
}

// Line is the core of Motion Control: decouple, transform, soft-limit
// check, convert to steps, and hand off to the Planner.
func (c *Control) Line(target block.Position, data block.Block) status.Code {
	data.Reset()
	feed := data.Feed

	c.lastTarget = target

	transformed := target
	if !c.ctrl.State.HasAny(execstate.Jog | execstate.Homing) {
		c.kin.ApplyTransform(&transformed)
	}

	if !c.board.CheckBoundaries(transformed) {
		if c.ctrl.GetExecState(execstate.Jog) {
			return status.TravelExceeded
		}
		c.ctrl.RaiseAlarm(status.AlarmSoftLimit)
		return status.OK
	}

	if c.checkMode {
		return status.OK
	}

	if code := c.ctrl.WaitWhile(c.pl.IsFull); code != status.OK {
		return code
	}

	if !data.MotionMode.Has(block.NoMotion) {
		var stepTarget block.StepPosition
		c.kin.ApplyInverse(transformed, &stepTarget)

		var invDistSqr float32
		for i := range transformed {
			d := transformed[i] - c.prevTransformedTarget[i]
			data.DirVect[i] = d
			invDistSqr += d * d
			c.prevTransformedTarget[i] = transformed[i]
		}
		invDist := invSqrt(invDistSqr)
		for i := range data.DirVect {
			data.DirVect[i] *= invDist
		}

		prevSteps := c.pl.GetPosition()
		for i := 0; i < block.StepperCount; i++ {
			delta := stepTarget[i] - prevSteps[i]
			if delta < 0 {
				data.DirBits |= 1 << uint(i)
				delta = -delta
			}
			data.AccumulateStep(uint8(i), uint32(delta))
		}

		if c.backlashEnabled {
			if code := c.insertBacklashCompensation(&data); code != status.OK {
				return code
			}
		}

		invDelta := feed * invDist
		if data.MotionMode.Has(block.InverseFeed) {
			if feed != 0 {
				invDelta = 1 / feed
			} else {
				invDelta = 0
			}
		}
		data.Feed = float32(data.TotalSteps) * invDelta

		c.pl.AddLine(&stepTarget, data)
		return status.OK
	}

	c.pl.AddLine(nil, data)
	return status.OK
}

// insertBacklashCompensation synthesizes and enqueues a zero-travel-time,
// rapid-feed block that takes up mechanical slack on every actuator whose
// direction bit just flipped, ahead of the real move in data.
func (c *Control) insertBacklashCompensation(data *block.Block) status.Code {
	inverted := c.lastDirBits ^ data.DirBits
	c.lastDirBits = data.DirBits
	if inverted == 0 {
		return status.OK
	}

	var bl block.Block
	bl.MotionMode = block.BacklashCompensation
	bl.DirBits = data.DirBits
	bl.Feed = math.MaxFloat32
	for i := 0; i < block.StepperCount; i++ {
		if inverted&(1<<uint(i)) != 0 {
			bl.AccumulateStep(uint8(i), c.cfg.BacklashSteps[i])
		}
	}
	c.pl.AddLine(nil, bl)

	return c.ctrl.WaitWhile(c.pl.IsFull)
}

// Arc tessellates a circular arc in the axis0/axis1 plane into a sequence
// of Line segments, using an incremental vector-rotation matrix refreshed
// by an exact trig recompute every arcCorrectionInterval segments (the
// grbl-style error-bounded approximation motion_control.c's mc_arc uses).
// The final call always targets the exact endpoint.
func (c *Control) Arc(target block.Position, centerOffsetA, centerOffsetB, radius float32, axis0, axis1 uint8, clockwise bool, data block.Block) status.Code {
	pos := c.lastTarget

	centerA := pos[axis0] + centerOffsetA
	centerB := pos[axis1] + centerOffsetB

	pt0a := -centerOffsetA
	pt0b := -centerOffsetB
	pt1a := target[axis0] - centerA
	pt1b := target[axis1] - centerB

	dot := pt0a*pt1a + pt0b*pt1b
	det := pt0a*pt1b - pt0b*pt1a
	arcAngle := tinymath.Atan2(det, dot)

	if clockwise {
		if arcAngle >= 0 {
			arcAngle -= 2 * math.Pi
		}
	} else {
		if arcAngle <= 0 {
			arcAngle += 2 * math.Pi
		}
	}

	radiusAngle := radius * arcAngle / 2
	diameter := 2 * radius
	tolerance := c.cfg.ArcTolerance
	segmentCount := uint32(0)
	if denom := tolerance * (diameter - tolerance); denom > 0 {
		segmentCount = uint32(tinymath.Abs(radiusAngle) / tinymath.Sqrt(denom))
	}
	if segmentCount == 0 {
		segmentCount = 1
	}
	arcPerSegment := arcAngle / float32(segmentCount)

	increment := [block.AxisCount]float32{}
	for i := range increment {
		increment[i] = (target[i] - pos[i]) / float32(segmentCount)
	}
	increment[axis0] = 0
	increment[axis1] = 0

	if data.MotionMode.Has(block.InverseFeed) {
		data.Feed /= float32(segmentCount)
	}

	arcPerSegmentSqr := arcPerSegment * arcPerSegment
	cosPerSegment := 1 - cosTaylor1*arcPerSegmentSqr
	sinPerSegment := arcPerSegment * cosPerSegment
	cosPerSegment = arcPerSegmentSqr * (cosPerSegment + 1)
	cosPerSegment = 1 - cosPerSegment/4

	count := 0
	for s := uint32(1); s < segmentCount; s++ {
		if count < arcCorrectionInterval {
			newPt := pt0a*sinPerSegment + pt0b*cosPerSegment
			pt0a = pt0a*cosPerSegment - pt0b*sinPerSegment
			pt0b = newPt
			count++
		} else {
			angle := float32(s) * arcPerSegment
			preciseCos := tinymath.Cos(angle)
			preciseSin := tinymath.Sqrt(1 - preciseCos*preciseCos)
			if angle >= 0 {
				if tinymath.Abs(angle) > math.Pi {
					preciseSin = -preciseSin
				}
			} else {
				if tinymath.Abs(angle) <= math.Pi {
					preciseSin = -preciseSin
				}
			}
			pt0a = -centerOffsetA*preciseCos + centerOffsetB*preciseSin
			pt0b = -centerOffsetA*preciseSin - centerOffsetB*preciseCos
			count = 0
		}

		pos[axis0] = centerA + pt0a
		pos[axis1] = centerB + pt0b
		for i := range pos {
			if uint8(i) != axis0 && uint8(i) != axis1 {
				pos[i] += increment[i]
			}
		}

		if code := c.Line(pos, data); code != status.OK {
			return code
		}
	}

	return c.Line(target, data)
}

// Dwell enqueues a zero-travel block whose only purpose is to occupy the
// Planner for timing (a pause with no motion).
func (c *Control) Dwell(data block.Block) status.Code {
	if c.checkMode {
		return status.OK
	}
	if code := c.ctrl.WaitWhile(c.pl.IsFull); code != status.OK {
		return code
	}
	data.MotionMode |= block.NoMotion
	c.pl.AddLine(nil, data)
	return status.OK
}

// UpdateTools enqueues a zero-travel block carrying spindle/tool state.
// The NoMotion flag is deliberately left set on the caller's data after
// this returns, unlike Dwell: a caller reusing the same block for a
// following dwell or line must clear it explicitly. This mirrors
// mc_update_tools in the original, where the flag is set but never
// cleared afterward.
func (c *Control) UpdateTools(data *block.Block) status.Code {
	if c.checkMode {
		return status.OK
	}
	if code := c.ctrl.WaitWhile(c.pl.IsFull); code != status.OK {
		return code
	}
	data.MotionMode |= block.NoMotion
	c.pl.AddLine(nil, *data)
	return status.OK
}

// HomeAxis runs the two-pass homing sequence for one actuator: a fast seek
// toward the limit switch, then a slow back-off to clear it. axisLimitMask
// identifies which GetLimits() bit(s) belong to this axis (more than one
// for a dual-drive axis, via settings.DualDriveAxisMask).
func (c *Control) HomeAxis(axis uint8, axisLimitMask uint8) status.AlarmCode {
	axisMask := uint8(1) << axis
	axisLimitMask |= c.cfg.DualDriveAxisMask[axis]

	c.ctrl.Unlock()
	if c.ctrl.State.HasAny(execstate.Hold|execstate.Alarm) || c.board.GetLimits()&axisLimitMask != 0 {
		return status.AlarmHomingFailLimitActive
	}

	c.board.SetHomingLimitsFilter(axisLimitMask)

	maxHomeDist := -c.cfg.MaxDistance[axis] * 1.5
	if c.cfg.HomingDirInvertMask&axisMask != 0 {
		maxHomeDist = -maxHomeDist
	}

	c.pl.Clear()
	c.ResyncPosition()
	target := c.lastTarget
	target[axis] += maxHomeDist

	// The step counts below are derived by Line itself from the target
	// position via the configured kinematics; only Feed/MotionMode need
	// setting here, same as the original (which recomputes block steps
	// unconditionally inside mc_line regardless of what the caller wrote).
	var data block.Block
	data.Feed = c.cfg.HomingFastFeedRate
	data.MotionMode = block.Feed
	c.ctrl.Unlock()
	c.Line(target, data)
	c.ctrl.SetExecState(execstate.Homing | execstate.Run)

	code := c.ctrl.WaitWhile(func() bool { return !c.itp.Idle() })
	c.ctrl.ClearExecState(execstate.Run)
	if code != status.OK {
		c.flushMotion()
		return status.AlarmHomingFailReset
	}
	c.flushMotion()

	if c.ctrl.GetExecState(execstate.Abort) {
		return status.AlarmHomingFailReset
	}
	if c.board.GetLimits()&axisLimitMask != axisLimitMask {
		return status.AlarmHomingFailApproach
	}

	// Back off at the slow feed rate. The limit-invert mask is flipped for
	// the duration of this move so the same switch asserting its rest
	// state (released) is what ends the back-off, and is restored on
	// every exit path below, including the abort path.
	backDist := c.cfg.HomingOffset * 5
	if c.cfg.HomingDirInvertMask&axisMask != 0 {
		backDist = -backDist
	}
	target = c.lastTarget
	target[axis] += backDist

	data.Feed = c.cfg.HomingSlowFeedRate
	data.MotionMode = block.Feed

	c.cfg.LimitsInvertMask ^= axisLimitMask
	restoreMask := func() { c.cfg.LimitsInvertMask ^= axisLimitMask }

	c.ctrl.Unlock()
	c.Line(target, data)
	c.ctrl.SetExecState(execstate.Homing | execstate.Run)

	code = c.ctrl.WaitWhile(func() bool { return !c.itp.Idle() })
	c.ctrl.ClearExecState(execstate.Run)
	if code != status.OK {
		restoreMask()
		c.ctrl.Stop()
		c.flushMotion()
		return status.AlarmHomingFailReset
	}

	restoreMask()
	c.ctrl.Stop()
	c.flushMotion()

	if c.ctrl.GetExecState(execstate.Abort) {
		return status.AlarmHomingFailReset
	}
	if c.board.GetLimits()&axisLimitMask != 0 {
		return status.AlarmHomingFailApproach
	}

	return status.AlarmNone
}

// Probe runs a probing cycle: arm the probe input, issue a line toward
// target, wait for contact (via the trigger-dispatched ISR latch or a
// foreground poll of the same pin), then flush and validate the resulting
// contact polarity against invertProbe.
func (c *Control) Probe(target block.Position, invertProbe bool, data block.Block) status.AlarmCode {
	prevHold := c.ctrl.GetExecState(execstate.Hold)
	c.board.EnableProbe()

	c.Line(target, data)
	c.ctrl.SetExecState(execstate.Run)

	for !c.itp.Idle() {
		if !c.ctrl.DoEvents() {
			c.ctrl.ClearExecState(execstate.Run)
			c.board.DisableProbe()
			return status.AlarmNone
		}
		if c.board.GetProbe() {
			c.board.ProbeISR()
			break
		}
	}
	c.ctrl.ClearExecState(execstate.Run)

	c.board.DisableProbe()
	c.flushMotion()
	if !prevHold {
		c.ctrl.ClearExecState(execstate.Hold)
	}

	probeTripped := c.board.GetProbe()
	probeFailed := probeTripped == invertProbe
	if probeFailed {
		return status.AlarmProbeFailContact
	}
	return status.AlarmNone
}

func (c *Control) flushMotion() {
	c.itp.Stop()
	c.itp.Clear()
	c.pl.Clear()
}

func invSqrt(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return 1 / tinymath.Sqrt(v)
}
