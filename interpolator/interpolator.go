// Package interpolator implements the Interpolator / Step Generator of the
// motion control spec §4.3: it dequeues planner blocks, builds a
// trapezoidal speed profile, and drives a Bresenham-style multi-axis DDA
// from two timer-interrupt-shaped methods.
//
// StepPulseISR and StepResetISR are written to be safe to call directly
// from a real hardware timer interrupt: they touch only integer state, a
// fixed-size ring buffer, and a CAS-guarded reentrancy flag, never a lock
// that could hold off the next tick (spec.md §5, §9).
package interpolator

import (
	"log/slog"
	"sync/atomic"

	"github.com/orsinium-labs/tinymath"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/mcu"
	"github.com/gocnc/ucnc/planner"
)

// SegmentQueueCapacity bounds the foreground-to-ISR segment queue. No heap
// is used anywhere in this package (spec.md §9).
const SegmentQueueCapacity = 16

// accelSubsegments is how many constant-rate chunks the accel and decel
// legs of a block's trapezoidal profile are each divided into. A real
// AMASS-style planner recomputes rate continuously; subdividing into a
// fixed, small number of chunks is this port's simplification, traded for
// a bounded, allocation-free segment queue (see DESIGN.md).
const accelSubsegments = 6

// PulseSink is the hardware boundary the step generator drives. It stands
// in for the GPIO register layout the spec places out of scope (spec.md
// §1): direction bits are committed before the first pulse of a block
// (spec.md §5), and ResetSteps drives every step line low again.
type PulseSink interface {
	SetDirBits(bits uint8)
	Step(bits uint8)
	ResetSteps()
}

type segment struct {
	ticks     uint16
	prescaler uint8
	steps     uint32 // dominant-axis steps to execute at this rate
}

// Interpolator is the foreground pump plus the two ISR entry points.
type Interpolator struct {
	pl   *planner.Planner
	mcu  mcu.MCU
	sink PulseSink
	cnc  *cnc.Controller
	log  *slog.Logger

	// Active-block state, foreground-owned except stepsExecuted.
	haveBlock     bool
	activeSteps   block.Steps
	activeTotal   uint32
	accum         block.Steps
	stepsExecuted atomic.Uint32

	// Segment ring buffer: foreground pushes the tail, the step ISR pops
	// the head. Single-producer/single-consumer, per spec.md §5.
	segQueue        [SegmentQueueCapacity]segment
	segHead         int
	segTail         atomic.Int32
	segCount        atomic.Int32
	curSegStepsLeft atomic.Uint32

	stepBusy  atomic.Bool
	resetBusy atomic.Bool

	running  atomic.Bool
	holding  bool
	profiled bool // true once the active block's profile has been fully segmented
}

// New wires an Interpolator to its collaborators.
func New(pl *planner.Planner, mcuDev mcu.MCU, sink PulseSink, ctrl *cnc.Controller, log *slog.Logger) *Interpolator {
	if log == nil {
		log = slog.Default()
	}
	return &Interpolator{pl: pl, mcu: mcuDev, sink: sink, cnc: ctrl, log: log}
}

// Run is the foreground pump: call it often. It loads the next planner
// block when idle, refills the segment queue, and services HOLD/resume
// transitions. It never blocks.
func (i *Interpolator) Run() {
	if i.cnc.GetExecState(execstate.Hold) {
		i.enterHold()
	} else if i.holding {
		i.resumeFromHold()
	}

	if !i.haveBlock {
		head := i.pl.Head()
		if head == nil {
			return
		}
		i.loadBlock(head)
	}

	i.refillSegments()

	if i.blockExhausted() {
		i.pl.Pop()
		i.haveBlock = false
	}
}

func (i *Interpolator) blockExhausted() bool {
	return i.haveBlock && i.stepsExecuted.Load() >= i.activeTotal && i.segCount.Load() == 0
}

func (i *Interpolator) loadBlock(b *block.Block) {
	i.activeSteps = b.Steps
	i.activeTotal = b.TotalSteps
	i.accum = block.Steps{}
	i.stepsExecuted.Store(0)
	i.haveBlock = true
	i.profiled = false
	i.sink.SetDirBits(b.DirBits)
	if !i.running.Load() {
		ticks, prescaler := i.mcu.FreqToClocks(entrySpeedHz(b))
		i.mcu.StartStepISR(ticks, prescaler)
		i.running.Store(true)
	}
}

func entrySpeedHz(b *block.Block) float32 {
	v := sqrtf32(b.EntrySpeedSqr)
	if v < mcu.FStepMin {
		v = mcu.FStepMin
	}
	return v
}

// refillSegments pushes as many profile segments as fit, computed from the
// active block's trapezoidal speed profile (entry -> nominal -> exit).
func (i *Interpolator) refillSegments() {
	if !i.haveBlock || i.profiled {
		return
	}

	head := i.pl.Head()
	if head == nil {
		return
	}

	entry := sqrtf32(head.EntrySpeedSqr)
	nominal := head.Feed / 60
	exit := entry // conservative: decelerate back to entry speed absent look-ahead into the next block
	accel := head.Acceleration
	total := float32(head.TotalSteps)

	if accel <= 0 || total <= 0 {
		i.pushSegment(nominal, head.TotalSteps)
		i.profiled = true
		return
	}

	accelDist := (nominal*nominal - entry*entry) / (2 * accel)
	decelDist := (nominal*nominal - exit*exit) / (2 * accel)
	if accelDist < 0 {
		accelDist = 0
	}
	if decelDist < 0 {
		decelDist = 0
	}

	if accelDist+decelDist > total {
		peakSqr := (2*accel*total + entry*entry + exit*exit) / 2
		accelDist = (peakSqr - entry*entry) / (2 * accel)
		if accelDist < 0 {
			accelDist = 0
		}
		if accelDist > total {
			accelDist = total
		}
		decelDist = total - accelDist
	}
	cruiseDist := total - accelDist - decelDist
	if cruiseDist < 0 {
		cruiseDist = 0
	}

	i.emitRamp(entry, nominal, accelDist)
	if cruiseDist > 0 {
		i.pushSegment(nominal, uint32(cruiseDist+0.5))
	}
	i.emitRamp(nominal, exit, decelDist)
	i.profiled = true
}

// emitRamp subdivides a [v0, v1] ramp of the given total step distance
// into accelSubsegments constant-rate chunks.
func (i *Interpolator) emitRamp(v0, v1, dist float32) {
	if dist <= 0 {
		return
	}
	chunk := dist / accelSubsegments
	for s := 0; s < accelSubsegments; s++ {
		t := (float32(s) + 0.5) / accelSubsegments
		rate := v0 + (v1-v0)*t
		i.pushSegment(rate, uint32(chunk+0.5))
	}
}

func (i *Interpolator) pushSegment(rateHz float32, steps uint32) {
	if steps == 0 {
		return
	}
	if i.segCount.Load() >= SegmentQueueCapacity {
		return
	}
	ticks, prescaler := i.mcu.FreqToClocks(rateHz)
	tail := i.segTail.Load()
	i.segQueue[tail] = segment{ticks: ticks, prescaler: prescaler, steps: steps}
	i.segTail.Store((tail + 1) % SegmentQueueCapacity)
	i.segCount.Add(1)
}

// Idle reports whether there is no motion in progress or queued: no active
// block, no pending segment, and nothing waiting in the planner. Callers
// that start a motion and need to block until it completes (homing, probe
// cycles) wait on the negation of this rather than on a separately-tracked
// flag, since this is the ground truth.
func (i *Interpolator) Idle() bool {
	return !i.haveBlock && i.segCount.Load() == 0 && i.pl.IsEmpty()
}

// Stop disables the step timer. Queued segments, the segment in progress
// and the active block are kept; Clear drops them.
func (i *Interpolator) Stop() {
	i.mcu.StepStopISR()
	i.running.Store(false)
}

// Clear drops all queued segments and the active block, in addition to
// Stop's effects. Used on abort and on homing/probe cycle completion.
func (i *Interpolator) Clear() {
	i.Stop()
	i.segHead = 0
	i.segTail.Store(0)
	i.segCount.Store(0)
	i.curSegStepsLeft.Store(0)
	i.haveBlock = false
	i.holding = false
	i.profiled = false
}

func (i *Interpolator) enterHold() {
	if i.holding {
		return
	}
	i.holding = true
	i.log.Info("interpolator entering hold")
}

func (i *Interpolator) resumeFromHold() {
	i.holding = false
	i.log.Info("interpolator resuming from hold")
}

// StepPulseISR is the compare-match handler that advances the Bresenham
// DDA and emits pulse bits for whichever axes overflowed this tick. It is
// guarded against reentrancy: an overlapping invocation (a missed tick) is
// preferable to reentering mid-update (spec.md §4.3, §9).
func (i *Interpolator) StepPulseISR() {
	if !i.stepBusy.CompareAndSwap(false, true) {
		return
	}
	defer i.stepBusy.Store(false)

	if !i.haveBlock {
		return
	}

	if i.curSegStepsLeft.Load() == 0 {
		if !i.advanceSegment() {
			return
		}
	}

	var pulseBits uint8
	for axis := 0; axis < block.StepperCount; axis++ {
		i.accum[axis] += i.activeSteps[axis]
		if i.activeTotal != 0 && i.accum[axis] >= i.activeTotal {
			i.accum[axis] -= i.activeTotal
			pulseBits |= 1 << uint(axis)
		}
	}
	i.sink.Step(pulseBits)
	i.stepsExecuted.Add(1)
	i.curSegStepsLeft.Add(^uint32(0)) // decrement by one, wraparound-safe at 0 checked above
}

// advanceSegment pops the next queued segment and reprograms the timer
// period. Reprogramming only ever happens at a segment boundary, so the
// tick period in flight between a compare-A and its paired compare-B never
// changes mid-pulse (spec.md §4.3 invariant).
func (i *Interpolator) advanceSegment() bool {
	if i.segCount.Load() == 0 {
		return false
	}
	seg := i.segQueue[i.segHead]
	i.segHead = (i.segHead + 1) % SegmentQueueCapacity
	i.segCount.Add(-1)
	i.curSegStepsLeft.Store(seg.steps)
	i.mcu.ChangeStepISR(seg.ticks, seg.prescaler)
	return true
}

// StepResetISR is the half-period compare-match handler that drives every
// step line low again, enforcing mcu.MinPulseWidthMicros.
func (i *Interpolator) StepResetISR() {
	if !i.resetBusy.CompareAndSwap(false, true) {
		return
	}
	defer i.resetBusy.Store(false)
	i.sink.ResetSteps()
}

func sqrtf32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return tinymath.Sqrt(v)
}
