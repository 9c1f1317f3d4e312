// Package planner implements the look-ahead ring buffer of the motion
// control spec §4.2: it computes per-block entry speeds under
// acceleration and junction-deviation constraints and hands blocks to the
// Interpolator in FIFO order.
//
// The buffer is single-producer/single-consumer: Motion Control (and only
// Motion Control) advances the tail via AddLine; the Interpolator (and
// only the Interpolator) advances the head via Pop. No lock is required
// (spec.md §3, §5).
package planner

import (
	"github.com/orsinium-labs/tinymath"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/internal/clamp"
	"github.com/gocnc/ucnc/settings"
)

// Capacity is the ring buffer's fixed slot count — compile-time, no heap,
// per spec.md §9.
const Capacity = 16

// Planner is the look-ahead queue described above.
type Planner struct {
	buf   [Capacity]block.Block
	head  int
	tail  int
	count int

	position block.StepPosition

	havePrev    bool
	prevDirVect block.DirVector

	settings *settings.Settings
}

// New returns an empty Planner bound to cfg. cfg is read, never written.
func New(cfg *settings.Settings) *Planner {
	return &Planner{settings: cfg}
}

// IsFull reports whether the buffer has no free slot.
func (p *Planner) IsFull() bool { return p.count == Capacity }

// IsEmpty reports whether the buffer holds no block.
func (p *Planner) IsEmpty() bool { return p.count == 0 }

// GetPosition returns the absolute step position the machine will be at
// once every currently-queued block finishes executing.
func (p *Planner) GetPosition() block.StepPosition { return p.position }

// Clear empties the buffer. Only safe to call while the Interpolator is
// stopped (spec.md §4.2).
func (p *Planner) Clear() {
	p.head, p.tail, p.count = 0, 0, 0
	p.havePrev = false
}

// Head returns a pointer to the block at the head of the queue (the block
// the Interpolator is executing or about to execute), or nil if empty.
// Per spec.md §4.2's invariant, the caller must not mutate it once the
// Interpolator has latched it.
func (p *Planner) Head() *block.Block {
	if p.IsEmpty() {
		return nil
	}
	return &p.buf[p.head]
}

// Pop discards the head block, advancing the head pointer. Only the
// Interpolator calls this.
func (p *Planner) Pop() {
	if p.IsEmpty() {
		return
	}
	p.head = (p.head + 1) % Capacity
	p.count--
}

func (p *Planner) next(i int) int { return (i + 1) % Capacity }
func (p *Planner) prev(i int) int { return (i - 1 + Capacity) % Capacity }

// AddLine copies data into the tail slot, derives its acceleration and
// junction-speed caps, and runs the backward (reverse) planning pass. If
// newPos is non-nil, the planner's tracked absolute position is updated to
// *newPos — callers synthesizing a block without a real position change
// (e.g. a backlash-compensation insert) pass nil, mirroring
// planner_add_line(NULL, &block) in the original.
//
// The caller (Motion Control) is responsible for ensuring the buffer is
// not full before calling AddLine; AddLine itself does not block.
func (p *Planner) AddLine(newPos *block.StepPosition, data block.Block) {
	nominalSpeed := data.Feed / 60 // steps/min -> steps/sec
	accel := p.accelerationFor(data)
	data.Acceleration = accel
	data.RapidFeed = p.rapidFeedFor(data)

	maxJunctionSqr := nominalSpeed * nominalSpeed
	moving := !data.MotionMode.Has(block.NoMotion)
	if moving && p.havePrev {
		maxJunctionSqr = junctionSpeedSqr(p.prevDirVect, data.DirVect, accel, p.settings.JunctionDeviation, maxJunctionSqr)
	}

	data.MaxEntrySpeedSqr = maxJunctionSqr
	data.EntrySpeedSqr = maxJunctionSqr

	idx := p.tail
	p.buf[idx] = data
	p.tail = p.next(p.tail)
	p.count++

	if newPos != nil {
		p.position = *newPos
	}
	if moving {
		p.prevDirVect = data.DirVect
		p.havePrev = true
	}

	p.recalculate(idx)
}

// junctionSpeedSqr computes the squared maximum speed the machine may
// carry through the corner between a previous move (dir a) and the new
// move (dir b), given the configured junction deviation. It is the
// grbl-style closed form: a near-straight junction (cos_theta close to -1)
// imposes no extra cap; a near-reversal (cos_theta close to 1) forces a
// full stop; everything between is bounded by the chord-height tolerance
// implied by junction deviation.
func junctionSpeedSqr(a, b block.DirVector, accel, junctionDeviation, nominalSqr float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	// cosTheta is the cosine of the included angle at the corner formed
	// by the incoming ray (-a) and outgoing ray (b): -1 for a straight
	// pass-through, +1 for a dead-stop reversal.
	cosTheta := -dot
	const nearStraight = -0.95
	const nearReversal = 0.95

	if cosTheta < nearStraight {
		return nominalSqr
	}
	if cosTheta > nearReversal {
		return 0
	}

	sinThetaD2 := tinymath.Sqrt(0.5 * (1 - cosTheta))
	denom := 1 - sinThetaD2
	if denom <= 1e-6 {
		return 0
	}
	v := accel * junctionDeviation * sinThetaD2 / denom
	return clamp.Value(v, 0, nominalSqr)
}

func (p *Planner) accelerationFor(data block.Block) float32 {
	if p.settings == nil {
		return 0
	}
	axis := data.StepIndexer
	if int(axis) >= len(p.settings.Acceleration) {
		return 0
	}
	return p.settings.Acceleration[axis]
}

func (p *Planner) rapidFeedFor(data block.Block) float32 {
	if p.settings == nil {
		return 0
	}
	axis := data.StepIndexer
	if int(axis) >= len(p.settings.MaxFeedRate) {
		return 0
	}
	return p.settings.MaxFeedRate[axis]
}

// recalculate walks backward from the just-inserted block at ring index
// from toward the head, clamping each block's entry speed so it can
// decelerate, across its own length and at its own acceleration, down to
// the entry speed already committed for the block that follows it. This
// is the backward half of look-ahead planning (spec.md §4.2); the forward
// half (raising exit speeds to their achievable ceiling) is performed
// lazily by the Interpolator as it pops blocks.
func (p *Planner) recalculate(from int) {
	next := from
	idx := p.prev(from)
	for i := 1; i < p.count; i++ {
		cur := &p.buf[idx]
		nb := &p.buf[next]

		reachable := nb.EntrySpeedSqr + 2*cur.Acceleration*float32(cur.TotalSteps)
		if cur.EntrySpeedSqr > reachable {
			if reachable < cur.MaxEntrySpeedSqr {
				cur.EntrySpeedSqr = reachable
			} else {
				cur.EntrySpeedSqr = cur.MaxEntrySpeedSqr
			}
		} else {
			// Once a block's entry speed is already reachable, every
			// block further back was already satisfied by a prior
			// insertion's pass; nothing further back can change.
			break
		}

		next = idx
		idx = p.prev(idx)
	}
}
