// Package block defines the position/step vectors and the motion block that
// flows from Motion Control through the Planner into the Interpolator, per
// the motion control spec §3.
package block

// AxisCount and StepperCount are compile-time constants: the motion path
// allocates no memory, so every vector in this package is a fixed-size
// array sized by these constants rather than a slice.
const (
	AxisCount    = 3
	StepperCount = 3
)

// Position is a Cartesian position vector in work coordinates (mm), indexed
// by axis.
type Position [AxisCount]float32

// Steps is a per-actuator step-count magnitude for a single segment; sign
// (direction) is carried separately in Block.DirBits.
type Steps [StepperCount]uint32

// StepPosition is a per-actuator absolute machine position in steps. Unlike
// Steps it is signed: it tracks where each actuator actually is, not how
// far one segment moves it. The original firmware encoded this as a
// uint32_t and recovered the sign by comparing against INT32_MAX (a
// two's-complement trick); spec.md §9 calls for replacing that with a
// signed integer and an explicit sign test, which is what the int32
// representation here gives for free.
type StepPosition [StepperCount]int32

// DirVector is a unit vector of a Cartesian move, used for junction-angle
// math between consecutive blocks.
type DirVector [AxisCount]float32

// MotionMode is a bitmask of recognized motion flags.
type MotionMode uint8

const (
	// Feed marks a normal feed-rate move (mm/min).
	Feed MotionMode = 1 << iota
	// Rapid marks a rapid (maximum-rate) move.
	Rapid
	// InverseFeed marks a move whose Feed field is already expressed as
	// an inverse time (1/minutes) rather than mm/min.
	InverseFeed
	// NoMotion marks a block with zero travelled distance (dwell, tool
	// update) that still occupies a planner slot for timing purposes.
	NoMotion
	// BacklashCompensation marks a synthesized block inserted ahead of a
	// real move to take up mechanical slack on a direction reversal.
	BacklashCompensation
)

func (m MotionMode) Has(flag MotionMode) bool { return m&flag != 0 }

// Block is the unit of motion passed from Motion Control through the
// Planner into the Interpolator.
type Block struct {
	Steps       Steps
	TotalSteps  uint32 // max(Steps[*]): the Bresenham denominator.
	FullSteps   uint32 // sum(Steps[*]): used for averaged feed conversion.
	StepIndexer uint8  // index of the dominant axis (achieves TotalSteps).
	DirBits     uint8  // one bit per actuator; 1 = negative direction.
	Feed        float32
	DirVect     DirVector
	MotionMode  MotionMode
	Spindle     float32
	Dwell       float32

	// Planner-filled fields.
	EntrySpeedSqr    float32
	MaxEntrySpeedSqr float32
	Acceleration     float32
	RapidFeed        float32
}

// Reset zeroes the step-derived fields of b, leaving caller-populated
// fields (Feed, MotionMode, Spindle, Dwell) untouched. Motion Control calls
// this at the top of Line to prevent stale DirBits from a long arc leaking
// into later segments.
func (b *Block) Reset() {
	b.Steps = Steps{}
	b.TotalSteps = 0
	b.FullSteps = 0
	b.StepIndexer = 0
	b.DirBits = 0
	b.DirVect = DirVector{}
}

// AccumulateStep folds one actuator's step delta into the block's
// TotalSteps/FullSteps/StepIndexer bookkeeping. steps must already be a
// non-negative magnitude; sign is carried separately in DirBits.
func (b *Block) AccumulateStep(axis uint8, steps uint32) {
	b.Steps[axis] = steps
	b.FullSteps += steps
	if steps > b.TotalSteps {
		b.TotalSteps = steps
		b.StepIndexer = axis
	}
}
