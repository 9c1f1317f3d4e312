package kinematics

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gocnc/ucnc/block"
)

func TestLinearInverseForwardRoundTrip(t *testing.T) {
	c := qt.New(t)

	lin := NewLinear([block.AxisCount]float32{200, 200, 200})

	pos := block.Position{10, -5, 0}
	var steps block.StepPosition
	lin.ApplyInverse(pos, &steps)
	c.Assert(steps, qt.DeepEquals, block.StepPosition{2000, -1000, 0})

	var back block.Position
	lin.ApplyForward(steps, &back)
	c.Assert(back, qt.DeepEquals, pos)
}

func TestLinearTransformRoundTrip(t *testing.T) {
	c := qt.New(t)

	lin := NewLinear([block.AxisCount]float32{200, 200, 200})
	lin.ToolOffset = block.Position{0, 0, 12.7}

	pos := block.Position{1, 2, 3}
	orig := pos
	lin.ApplyTransform(&pos)
	c.Assert(pos, qt.DeepEquals, block.Position{1, 2, 15.7})

	lin.ApplyReverseTransform(&pos)
	c.Assert(pos, qt.DeepEquals, orig)
}
