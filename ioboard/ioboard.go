// Package ioboard implements the I/O collaborator of the motion control
// spec §6: soft-limit checking and the limit/probe pin state that Trigger
// Control and Motion Control read.
package ioboard

import "github.com/gocnc/ucnc/block"

// Board is the I/O collaborator contract.
type Board interface {
	// CheckBoundaries reports whether pos is within the configured travel
	// envelope (a soft-limit check).
	CheckBoundaries(pos block.Position) bool
	// GetLimits returns the current debounced limit-switch bitmask.
	GetLimits() uint8
	// GetProbe returns the current probe input level.
	GetProbe() bool
	// EnableProbe/DisableProbe arm or disarm probe-triggered ISR
	// dispatch; disabled by default to avoid spurious alarms outside a
	// probe cycle.
	EnableProbe()
	DisableProbe()
	// SetHomingLimitsFilter restricts which limit bits the homing
	// sequencer currently cares about (so cross-talk from other axes
	// during a fast seek doesn't abort the wrong move).
	SetHomingLimitsFilter(mask uint8)
	// ProbeISR is invoked directly by Motion Control when foreground
	// polling (rather than a true pin-change interrupt) detects a probe
	// trigger, so the same latch path runs either way.
	ProbeISR()
	// GetControls returns the current debounced control-input bitmask
	// (hold/resume/door/abort buttons), using the bit layout of the
	// trigger package's Control* constants.
	GetControls() uint8
}

// Mock is an in-memory Board for tests and the host simulator, modeled on
// the mockBus pattern in sharpmem_test.go: a small struct whose fields are
// poked directly by the test rather than driven through real hardware.
type Mock struct {
	InBounds    bool
	Limits      uint8
	Probe       bool
	ProbeArmed  bool
	HomingMask  uint8
	ProbeISRHit int
	Controls    uint8
}

// NewMock returns a Mock with CheckBoundaries defaulting to true (in
// bounds), matching an idle machine with no travel violation.
func NewMock() *Mock {
	return &Mock{InBounds: true}
}

func (m *Mock) CheckBoundaries(pos block.Position) bool { return m.InBounds }
func (m *Mock) GetLimits() uint8                        { return m.Limits }
func (m *Mock) GetProbe() bool                          { return m.Probe }
func (m *Mock) EnableProbe()                            { m.ProbeArmed = true }
func (m *Mock) DisableProbe()                           { m.ProbeArmed = false }
func (m *Mock) SetHomingLimitsFilter(mask uint8)        { m.HomingMask = mask }
func (m *Mock) ProbeISR()                               { m.ProbeISRHit++ }
func (m *Mock) GetControls() uint8                      { return m.Controls }
