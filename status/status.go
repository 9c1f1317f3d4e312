// Package status defines the return codes and alarm codes that form the
// contract between the motion pipeline and its G-code executor, per the
// "Return codes surfaced by the core" table in the motion control spec.
package status

import "fmt"

// Code is a lightweight error type for the motion pipeline: a small integer
// code whose message comes from a fixed name table, so formatting a known
// code allocates nothing.
type Code uint8

const (
	// OK indicates the call completed and, where applicable, the block was
	// handed to the planner.
	OK Code = iota
	// TravelExceeded is returned by Line when a jog move would cross a
	// soft limit; the caller's state is not mutated.
	TravelExceeded
	// CriticalFail is returned when an event pump reports a fatal
	// condition (abort/reset) while a caller was waiting on planner space.
	CriticalFail
)

var codeNames = map[Code]string{
	OK:             "ok",
	TravelExceeded: "travel exceeded",
	CriticalFail:   "critical fail",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("status.Code(%d)", uint8(c))
}

func (c Code) Error() string {
	return c.String()
}

// Err reports whether c represents an error condition worth propagating to
// a caller (OK is not an error).
func (c Code) Err() error {
	if c == OK {
		return nil
	}
	return c
}

// AlarmCode identifies a structured alarm condition raised into the CNC
// state collaborator. Unlike Code, an alarm does not unwind the caller —
// it is latched until an external unlock.
type AlarmCode uint8

const (
	AlarmNone AlarmCode = iota
	// AlarmSoftLimit is raised when a non-jog move would cross a
	// configured soft limit.
	AlarmSoftLimit
	// AlarmHardLimit is raised when a limit switch trips outside of a
	// homing cycle.
	AlarmHardLimit
	// AlarmHomingFailLimitActive is returned when HomeAxis is entered
	// while HOLD, ALARM or a limit switch of the homed axis is already
	// active.
	AlarmHomingFailLimitActive
	// AlarmHomingFailApproach is returned when the fast-seek phase of
	// homing completes without the expected limit switch asserting, or when
	// the slow back-off completes with it still asserted.
	AlarmHomingFailApproach
	// AlarmHomingFailReset is returned when ABORT is observed during
	// either homing wait.
	AlarmHomingFailReset
	// AlarmProbeFailContact is returned when a probe cycle ends with the
	// probe input at the wrong polarity.
	AlarmProbeFailContact
)

var alarmNames = map[AlarmCode]string{
	AlarmNone:                  "no alarm",
	AlarmSoftLimit:             "soft limit",
	AlarmHardLimit:             "hard limit",
	AlarmHomingFailLimitActive: "homing fail: limit already active",
	AlarmHomingFailApproach:    "homing fail: approach",
	AlarmHomingFailReset:       "homing fail: reset",
	AlarmProbeFailContact:      "probe fail: contact",
}

func (a AlarmCode) String() string {
	if s, ok := alarmNames[a]; ok {
		return s
	}
	return fmt.Sprintf("status.AlarmCode(%d)", uint8(a))
}

func (a AlarmCode) Error() string {
	return a.String()
}
