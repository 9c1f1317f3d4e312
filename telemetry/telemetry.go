// Package telemetry implements the optional status-publishing surface the
// domain stack exercises: a foreground-only snapshot of machine state,
// published over either a host HTTP endpoint or, on a TinyGo target, MQTT.
// Nothing here runs from interrupt context or touches the motion pipeline's
// hot path (spec.md §1 places telemetry/observability outside the core).
package telemetry

import (
	"encoding/json"

	"github.com/gocnc/ucnc/block"
	"github.com/gocnc/ucnc/cnc"
	"github.com/gocnc/ucnc/execstate"
	"github.com/gocnc/ucnc/motion"
)

// Snapshot is the published machine-state payload: position, the raw
// execution-state word (for a remote observer that wants to decode
// individual flags itself), and the latched alarm code.
type Snapshot struct {
	Position  block.Position `json:"position"`
	ExecState execstate.Flag `json:"exec_state"`
	Alarm     uint8          `json:"alarm"`
}

// Marshal encodes a Snapshot as JSON, the wire format both the HTTP
// endpoint and the MQTT publisher use.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Publisher is the transport-agnostic push sink for Snapshot payloads.
// MQTTPublisher (tinygo) implements it; HTTPServer (host) does not push and
// instead serves the latest Snapshot on request.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Source provides the live values a Snapshot is built from.
type Source interface {
	GetPosition() block.Position
	ExecState() execstate.Flag
	AlarmCode() uint8
}

// MachineSource adapts motion.Control and cnc.Controller, the two
// collaborators that together hold everything a Snapshot reports, into a
// Source.
type MachineSource struct {
	Motion *motion.Control
	CNC    *cnc.Controller
}

func (m MachineSource) GetPosition() block.Position { return m.Motion.GetPosition() }
func (m MachineSource) ExecState() execstate.Flag   { return m.CNC.State.Get() }
func (m MachineSource) AlarmCode() uint8            { return uint8(m.CNC.Alarm) }

// Snap builds a Snapshot from src.
func Snap(src Source) Snapshot {
	return Snapshot{
		Position:  src.GetPosition(),
		ExecState: src.ExecState(),
		Alarm:     src.AlarmCode(),
	}
}
