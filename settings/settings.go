// Package settings defines the read-only settings collaborator consumed by
// Motion Control and the Planner, per the motion control spec §6.
package settings

import "github.com/gocnc/ucnc/block"

// Settings mirrors the EEPROM-backed settings struct the spec treats as an
// external collaborator. µCNC-Go never parses or persists it — the host
// application is responsible for populating it, the same way
// tmc5160.MotorParameters is populated by the caller rather than by the
// driver.
type Settings struct {
	BacklashSteps  block.Steps
	MaxDistance    block.Position
	MaxFeedRate    block.Position
	Acceleration   block.Position
	JunctionDeviation float32
	ArcTolerance      float32

	HomingFastFeedRate  float32
	HomingSlowFeedRate  float32
	HomingOffset        float32
	HomingDirInvertMask uint8

	// LimitsInvertMask is mutated transiently by Motion Control during the
	// slow back-off phase of homing (spec §4.1, §9) and must be restored
	// on every exit path.
	LimitsInvertMask uint8

	// DualDriveAxisMask ORs in a second limit-switch bit for axes driven
	// by two motors, so HomeAxis requires both limits to assert together.
	DualDriveAxisMask [block.AxisCount]uint8
}

// Defaults returns a Settings populated with conservative values, in the
// same "usable for testing only" spirit as tmc5160.NewDefaultStepper.
func Defaults() Settings {
	s := Settings{
		JunctionDeviation:  0.01,
		ArcTolerance:       0.002,
		HomingFastFeedRate: 500,
		HomingSlowFeedRate: 100,
		HomingOffset:       1,
	}
	for i := range s.MaxDistance {
		s.MaxDistance[i] = 200
		s.MaxFeedRate[i] = 5000
		s.Acceleration[i] = 100
	}
	return s
}
