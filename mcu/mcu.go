// Package mcu implements the MCU collaborator of the motion control spec
// §6/§9: the hardware-timer and interrupt-control abstraction that stands
// in for MCU-specific register layouts (GPIO/timers/USART), which are
// explicitly out of scope for the core (spec.md §1).
//
// A concrete, TinyGo-gated implementation lives in tinygo.go and drives a
// board-supplied StepTimer, gating interrupts through runtime/interrupt,
// following the
// //go:build tinygo convention tmc5160/spicomm.go uses for its SPI
// implementation. Mock, here, is the implementation the core is tested
// against (spec.md §9: "The core must be testable against a mock
// implementation").
package mcu

import "github.com/gocnc/ucnc/internal/clamp"

const (
	// FStepMin and FStepMax bound the step-rate frequencies FreqToClocks
	// will accept; below/above these the request is clamped.
	FStepMin float32 = 4
	FStepMax float32 = 37500
	// MinPulseWidthMicros is the minimum time a step pulse must remain
	// high, enforced by the step-reset ISR.
	MinPulseWidthMicros uint32 = 2
)

// MCU is the hardware abstraction the interpolator drives.
type MCU interface {
	// FreqToClocks converts a desired step frequency (Hz) into a 16-bit
	// timer period and a prescaler tier, given the MCU's nominal clock
	// rate in Hz.
	FreqToClocks(frequency float32) (ticks uint16, prescaler uint8)
	// StartStepISR arms both the step-pulse and step-reset compare
	// interrupts at the given period/prescaler.
	StartStepISR(ticks uint16, prescaler uint8)
	// ChangeStepISR reprograms the period of an already-running step
	// ISR without disabling it.
	ChangeStepISR(ticks uint16, prescaler uint8)
	// StepStopISR disables both step-timer interrupts.
	StepStopISR()
	// EnableInterrupts/DisableInterrupts gate the global interrupt
	// enable flag, used by the foreground loop around critical sections
	// that must not be preempted by the step ISR.
	EnableInterrupts()
	DisableInterrupts()
	// EEPROMReadByte/EEPROMWriteByte access persistent byte storage.
	// EEPROMWriteByte returns no value: spec.md §9 notes the original
	// mc_eeprom_putc's missing return value is treated as void here
	// rather than guessed at.
	EEPROMReadByte(addr uint16) uint8
	EEPROMWriteByte(addr uint16, value uint8)
	// DelayMicroseconds busy-waits for approximately the given duration;
	// used only from foreground context (e.g. the SPI chip-select
	// settle time in a register comm implementation), never from an ISR.
	DelayMicroseconds(us uint32)
}

// clockTier is one entry of the five-tier prescaler ladder reproduced
// verbatim from mcu_avr.c's mcu_freq_to_clocks: each tier is selected by a
// minimum frequency threshold and scales the nominal clock rate by a
// fixed fraction before computing the timer period.
type clockTier struct {
	minFreq    float32
	prescaler  uint8
	clockScale float32
}

var clockTiers = [5]clockTier{
	{245, 9, 1},
	{31, 10, 0.125},
	{4, 11, 0.015625},
	{1, 12, 0.00390625},
	{0, 13, 0.0009765625},
}

// FreqToClocks is the shared prescaler-ladder computation used by both
// Mock and the TinyGo hardware implementation; it only needs the MCU's
// nominal clock rate to behave identically to mcu_freq_to_clocks.
func FreqToClocks(nominalClockHz float32, frequency float32) (ticks uint16, prescaler uint8) {
	frequency = clamp.Value(frequency, FStepMin, FStepMax)

	tier := clockTiers[len(clockTiers)-1]
	for _, t := range clockTiers {
		if frequency >= t.minFreq {
			tier = t
			break
		}
	}
	clockCounter := nominalClockHz * tier.clockScale

	period := clamp.Value(clockCounter/frequency-1, 0, 65535)
	return uint16(period), tier.prescaler
}
