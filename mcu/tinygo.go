//go:build tinygo

package mcu

import (
	"runtime/interrupt"
	"time"
)

// StepTimer is the board-specific hardware timer a concrete board package
// wires up to drive the step/step-reset compare interrupts. Boards differ
// in their timer peripherals (SAMD TCC, RP2040 PWM slice, STM32 TIMx, ...),
// so Hardware depends on this small interface rather than any one
// register layout, per spec.md §9's call to replace preprocessor-selected
// register layouts with a trait.
type StepTimer interface {
	// SetPeriod programs the compare-match period in timer ticks and the
	// prescaler tier FreqToClocks selected.
	SetPeriod(ticks uint16, prescaler uint8)
	// Enable/Disable arm or disarm both compare interrupts.
	Enable()
	Disable()
}

// EEPROM abstracts whatever byte-addressable persistent store the target
// board exposes (on-chip flash page, external I2C EEPROM, ...).
type EEPROM interface {
	ReadByte(addr uint16) uint8
	WriteByte(addr uint16, value uint8)
}

// Hardware is the real MCU implementation. It follows the same
// //go:build tinygo gating tmc5160/spicomm.go uses to keep hosted
// (non-TinyGo) builds of the rest of this module free of board-specific
// imports.
type Hardware struct {
	Timer          StepTimer
	NominalClockHz float32
	EEPROMBus      EEPROM

	irqState interrupt.State
}

func NewHardware(timer StepTimer, nominalClockHz float32, eeprom EEPROM) *Hardware {
	return &Hardware{Timer: timer, NominalClockHz: nominalClockHz, EEPROMBus: eeprom}
}

func (h *Hardware) FreqToClocks(frequency float32) (uint16, uint8) {
	return FreqToClocks(h.NominalClockHz, frequency)
}

func (h *Hardware) StartStepISR(ticks uint16, prescaler uint8) {
	h.Timer.SetPeriod(ticks, prescaler)
	h.Timer.Enable()
}

func (h *Hardware) ChangeStepISR(ticks uint16, prescaler uint8) {
	h.Timer.SetPeriod(ticks, prescaler)
}

func (h *Hardware) StepStopISR() {
	h.Timer.Disable()
}

func (h *Hardware) EnableInterrupts() {
	interrupt.Restore(h.irqState)
}

func (h *Hardware) DisableInterrupts() {
	h.irqState = interrupt.Disable()
}

func (h *Hardware) EEPROMReadByte(addr uint16) uint8 {
	if h.EEPROMBus == nil {
		return 0
	}
	return h.EEPROMBus.ReadByte(addr)
}

func (h *Hardware) EEPROMWriteByte(addr uint16, value uint8) {
	if h.EEPROMBus == nil {
		return
	}
	h.EEPROMBus.WriteByte(addr, value)
}

func (h *Hardware) DelayMicroseconds(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}
