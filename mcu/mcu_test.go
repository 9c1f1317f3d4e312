package mcu

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFreqToClocksTierSelection(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		freq      float32
		prescaler uint8
	}{
		{300, 9},
		{245, 9},
		{100, 10},
		{31, 10},
		{10, 11},
		{4, 11},
		{2, 12},
		{1, 12},
		{0.5, 11}, // clamped up to FStepMin (4Hz), landing in the 4Hz tier
	}

	for _, tc := range cases {
		_, prescaler := FreqToClocks(16_000_000, tc.freq)
		c.Assert(prescaler, qt.Equals, tc.prescaler, qt.Commentf("freq=%v", tc.freq))
	}
}

func TestFreqToClocksClampsToRange(t *testing.T) {
	c := qt.New(t)

	tHigh, _ := FreqToClocks(16_000_000, 1_000_000)
	tLow, _ := FreqToClocks(16_000_000, 0)
	c.Assert(tHigh <= 65535, qt.IsTrue)
	c.Assert(tLow <= 65535, qt.IsTrue)
}

func TestMockStepISRLifecycle(t *testing.T) {
	c := qt.New(t)

	m := NewMock()
	ticks, prescaler := m.FreqToClocks(1000)
	m.StartStepISR(ticks, prescaler)
	c.Assert(m.Running, qt.IsTrue)

	m.StepStopISR()
	c.Assert(m.Running, qt.IsFalse)
}

func TestMockEEPROM(t *testing.T) {
	c := qt.New(t)

	m := NewMock()
	m.EEPROMWriteByte(4, 0x42)
	c.Assert(m.EEPROMReadByte(4), qt.Equals, uint8(0x42))
}
