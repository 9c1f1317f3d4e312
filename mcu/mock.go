package mcu

// Mock is an in-memory MCU used by tests and the host simulator. It
// records the last period/prescaler programmed into the step timer and
// whether the timer is running, in place of real hardware registers.
type Mock struct {
	NominalClockHz float32

	Running         bool
	Ticks           uint16
	Prescaler       uint8
	InterruptsOn    bool
	EEPROM          [1024]uint8
	DelayCallsTotal uint32
}

// NewMock returns a Mock clocked at 16 MHz, the same nominal clock rate
// the original AVR implementation assumes.
func NewMock() *Mock {
	return &Mock{NominalClockHz: 16_000_000, InterruptsOn: true}
}

func (m *Mock) FreqToClocks(frequency float32) (uint16, uint8) {
	return FreqToClocks(m.NominalClockHz, frequency)
}

func (m *Mock) StartStepISR(ticks uint16, prescaler uint8) {
	m.Ticks = ticks
	m.Prescaler = prescaler
	m.Running = true
}

func (m *Mock) ChangeStepISR(ticks uint16, prescaler uint8) {
	m.Ticks = ticks
	m.Prescaler = prescaler
}

func (m *Mock) StepStopISR() {
	m.Running = false
}

func (m *Mock) EnableInterrupts()  { m.InterruptsOn = true }
func (m *Mock) DisableInterrupts() { m.InterruptsOn = false }

func (m *Mock) EEPROMReadByte(addr uint16) uint8 {
	if int(addr) >= len(m.EEPROM) {
		return 0
	}
	return m.EEPROM[addr]
}

func (m *Mock) EEPROMWriteByte(addr uint16, value uint8) {
	if int(addr) >= len(m.EEPROM) {
		return
	}
	m.EEPROM[addr] = value
}

func (m *Mock) DelayMicroseconds(us uint32) {
	m.DelayCallsTotal += us
}
