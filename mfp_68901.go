// mfp_68901.go - MC68901 multi-function peripheral: timers and interrupt controller

package sc68

const (
	MFP_BASE = 0xFFFA00
	MFP_END  = 0xFFFA3F

	// Register addresses. The MFP sits on the low half of the data bus, so
	// only odd addresses respond.
	MFP_GPIP  = 0xFFFA01
	MFP_AER   = 0xFFFA03
	MFP_DDR   = 0xFFFA05
	MFP_IERA  = 0xFFFA07
	MFP_IERB  = 0xFFFA09
	MFP_IPRA  = 0xFFFA0B
	MFP_IPRB  = 0xFFFA0D
	MFP_ISRA  = 0xFFFA0F
	MFP_ISRB  = 0xFFFA11
	MFP_IMRA  = 0xFFFA13
	MFP_IMRB  = 0xFFFA15
	MFP_VR    = 0xFFFA17
	MFP_TACR  = 0xFFFA19
	MFP_TBCR  = 0xFFFA1B
	MFP_TCDCR = 0xFFFA1D
	MFP_TADR  = 0xFFFA1F
	MFP_TBDR  = 0xFFFA21
	MFP_TCDR  = 0xFFFA23
	MFP_TDDR  = 0xFFFA25

	MFP_CLOCK     = 2457600
	MFP_IRQ_LEVEL = 6

	MFP_VR_SOFTWARE_EOI = 0x08
)

// Interrupt channels of the four timers. Channels 8-15 live in the A
// registers, 0-7 in the B registers.
const (
	MFP_CHANNEL_TIMER_D = 4
	MFP_CHANNEL_TIMER_C = 5
	MFP_CHANNEL_TIMER_B = 8
	MFP_CHANNEL_TIMER_A = 13
)

// Prescaler divisors indexed by the low three control bits; 0 stops the timer.
var mfpPrescaler = [8]uint64{0, 4, 10, 16, 50, 64, 100, 200}

type mfpTimer struct {
	channel uint8
	control uint8 // delay mode prescaler select, 0 = stopped
	data    uint8 // reload value, 0 counts 256
	counter uint32
	prediv  uint64 // MFP clocks into the current prescaler period
}

func (t *mfpTimer) period() uint32 {
	if t.data == 0 {
		return 256
	}
	return uint32(t.data)
}

// count applies n MFP clocks and reports whether the counter reached zero.
func (t *mfpTimer) count(n uint64) bool {
	pre := mfpPrescaler[t.control&7]
	if pre == 0 || t.control&0x08 != 0 {
		return false
	}
	t.prediv += n
	ticks := t.prediv / pre
	t.prediv %= pre
	if ticks < uint64(t.counter) {
		t.counter -= uint32(ticks)
		return false
	}
	rest := ticks - uint64(t.counter)
	p := uint64(t.period())
	t.counter = uint32(p - rest%p)
	return true
}

// MFP68901 is advanced lazily: every access carries the CPU cycle and the
// timers are brought up to it first.
type MFP68901 struct {
	cpuHz uint64
	last  uint64 // CPU cycle the timers were last advanced to
	acc   uint64 // CPU cycles times MFP_CLOCK not yet converted

	timers [4]mfpTimer // A, B, C, D

	ier, ipr, isr, imr uint16 // channel bit n = channel n
	vr                 uint8
	gpip, aer, ddr     uint8
}

func NewMFP68901(cpuHz uint64) *MFP68901 {
	m := &MFP68901{cpuHz: cpuHz}
	m.Reset()
	return m
}

func (m *MFP68901) Reset() {
	m.last = 0
	m.acc = 0
	m.timers = [4]mfpTimer{
		{channel: MFP_CHANNEL_TIMER_A},
		{channel: MFP_CHANNEL_TIMER_B},
		{channel: MFP_CHANNEL_TIMER_C},
		{channel: MFP_CHANNEL_TIMER_D},
	}
	for i := range m.timers {
		m.timers[i].counter = 256
	}
	m.ier, m.ipr, m.isr, m.imr = 0, 0, 0, 0
	m.vr = 0
	m.gpip, m.aer, m.ddr = 0xFF, 0, 0
}

// advance runs the timers up to cycle. Going backwards is a no-op.
func (m *MFP68901) advance(cycle uint64) {
	if cycle <= m.last {
		return
	}
	m.acc += (cycle - m.last) * MFP_CLOCK
	m.last = cycle
	clocks := m.acc / m.cpuHz
	m.acc %= m.cpuHz
	if clocks == 0 {
		return
	}
	for i := range m.timers {
		t := &m.timers[i]
		if t.count(clocks) && m.ier&(1<<t.channel) != 0 {
			m.ipr |= 1 << t.channel
		}
	}
}

// highest returns the highest set channel in bits, or -1.
func highest(bits uint16) int {
	for ch := 15; ch >= 0; ch-- {
		if bits&(1<<ch) != 0 {
			return ch
		}
	}
	return -1
}

// pendingChannel is the channel the MFP would present to the CPU: the
// highest unmasked pending one above every channel in service.
func (m *MFP68901) pendingChannel() int {
	ch := highest(m.ipr & m.imr)
	if ch < 0 || ch <= highest(m.isr) {
		return -1
	}
	return ch
}

// PendingLevel implements InterruptSource.
func (m *MFP68901) PendingLevel(cycle uint64) uint8 {
	m.advance(cycle)
	if m.pendingChannel() < 0 {
		return 0
	}
	return MFP_IRQ_LEVEL
}

// Acknowledge implements InterruptSource. The MFP supplies its own vector.
func (m *MFP68901) Acknowledge(level uint8, cycle uint64) int {
	m.advance(cycle)
	ch := m.pendingChannel()
	if level != MFP_IRQ_LEVEL || ch < 0 {
		return M68K_VEC_SPURIOUS
	}
	m.ipr &^= 1 << ch
	if m.vr&MFP_VR_SOFTWARE_EOI != 0 {
		m.isr |= 1 << ch
	}
	return int(m.vr&0xF0) + ch
}

func (m *MFP68901) readReg(addr uint32) uint8 {
	switch addr {
	case MFP_GPIP:
		return m.gpip
	case MFP_AER:
		return m.aer
	case MFP_DDR:
		return m.ddr
	case MFP_IERA:
		return uint8(m.ier >> 8)
	case MFP_IERB:
		return uint8(m.ier)
	case MFP_IPRA:
		return uint8(m.ipr >> 8)
	case MFP_IPRB:
		return uint8(m.ipr)
	case MFP_ISRA:
		return uint8(m.isr >> 8)
	case MFP_ISRB:
		return uint8(m.isr)
	case MFP_IMRA:
		return uint8(m.imr >> 8)
	case MFP_IMRB:
		return uint8(m.imr)
	case MFP_VR:
		return m.vr
	case MFP_TACR:
		return m.timers[0].control
	case MFP_TBCR:
		return m.timers[1].control
	case MFP_TCDCR:
		return m.timers[2].control<<4 | m.timers[3].control
	case MFP_TADR, MFP_TBDR, MFP_TCDR, MFP_TDDR:
		return uint8(m.timers[(addr-MFP_TADR)/2].counter)
	}
	// Even addresses and the USART float high.
	return 0xFF
}

// setHalf replaces the A (high) or B (low) byte of a channel register.
func setHalf(reg uint16, high bool, v uint8) uint16 {
	if high {
		return reg&0x00FF | uint16(v)<<8
	}
	return reg&0xFF00 | uint16(v)
}

func (m *MFP68901) writeReg(addr uint32, v uint8) {
	switch addr {
	case MFP_GPIP:
		m.gpip = v
	case MFP_AER:
		m.aer = v
	case MFP_DDR:
		m.ddr = v
	case MFP_IERA, MFP_IERB:
		m.ier = setHalf(m.ier, addr == MFP_IERA, v)
		// Disabling a channel drops its pending request.
		m.ipr &= m.ier
	case MFP_IPRA, MFP_IPRB:
		// Pending and in-service bits can only be cleared.
		m.ipr &= setHalf(0xFFFF, addr == MFP_IPRA, v)
	case MFP_ISRA, MFP_ISRB:
		m.isr &= setHalf(0xFFFF, addr == MFP_ISRA, v)
	case MFP_IMRA, MFP_IMRB:
		m.imr = setHalf(m.imr, addr == MFP_IMRA, v)
	case MFP_VR:
		m.vr = v
		if v&MFP_VR_SOFTWARE_EOI == 0 {
			m.isr = 0
		}
	case MFP_TACR:
		m.setControl(&m.timers[0], v&0x0F)
	case MFP_TBCR:
		m.setControl(&m.timers[1], v&0x0F)
	case MFP_TCDCR:
		m.setControl(&m.timers[2], (v>>4)&0x07)
		m.setControl(&m.timers[3], v&0x07)
	case MFP_TADR, MFP_TBDR, MFP_TCDR, MFP_TDDR:
		t := &m.timers[(addr-MFP_TADR)/2]
		t.data = v
		if t.control == 0 {
			t.counter = t.period()
		}
	}
}

func (m *MFP68901) setControl(t *mfpTimer, control uint8) {
	if t.control == 0 && control != 0 {
		t.prediv = 0
	}
	t.control = control
}

func (m *MFP68901) busRead(sz M68KSize, addr uint32, cycle uint64) uint32 {
	m.advance(cycle)
	return readBytes(sz, addr, m.readReg)
}

func (m *MFP68901) busWrite(sz M68KSize, addr uint32, value uint32, cycle uint64) {
	m.advance(cycle)
	writeBytes(sz, addr, value, m.writeReg)
}
