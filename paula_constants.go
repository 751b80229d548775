// paula_constants.go - Amiga Paula clock and custom chip register offsets.

package sc68

const (
	PAULA_BASE = 0xDFF000
	PAULA_END  = 0xDFF1FF

	PAULA_CLOCK_PAL = 3546895
	PAULA_CHANNELS  = 4
	PAULA_VOL_MAX   = 64
)

// Register offsets from PAULA_BASE.
const (
	PAULA_DMACONR = 0x002
	PAULA_ADKCONR = 0x010
	PAULA_INTENAR = 0x01C
	PAULA_INTREQR = 0x01E
	PAULA_DMACON  = 0x096
	PAULA_INTENA  = 0x09A
	PAULA_INTREQ  = 0x09C
	PAULA_ADKCON  = 0x09E

	PAULA_AUD0       = 0x0A0 // first channel block
	PAULA_AUD_STRIDE = 0x10

	// Offsets within a channel block.
	PAULA_AUD_LCH = 0x0
	PAULA_AUD_LCL = 0x2
	PAULA_AUD_LEN = 0x4
	PAULA_AUD_PER = 0x6
	PAULA_AUD_VOL = 0x8
	PAULA_AUD_DAT = 0xA
)

const (
	PAULA_DMA_SETCLR = 0x8000
	PAULA_DMA_MASTER = 0x0200
	PAULA_DMA_AUDIO  = 0x000F
)
