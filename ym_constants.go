// ym_constants.go - YM2149 clocks, register layout and the DAC table.

package sc68

const (
	YM_BASE = 0xFF8800
	YM_END  = 0xFF88FF

	YM_CLOCK      = 2000000
	YM_TICK_HZ    = YM_CLOCK / 8 // generator clock
	YM_REG_COUNT  = 16
	YM_LEVELS     = 32
	YM_LFSR_RESET = 1
)

const (
	YM_REG_TONE_A_FINE = iota
	YM_REG_TONE_A_COARSE
	YM_REG_TONE_B_FINE
	YM_REG_TONE_B_COARSE
	YM_REG_TONE_C_FINE
	YM_REG_TONE_C_COARSE
	YM_REG_NOISE
	YM_REG_MIXER
	YM_REG_VOL_A
	YM_REG_VOL_B
	YM_REG_VOL_C
	YM_REG_ENV_FINE
	YM_REG_ENV_COARSE
	YM_REG_ENV_SHAPE
	YM_REG_PORT_A
	YM_REG_PORT_B
)

// Envelope shape bits.
const (
	YM_ENV_HOLD      = 0x01
	YM_ENV_ALTERNATE = 0x02
	YM_ENV_ATTACK    = 0x04
	YM_ENV_CONTINUE  = 0x08

	YM_VOL_ENVELOPE = 0x10
)

// ymRegMask holds the implemented bits of each register.
var ymRegMask = [YM_REG_COUNT]uint8{
	0xFF, 0x0F, 0xFF, 0x0F, 0xFF, 0x0F, 0x1F, 0xFF,
	0x1F, 0x1F, 0x1F, 0xFF, 0xFF, 0x0F, 0xFF, 0xFF,
}

// ymLevels is the 32-step logarithmic DAC curve (about 1.5 dB per step).
var ymLevels = [YM_LEVELS]int32{
	0, 184, 219, 260, 309, 368, 437, 519,
	617, 734, 872, 1036, 1232, 1464, 1740, 2067,
	2457, 2920, 3471, 4125, 4903, 5827, 6925, 8231,
	9782, 11626, 13818, 16422, 19518, 23197, 27570, 32767,
}
