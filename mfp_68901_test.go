// mfp_68901_test.go - MFP timer and interrupt controller tests

package sc68

import "testing"

func mfpWrite(m *MFP68901, addr uint32, v uint8, cycle uint64) {
	m.busWrite(M68K_SIZE_BYTE, addr, uint32(v), cycle)
}

func mfpRead(m *MFP68901, addr uint32, cycle uint64) uint8 {
	return uint8(m.busRead(M68K_SIZE_BYTE, addr, cycle))
}

// timerA starts timer A at prescale 200, data 123, vector base $40.
func timerA(vr uint8) *MFP68901 {
	m := NewMFP68901(M68K_CLOCK_ATARI)
	mfpWrite(m, MFP_VR, vr, 0)
	mfpWrite(m, MFP_IERA, 0x20, 0)
	mfpWrite(m, MFP_IMRA, 0x20, 0)
	mfpWrite(m, MFP_TADR, 123, 0)
	mfpWrite(m, MFP_TACR, 7, 0)
	return m
}

func TestMFP_TimerPeriod(t *testing.T) {
	// 200*123 MFP clocks = 80078.125 CPU cycles at 8 MHz
	m := timerA(0x40)
	if lvl := m.PendingLevel(80078); lvl != 0 {
		t.Fatalf("fired early: level %d at cycle 80078", lvl)
	}
	if lvl := m.PendingLevel(80079); lvl != MFP_IRQ_LEVEL {
		t.Fatalf("level %d at cycle 80079, want %d", lvl, MFP_IRQ_LEVEL)
	}
	if v := m.Acknowledge(MFP_IRQ_LEVEL, 80079); v != 0x40+MFP_CHANNEL_TIMER_A {
		t.Fatalf("vector $%02X, want $%02X", v, 0x40+MFP_CHANNEL_TIMER_A)
	}
	if lvl := m.PendingLevel(80080); lvl != 0 {
		t.Fatal("request not cleared by acknowledge")
	}
	// second period ends at 160156.25
	if m.PendingLevel(160156) != 0 || m.PendingLevel(160157) != MFP_IRQ_LEVEL {
		t.Fatal("second period does not end at cycle 160157")
	}
}

func TestMFP_AdvanceIsChunkInvariant(t *testing.T) {
	coarse := timerA(0x40)
	fine := timerA(0x40)
	for c := uint64(0); c <= 500000; c += 7 {
		fine.advance(c)
	}
	coarse.advance(500000 - 500000%7)
	for i := range coarse.timers {
		if coarse.timers[i] != fine.timers[i] {
			t.Fatalf("timer %d: coarse %+v fine %+v", i, coarse.timers[i], fine.timers[i])
		}
	}
	if coarse.ipr != fine.ipr {
		t.Fatalf("ipr coarse $%04X fine $%04X", coarse.ipr, fine.ipr)
	}
}

func TestMFP_MaskingAndEnable(t *testing.T) {
	t.Run("masked_stays_pending", func(t *testing.T) {
		m := timerA(0x40)
		mfpWrite(m, MFP_IMRA, 0, 0)
		if m.PendingLevel(100000) != 0 {
			t.Fatal("masked channel requested an interrupt")
		}
		if mfpRead(m, MFP_IPRA, 100000)&0x20 == 0 {
			t.Fatal("masked channel not pending")
		}
		mfpWrite(m, MFP_IMRA, 0x20, 100001)
		if m.PendingLevel(100002) != MFP_IRQ_LEVEL {
			t.Fatal("unmasking did not raise the request")
		}
	})
	t.Run("disable_drops_pending", func(t *testing.T) {
		m := timerA(0x40)
		m.advance(100000)
		mfpWrite(m, MFP_IERA, 0, 100000)
		if mfpRead(m, MFP_IPRA, 100000) != 0 {
			t.Fatal("disabled channel still pending")
		}
	})
	t.Run("ipr_write_clears_only", func(t *testing.T) {
		m := timerA(0x40)
		m.advance(100000)
		mfpWrite(m, MFP_IPRA, 0xFF, 100000)
		if mfpRead(m, MFP_IPRA, 100000)&0x20 == 0 {
			t.Fatal("writing ones cleared a pending bit")
		}
		mfpWrite(m, MFP_IPRA, 0xDF, 100000)
		if mfpRead(m, MFP_IPRA, 100000)&0x20 != 0 {
			t.Fatal("writing a zero did not clear the pending bit")
		}
	})
	t.Run("stopped_timer", func(t *testing.T) {
		m := timerA(0x40)
		mfpWrite(m, MFP_TACR, 0, 0)
		if m.PendingLevel(1000000) != 0 {
			t.Fatal("stopped timer fired")
		}
		if got := mfpRead(m, MFP_TADR, 1000000); got != 123 {
			t.Fatalf("stopped counter reads %d, want 123", got)
		}
	})
}

func TestMFP_SoftwareEndOfInterrupt(t *testing.T) {
	m := NewMFP68901(M68K_CLOCK_ATARI)
	mfpWrite(m, MFP_VR, 0x48, 0)
	mfpWrite(m, MFP_IERA, 0x20, 0)
	mfpWrite(m, MFP_IMRA, 0x20, 0)
	mfpWrite(m, MFP_IERB, 0x20, 0) // timer C
	mfpWrite(m, MFP_IMRB, 0x20, 0)
	mfpWrite(m, MFP_TADR, 1, 0)
	mfpWrite(m, MFP_TCDR, 1, 0)
	mfpWrite(m, MFP_TACR, 1, 0)
	mfpWrite(m, MFP_TCDCR, 0x10, 0)

	if m.PendingLevel(100) != MFP_IRQ_LEVEL {
		t.Fatal("no request")
	}
	if v := m.Acknowledge(MFP_IRQ_LEVEL, 100); v != 0x40+MFP_CHANNEL_TIMER_A {
		t.Fatalf("vector $%02X, want timer A first", v)
	}
	if mfpRead(m, MFP_ISRA, 100)&0x20 == 0 {
		t.Fatal("timer A not in service")
	}
	// timer C is lower priority and stays blocked while A is in service
	if m.pendingChannel() == MFP_CHANNEL_TIMER_C {
		t.Fatal("lower channel presented while timer A in service")
	}
	mfpWrite(m, MFP_ISRA, 0xDF, 100)
	if m.pendingChannel() < 0 {
		t.Fatal("nothing pending after end of interrupt")
	}
	if v := m.Acknowledge(MFP_IRQ_LEVEL, 100); v == M68K_VEC_SPURIOUS {
		t.Fatal("spurious vector after end of interrupt")
	}
}

func TestMFP_SpuriousAcknowledge(t *testing.T) {
	m := NewMFP68901(M68K_CLOCK_ATARI)
	if v := m.Acknowledge(MFP_IRQ_LEVEL, 0); v != M68K_VEC_SPURIOUS {
		t.Fatalf("vector %d, want spurious", v)
	}
}

func TestMFP_RegisterReadback(t *testing.T) {
	m := NewMFP68901(M68K_CLOCK_ATARI)
	mfpWrite(m, MFP_TCDCR, 0x53, 0)
	if got := mfpRead(m, MFP_TCDCR, 0); got != 0x53 {
		t.Errorf("TCDCR = $%02X, want $53", got)
	}
	mfpWrite(m, MFP_TBCR, 0x1F, 0)
	if got := mfpRead(m, MFP_TBCR, 0); got != 0x0F {
		t.Errorf("TBCR = $%02X, want $0F", got)
	}
	if got := mfpRead(m, MFP_BASE, 0); got != 0xFF {
		t.Errorf("even address reads $%02X, want $FF", got)
	}
	if got := mfpRead(m, MFP_GPIP, 0); got != 0xFF {
		t.Errorf("GPIP = $%02X after reset", got)
	}
}

func TestMFP_DrivesCPU(t *testing.T) {
	mem := NewMemoryArena(testMemSize)
	bus := NewMachineBus(mem)
	m := NewMFP68901(M68K_CLOCK_ATARI)
	if err := bus.MapIO(MFP_BASE, MFP_END, m); err != nil {
		t.Fatal(err)
	}
	cpu := NewM68KCPU(bus)
	cpu.SetInterruptSource(m)
	NewVectorTable(mem).Set(0x40+MFP_CHANNEL_TIMER_A, 0x3000)
	loadCode(mem, 0x3000, 0x60FE) // bra.s *

	// move.b #$40,$fffa17; move.b #$20,$fffa07; move.b #$20,$fffa13
	// move.b #123,$fffa1f; move.b #7,$fffa19; stop #$2300
	loadCode(mem, testCodeAddr,
		0x13FC, 0x0040, 0x00FF, 0xFA17,
		0x13FC, 0x0020, 0x00FF, 0xFA07,
		0x13FC, 0x0020, 0x00FF, 0xFA13,
		0x13FC, 0x007B, 0x00FF, 0xFA1F,
		0x13FC, 0x0007, 0x00FF, 0xFA19,
		0x4E72, 0x2300,
	)
	cpu.Reset(testCodeAddr, testStackTop)
	cpu.RunUntil(200000)
	if cpu.PC != 0x3000 {
		t.Fatalf("timer interrupt not taken: state=%s PC=$%06X", cpu.State(), cpu.PC)
	}
	if cpu.SR.IPL != MFP_IRQ_LEVEL {
		t.Fatalf("IPL = %d, want %d", cpu.SR.IPL, MFP_IRQ_LEVEL)
	}
}
