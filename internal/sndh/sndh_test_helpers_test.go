// sndh_test_helpers_test.go - Builders for synthetic SNDH and ICE data.

package sndh

import (
	"bytes"
	"encoding/binary"
)

// buildSNDH assembles a file with BRA.W slots, the given tag bytes and a
// short body of code.
func buildSNDH(tags ...string) []byte {
	var b bytes.Buffer
	body := []uint16{0x4E75, 0x4E75} // rts for init and play
	w := func(v uint16) { binary.Write(&b, binary.BigEndian, v) }

	w(0x6000)
	w(0) // patched below
	w(0x6000)
	w(0)
	w(0x6000)
	w(0)
	b.WriteString("SNDH")
	for _, t := range tags {
		b.WriteString(t)
	}
	b.WriteString("HDNS")
	if b.Len()&1 != 0 {
		b.WriteByte(0)
	}
	code := b.Len()
	for _, op := range body {
		w(op)
	}

	out := b.Bytes()
	for slot, target := range []int{code, code, code + 2} {
		at := slot * 4
		binary.BigEndian.PutUint16(out[at+2:], uint16(target-(at+2)))
	}
	return out
}

// storeICE wraps payload in an ICE! stream made of a single literal run.
func storeICE(payload []byte) []byte {
	var bits []int
	emit := func(v, n int) {
		for i := n - 1; i >= 0; i-- {
			bits = append(bits, (v>>i)&1)
		}
	}
	emit(1, 1)
	n := len(payload)
	for i := range iceLiteralBits {
		v := n - iceLiteralAdd[i]
		if v < iceLiteralOnes[i] {
			emit(v, iceLiteralBits[i])
			break
		}
		emit(iceLiteralOnes[i], iceLiteralBits[i])
	}

	// first byte read (the file's last) carries 7 bits and the end marker
	var stream []byte
	for len(bits) > 0 {
		width := 8
		if len(stream) == 0 {
			width = 7
		}
		var v byte
		for i := 0; i < width; i++ {
			v <<= 1
			if i < len(bits) {
				v |= byte(bits[i])
			}
		}
		if len(bits) > width {
			bits = bits[width:]
		} else {
			bits = nil
		}
		if len(stream) == 0 {
			v = v<<1 | 1
		}
		stream = append(stream, v)
	}

	out := make([]byte, ICE_HEADER_SIZE, ICE_HEADER_SIZE+len(payload)+len(stream))
	out = append(out, payload...)
	for i := len(stream) - 1; i >= 0; i-- {
		out = append(out, stream[i])
	}
	binary.BigEndian.PutUint32(out[0:], ICE_MAGIC)
	binary.BigEndian.PutUint32(out[4:], uint32(len(out)))
	binary.BigEndian.PutUint32(out[8:], uint32(len(payload)))
	return out
}
