// ice.go - Pack-Ice ("ICE!") depacker for compressed SNDH files.
//
// The packed stream is read backwards from its end: a bit reservoir in
// the trailing bytes, literal runs copied out of the stream, and
// back-references into the already rebuilt output, also written
// back to front.

package sndh

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	ICE_MAGIC       = 0x49434521 // "ICE!"
	ICE_HEADER_SIZE = 12
	ICE_MAX_OUTPUT  = 16 << 20
)

var ErrICE = errors.New("bad ICE stream")

var (
	iceLiteralBits  = [...]int{1, 2, 2, 3, 8, 15}
	iceLiteralOnes  = [...]int{1, 3, 3, 7, 0xFF, 0x7FFF}
	iceLiteralAdd   = [...]int{1, 2, 5, 8, 15, 270, 270}
	iceMatchLenBits = [...]int{0, 0, 1, 2, 10}
	iceMatchLenAdd  = [...]int{2, 3, 4, 6, 10}
	iceMatchOffBits = [...]int{8, 5, 12}
	iceMatchOffAdd  = [...]int{31, -1, 287}
)

// IsICE reports whether data starts with an ICE! header.
func IsICE(data []byte) bool {
	return len(data) >= ICE_HEADER_SIZE && binary.BigEndian.Uint32(data) == ICE_MAGIC
}

type iceReader struct {
	src  []byte
	pos  int // index of the byte feeding the reservoir, moves down
	bits int // reservoir, low set bit marks the end
}

func (r *iceReader) bit() int {
	b := (r.bits >> 7) & 1
	r.bits = (r.bits << 1) & 0xFF
	if r.bits != 0 {
		return b
	}
	r.pos--
	if r.pos < ICE_HEADER_SIZE {
		r.bits = 1
		return b
	}
	next := int(r.src[r.pos])
	r.bits = ((next << 1) & 0xFF) | 1
	return (next >> 7) & 1
}

func (r *iceReader) take(n int) int {
	v := 0
	for ; n > 0; n-- {
		v = v<<1 | r.bit()
	}
	return v
}

// prefix counts leading one bits, stopping at max.
func (r *iceReader) prefix(max int) int {
	i := 0
	for i < max && r.bit() != 0 {
		i++
	}
	return i
}

func (r *iceReader) literalLength() int {
	i, n := 0, 0
	for i < len(iceLiteralBits) {
		n = r.take(iceLiteralBits[i])
		if n != iceLiteralOnes[i] {
			break
		}
		i++
	}
	return n + iceLiteralAdd[i]
}

func (r *iceReader) matchLength() int {
	i := r.prefix(4)
	n := 0
	if iceMatchLenBits[i] > 0 {
		n = r.take(iceMatchLenBits[i])
	}
	return n + iceMatchLenAdd[i]
}

func (r *iceReader) matchOffset(length int) int {
	if length == 2 {
		if r.bit() != 0 {
			return r.take(9) + 0x3F
		}
		return r.take(6) - 1
	}
	i := r.prefix(2)
	off := r.take(iceMatchOffBits[i]) + iceMatchOffAdd[i]
	if off < 0 {
		off -= length - 2
	}
	return off
}

// DepackICE expands an ICE! packed buffer.
func DepackICE(data []byte) ([]byte, error) {
	if !IsICE(data) {
		return nil, fmt.Errorf("%w: no ICE! header", ErrICE)
	}
	packedLen := int(binary.BigEndian.Uint32(data[4:]))
	outLen := int(binary.BigEndian.Uint32(data[8:]))
	switch {
	case packedLen <= ICE_HEADER_SIZE || outLen <= 0:
		return nil, fmt.Errorf("%w: lengths packed=%d unpacked=%d", ErrICE, packedLen, outLen)
	case packedLen > len(data):
		return nil, fmt.Errorf("%w: truncated, have %d of %d bytes", ErrICE, len(data), packedLen)
	case outLen > ICE_MAX_OUTPUT:
		return nil, fmt.Errorf("%w: unpacked size %d too large", ErrICE, outLen)
	}

	out := make([]byte, outLen)
	r := &iceReader{src: data, pos: packedLen - 1}
	r.bits = int(data[r.pos])
	dst := outLen

	for {
		if r.bit() != 0 {
			n := r.literalLength()
			r.pos -= n
			dst -= n
			if dst < 0 || r.pos < ICE_HEADER_SIZE {
				return nil, fmt.Errorf("%w: literal run of %d overruns the buffer", ErrICE, n)
			}
			copy(out[dst:], data[r.pos:r.pos+n])
		}
		if dst <= 0 {
			return out, nil
		}

		n := r.matchLength()
		from := dst + r.matchOffset(n)
		dst -= n
		if dst < 0 {
			return nil, fmt.Errorf("%w: match of %d overruns the output", ErrICE, n)
		}
		if from < dst+1 || from+n > outLen {
			return nil, fmt.Errorf("%w: match source $%X out of range", ErrICE, from)
		}
		for i := n - 1; i >= 0; i-- {
			out[dst+i] = out[from+i]
		}
	}
}
