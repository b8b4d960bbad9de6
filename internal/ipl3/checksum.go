package ipl3

import (
	"encoding/binary"

	sc64 "github.com/flashcart64/sc64ctl"
)

// Magic is the fixed multiplier the kernel seeds its accumulator array with.
const Magic = 0x6C078965

// WordCount is the number of big-endian 32-bit words the kernel consumes
// from an IPL3 image (4032 bytes / 4).
const WordCount = 1008

// rotl32/rotr32 perform a true 32-bit rotate, handling the shift-by-zero
// edge case that a naive v<<0 | v>>32 expression would get wrong in Go
// (shifts by the full width are defined but yield 0, not v).
func rotl32(v uint32, s uint32) uint32 {
	s &= 0x1F
	if s == 0 {
		return v
	}
	return v<<s | v>>(32-s)
}

func rotr32(v uint32, s uint32) uint32 {
	s &= 0x1F
	if s == 0 {
		return v
	}
	return v>>s | v<<(32-s)
}

// combine is the kernel's nonlinear mixing primitive, referred to in the
// source as the three-argument helper applied throughout the main loop.
func combine(a0, a1, a2 uint32) uint32 {
	divisor := a1
	if divisor == 0 {
		divisor = a2
	}
	p := uint64(a0) * uint64(divisor)
	hi := uint32(p >> 32)
	lo := uint32(p)
	d := hi - lo
	if d == 0 {
		return a0
	}
	return d
}

// Words parses a 4032-byte big-endian IPL3 image into WordCount 32-bit
// words.
func Words(ipl3 []byte) []uint32 {
	words := make([]uint32, WordCount)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(ipl3[i*4:])
	}
	return words
}

// Checksum runs the 1008-word arithmetic kernel over words (as produced by
// Words) using the given seed, and returns the 48-bit result.
func Checksum(words []uint32, seed byte) (uint64, error) {
	if len(words) != WordCount {
		return 0, sc64.NewValueError("ipl3: expected exactly 1008 words", nil)
	}

	var buf [16]uint32
	init := (Magic*uint32(seed) + 1) ^ words[0]
	for i := range buf {
		buf[i] = init
	}

	var prev, curr uint32
	for i := 1; i <= WordCount; i++ {
		if i == 1 {
			prev = words[0]
		} else {
			prev = curr
		}
		curr = words[i-1]

		buf[0] += combine(uint32(1007-i), curr, uint32(i))
		buf[1] = combine(buf[1], curr, uint32(i))
		buf[2] ^= curr
		buf[3] += combine(curr+5, Magic, uint32(i))

		s := prev & 0x1F
		buf[4] += rotr32(curr, s)

		s = prev >> 27
		buf[5] += rotl32(curr, s)

		if curr < buf[6] {
			buf[6] = (buf[3] + buf[6]) ^ (curr + uint32(i))
		} else {
			buf[6] = (buf[4] + curr) ^ buf[6]
		}

		s = prev & 0x1F
		buf[7] = combine(buf[7], rotl32(curr, s), uint32(i))

		s = prev >> 27
		buf[8] = combine(buf[8], rotl32(curr, 32-s), uint32(i))

		if prev < curr {
			buf[9] = combine(buf[9], curr, uint32(i))
		} else {
			buf[9] += curr
		}

		if i == WordCount {
			break
		}
		next := words[i]

		buf[10] = combine(buf[10]+curr, next, uint32(i))
		buf[11] = combine(buf[11]^curr, next, uint32(i))
		buf[12] += buf[8] ^ curr

		t := rotl32(curr, curr&0x1F) | rotr32(next, next&0x1F)
		buf[13] += t

		b4Style := rotl32(curr, 32-(prev&0x1F))
		buf[14] = combine(combine(buf[14], b4Style, uint32(i)), rotl32(next, curr&0x1F), uint32(i))

		b5Style := rotl32(curr, prev>>27)
		buf[15] = combine(combine(buf[15], b5Style, uint32(i)), rotl32(next, curr>>27), uint32(i))
	}

	return fold(buf), nil
}

// fold reduces the 16-word accumulator to the final 48-bit checksum.
func fold(buf [16]uint32) uint64 {
	var fb [4]uint32
	fb[0], fb[1], fb[2], fb[3] = buf[0], buf[0], buf[0], buf[0]

	for i := 0; i < 16; i++ {
		d := buf[i]
		s := d & 0x1F
		r := rotl32(d, 32-s)
		fb[0] += r

		if d < fb[1] {
			fb[1] += d
		} else {
			fb[1] = combine(fb[1], d, uint32(i))
		}

		if (d>>1)&1 == d&1 {
			fb[2] += d
		} else {
			fb[2] = combine(fb[2], d, uint32(i))
		}

		if d&1 != 0 {
			fb[3] ^= d
		} else {
			fb[3] = combine(fb[3], d, uint32(i))
		}
	}

	high := combine(fb[0], fb[1], 16)
	low := fb[3] ^ fb[2]
	return uint64(high)<<32 | uint64(low)
}
