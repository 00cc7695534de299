package bmff

import "encoding/binary"

var be = binary.BigEndian

// IsoEpochOffset is the number of seconds between the ISO-BMFF epoch
// (1904-01-01 00:00 UTC) and the Unix epoch (spec §6.1).
const IsoEpochOffset = 2082844800

// clearBytes zeroes buf[from:to]. Used for reserved fields that must be
// written as zero regardless of what a stale buffer might contain.
func clearBytes(buf []byte, from, to int) {
	for i := from; i < to; i++ {
		buf[i] = 0
	}
}

// readCString reads a NUL-terminated string starting at off, stopping at
// end if no NUL is found first.
func readCString(b []byte, off, end int) string {
	if off >= end {
		return ""
	}
	for i := off; i < end; i++ {
		if b[i] == 0 {
			return string(b[off:i])
		}
	}
	return string(b[off:end])
}

// PackLanguage packs a 3-letter ISO-639-2/T code into the 15-bit field used
// by mdhd/hdlr-adjacent language fields (spec §6.1): 5 bits per letter, each
// minus 0x60, with bit 15 (the pad bit) left at 0. Invalid codes (wrong
// length or out of the 0x60-0x7f range) fall back to "und".
func PackLanguage(code string) uint16 {
	if len(code) != 3 {
		code = "und"
	}
	var v uint16
	for i := 0; i < 3; i++ {
		c := code[i]
		if c < 0x60 || c > 0x7f {
			return PackLanguage("und")
		}
		v = v<<5 | uint16(c-0x60)
	}
	return v
}

// UnpackLanguage reverses PackLanguage.
func UnpackLanguage(v uint16) string {
	b := [3]byte{}
	b[2] = byte(v&0x1f) + 0x60
	b[1] = byte((v>>5)&0x1f) + 0x60
	b[0] = byte((v>>10)&0x1f) + 0x60
	return string(b[:])
}

// Fixed16 converts an integer and fractional part into a 16.16 fixed-point
// value (rate = 0x00010000 is 1.0, per spec §6.1).
func Fixed16(v float64) uint32 { return uint32(v * 0x10000) }

// Fixed8 converts a float into an 8.8 fixed-point value (volume = 0x0100 is
// 1.0, per spec §6.1).
func Fixed8(v float64) uint16 { return uint16(v * 0x100) }

// IdentityMatrix is the unity transformation matrix required at the fixed
// position in mvhd/tkhd (spec §6.1).
var IdentityMatrix = [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}

// WriteMatrix serializes IdentityMatrix (or a caller-supplied matrix) as 9
// big-endian uint32s into b, which must have len(b) >= 36.
func WriteMatrix(b []byte, m [9]uint32) {
	for i, v := range m {
		be.PutUint32(b[i*4:], v)
	}
}

// ReadMatrix parses 9 big-endian uint32s from b.
func ReadMatrix(b []byte) [9]uint32 {
	var m [9]uint32
	for i := range m {
		m[i] = be.Uint32(b[i*4:])
	}
	return m
}
