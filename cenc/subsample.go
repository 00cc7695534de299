package cenc

import (
	"encoding/binary"

	"github.com/tetsuo/dashmux/media"
)

// NALHeaderSize is the number of bytes left clear at the start of each NAL
// unit's payload (after its length prefix) for the given video codec:
// AVC NAL headers are 1 byte, HEVC NAL headers are 2 bytes (spec §4.4).
type NALHeaderSize int

const (
	NALHeaderAVC  NALHeaderSize = 1
	NALHeaderHEVC NALHeaderSize = 2
)

// PartitionNALs walks a sample made of 4-byte-length-prefixed NAL units
// (the AVCC/HVCC convention, not Annex-B start codes) and returns one
// SubsampleRegion per NAL unit: the length prefix plus NAL header stay
// clear, the remainder of the NAL's payload is marked for encryption.
//
// cbcMode rounds each protected span down to a whole number of 16-byte AES
// blocks, since CBC mode cannot encrypt a partial final block; the leftover
// bytes are folded into the clear count of the following subsample (or, for
// the sample's last NAL, left clear entirely) rather than dropped.
func PartitionNALs(sample []byte, headerSize NALHeaderSize, cbcMode bool) []media.SubsampleRegion {
	var regions []media.SubsampleRegion
	carryClear := 0
	pos := 0
	for pos+4 <= len(sample) {
		nalLen := int(binary.BigEndian.Uint32(sample[pos:]))
		pos += 4
		if nalLen <= 0 || pos+nalLen > len(sample) {
			break
		}
		clear := carryClear + 4 + int(headerSize)
		protectedLen := nalLen - int(headerSize)
		if protectedLen < 0 {
			clear = carryClear + 4 + nalLen
			protectedLen = 0
		}
		carryClear = 0
		if cbcMode && protectedLen%16 != 0 {
			carryClear = protectedLen % 16
			protectedLen -= carryClear
		}
		regions = append(regions, media.SubsampleRegion{
			ClearBytes:  clear,
			CipherBytes: protectedLen,
		})
		pos += nalLen
	}
	if carryClear > 0 && len(regions) > 0 {
		regions[len(regions)-1].ClearBytes += carryClear
	}
	return regions
}

// TotalProtectedBytes sums the cipher-eligible byte count across regions,
// used to advance an IVSequencer by the right number of AES blocks.
func TotalProtectedBytes(regions []media.SubsampleRegion) int {
	total := 0
	for _, r := range regions {
		total += r.CipherBytes
	}
	return total
}
