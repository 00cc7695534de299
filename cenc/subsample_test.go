package cenc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/media"
)

func lengthPrefixedNAL(payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	return buf
}

func TestPartitionNALsAVCSingleNAL(t *testing.T) {
	nal := lengthPrefixedNAL(append([]byte{0x65}, make([]byte, 32)...)) // 1-byte header + 32 bytes payload
	regions := PartitionNALs(nal, NALHeaderAVC, false)
	require.Len(t, regions, 1)
	require.Equal(t, 4+1, regions[0].ClearBytes)
	require.Equal(t, 32, regions[0].CipherBytes)
}

func TestPartitionNALsHEVCTwoByteHeader(t *testing.T) {
	nal := lengthPrefixedNAL(append([]byte{0x26, 0x01}, make([]byte, 16)...))
	regions := PartitionNALs(nal, NALHeaderHEVC, false)
	require.Len(t, regions, 1)
	require.Equal(t, 4+2, regions[0].ClearBytes)
	require.Equal(t, 16, regions[0].CipherBytes)
}

func TestPartitionNALsMultipleNALUnits(t *testing.T) {
	nal1 := lengthPrefixedNAL(append([]byte{0x67}, make([]byte, 16)...))
	nal2 := lengthPrefixedNAL(append([]byte{0x65}, make([]byte, 48)...))
	sample := append(append([]byte{}, nal1...), nal2...)

	regions := PartitionNALs(sample, NALHeaderAVC, false)
	require.Len(t, regions, 2)
	require.Equal(t, 16, regions[0].CipherBytes)
	require.Equal(t, 48, regions[1].CipherBytes)
}

func TestPartitionNALsCBCModeRoundsDownAndCarries(t *testing.T) {
	// 40 bytes of protected payload: not a multiple of 16, 8 bytes should
	// carry into the clear count of the following subsample.
	nal1 := lengthPrefixedNAL(append([]byte{0x65}, make([]byte, 40)...))
	nal2 := lengthPrefixedNAL(append([]byte{0x65}, make([]byte, 32)...))
	sample := append(append([]byte{}, nal1...), nal2...)

	regions := PartitionNALs(sample, NALHeaderAVC, true)
	require.Len(t, regions, 2)
	require.Equal(t, 32, regions[0].CipherBytes) // 40 rounded down to 32
	require.Equal(t, 4+1+8, regions[1].ClearBytes) // +8 carried from previous
	require.Equal(t, 32, regions[1].CipherBytes)
}

func TestPartitionNALsCBCModeLastNALKeepsLeftoverClear(t *testing.T) {
	nal := lengthPrefixedNAL(append([]byte{0x65}, make([]byte, 20)...))
	regions := PartitionNALs(nal, NALHeaderAVC, true)
	require.Len(t, regions, 1)
	require.Equal(t, 16, regions[0].CipherBytes)
	require.Equal(t, 4+1+4, regions[0].ClearBytes) // 4-byte leftover folded back in
}

func TestPartitionNALsTruncatedInputStopsCleanly(t *testing.T) {
	sample := []byte{0, 0, 0, 100} // claims 100 bytes but none follow
	regions := PartitionNALs(sample, NALHeaderAVC, false)
	require.Empty(t, regions)
}

func TestTotalProtectedBytesSumsCipherSpans(t *testing.T) {
	regions := []media.SubsampleRegion{
		{CipherBytes: 10},
		{CipherBytes: 20},
	}
	require.Equal(t, 30, TotalProtectedBytes(regions))
}
