package cenc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
)

func TestNormalizeKeyIDExactLengthPassesThrough(t *testing.T) {
	kid := make([]byte, 16)
	for i := range kid {
		kid[i] = byte(i)
	}
	require.Equal(t, [16]byte(kid), NormalizeKeyID(kid))
}

func TestNormalizeKeyIDShortIsZeroPadded(t *testing.T) {
	kid := []byte{1, 2, 3}
	out := NormalizeKeyID(kid)
	require.Equal(t, []byte{1, 2, 3}, out[:3])
	require.Equal(t, make([]byte, 13), out[3:])
}

func TestNormalizeKeyIDLongIsTruncated(t *testing.T) {
	kid := make([]byte, 20)
	for i := range kid {
		kid[i] = byte(i + 1)
	}
	out := NormalizeKeyID(kid)
	require.Equal(t, kid[:16], out[:])
}

func TestWriteTrackEncryptionCencNoPattern(t *testing.T) {
	w := bmff.NewWriter()
	enc := media.EncryptionConfig{
		Scheme: [4]byte(SchemeCenc),
		KeyID:  [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
	}
	err := WriteTrackEncryption(w, enc)
	require.NoError(t, err)

	r := bmff.NewReader(w.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeTenc, r.Type())
	require.Equal(t, uint8(0), r.Version())
}

func TestWriteTrackEncryptionCbcsUsesDefaultPattern(t *testing.T) {
	w := bmff.NewWriter()
	enc := media.EncryptionConfig{
		Scheme: [4]byte(SchemeCbcs),
		KeyID:  [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
	}
	err := WriteTrackEncryption(w, enc)
	require.NoError(t, err)

	r := bmff.NewReader(w.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeTenc, r.Type())
	require.Equal(t, uint8(1), r.Version())

	d := r.Data()
	patternByte := d[1]
	require.Equal(t, uint8(DefaultCryptByteBlock), patternByte>>4)
	require.Equal(t, uint8(DefaultSkipByteBlock), patternByte&0x0f)
}

func TestWriteTrackEncryptionRejectsUnknownScheme(t *testing.T) {
	w := bmff.NewWriter()
	err := WriteTrackEncryption(w, media.EncryptionConfig{Scheme: [4]byte{'x', 'x', 'x', 'x'}})
	require.Error(t, err)
}
