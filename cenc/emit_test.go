package cenc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
)

func testEncConfig(scheme Scheme) media.EncryptionConfig {
	return media.EncryptionConfig{
		Scheme: [4]byte(scheme),
		KeyID:  [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		Key:    testKey(),
	}
}

func TestNewFragmentEncryptorDefaultsPatternForCbcs(t *testing.T) {
	seq := NewIVSequencer(testIV8(), 8)
	fe, err := NewFragmentEncryptor(testEncConfig(SchemeCbcs), seq)
	require.NoError(t, err)
	require.Equal(t, uint8(DefaultCryptByteBlock), fe.cryptByteBlock)
	require.Equal(t, uint8(DefaultSkipByteBlock), fe.skipByteBlock)
}

func TestNewFragmentEncryptorNoPatternForCenc(t *testing.T) {
	seq := NewIVSequencer(testIV8(), 8)
	fe, err := NewFragmentEncryptor(testEncConfig(SchemeCenc), seq)
	require.NoError(t, err)
	require.Equal(t, uint8(0), fe.cryptByteBlock)
	require.Equal(t, uint8(0), fe.skipByteBlock)
}

func TestNewFragmentEncryptorRejectsUnknownScheme(t *testing.T) {
	seq := NewIVSequencer(testIV8(), 8)
	_, err := NewFragmentEncryptor(testEncConfig(Scheme{'x', 'x', 'x', 'x'}), seq)
	require.Error(t, err)
}

func TestEncryptAndTrackAdvancesIVSequencer(t *testing.T) {
	seq := NewIVSequencer(make([]byte, 8), 8)
	fe, err := NewFragmentEncryptor(testEncConfig(SchemeCenc), seq)
	require.NoError(t, err)

	firstIV := seq.Current()
	_, err = fe.EncryptAndTrack(make([]byte, 32), nil)
	require.NoError(t, err)
	require.NotEqual(t, firstIV, seq.Current())
	require.Len(t, fe.entries, 1)
}

func TestEncryptAndTrackSetsUseSubsampleWhenRegionsPresent(t *testing.T) {
	seq := NewIVSequencer(make([]byte, 8), 8)
	fe, err := NewFragmentEncryptor(testEncConfig(SchemeCenc), seq)
	require.NoError(t, err)

	regions := []media.SubsampleRegion{{ClearBytes: 4, CipherBytes: 16}}
	_, err = fe.EncryptAndTrack(make([]byte, 20), regions)
	require.NoError(t, err)
	require.True(t, fe.useSubsample)
}

func TestWriteAuxInfoSaioOffsetPointsAtFirstIVByte(t *testing.T) {
	seq := NewIVSequencer(make([]byte, 8), 8)
	fe, err := NewFragmentEncryptor(testEncConfig(SchemeCenc), seq)
	require.NoError(t, err)
	_, err = fe.EncryptAndTrack(make([]byte, 16), nil)
	require.NoError(t, err)
	wantIV := fe.entries[0].IV

	w := bmff.NewWriter()
	saioOffsetFieldPos, firstEntryPos := fe.WriteAuxInfo(w)
	require.Greater(t, firstEntryPos, saioOffsetFieldPos)

	buf := w.Bytes()
	require.Equal(t, wantIV, buf[firstEntryPos:firstEntryPos+len(wantIV)])

	r := bmff.NewReader(buf)
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeSaiz, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeSaio, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeSenc, r.Type())
	require.False(t, r.Next())
}

func TestWriteAuxInfoSaizSizesIncludeSubsampleTableBytes(t *testing.T) {
	seq := NewIVSequencer(make([]byte, 8), 8)
	fe, err := NewFragmentEncryptor(testEncConfig(SchemeCenc), seq)
	require.NoError(t, err)

	regions := []media.SubsampleRegion{{ClearBytes: 4, CipherBytes: 16}, {ClearBytes: 2, CipherBytes: 16}}
	_, err = fe.EncryptAndTrack(make([]byte, 38), regions)
	require.NoError(t, err)
	require.True(t, fe.useSubsample)
	ivLen := len(fe.entries[0].IV)
	wantSize := uint8(ivLen + 2 + 6*len(fe.entries[0].Subsamples))

	w := bmff.NewWriter()
	fe.WriteAuxInfo(w)

	r := bmff.NewReader(w.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeSaiz, r.Type())
	d := r.Data()
	// default_sample_info_size (1 byte) precedes sample_count (4 bytes);
	// a non-zero default means every entry shares this size (§4.4 item 3).
	require.Equal(t, wantSize, d[0])
	require.NotZero(t, d[0])
}

func TestIVSizeForConstantIVReturnsZero(t *testing.T) {
	cfg := media.EncryptionConfig{ConstantIV: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	require.Equal(t, 0, IVSizeFor(cfg, false))
}

func TestIVSizeForNoConstantIVReturnsRequestedSize(t *testing.T) {
	cfg := media.EncryptionConfig{}
	require.Equal(t, 8, IVSizeFor(cfg, false))
	require.Equal(t, 16, IVSizeFor(cfg, true))
}
