package segment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/cenc"
	"github.com/tetsuo/dashmux/media"
)

func sample(trackID uint32, pts, dts int64, duration uint32, data []byte, isSync bool) media.MediaSample {
	return media.MediaSample{TrackID: trackID, PTS: pts, DTS: dts, Duration: duration, Data: data, IsSyncSample: isSync}
}

func TestFragmentEmptyUntilFirstSample(t *testing.T) {
	f := NewFragment(1, 0, nil)
	require.True(t, f.Empty())
	require.Equal(t, int64(-1), f.EarliestPTS())

	require.NoError(t, f.AddSample(sample(1, 1000, 1000, 3000, []byte{1, 2, 3}, true)))
	require.False(t, f.Empty())
	require.Equal(t, int64(1000), f.EarliestPTS())
}

func TestFragmentDurationAccumulates(t *testing.T) {
	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, []byte{1}, true)))
	require.NoError(t, f.AddSample(sample(1, 3000, 3000, 3000, []byte{2}, false)))
	require.Equal(t, uint64(6000), f.Duration())
}

func TestFragmentFirstSampleIsSync(t *testing.T) {
	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, []byte{1}, true)))
	require.True(t, f.FirstSampleIsSync())
}

func TestFragmentEarliestPTSTracksMinimum(t *testing.T) {
	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 500, 500, 100, []byte{1}, true)))
	require.NoError(t, f.AddSample(sample(1, 200, 600, 100, []byte{2}, false))) // B-frame, lower pts
	require.Equal(t, int64(200), f.EarliestPTS())
}

func TestFragmentFinalizeEmptyErrors(t *testing.T) {
	f := NewFragment(1, 0, nil)
	w := bmff.NewWriter()
	_, err := f.Finalize(w, 1)
	require.Error(t, err)
}

func TestFragmentFinalizeUniformSamplesUseTfhdDefaults(t *testing.T) {
	f := NewFragment(7, 1000, nil)
	require.NoError(t, f.AddSample(sample(7, 0, 0, 3000, make([]byte, 10), true)))
	require.NoError(t, f.AddSample(sample(7, 3000, 3000, 3000, make([]byte, 10), false)))

	w := bmff.NewWriter()
	n, err := f.Finalize(w, 1)
	require.NoError(t, err)
	require.Equal(t, len(w.Bytes()), n)

	r := bmff.NewReader(w.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMoof, r.Type())
	r.Enter()
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMfhd, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeTraf, r.Type())
	r.Enter()
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeTfhd, r.Type())
	flags := r.Flags()
	require.NotZero(t, flags&bmff.TfhdDefaultSampleDurationPresent)
	require.NotZero(t, flags&bmff.TfhdDefaultSampleSizePresent)
	require.NotZero(t, flags&bmff.TfhdDefaultBaseIsMoof)
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeTfdt, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeTrun, r.Type())
	trunFlags := r.Flags()
	require.Zero(t, trunFlags&bmff.TrunSampleSizePresent)
	r.Exit()
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMdat, r.Type())
}

func TestFragmentFinalizeNonUniformSizeSetsTrunFlag(t *testing.T) {
	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, make([]byte, 10), true)))
	require.NoError(t, f.AddSample(sample(1, 3000, 3000, 3000, make([]byte, 20), false)))

	w := bmff.NewWriter()
	_, err := f.Finalize(w, 1)
	require.NoError(t, err)

	r := bmff.NewReader(w.Bytes())
	r.Next()
	r.Enter()
	r.Next() // mfhd
	r.Next() // traf
	r.Enter()
	r.Next() // tfhd
	require.Zero(t, r.Flags()&bmff.TfhdDefaultSampleSizePresent)
	r.Next() // tfdt
	r.Next() // trun
	require.NotZero(t, r.Flags()&bmff.TrunSampleSizePresent)
}

func TestFragmentFinalizeNegativeCompositionOffsetUsesVersion1Trun(t *testing.T) {
	f := NewFragment(1, 0, nil)
	// B-frame where pts < dts produces a negative composition offset.
	require.NoError(t, f.AddSample(sample(1, 900, 1000, 3000, make([]byte, 10), false)))

	w := bmff.NewWriter()
	_, err := f.Finalize(w, 1)
	require.NoError(t, err)

	r := bmff.NewReader(w.Bytes())
	r.Next()
	r.Enter()
	r.Next()
	r.Next()
	r.Enter()
	r.Next() // tfhd
	r.Next() // tfdt
	r.Next() // trun
	require.Equal(t, uint8(1), r.Version())
}

func TestFragmentFinalizeTrunDataOffsetPointsPastMoof(t *testing.T) {
	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, []byte{1, 2, 3, 4}, true)))

	w := bmff.NewWriter()
	n, err := f.Finalize(w, 1)
	require.NoError(t, err)

	r := bmff.NewReader(w.Bytes())
	r.Next()
	moofSize := r.Size()
	r.Enter()
	r.Next()
	r.Next()
	r.Enter()
	r.Next() // tfhd
	r.Next() // tfdt
	r.Next() // trun
	d := r.Data()
	dataOffset := int32(be32(d[4:8]))
	require.Equal(t, int32(moofSize)+8, dataOffset)
	require.Equal(t, int(moofSize)+8+4, n) // moof + mdat header + 4 bytes payload
}

func TestFragmentFinalizeEncryptedWritesAuxInfoBoxes(t *testing.T) {
	seq := cenc.NewIVSequencer(make([]byte, 8), 8)
	enc := media.EncryptionConfig{Scheme: [4]byte(cenc.SchemeCenc), Key: make([]byte, 16)}
	fe, err := cenc.NewFragmentEncryptor(enc, seq)
	require.NoError(t, err)

	f := NewFragment(1, 0, fe)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, make([]byte, 16), true)))

	w := bmff.NewWriter()
	_, err = f.Finalize(w, 1)
	require.NoError(t, err)

	require.True(t, boxExistsSomewhere(w.Bytes(), bmff.TypeSaiz))
	require.True(t, boxExistsSomewhere(w.Bytes(), bmff.TypeSaio))
	require.True(t, boxExistsSomewhere(w.Bytes(), bmff.TypeSenc))
}

func TestFragmentFinalizeKeyRotationWritesSgpdSbgpAndMoofLevelPssh(t *testing.T) {
	seq := cenc.NewIVSequencer(make([]byte, 8), 8)
	enc := media.EncryptionConfig{Scheme: [4]byte(cenc.SchemeCenc), KeyID: [16]byte{9, 9, 9}, Key: make([]byte, 16)}
	fe, err := cenc.NewFragmentEncryptor(enc, seq)
	require.NoError(t, err)

	f := NewFragment(1, 0, fe)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, make([]byte, 16), true)))
	require.NoError(t, f.AddSample(sample(1, 3000, 3000, 3000, make([]byte, 16), false)))

	entry, err := cenc.SeigEntryFor(enc)
	require.NoError(t, err)
	pssh := [][]byte{cenc.BuildPSSH(cenc.PSSHBox{KeyIDs: [][16]byte{entry.KID}})}
	f.SetKeyRotation(entry, pssh)

	w := bmff.NewWriter()
	_, err = f.Finalize(w, 1)
	require.NoError(t, err)

	require.True(t, boxExistsSomewhere(w.Bytes(), bmff.TypeSgpd))
	require.True(t, boxExistsSomewhere(w.Bytes(), bmff.TypeSbgp))

	// pssh must be a moof-level sibling of traf, not nested inside it.
	r := bmff.NewReader(w.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMoof, r.Type())
	r.Enter()
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMfhd, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypePssh, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeTraf, r.Type())
	r.Enter()
	require.False(t, boxExistsSomewhere(r.Data(), bmff.TypePssh))
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func boxExistsSomewhere(buf []byte, target bmff.BoxType) bool {
	r := bmff.NewReader(buf)
	for r.Next() {
		if r.Type() == target {
			return true
		}
		if bmff.IsContainerBox(r.Type()) {
			r.Enter()
			found := boxExistsSomewhere(r.Data(), target)
			r.Exit()
			if found {
				return true
			}
		}
	}
	return false
}
