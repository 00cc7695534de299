package segment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
	"github.com/tetsuo/dashmux/mux"
)

func TestMultiSegmenterWriteInit(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	opener := &fakeOpener{}
	s := NewMultiSegmenter(m, 1, opener)

	out := &fakeWriteSeeker{}
	require.NoError(t, s.WriteInit(out))

	r := bmff.NewReader(out.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeFtyp, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMoov, r.Type())
}

func TestMultiSegmenterWriteSegmentStypSidxMoof(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	opener := &fakeOpener{}
	s := NewMultiSegmenter(m, 1, opener)

	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, make([]byte, 20), true)))

	require.NoError(t, s.WriteSegment([]*Fragment{f}, 1, 0))
	require.Len(t, opener.opened, 1)

	r := bmff.NewReader(opener.opened[0].Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeStyp, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeSidx, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMoof, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMdat, r.Type())
}

func TestMultiSegmenterWriteSegmentPatchesSidxReferencedSize(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	opener := &fakeOpener{}
	s := NewMultiSegmenter(m, 1, opener)

	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, make([]byte, 37), true)))
	require.NoError(t, s.WriteSegment([]*Fragment{f}, 1, 0))

	buf := opener.opened[0].Bytes()
	r := bmff.NewReader(buf)
	require.True(t, r.Next()) // styp
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeSidx, r.Type())
	sidxData := r.Data() // Data() already strips version/flags
	require.Equal(t, uint8(0), r.Version()) // earliest/first_offset both fit in 32 bits here
	// reference_ID(4)+timescale(4)+earliest(4)+first_offset(4)+reserved(2)+ref_count(2)
	refEntryOff := 4 + 4 + 4 + 4 + 2 + 2
	referencedSize := be32(sidxData[refEntryOff:refEntryOff+4]) & 0x7fffffff
	require.Positive(t, referencedSize)

	require.True(t, r.Next())
	moofSize := r.Size()
	require.True(t, r.Next()) // mdat
	mdatSize := r.Size()
	require.Equal(t, moofSize+mdatSize, uint64(referencedSize))
}

func TestMultiSegmenterWriteSegmentEmptyErrors(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	opener := &fakeOpener{}
	s := NewMultiSegmenter(m, 1, opener)
	require.Error(t, s.WriteSegment(nil, 1, 0))
}

func TestMultiSegmenterOpenerErrorPropagates(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	opener := &fakeOpener{}
	s := NewMultiSegmenter(m, 1, opener)

	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 3000, make([]byte, 5), true)))
	require.Error(t, s.WriteSegment([]*Fragment{f}, 0, 0))
}
