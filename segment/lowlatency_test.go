package segment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
	"github.com/tetsuo/dashmux/mux"
)

type fakeNotifier struct {
	notified []media.SegmentInfo
}

func (n *fakeNotifier) NotifySegment(info media.SegmentInfo)          { n.notified = append(n.notified, info) }
func (n *fakeNotifier) NotifyKeyFrame(trackID uint32, timestamp uint64) {}

func TestLowLatencySegmenterWriteInit(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	s := NewLowLatencySegmenter(m, nil)

	out := &fakeWriteSeeker{}
	require.NoError(t, s.WriteInit(out))

	r := bmff.NewReader(out.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeFtyp, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMoov, r.Type())
}

func TestLowLatencySegmenterChunksFlushIndependently(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	notifier := &fakeNotifier{}
	s := NewLowLatencySegmenter(m, notifier)

	out := &fakeWriteSeeker{}
	require.NoError(t, s.StartSegment(out))

	f1 := NewFragment(1, 0, nil)
	require.NoError(t, f1.AddSample(sample(1, 0, 0, 1000, make([]byte, 8), true)))
	require.NoError(t, s.AddChunk(f1))

	f2 := NewFragment(1, 1000, nil)
	require.NoError(t, f2.AddSample(sample(1, 1000, 1000, 1000, make([]byte, 8), false)))
	require.NoError(t, s.AddChunk(f2))

	require.NoError(t, s.FinalizeSegment(1))
	require.True(t, out.closed)
	require.Len(t, notifier.notified, 1)
	info := notifier.notified[0]
	require.Equal(t, uint64(2000), info.Duration)
	require.True(t, info.FirstSampleIsSAP)

	r := bmff.NewReader(out.Bytes())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeStyp, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMoof, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMdat, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMoof, r.Type())
	require.True(t, r.Next())
	require.Equal(t, bmff.TypeMdat, r.Type())
	require.False(t, r.Next())
}

func TestLowLatencySegmenterAddChunkBeforeStartSegmentErrors(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	s := NewLowLatencySegmenter(m, nil)

	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 1000, make([]byte, 4), true)))
	require.Error(t, s.AddChunk(f))
}

func TestLowLatencySegmenterFinalizeSegmentWithoutNotifierIsOK(t *testing.T) {
	track := mux.NewTrack(testStreamInfo())
	m := mux.NewMuxer(media.MuxerOptions{}, 90000, track)
	s := NewLowLatencySegmenter(m, nil)

	out := &fakeWriteSeeker{}
	require.NoError(t, s.StartSegment(out))
	f := NewFragment(1, 0, nil)
	require.NoError(t, f.AddSample(sample(1, 0, 0, 1000, make([]byte, 4), true)))
	require.NoError(t, s.AddChunk(f))
	require.NoError(t, s.FinalizeSegment(1))
}
