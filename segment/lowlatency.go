package segment

import (
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
	"github.com/tetsuo/dashmux/mux"
)

// LowLatencySegmenter writes one segment as a styp followed by a sequence
// of chunks, each exactly one moof+mdat pair flushed to disk as soon as
// it's finalized, enabling CMAF chunked-transfer streaming (spec §4.3.3).
// Unlike SingleSegmenter/MultiSegmenter there is no two-pass sizing across
// chunks: each chunk's own moof is backpatched internally by
// Fragment.Finalize and nothing about later chunks affects earlier ones.
type LowLatencySegmenter struct {
	Muxer    *mux.Muxer
	Notifier media.Notifier

	out            media.WriteSeeker
	sequenceNumber uint32

	chunkCount    int
	totalSize     int64
	totalDuration uint64
	startTime     uint64
	firstIsSync   bool
}

// NewLowLatencySegmenter creates a segmenter reporting completed segments
// to notifier (may be nil if the caller doesn't need boundary callbacks).
func NewLowLatencySegmenter(m *mux.Muxer, notifier media.Notifier) *LowLatencySegmenter {
	return &LowLatencySegmenter{Muxer: m, Notifier: notifier, sequenceNumber: 1}
}

// WriteInit emits ftyp+moov to out, the stream's init segment.
func (s *LowLatencySegmenter) WriteInit(out media.WriteSeeker) error {
	w := bmff.NewWriter()
	if err := s.Muxer.WriteInitSegment(w); err != nil {
		return err
	}
	_, err := out.Write(w.Bytes())
	return err
}

// StartSegment opens a new segment on out, writing its leading styp
// immediately.
func (s *LowLatencySegmenter) StartSegment(out media.WriteSeeker) error {
	s.out = out
	s.chunkCount = 0
	s.totalSize = 0
	s.totalDuration = 0

	w := bmff.NewWriter()
	major, minor, compatible := s.Muxer.Brands()
	compatBoxTypes := make([]bmff.BoxType, len(compatible))
	for i, c := range compatible {
		compatBoxTypes[i] = bmff.BoxType(c)
	}
	w.WriteFtyp(bmff.TypeStyp, bmff.BoxType(major), minor, compatBoxTypes)

	n, err := out.Write(w.Bytes())
	s.totalSize += int64(n)
	return err
}

// AddChunk finalizes f as exactly one chunk (moof+mdat) and flushes it to
// the segment's output immediately.
func (s *LowLatencySegmenter) AddChunk(f *Fragment) error {
	if s.out == nil {
		return fmt.Errorf("segment: AddChunk called before StartSegment")
	}

	w := bmff.NewWriter()
	if _, err := f.Finalize(w, s.sequenceNumber); err != nil {
		return fmt.Errorf("segment: finalizing chunk: %w", err)
	}
	s.sequenceNumber++

	if s.chunkCount == 0 {
		s.startTime = f.BaseMediaDecodeTime
		s.firstIsSync = f.FirstSampleIsSync()
	}
	s.chunkCount++
	s.totalDuration += f.Duration()

	written, err := s.out.Write(w.Bytes())
	s.totalSize += int64(written)
	if err != nil {
		return fmt.Errorf("segment: flushing chunk: %w", err)
	}
	return nil
}

// FinalizeSegment closes the current segment's output and reports its
// total size and duration to the notifier.
func (s *LowLatencySegmenter) FinalizeSegment(trackID uint32) error {
	if s.out == nil {
		return fmt.Errorf("segment: FinalizeSegment called before StartSegment")
	}
	err := s.out.Close()
	if s.Notifier != nil {
		s.Notifier.NotifySegment(media.SegmentInfo{
			TrackID:          trackID,
			StartTime:        s.startTime,
			Duration:         s.totalDuration,
			IsSubsegment:     false,
			SAPType:          sapTypeFor(s.firstIsSync),
			FirstSampleIsSAP: s.firstIsSync,
			Size:             s.totalSize,
		})
	}
	s.out = nil
	return err
}
