package segment

import (
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
	"github.com/tetsuo/dashmux/mux"
)

// SingleSegmenter builds one VOD output file: ftyp + moov + sidx followed
// by every fragment's moof+mdat (spec §4.3.2). It buffers fragments in
// memory rather than a literal on-disk temp file — the two-pass sizing the
// original performs via a real temp file collapses here to accumulating
// into a second bmff.Writer and only copying its bytes into the caller's
// output once the sidx is known, which needs no filesystem access for the
// fragment sizes typical of a DASH VOD asset. See DESIGN.md.
type SingleSegmenter struct {
	Muxer          *mux.Muxer
	ReferenceTrack uint32 // the track sidx indexes against (typically video)

	buf            *bmff.Writer
	refs           []bmff.SidxEntry
	earliestPTS    int64
	sequenceNumber uint32
}

// NewSingleSegmenter creates a segmenter for one output file built from m's
// tracks, indexing its sidx against referenceTrackID.
func NewSingleSegmenter(m *mux.Muxer, referenceTrackID uint32) *SingleSegmenter {
	return &SingleSegmenter{Muxer: m, ReferenceTrack: referenceTrackID, buf: bmff.NewWriter(), earliestPTS: -1, sequenceNumber: 1}
}

// AddFragment finalizes f's moof+mdat into the segmenter's buffer and
// records a SegmentReference for it.
func (s *SingleSegmenter) AddFragment(f *Fragment) error {
	n, err := f.Finalize(s.buf, s.sequenceNumber)
	if err != nil {
		return err
	}
	s.sequenceNumber++

	if s.earliestPTS < 0 {
		s.earliestPTS = f.EarliestPTS()
	}

	s.refs = append(s.refs, bmff.SidxEntry{
		ReferenceType:      0,
		ReferencedSize:     uint32(n),
		SubsegmentDuration: uint32(f.Duration()),
		StartsWithSAP:      f.FirstSampleIsSync(),
		SAPType:            sapTypeFor(f.FirstSampleIsSync()),
	})
	return nil
}

// sapTypeFor reports the SAP type for a fragment's leading sample: type 1
// (closed GOP, decode order == presentation order at the SAP) for a clean
// sync sample, type 0 (undetermined/non-SAP) otherwise. Finer SAP-type
// detection (open GOP, types 2-3) needs GOP structure this module's input
// model doesn't expose, so those remain the caller's responsibility via a
// future MediaSample.SAPType field if ever needed.
func sapTypeFor(isSync bool) uint8 {
	if isSync {
		return 1
	}
	return 0
}

// Finalize writes the complete output file (ftyp+moov+sidx+fragments) to
// out.
func (s *SingleSegmenter) Finalize(out media.WriteSeeker) error {
	final := bmff.NewWriter()
	if err := s.Muxer.WriteInitSegment(final); err != nil {
		return fmt.Errorf("segment: init segment: %w", err)
	}

	var earliest uint64
	if s.earliestPTS > 0 {
		earliest = uint64(s.earliestPTS)
	}
	final.WriteSidx(s.ReferenceTrack, s.Muxer.MovieTimescale, earliest, 0, s.refs)
	final.Append(s.buf.Bytes())

	if _, err := out.Write(final.Bytes()); err != nil {
		return fmt.Errorf("segment: writing output: %w", err)
	}
	return nil
}
