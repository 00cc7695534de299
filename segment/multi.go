package segment

import (
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
	"github.com/tetsuo/dashmux/mux"
)

// SegmentOpener creates the output for one numbered segment, resolving
// $Number$/$Time$ substitution in a caller-supplied segment_template
// against segmentNumber/segmentTime (spec §4.3.1, §6.3); opening files by
// name is an external collaborator this module only calls back into.
type SegmentOpener interface {
	OpenSegment(segmentNumber uint32, segmentTime uint64) (media.WriteSeeker, error)
}

// MultiSegmenter writes the init segment once, then a separate styp+sidx+
// (moof+mdat)* file per segment, eagerly with no global index (spec
// §4.3.1).
type MultiSegmenter struct {
	Muxer          *mux.Muxer
	ReferenceTrack uint32
	Opener         SegmentOpener

	sequenceNumber uint32
}

// NewMultiSegmenter creates a segmenter writing segments through opener.
func NewMultiSegmenter(m *mux.Muxer, referenceTrackID uint32, opener SegmentOpener) *MultiSegmenter {
	return &MultiSegmenter{Muxer: m, ReferenceTrack: referenceTrackID, Opener: opener, sequenceNumber: 1}
}

// WriteInit emits ftyp+moov to out (the init segment's output_file_name).
func (s *MultiSegmenter) WriteInit(out media.WriteSeeker) error {
	w := bmff.NewWriter()
	if err := s.Muxer.WriteInitSegment(w); err != nil {
		return err
	}
	_, err := out.Write(w.Bytes())
	return err
}

// WriteSegment finalizes one segment file from fragments (one Fragment per
// track covering the same time window; a segment with multiple tracks
// carries one moof+mdat pair per track, in order). segmentNumber/
// segmentTime identify the file for $Number$/$Time$ template substitution.
func (s *MultiSegmenter) WriteSegment(fragments []*Fragment, segmentNumber uint32, segmentTime uint64) error {
	if len(fragments) == 0 {
		return fmt.Errorf("segment: empty segment (no fragments)")
	}

	out, err := s.Opener.OpenSegment(segmentNumber, segmentTime)
	if err != nil {
		return fmt.Errorf("segment: opening segment %d: %w", segmentNumber, err)
	}
	defer out.Close()

	w := bmff.NewWriter()
	major, minor, compatible := s.Muxer.Brands()
	compatBoxTypes := make([]bmff.BoxType, len(compatible))
	for i, c := range compatible {
		compatBoxTypes[i] = bmff.BoxType(c)
	}
	w.WriteFtyp(bmff.TypeStyp, bmff.BoxType(major), minor, compatBoxTypes)

	var refs []bmff.SidxEntry
	var earliestPTS int64 = -1
	for _, f := range fragments {
		if f.TrackID != s.ReferenceTrack {
			continue
		}
		if earliestPTS < 0 {
			earliestPTS = f.EarliestPTS()
		}
		refs = append(refs, bmff.SidxEntry{
			ReferencedSize:     0, // patched below once fragment sizes are known
			SubsegmentDuration: uint32(f.Duration()),
			StartsWithSAP:      f.FirstSampleIsSync(),
			SAPType:            sapTypeFor(f.FirstSampleIsSync()),
		})
	}

	var earliest uint64
	if earliestPTS > 0 {
		earliest = uint64(earliestPTS)
	}
	sidxPos := w.Pos()
	w.WriteSidx(s.ReferenceTrack, s.Muxer.MovieTimescale, earliest, 0, refs)

	refIdx := 0
	for _, f := range fragments {
		n, err := f.Finalize(w, s.sequenceNumber)
		if err != nil {
			return fmt.Errorf("segment: finalizing fragment for track %d: %w", f.TrackID, err)
		}
		s.sequenceNumber++
		if f.TrackID == s.ReferenceTrack && refIdx < len(refs) {
			refs[refIdx].ReferencedSize = uint32(n)
			refIdx++
		}
	}
	if len(refs) > 0 {
		rewriteSidxReferences(w, sidxPos, earliest, refs)
	}

	_, err = out.Write(w.Bytes())
	return err
}

// rewriteSidxReferences patches sidx's reference-size fields after the
// fact: they're only known once every referenced fragment has been
// serialized, the same backpatch pattern Fragment.Finalize uses for
// trun's data_offset. earliest must match the value WriteSidx was called
// with, since it decides whether the box promoted to version 1 (64-bit
// earliest_presentation_time/first_offset) or stayed version 0.
func rewriteSidxReferences(w *bmff.Writer, sidxPos int, earliest uint64, refs []bmff.SidxEntry) {
	// box header(8) + version/flags(4) + reference_ID(4) + timescale(4) +
	// earliest_presentation_time + first_offset (4 bytes each for version 0,
	// 8 each for version 1) + reserved(2) + reference_count(2) precede the
	// first reference entry. first_offset is always passed as 0 by this
	// module's callers, so only earliest can force version 1.
	timeFieldWidth := 4
	if earliest > 0xffffffff {
		timeFieldWidth = 8
	}
	entryHeaderLen := 8 + 4 + 4 + 4 + 2*timeFieldWidth + 2 + 2
	base := sidxPos + entryHeaderLen
	for i, e := range refs {
		off := base + i*12
		refType := uint32(e.ReferenceType&1) << 31
		w.PatchUint32(off, refType|(e.ReferencedSize&0x7fffffff))
	}
}
