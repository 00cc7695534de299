package mux

import (
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/cenc"
	"github.com/tetsuo/dashmux/media"
)

// Muxer owns the tracks of one DASH/CMAF output and builds the init
// segment (ftyp + moov) they share. Per-fragment/per-segment output is the
// segment package's job; Muxer only knows about the parts that are fixed
// for the lifetime of the stream.
type Muxer struct {
	Options media.MuxerOptions
	Tracks  []*Track
	// MovieTimescale is the timescale mvhd reports; individual tracks may
	// run at a different timescale, rescaled via scaleDuration.
	MovieTimescale uint32
	// PSSHBoxes are embedded in moov (via MuxerOptions.IncludePSSHInStream)
	// in addition to whatever the segmenter repeats per fragment.
	PSSHBoxes []cenc.PSSHBox
}

// NewMuxer creates a Muxer for the given tracks sharing movieTimescale.
func NewMuxer(opts media.MuxerOptions, movieTimescale uint32, tracks ...*Track) *Muxer {
	return &Muxer{Options: opts, Tracks: tracks, MovieTimescale: movieTimescale}
}

// Brands returns the ftyp/styp major brand, minor version and compatible
// brand list this stream uses, so a segmenter can reuse them to build a
// styp box per segment file (spec §4.3.1: "styp copied from ftyp with type
// changed").
func (m *Muxer) Brands() (major [4]byte, minor uint32, compatible [][4]byte) {
	codecFourCCs := make([]string, 0, len(m.Tracks))
	for _, t := range m.Tracks {
		format := t.Info.Codec.SampleEntryFormat()
		codecFourCCs = append(codecFourCCs, string(format[:]))
	}
	return buildFtyp(codecFourCCs, len(m.Tracks) == 1)
}

// AddTrack registers info as an additional track and returns its Track
// state, which the caller folds samples into via Track.Observe as the
// source stream is read.
func (m *Muxer) AddTrack(info media.StreamInfo) *Track {
	t := NewTrack(info)
	m.Tracks = append(m.Tracks, t)
	return t
}

// WriteInitSegment emits ftyp+moov for the current set of tracks. Called
// once all tracks have at least been declared (sample data does not need
// to have arrived yet, since moov in a fragmented stream carries no sample
// table, only the format and timescale).
func (m *Muxer) WriteInitSegment(w *bmff.Writer) error {
	major, minor, compatible := m.Brands()
	compatBoxTypes := make([]bmff.BoxType, len(compatible))
	for i, c := range compatible {
		compatBoxTypes[i] = bmff.BoxType(c)
	}
	w.WriteFtyp(bmff.TypeFtyp, bmff.BoxType(major), minor, compatBoxTypes)

	w.StartBox(bmff.TypeMoov)

	var nextTrackID uint32 = 1
	for _, t := range m.Tracks {
		if t.Info.TrackID >= nextTrackID {
			nextTrackID = t.Info.TrackID + 1
		}
	}
	movieDuration := uint32(0)
	for _, t := range m.Tracks {
		d := scaleDuration(t.duration, t.Info.Timescale, m.MovieTimescale)
		if uint32(d) > movieDuration {
			movieDuration = uint32(d)
		}
	}
	w.WriteMvhd(m.MovieTimescale, movieDuration, nextTrackID)

	for _, t := range m.Tracks {
		if err := t.WriteTrak(w, m.MovieTimescale); err != nil {
			w.EndBox() // moov
			return fmt.Errorf("mux: track %d: %w", t.Info.TrackID, err)
		}
	}

	w.StartBox(bmff.TypeMvex)
	w.WriteMehd(movieDuration)
	for _, t := range m.Tracks {
		w.WriteTrex(t.Info.TrackID, 1, 0, 0, 0)
	}
	w.EndBox() // mvex

	if m.Options.IncludePSSHInStream {
		for _, p := range m.PSSHBoxes {
			w.Append(cenc.BuildPSSH(p))
		}
	}

	w.EndBox() // moov
	return nil
}
