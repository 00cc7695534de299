package mux

import "github.com/rs/zerolog/log"

// editListState tracks the single edit-list offset derived from the first
// sample of a track, following shaka-packager's
// MP4Muxer::UpdateEditListOffsetFromSample (mp4_muxer.cc): the offset is
// fixed once from the first sample's pts-dts and never revisited.
type editListState struct {
	set    bool
	offset int64
}

// update records the edit-list offset the first time it's called; later
// calls are no-ops, matching the original's "mvex-like" stickiness.
func (s *editListState) update(pts, dts int64) {
	if s.set {
		return
	}
	diff := pts - dts
	switch {
	case diff > 0:
		s.offset = diff
	case diff < 0:
		log.Warn().Int64("offset", diff).Msg("negative edit list offset is not supported, using 0")
		s.offset = 0
	default:
		s.offset = 0
	}
	s.set = true
}

// entries returns the elst entries to emit, or nil if no edit list is
// needed (offset is 0).
func (s *editListState) entries(mediaDurationInMovieTimescale uint64) []editEntry {
	if s.offset <= 0 {
		return nil
	}
	return []editEntry{{
		segmentDuration: mediaDurationInMovieTimescale,
		mediaTime:       s.offset,
		rateInteger:     1,
	}}
}

type editEntry struct {
	segmentDuration uint64
	mediaTime       int64
	rateInteger     int16
}
