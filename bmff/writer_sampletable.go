package bmff

// WriteStts emits an stts box from (sample_count, sample_delta) pairs.
func (w *Writer) WriteStts(entries [][2]uint32) {
	w.StartFullBox(TypeStts, 0, 0)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putUint32(e[0])
		w.putUint32(e[1])
	}
	w.EndBox()
}

// WriteCtts emits a version-1 ctts box (signed composition offsets, used
// unconditionally since B-frame reordering routinely needs negative
// offsets relative to tfdt/stts-derived DTS).
func (w *Writer) WriteCtts(entries []struct {
	Count  uint32
	Offset int32
}) {
	w.StartFullBox(TypeCtts, 1, 0)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putUint32(e.Count)
		w.putInt32(e.Offset)
	}
	w.EndBox()
}

// WriteStsc emits an stsc box from (first_chunk, samples_per_chunk,
// sample_description_index) triples.
func (w *Writer) WriteStsc(entries [][3]uint32) {
	w.StartFullBox(TypeStsc, 0, 0)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putUint32(e[0])
		w.putUint32(e[1])
		w.putUint32(e[2])
	}
	w.EndBox()
}

// WriteStsz emits an stsz box. If all sizes are equal, sampleSize carries
// the common value and entries is nil; otherwise sampleSize is 0 and every
// size is listed explicitly, matching ISO/IEC 14496-12 §8.7.3.2.
func (w *Writer) WriteStsz(sampleSize uint32, sampleCount uint32, entries []uint32) {
	w.StartFullBox(TypeStsz, 0, 0)
	w.putUint32(sampleSize)
	w.putUint32(sampleCount)
	if sampleSize == 0 {
		for _, s := range entries {
			w.putUint32(s)
		}
	}
	w.EndBox()
}

// WriteStco emits a 32-bit chunk-offset box.
func (w *Writer) WriteStco(offsets []uint32) {
	w.StartFullBox(TypeStco, 0, 0)
	w.putUint32(uint32(len(offsets)))
	for _, o := range offsets {
		w.putUint32(o)
	}
	w.EndBox()
}

// WriteCo64 emits a 64-bit chunk-offset box, used once any offset exceeds
// 32 bits.
func (w *Writer) WriteCo64(offsets []uint64) {
	w.StartFullBox(TypeCo64, 0, 0)
	w.putUint32(uint32(len(offsets)))
	for _, o := range offsets {
		w.putUint64(o)
	}
	w.EndBox()
}

// WriteStss emits a sync-sample table listing the 1-based sample numbers of
// every sync sample.
func (w *Writer) WriteStss(syncSamples []uint32) {
	w.StartFullBox(TypeStss, 0, 0)
	w.putUint32(uint32(len(syncSamples)))
	for _, s := range syncSamples {
		w.putUint32(s)
	}
	w.EndBox()
}

// ElstEntry is one edit list entry.
type ElstEntry struct {
	SegmentDuration uint64
	MediaTime       int64
	MediaRateInteger int16
	MediaRateFraction int16
}

// WriteElst emits a version-1 elst box (64-bit fields, needed because
// segment_duration is expressed in movie timescale units and a VOD asset's
// duration routinely exceeds 32 bits of that timescale).
func (w *Writer) WriteElst(entries []ElstEntry) {
	w.StartFullBox(TypeElst, 1, 0)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putUint64(e.SegmentDuration)
		w.putInt64(e.MediaTime)
		w.putInt16(e.MediaRateInteger)
		w.putInt16(e.MediaRateFraction)
	}
	w.EndBox()
}

func (w *Writer) putInt64(v int64) { w.putUint64(uint64(v)) }
