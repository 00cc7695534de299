package bmff

// StszIter iterates the per-sample sizes of an stsz box without allocating.
type StszIter struct {
	data        []byte
	sampleSize  uint32
	count       uint32
	i           uint32
}

// NewStszIter creates an iterator over an already-entered stsz box's Data().
func NewStszIter(data []byte) StszIter {
	if len(data) < 8 {
		return StszIter{}
	}
	return StszIter{
		data:       data[8:],
		sampleSize: be.Uint32(data[0:]),
		count:      be.Uint32(data[4:]),
	}
}

// Count returns the total number of samples.
func (it *StszIter) Count() uint32 { return it.count }

// Next returns the next sample's size and whether one was available.
func (it *StszIter) Next() (uint32, bool) {
	if it.i >= it.count {
		return 0, false
	}
	var size uint32
	if it.sampleSize != 0 {
		size = it.sampleSize
	} else {
		size = be.Uint32(it.data[it.i*4:])
	}
	it.i++
	return size, true
}

// Uint32Iter iterates a flat list of big-endian uint32 entries prefixed by
// a 4-byte count (stco, sync-sample lists, and similar box shapes).
type Uint32Iter struct {
	data  []byte
	count uint32
	i     uint32
}

// NewUint32Iter creates an iterator over an entry-count-prefixed uint32 list.
func NewUint32Iter(data []byte) Uint32Iter {
	if len(data) < 4 {
		return Uint32Iter{}
	}
	return Uint32Iter{data: data[4:], count: be.Uint32(data[0:])}
}

// Count returns the total number of entries.
func (it *Uint32Iter) Count() uint32 { return it.count }

// Next returns the next entry and whether one was available.
func (it *Uint32Iter) Next() (uint32, bool) {
	if it.i >= it.count {
		return 0, false
	}
	v := be.Uint32(it.data[it.i*4:])
	it.i++
	return v, true
}

// Co64Iter iterates a co64 box's 64-bit chunk offsets.
type Co64Iter struct {
	data  []byte
	count uint32
	i     uint32
}

// NewCo64Iter creates an iterator over an already-entered co64 box's Data().
func NewCo64Iter(data []byte) Co64Iter {
	if len(data) < 4 {
		return Co64Iter{}
	}
	return Co64Iter{data: data[4:], count: be.Uint32(data[0:])}
}

// Count returns the total number of chunk offsets.
func (it *Co64Iter) Count() uint32 { return it.count }

// Next returns the next chunk offset and whether one was available.
func (it *Co64Iter) Next() (uint64, bool) {
	if it.i >= it.count {
		return 0, false
	}
	v := be.Uint64(it.data[it.i*8:])
	it.i++
	return v, true
}

// SttsEntry is one decoded stts (sample_count, sample_delta) pair.
type SttsEntry struct {
	SampleCount uint32
	SampleDelta uint32
}

// SttsIter iterates an stts box's run-length entries.
type SttsIter struct {
	data  []byte
	count uint32
	i     uint32
}

// NewSttsIter creates an iterator over an already-entered stts box's Data().
func NewSttsIter(data []byte) SttsIter {
	if len(data) < 4 {
		return SttsIter{}
	}
	return SttsIter{data: data[4:], count: be.Uint32(data[0:])}
}

// Count returns the total number of runs.
func (it *SttsIter) Count() uint32 { return it.count }

// Next returns the next run and whether one was available.
func (it *SttsIter) Next() (SttsEntry, bool) {
	if it.i >= it.count {
		return SttsEntry{}, false
	}
	e := SttsEntry{
		SampleCount: be.Uint32(it.data[it.i*8:]),
		SampleDelta: be.Uint32(it.data[it.i*8+4:]),
	}
	it.i++
	return e, true
}

// CttsEntry is one decoded ctts (sample_count, sample_offset) pair.
// SampleOffset is always materialized as signed regardless of box version,
// since version-0's unsigned offsets never exceed int32 range in practice.
type CttsEntry struct {
	SampleCount  uint32
	SampleOffset int32
}

// CttsIter iterates a ctts box's run-length entries.
type CttsIter struct {
	data    []byte
	count   uint32
	i       uint32
	version uint8
}

// NewCttsIter creates an iterator over an already-entered ctts box's Data(),
// given its Reader.Version().
func NewCttsIter(data []byte, version uint8) CttsIter {
	if len(data) < 4 {
		return CttsIter{}
	}
	return CttsIter{data: data[4:], count: be.Uint32(data[0:]), version: version}
}

// Count returns the total number of runs.
func (it *CttsIter) Count() uint32 { return it.count }

// Next returns the next run and whether one was available.
func (it *CttsIter) Next() (CttsEntry, bool) {
	if it.i >= it.count {
		return CttsEntry{}, false
	}
	count := be.Uint32(it.data[it.i*8:])
	offset := int32(be.Uint32(it.data[it.i*8+4:]))
	it.i++
	return CttsEntry{SampleCount: count, SampleOffset: offset}, true
}

// StscEntry is one decoded stsc (first_chunk, samples_per_chunk,
// sample_description_index) triple.
type StscEntry struct {
	FirstChunk             uint32
	SamplesPerChunk        uint32
	SampleDescriptionIndex uint32
}

// StscIter iterates an stsc box's entries.
type StscIter struct {
	data  []byte
	count uint32
	i     uint32
}

// NewStscIter creates an iterator over an already-entered stsc box's Data().
func NewStscIter(data []byte) StscIter {
	if len(data) < 4 {
		return StscIter{}
	}
	return StscIter{data: data[4:], count: be.Uint32(data[0:])}
}

// Count returns the total number of entries.
func (it *StscIter) Count() uint32 { return it.count }

// Next returns the next entry and whether one was available.
func (it *StscIter) Next() (StscEntry, bool) {
	if it.i >= it.count {
		return StscEntry{}, false
	}
	e := StscEntry{
		FirstChunk:             be.Uint32(it.data[it.i*12:]),
		SamplesPerChunk:        be.Uint32(it.data[it.i*12+4:]),
		SampleDescriptionIndex: be.Uint32(it.data[it.i*12+8:]),
	}
	it.i++
	return e, true
}

// ElstIterEntry is one decoded edit-list entry, normalized to 64-bit/signed
// fields regardless of box version.
type ElstIterEntry struct {
	SegmentDuration   uint64
	MediaTime         int64
	MediaRateInteger  int16
	MediaRateFraction int16
}

// ElstIter iterates an elst box's entries.
type ElstIter struct {
	data    []byte
	count   uint32
	i       uint32
	version uint8
}

// NewElstIter creates an iterator over an already-entered elst box's
// Data(), given its Reader.Version().
func NewElstIter(data []byte, version uint8) ElstIter {
	if len(data) < 4 {
		return ElstIter{}
	}
	return ElstIter{data: data[4:], count: be.Uint32(data[0:]), version: version}
}

// Count returns the total number of entries.
func (it *ElstIter) Count() uint32 { return it.count }

// Next returns the next entry and whether one was available.
func (it *ElstIter) Next() (ElstIterEntry, bool) {
	if it.i >= it.count {
		return ElstIterEntry{}, false
	}
	var e ElstIterEntry
	var off int
	stride := 12
	if it.version == 1 {
		stride = 20
	}
	off = int(it.i) * stride
	if it.version == 1 {
		e.SegmentDuration = be.Uint64(it.data[off:])
		e.MediaTime = int64(be.Uint64(it.data[off+8:]))
		off += 16
	} else {
		e.SegmentDuration = uint64(be.Uint32(it.data[off:]))
		e.MediaTime = int64(int32(be.Uint32(it.data[off+4:])))
		off += 8
	}
	e.MediaRateInteger = int16(be.Uint16(it.data[off:]))
	e.MediaRateFraction = int16(be.Uint16(it.data[off+2:]))
	it.i++
	return e, true
}

// TrunIterEntry is one decoded trun sample entry, normalized so fields the
// box's flags didn't carry read back as zero.
type TrunIterEntry struct {
	Duration              uint32
	Size                  uint32
	Flags                 uint32
	CompositionTimeOffset int32
}

// TrunIter iterates a trun box's per-sample entries.
type TrunIter struct {
	data       []byte
	count      uint32
	i          uint32
	flags      uint32
	stride     int
	entryStart int
}

// NewTrunIter creates an iterator over an already-entered trun box's
// Data(), given its Reader.Flags().
func NewTrunIter(data []byte, flags uint32) TrunIter {
	if len(data) < 4 {
		return TrunIter{}
	}
	count := be.Uint32(data[0:])
	off := 4
	if flags&TrunDataOffsetPresent != 0 {
		off += 4
	}
	if flags&TrunFirstSampleFlagsPresent != 0 {
		off += 4
	}
	stride := 0
	if flags&TrunSampleDurationPresent != 0 {
		stride += 4
	}
	if flags&TrunSampleSizePresent != 0 {
		stride += 4
	}
	if flags&TrunSampleFlagsPresent != 0 {
		stride += 4
	}
	if flags&TrunSampleCompositionTimeOffsetPresent != 0 {
		stride += 4
	}
	return TrunIter{data: data, count: count, flags: flags, stride: stride, entryStart: off}
}

// Count returns the total number of samples in this trun.
func (it *TrunIter) Count() uint32 { return it.count }

// DataOffset returns the trun's data_offset field, if present.
func (it *TrunIter) DataOffset() (int32, bool) {
	if it.flags&TrunDataOffsetPresent == 0 {
		return 0, false
	}
	return int32(be.Uint32(it.data[4:])), true
}

// FirstSampleFlags returns the trun's first_sample_flags field, if present.
func (it *TrunIter) FirstSampleFlags() (uint32, bool) {
	if it.flags&TrunFirstSampleFlagsPresent == 0 {
		return 0, false
	}
	off := 4
	if it.flags&TrunDataOffsetPresent != 0 {
		off += 4
	}
	return be.Uint32(it.data[off:]), true
}

// Next returns the next sample entry and whether one was available.
func (it *TrunIter) Next() (TrunIterEntry, bool) {
	if it.i >= it.count {
		return TrunIterEntry{}, false
	}
	base := it.entryStart + int(it.i)*it.stride
	var e TrunIterEntry
	off := base
	if it.flags&TrunSampleDurationPresent != 0 {
		e.Duration = be.Uint32(it.data[off:])
		off += 4
	}
	if it.flags&TrunSampleSizePresent != 0 {
		e.Size = be.Uint32(it.data[off:])
		off += 4
	}
	if it.flags&TrunSampleFlagsPresent != 0 {
		e.Flags = be.Uint32(it.data[off:])
		off += 4
	}
	if it.flags&TrunSampleCompositionTimeOffsetPresent != 0 {
		e.CompositionTimeOffset = int32(be.Uint32(it.data[off:]))
	}
	it.i++
	return e, true
}
