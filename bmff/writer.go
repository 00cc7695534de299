package bmff

// wframe marks the position of an open box header so EndBox can backpatch
// its size field once its length is known.
type wframe struct {
	start int // offset of the 4-byte size field
}

// Writer is a growing buffer that accumulates a box tree depth-first,
// mirroring Reader's traversal. StartBox/EndBox pairs backpatch each box's
// size field once its contents are known, the same two-pass approach
// box_buffer.h's BufferWriter companion uses (spec §9).
type Writer struct {
	buf   []byte
	stack []wframe
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer. Valid only once every StartBox has
// a matching EndBox.
func (w *Writer) Bytes() []byte { return w.buf }

// Pos returns the current length of the buffer, i.e. the offset the next
// byte will be written at.
func (w *Writer) Pos() int { return len(w.buf) }

// StartBox writes a plain box header (size placeholder + type) and pushes
// a backpatch frame.
func (w *Writer) StartBox(t BoxType) {
	start := len(w.buf)
	w.buf = append(w.buf, 0, 0, 0, 0)
	w.buf = append(w.buf, t[:]...)
	w.stack = append(w.stack, wframe{start: start})
}

// StartFullBox writes a FullBox header (size placeholder + type + version +
// flags) and pushes a backpatch frame.
func (w *Writer) StartFullBox(t BoxType, version uint8, flags uint32) {
	start := len(w.buf)
	w.buf = append(w.buf, 0, 0, 0, 0)
	w.buf = append(w.buf, t[:]...)
	w.buf = append(w.buf, version, byte(flags>>16), byte(flags>>8), byte(flags))
	w.stack = append(w.stack, wframe{start: start})
}

// EndBox closes the box opened by the most recent StartBox/StartFullBox,
// writing its final size. Boxes that grow past 4GiB are promoted to the
// largesize (size==1) form.
func (w *Writer) EndBox() {
	n := len(w.stack)
	f := w.stack[n-1]
	w.stack = w.stack[:n-1]
	size := len(w.buf) - f.start
	if size <= 0xFFFFFFFF {
		be.PutUint32(w.buf[f.start:], uint32(size))
		return
	}
	w.promoteToLargeSize(f.start, size)
}

// promoteToLargeSize rewrites the box at start to use the 64-bit largesize
// field, shifting every byte written after its 8-byte header forward by 8.
func (w *Writer) promoteToLargeSize(start, size int) {
	oldLen := len(w.buf)
	w.buf = append(w.buf, 0, 0, 0, 0, 0, 0, 0, 0)
	copy(w.buf[start+16:], w.buf[start+8:oldLen])
	be.PutUint32(w.buf[start:], 1)
	be.PutUint64(w.buf[start+8:], uint64(size+8))
}

// Append writes raw bytes, e.g. sample payload inside an mdat box.
func (w *Writer) Append(b []byte) { w.buf = append(w.buf, b...) }

// AppendZero appends n zero bytes and returns the offset they start at, so
// the caller can backpatch them once the value is known (e.g. a trun
// data_offset computed only after the enclosing moof's size is fixed).
func (w *Writer) AppendZero(n int) int {
	off := len(w.buf)
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
	return off
}

// PatchUint32 overwrites 4 bytes at a previously recorded offset.
func (w *Writer) PatchUint32(off int, v uint32) { be.PutUint32(w.buf[off:], v) }

// PatchInt32 overwrites 4 bytes at a previously recorded offset.
func (w *Writer) PatchInt32(off int, v int32) { be.PutUint32(w.buf[off:], uint32(v)) }

// PatchUint64 overwrites 8 bytes at a previously recorded offset.
func (w *Writer) PatchUint64(off int, v uint64) { be.PutUint64(w.buf[off:], v) }

func (w *Writer) putUint8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) putUint16(v uint16) { w.buf = append(w.buf, byte(v>>8), byte(v)) }
func (w *Writer) putUint32(v uint32) {
	var b [4]byte
	be.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *Writer) putUint64(v uint64) {
	var b [8]byte
	be.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *Writer) putInt16(v int16) { w.putUint16(uint16(v)) }
func (w *Writer) putInt32(v int32) { w.putUint32(uint32(v)) }
func (w *Writer) putFourCC(t BoxType) { w.buf = append(w.buf, t[:]...) }
func (w *Writer) putZero(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}
func (w *Writer) putCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// WriteFtyp emits a complete ftyp (or styp) box.
func (w *Writer) WriteFtyp(t BoxType, majorBrand BoxType, minorVersion uint32, compatible []BoxType) {
	w.StartBox(t)
	w.putFourCC(majorBrand)
	w.putUint32(minorVersion)
	for _, c := range compatible {
		w.putFourCC(c)
	}
	w.EndBox()
}

// WriteMvhd emits a version-0 mvhd box.
func (w *Writer) WriteMvhd(timescale, duration uint32, nextTrackID uint32) {
	w.StartFullBox(TypeMvhd, 0, 0)
	w.putUint32(0) // creation_time
	w.putUint32(0) // modification_time
	w.putUint32(timescale)
	w.putUint32(duration)
	w.putInt32(0x00010000) // rate 1.0
	w.putInt16(0x0100)     // volume 1.0
	w.putUint16(0)         // reserved
	w.putUint64(0)         // reserved[2]
	WriteMatrix(w.reserve(36), IdentityMatrix)
	w.putZero(24) // pre_defined[6]
	w.putUint32(nextTrackID)
	w.EndBox()
}

// reserve appends n zero bytes and returns a slice over them for in-place
// writes (e.g. WriteMatrix), keeping the call symmetric with the rest of
// the put* helpers.
func (w *Writer) reserve(n int) []byte {
	off := len(w.buf)
	w.putZero(n)
	return w.buf[off : off+n]
}

// WriteTkhd emits a version-0 tkhd box. width/height are 16.16 fixed point.
func (w *Writer) WriteTkhd(flags uint32, trackID uint32, duration uint32, width, height uint32) {
	w.StartFullBox(TypeTkhd, 0, flags)
	w.putUint32(0) // creation_time
	w.putUint32(0) // modification_time
	w.putUint32(trackID)
	w.putUint32(0) // reserved
	w.putUint32(duration)
	w.putUint64(0) // reserved[2]
	w.putInt16(0)  // layer
	w.putInt16(0)  // alternate_group
	w.putInt16(0)  // volume (written as 0 for every track kind)
	w.putUint16(0) // reserved
	WriteMatrix(w.reserve(36), IdentityMatrix)
	w.putUint32(width)
	w.putUint32(height)
	w.EndBox()
}

// WriteMdhd emits a version-0 mdhd box. language is the packed 15-bit code
// from PackLanguage.
func (w *Writer) WriteMdhd(timescale, duration uint32, language uint16) {
	w.StartFullBox(TypeMdhd, 0, 0)
	w.putUint32(0) // creation_time
	w.putUint32(0) // modification_time
	w.putUint32(timescale)
	w.putUint32(duration)
	w.putUint16(language)
	w.putUint16(0) // pre_defined
	w.EndBox()
}

// WriteHdlr emits an hdlr box with the given handler type and human-readable
// name.
func (w *Writer) WriteHdlr(handlerType BoxType, name string) {
	w.StartFullBox(TypeHdlr, 0, 0)
	w.putUint32(0) // pre_defined
	w.putFourCC(handlerType)
	w.putZero(12) // reserved[3]
	w.putCString(name)
	w.EndBox()
}

// WriteVmhd emits a vmhd box.
func (w *Writer) WriteVmhd() {
	w.StartFullBox(TypeVmhd, 0, 1)
	w.putUint16(0) // graphicsmode
	w.putUint16(0) // opcolor[0]
	w.putUint16(0)
	w.putUint16(0)
	w.EndBox()
}

// WriteSmhd emits an smhd box.
func (w *Writer) WriteSmhd() {
	w.StartFullBox(TypeSmhd, 0, 0)
	w.putInt16(0) // balance
	w.putUint16(0)
	w.EndBox()
}

// WriteMehd emits a version-0 mehd box.
func (w *Writer) WriteMehd(fragmentDuration uint32) {
	w.StartFullBox(TypeMehd, 0, 0)
	w.putUint32(fragmentDuration)
	w.EndBox()
}

// WriteTrex emits a trex box.
func (w *Writer) WriteTrex(trackID, defaultSampleDescriptionIndex, defaultSampleDuration, defaultSampleSize, defaultSampleFlags uint32) {
	w.StartFullBox(TypeTrex, 0, 0)
	w.putUint32(trackID)
	w.putUint32(defaultSampleDescriptionIndex)
	w.putUint32(defaultSampleDuration)
	w.putUint32(defaultSampleSize)
	w.putUint32(defaultSampleFlags)
	w.EndBox()
}

// WriteMfhd emits a mfhd box.
func (w *Writer) WriteMfhd(sequenceNumber uint32) {
	w.StartFullBox(TypeMfhd, 0, 0)
	w.putUint32(sequenceNumber)
	w.EndBox()
}

// TfhdFlag bits for tfhd.flags (spec §6.1, ISO/IEC 14496-12 §8.8.7).
const (
	TfhdBaseDataOffsetPresent        = 0x000001
	TfhdSampleDescriptionIndexPresent = 0x000002
	TfhdDefaultSampleDurationPresent  = 0x000008
	TfhdDefaultSampleSizePresent      = 0x000010
	TfhdDefaultSampleFlagsPresent     = 0x000020
	TfhdDurationIsEmpty               = 0x010000
	TfhdDefaultBaseIsMoof              = 0x020000
)

// Tfhd carries the optional fields of a tfhd box; zero value fields are
// only written when their presence flag is set.
type Tfhd struct {
	Flags                      uint32
	TrackID                    uint32
	BaseDataOffset             uint64
	SampleDescriptionIndex     uint32
	DefaultSampleDuration      uint32
	DefaultSampleSize          uint32
	DefaultSampleFlags         uint32
}

// WriteTfhd emits a tfhd box per the fields set in t.Flags.
func (w *Writer) WriteTfhd(t Tfhd) {
	w.StartFullBox(TypeTfhd, 0, t.Flags)
	w.putUint32(t.TrackID)
	if t.Flags&TfhdBaseDataOffsetPresent != 0 {
		w.putUint64(t.BaseDataOffset)
	}
	if t.Flags&TfhdSampleDescriptionIndexPresent != 0 {
		w.putUint32(t.SampleDescriptionIndex)
	}
	if t.Flags&TfhdDefaultSampleDurationPresent != 0 {
		w.putUint32(t.DefaultSampleDuration)
	}
	if t.Flags&TfhdDefaultSampleSizePresent != 0 {
		w.putUint32(t.DefaultSampleSize)
	}
	if t.Flags&TfhdDefaultSampleFlagsPresent != 0 {
		w.putUint32(t.DefaultSampleFlags)
	}
	w.EndBox()
}

// WriteTfdt emits a version-1 tfdt box (64-bit base media decode time, used
// unconditionally since fragment decode times routinely exceed 32 bits over
// a long-running live stream).
func (w *Writer) WriteTfdt(baseMediaDecodeTime uint64) {
	w.StartFullBox(TypeTfdt, 1, 0)
	w.putUint64(baseMediaDecodeTime)
	w.EndBox()
}

// TrunFlag bits for trun.flags (ISO/IEC 14496-12 §8.8.8).
const (
	TrunDataOffsetPresent           = 0x000001
	TrunFirstSampleFlagsPresent     = 0x000004
	TrunSampleDurationPresent       = 0x000100
	TrunSampleSizePresent           = 0x000200
	TrunSampleFlagsPresent          = 0x000400
	TrunSampleCompositionTimeOffsetPresent = 0x000800
)

// TrunEntry is one sample's optional per-sample fields in a trun box.
type TrunEntry struct {
	Duration              uint32
	Size                  uint32
	Flags                 uint32
	CompositionTimeOffset int32
}

// WriteTrun emits a trun box. version controls whether
// CompositionTimeOffset is treated as signed (version 1) or unsigned
// (version 0, matching ISO/IEC 14496-12 before the 2008 amendment).
// It returns the absolute offset of the data_offset field so the caller can
// backpatch it once the enclosing moof's size is known
// (TrunDataOffsetPresent must be set in flags for the offset to be
// meaningful).
func (w *Writer) WriteTrun(version uint8, flags uint32, firstSampleFlags uint32, entries []TrunEntry) (dataOffsetPos int) {
	w.StartFullBox(TypeTrun, version, flags)
	w.putUint32(uint32(len(entries)))
	dataOffsetPos = -1
	if flags&TrunDataOffsetPresent != 0 {
		dataOffsetPos = len(w.buf)
		w.putInt32(0)
	}
	if flags&TrunFirstSampleFlagsPresent != 0 {
		w.putUint32(firstSampleFlags)
	}
	for _, e := range entries {
		if flags&TrunSampleDurationPresent != 0 {
			w.putUint32(e.Duration)
		}
		if flags&TrunSampleSizePresent != 0 {
			w.putUint32(e.Size)
		}
		if flags&TrunSampleFlagsPresent != 0 {
			w.putUint32(e.Flags)
		}
		if flags&TrunSampleCompositionTimeOffsetPresent != 0 {
			w.putInt32(e.CompositionTimeOffset)
		}
	}
	w.EndBox()
	return dataOffsetPos
}

// SidxEntry is one reference entry of a sidx box.
type SidxEntry struct {
	ReferenceType      uint8 // 0 = media, 1 = sidx
	ReferencedSize     uint32
	SubsegmentDuration uint32
	StartsWithSAP      bool
	SAPType            uint8
	SAPDeltaTime       uint32
}

// WriteSidx emits a sidx box, promoting to version 1 (64-bit
// earliest_presentation_time/first_offset) iff either value exceeds
// 2^32-1 (spec §4.3.2); version 0 otherwise.
func (w *Writer) WriteSidx(referenceID, timescale uint32, earliestPresentationTime, firstOffset uint64, entries []SidxEntry) {
	version := uint8(0)
	if earliestPresentationTime > 0xffffffff || firstOffset > 0xffffffff {
		version = 1
	}
	w.StartFullBox(TypeSidx, version, 0)
	w.putUint32(referenceID)
	w.putUint32(timescale)
	if version == 1 {
		w.putUint64(earliestPresentationTime)
		w.putUint64(firstOffset)
	} else {
		w.putUint32(uint32(earliestPresentationTime))
		w.putUint32(uint32(firstOffset))
	}
	w.putUint16(0) // reserved
	w.putUint16(uint16(len(entries)))
	for _, e := range entries {
		refType := uint32(e.ReferenceType&1) << 31
		w.putUint32(refType | (e.ReferencedSize & 0x7fffffff))
		w.putUint32(e.SubsegmentDuration)
		sap := uint32(0)
		if e.StartsWithSAP {
			sap |= 1 << 31
		}
		sap |= uint32(e.SAPType&0xf) << 28
		sap |= e.SAPDeltaTime & 0x0fffffff
		w.putUint32(sap)
	}
	w.EndBox()
}
