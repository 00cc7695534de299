package bmff

import "fmt"

// Ftyp is the parsed payload of an ftyp/styp box.
type Ftyp struct {
	MajorBrand     BoxType
	MinorVersion   uint32
	Compatible     []BoxType
}

// ReadFtyp parses an ftyp/styp box's payload.
func ReadFtyp(data []byte) (Ftyp, error) {
	if len(data) < 8 {
		return Ftyp{}, fmt.Errorf("bmff: ftyp too short")
	}
	var f Ftyp
	copy(f.MajorBrand[:], data[0:4])
	f.MinorVersion = be.Uint32(data[4:8])
	for off := 8; off+4 <= len(data); off += 4 {
		var t BoxType
		copy(t[:], data[off:off+4])
		f.Compatible = append(f.Compatible, t)
	}
	return f, nil
}

// ReadMvhd parses the fields of an already-entered mvhd box (r must be
// positioned on it). version 1 uses 64-bit creation/modification/duration;
// this only returns the fields callers need.
func (r *Reader) ReadMvhd() (timescale uint32, duration uint64, nextTrackID uint32) {
	d := r.Data()
	if r.Version() == 1 {
		timescale = be.Uint32(d[16:])
		duration = be.Uint64(d[20:])
		nextTrackID = be.Uint32(d[28+76:])
	} else {
		timescale = be.Uint32(d[8:])
		duration = uint64(be.Uint32(d[12:]))
		nextTrackID = be.Uint32(d[16+76:])
	}
	return
}

// ReadTkhd parses the fields of an already-entered tkhd box.
func (r *Reader) ReadTkhd() (trackID uint32, duration uint64, width, height uint32) {
	d := r.Data()
	if r.Version() == 1 {
		trackID = be.Uint32(d[16:])
		duration = be.Uint64(d[24:])
		width = be.Uint32(d[32+52:])
		height = be.Uint32(d[32+56:])
	} else {
		trackID = be.Uint32(d[8:])
		duration = uint64(be.Uint32(d[16:]))
		width = be.Uint32(d[20+52:])
		height = be.Uint32(d[20+56:])
	}
	return
}

// ReadMdhd parses the fields of an already-entered mdhd box.
func (r *Reader) ReadMdhd() (timescale uint32, duration uint64, language string) {
	d := r.Data()
	var lang uint16
	if r.Version() == 1 {
		timescale = be.Uint32(d[16:])
		duration = be.Uint64(d[20:])
		lang = be.Uint16(d[28:])
	} else {
		timescale = be.Uint32(d[8:])
		duration = uint64(be.Uint32(d[12:]))
		lang = be.Uint16(d[16:])
	}
	language = UnpackLanguage(lang)
	return
}

// ReadHdlr parses the handler type of an already-entered hdlr box.
func (r *Reader) ReadHdlr() BoxType {
	d := r.Data()
	var t BoxType
	copy(t[:], d[4:8])
	return t
}

// ReadHdlrName parses the human-readable name string of an already-entered
// hdlr box.
func (r *Reader) ReadHdlrName() string {
	d := r.Data()
	if len(d) <= 20 {
		return ""
	}
	return readCString(d, 20, len(d))
}

// ReadMehd parses an already-entered mehd box.
func (r *Reader) ReadMehd() (fragmentDuration uint64) {
	d := r.Data()
	if r.Version() == 1 {
		return be.Uint64(d)
	}
	return uint64(be.Uint32(d))
}

// ReadTrex parses an already-entered trex box.
func (r *Reader) ReadTrex() (trackID, defaultSampleDescriptionIndex, defaultSampleDuration, defaultSampleSize, defaultSampleFlags uint32) {
	d := r.Data()
	trackID = be.Uint32(d[0:])
	defaultSampleDescriptionIndex = be.Uint32(d[4:])
	defaultSampleDuration = be.Uint32(d[8:])
	defaultSampleSize = be.Uint32(d[12:])
	defaultSampleFlags = be.Uint32(d[16:])
	return
}

// ReadMfhd parses an already-entered mfhd box.
func (r *Reader) ReadMfhd() (sequenceNumber uint32) {
	return be.Uint32(r.Data())
}

// ReadTfhd parses an already-entered tfhd box using its own flags field.
func (r *Reader) ReadTfhd() Tfhd {
	d := r.Data()
	flags := r.Flags()
	t := Tfhd{Flags: flags}
	off := 0
	t.TrackID = be.Uint32(d[off:])
	off += 4
	if flags&TfhdBaseDataOffsetPresent != 0 {
		t.BaseDataOffset = be.Uint64(d[off:])
		off += 8
	}
	if flags&TfhdSampleDescriptionIndexPresent != 0 {
		t.SampleDescriptionIndex = be.Uint32(d[off:])
		off += 4
	}
	if flags&TfhdDefaultSampleDurationPresent != 0 {
		t.DefaultSampleDuration = be.Uint32(d[off:])
		off += 4
	}
	if flags&TfhdDefaultSampleSizePresent != 0 {
		t.DefaultSampleSize = be.Uint32(d[off:])
		off += 4
	}
	if flags&TfhdDefaultSampleFlagsPresent != 0 {
		t.DefaultSampleFlags = be.Uint32(d[off:])
		off += 4
	}
	return t
}

// ReadTfdt parses an already-entered tfdt box.
func (r *Reader) ReadTfdt() uint64 {
	d := r.Data()
	if r.Version() == 1 {
		return be.Uint64(d)
	}
	return uint64(be.Uint32(d))
}

// VisualSampleEntry is the parsed fixed header of a visual sample entry
// (avc1/hev1/.../encv); ChildOffset is where nested boxes (codec config,
// sinf, ...) begin within the entry's raw Data().
type VisualSampleEntry struct {
	Width, Height  uint16
	CompressorName string
	ChildOffset    int
}

// ReadVisualSampleEntry parses the fixed part of a visual sample entry from
// its raw Data() (as returned by Reader.Data after Next, without Enter).
func ReadVisualSampleEntry(data []byte) (VisualSampleEntry, error) {
	if len(data) < 78 {
		return VisualSampleEntry{}, fmt.Errorf("bmff: visual sample entry too short")
	}
	var e VisualSampleEntry
	e.Width = be.Uint16(data[24:])
	e.Height = be.Uint16(data[26:])
	nameLen := int(data[42])
	if nameLen > 31 {
		nameLen = 31
	}
	e.CompressorName = string(data[43 : 43+nameLen])
	e.ChildOffset = 78
	return e, nil
}

// AudioSampleEntry is the parsed fixed header of an audio sample entry.
type AudioSampleEntry struct {
	ChannelCount uint16
	SampleSize   uint16
	SampleRate   uint32
	ChildOffset  int
}

// ReadAudioSampleEntry parses the fixed part of an audio sample entry from
// its raw Data().
func ReadAudioSampleEntry(data []byte) (AudioSampleEntry, error) {
	if len(data) < 28 {
		return AudioSampleEntry{}, fmt.Errorf("bmff: audio sample entry too short")
	}
	var e AudioSampleEntry
	e.ChannelCount = be.Uint16(data[16:])
	e.SampleSize = be.Uint16(data[18:])
	e.SampleRate = be.Uint32(data[24:]) >> 16
	e.ChildOffset = 28
	return e, nil
}

// ReadAvcC returns the raw AVCDecoderConfigurationRecord carried in an avcC
// box's data.
func ReadAvcC(data []byte) []byte { return data }

// ReadHvcC returns the raw HEVCDecoderConfigurationRecord carried in an
// hvcC box's data.
func ReadHvcC(data []byte) []byte { return data }
