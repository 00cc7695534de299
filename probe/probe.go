// Package probe inspects an already-muxed (or source) fragmented or
// progressive MP4 buffer and reports the track metadata and MIME codec
// strings a packaging pipeline needs for manifest generation and
// round-trip verification, adapted from the box-walking style of
// tetsuo-isobmff's track package onto this module's bmff.Reader cursor.
package probe

import (
	"errors"
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
)

var (
	ErrMoovNotFound = errors.New("probe: moov box not found in buffer")
	ErrNoTracks     = errors.New("probe: no playable tracks found")
)

// Track holds the metadata probe extracted for one trak.
type Track struct {
	ID           uint32
	Kind         bmff.BoxType // 'vide' or 'soun' (hdlr handler_type)
	TimeScale    uint32
	Duration     uint64
	Width        uint32
	Height       uint32
	ChannelCount uint16
	SampleRate   uint32
	Language     string
	Codec        string // MIME codec string, e.g. "avc1.64001e", "mp4a.40.2"
	Encrypted    bool   // stsd's sample entry format is encv/enca
}

// MovieInfo is the result of probing one moov box.
type MovieInfo struct {
	Timescale uint32
	Duration  uint64
	Tracks    []Track
}

// ParseMoov walks a complete moov box (header included) and reports its
// movie-level and per-track metadata. Sample tables are not parsed here:
// fragmented streams carry empty ones, and sample-accurate inspection of a
// progressive file's stbl belongs to a demuxer, not this packaging tool.
func ParseMoov(moovBuf []byte) (MovieInfo, error) {
	r := bmff.NewReader(moovBuf)
	if !r.Next() || r.Type() != bmff.TypeMoov {
		return MovieInfo{}, ErrMoovNotFound
	}

	var info MovieInfo
	r.Enter()
	for r.Next() {
		switch r.Type() {
		case bmff.TypeMvhd:
			ts, dur, _ := r.ReadMvhd()
			info.Timescale, info.Duration = ts, dur
		case bmff.TypeTrak:
			t, err := parseTrak(&r)
			if err == nil {
				info.Tracks = append(info.Tracks, t)
			}
		}
	}
	r.Exit()

	if len(info.Tracks) == 0 {
		return info, ErrNoTracks
	}
	return info, nil
}

var (
	handlerVide = bmff.BoxType{'v', 'i', 'd', 'e'}
	handlerSoun = bmff.BoxType{'s', 'o', 'u', 'n'}
)

func parseTrak(r *bmff.Reader) (Track, error) {
	var t Track
	r.Enter()
	defer r.Exit()

	for r.Next() {
		switch r.Type() {
		case bmff.TypeTkhd:
			id, dur, w, h := r.ReadTkhd()
			t.ID, t.Duration, t.Width, t.Height = id, dur, w, h
		case bmff.TypeMdia:
			if err := parseMdia(r, &t); err != nil {
				return Track{}, err
			}
		}
	}

	if t.Kind != handlerVide && t.Kind != handlerSoun {
		return Track{}, fmt.Errorf("probe: track %d: unsupported handler %s", t.ID, t.Kind)
	}
	return t, nil
}

func parseMdia(r *bmff.Reader, t *Track) error {
	r.Enter()
	defer r.Exit()

	for r.Next() {
		switch r.Type() {
		case bmff.TypeMdhd:
			ts, dur, lang := r.ReadMdhd()
			t.TimeScale, t.Duration, t.Language = ts, dur, lang
		case bmff.TypeHdlr:
			t.Kind = r.ReadHdlr()
		case bmff.TypeMinf:
			if err := parseMinf(r, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseMinf(r *bmff.Reader, t *Track) error {
	r.Enter()
	defer r.Exit()

	for r.Next() {
		if r.Type() == bmff.TypeStbl {
			if err := parseStbl(r, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseStbl(r *bmff.Reader, t *Track) error {
	r.Enter()
	defer r.Exit()

	for r.Next() {
		if r.Type() == bmff.TypeStsd {
			return parseStsd(r, t)
		}
	}
	return nil
}

func parseStsd(r *bmff.Reader, t *Track) error {
	r.Enter()
	defer r.Exit()
	r.Skip(4) // entry_count

	if !r.Next() {
		return fmt.Errorf("probe: empty stsd")
	}
	format := r.Type()

	switch format {
	case bmff.TypeEncv, bmff.TypeEnca:
		t.Encrypted = true
		return parseEncryptedSampleEntry(r, t)
	case bmff.TypeAvc1, bmff.TypeAvc3, bmff.TypeHev1, bmff.TypeHvc1, bmff.TypeDvh1, bmff.TypeDvhe, bmff.TypeVp08, bmff.TypeVp09, bmff.TypeAv01:
		return parseVideoSampleEntry(r, t, format)
	case bmff.TypeMp4a, bmff.TypeAc3, bmff.TypeEc3, bmff.TypeOpus:
		return parseAudioSampleEntry(r, t, format)
	default:
		t.Codec = format.String()
		return nil
	}
}

// parseEncryptedSampleEntry looks inside sinf's frma for the original
// format so the codec string still reflects the unencrypted codec, the way
// DASH manifests expect (the "cenc:default_KID" signaling lives in the MPD,
// not the codecs attribute).
func parseEncryptedSampleEntry(r *bmff.Reader, t *Track) error {
	data := r.RawBox()
	inner := bmff.NewReader(data)
	if !inner.Next() {
		return fmt.Errorf("probe: empty encrypted sample entry")
	}
	format := inner.Type()

	var original bmff.BoxType
	childOffset := 0
	switch format {
	case bmff.TypeEncv:
		v, err := bmff.ReadVisualSampleEntry(inner.Data())
		if err != nil {
			return err
		}
		t.Width, t.Height = uint32(v.Width), uint32(v.Height)
		childOffset = v.ChildOffset
	case bmff.TypeEnca:
		a, err := bmff.ReadAudioSampleEntry(inner.Data())
		if err != nil {
			return err
		}
		t.ChannelCount, t.SampleRate = a.ChannelCount, a.SampleRate
		childOffset = a.ChildOffset
	}

	child := bmff.NewReader(inner.Data()[childOffset:])
	for child.Next() {
		if child.Type() == bmff.TypeSinf {
			child.Enter()
			for child.Next() {
				if child.Type() == bmff.TypeFrma && len(child.Data()) >= 4 {
					copy(original[:], child.Data()[:4])
				}
			}
			child.Exit()
		}
	}

	if original == (bmff.BoxType{}) {
		return fmt.Errorf("probe: encrypted sample entry missing frma")
	}
	t.Codec = original.String()
	return nil
}

func parseVideoSampleEntry(r *bmff.Reader, t *Track, format bmff.BoxType) error {
	v, err := bmff.ReadVisualSampleEntry(r.Data())
	if err != nil {
		return err
	}
	t.Width, t.Height = uint32(v.Width), uint32(v.Height)

	switch format {
	case bmff.TypeAvc1, bmff.TypeAvc3:
		var rec []byte
		child := bmff.NewReader(r.Data()[v.ChildOffset:])
		for child.Next() {
			if child.Type() == bmff.TypeAvcC {
				rec = bmff.ReadAvcC(child.Data())
			}
		}
		t.Codec = avcCodecString(format, rec)
	case bmff.TypeHev1, bmff.TypeHvc1:
		t.Codec = format.String() // detailed HEVC codec strings need more
		// of hvcC than this module parses back out; callers that need the
		// full profile/tier/level string should keep the original
		// CodecConfig they muxed with instead of round-tripping it here.
	default:
		t.Codec = format.String()
	}
	return nil
}

const hexChars = "0123456789abcdef"

func avcCodecString(format bmff.BoxType, rec []byte) string {
	if len(rec) < 4 {
		return format.String()
	}
	profile, compat, level := rec[1], rec[2], rec[3]
	buf := make([]byte, 0, 11)
	buf = append(buf, format[:]...)
	buf = append(buf, '.')
	buf = append(buf, hexChars[profile>>4], hexChars[profile&0xf])
	buf = append(buf, hexChars[compat>>4], hexChars[compat&0xf])
	buf = append(buf, hexChars[level>>4], hexChars[level&0xf])
	return string(buf)
}

func parseAudioSampleEntry(r *bmff.Reader, t *Track, format bmff.BoxType) error {
	a, err := bmff.ReadAudioSampleEntry(r.Data())
	if err != nil {
		return err
	}
	t.ChannelCount, t.SampleRate = a.ChannelCount, a.SampleRate

	if format != bmff.TypeMp4a {
		t.Codec = format.String()
		return nil
	}

	var ec bmff.EsdsCodec
	err = fmt.Errorf("probe: no esds box")
	child := bmff.NewReader(r.Data()[a.ChildOffset:])
	for child.Next() {
		if child.Type() == bmff.TypeEsds {
			ec, err = bmff.ReadEsdsCodec(child.Data())
		}
	}
	if err != nil || ec.ObjectTypeIndication == 0 {
		t.Codec = "mp4a"
		return nil
	}
	t.Codec = mp4aCodecString(ec)
	return nil
}

func mp4aCodecString(ec bmff.EsdsCodec) string {
	s := "mp4a."
	if ec.ObjectTypeIndication >= 16 {
		s += string(hexChars[ec.ObjectTypeIndication>>4])
	}
	s += string(hexChars[ec.ObjectTypeIndication&0xf])

	if len(ec.DecoderSpecificInfo) == 0 {
		return s
	}
	audioObjectType := ec.DecoderSpecificInfo[0] >> 3
	if audioObjectType == 0 {
		return s
	}
	s += "."
	if audioObjectType >= 10 {
		s += string('0' + audioObjectType/10)
	}
	s += string('0' + audioObjectType%10)
	return s
}
