package mux

import (
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/cenc"
	"github.com/tetsuo/dashmux/media"
)

// Track holds the per-stream state a Muxer accumulates across samples: the
// running edit-list offset and whatever summary fields trex/tkhd need at
// finalize time. The sample table itself lives in the segmenter
// (segment.Fragment); Track only owns what belongs to the init segment.
type Track struct {
	Info     media.StreamInfo
	editList editListState
	duration uint64 // running duration in Info.Timescale units
}

// NewTrack creates per-track muxer state for info.
func NewTrack(info media.StreamInfo) *Track {
	return &Track{Info: info}
}

// Observe folds one sample into the track's edit-list/duration tracking.
// Called once per sample as it's handed to the segmenter.
func (t *Track) Observe(sample media.MediaSample) {
	t.editList.update(sample.PTS, sample.DTS)
	t.duration += uint64(sample.Duration)
}

// handlerType returns the hdlr handler_type and name for this track's kind.
func handlerType(kind media.StreamKind) (bmff.BoxType, string) {
	switch kind {
	case media.StreamVideo:
		return bmff.BoxType{'v', 'i', 'd', 'e'}, "VideoHandler"
	case media.StreamAudio:
		return bmff.BoxType{'s', 'o', 'u', 'n'}, "SoundHandler"
	default:
		return bmff.BoxType{'t', 'e', 'x', 't'}, "TextHandler"
	}
}

const (
	tkhdFlagEnabled  = 0x1
	tkhdFlagInMovie  = 0x2
	tkhdFlagInPreview = 0x4
)

// WriteTrak emits this track's trak box (tkhd + mdia{mdhd,hdlr,minf}) into
// w, including the edit list if the stream's first sample needed one.
func (t *Track) WriteTrak(w *bmff.Writer, movieTimescale uint32) error {
	w.StartBox(bmff.TypeTrak)

	aspectX, aspectY := pixelAspect(t.Info)
	width := uint32((uint64(t.Info.Width) * uint64(aspectX) << 16) / uint64(aspectY))
	height := t.Info.Height << 16
	movieDuration := scaleDuration(t.duration, t.Info.Timescale, movieTimescale)
	w.WriteTkhd(tkhdFlagEnabled|tkhdFlagInMovie, t.Info.TrackID, uint32(movieDuration), width, height)

	if entries := t.editList.entries(movieDuration); entries != nil {
		w.StartBox(bmff.TypeEdts)
		elstEntries := make([]bmff.ElstEntry, len(entries))
		for i, e := range entries {
			elstEntries[i] = bmff.ElstEntry{
				SegmentDuration:   e.segmentDuration,
				MediaTime:         e.mediaTime,
				MediaRateInteger:  e.rateInteger,
				MediaRateFraction: 0,
			}
		}
		w.WriteElst(elstEntries)
		w.EndBox()
	}

	w.StartBox(bmff.TypeMdia)
	w.WriteMdhd(t.Info.Timescale, uint32(t.duration), sanitizeLanguage(t.Info.Language))
	ht, name := handlerType(t.Info.Kind)
	w.WriteHdlr(ht, name)

	if err := t.writeMinf(w); err != nil {
		w.EndBox() // mdia
		w.EndBox() // trak
		return err
	}
	w.EndBox() // mdia

	w.EndBox() // trak
	return nil
}

// pixelAspect returns info's pixel aspect ratio as an hSpacing:vSpacing
// pair, unreduced, defaulting to 1:1 when either value is 0 (spec §4.2).
func pixelAspect(info media.StreamInfo) (x, y uint32) {
	if info.PixelAspectX == 0 || info.PixelAspectY == 0 {
		return 1, 1
	}
	return info.PixelAspectX, info.PixelAspectY
}

func scaleDuration(d uint64, from, to uint32) uint64 {
	if from == 0 {
		return 0
	}
	return d * uint64(to) / uint64(from)
}

func (t *Track) writeMinf(w *bmff.Writer) error {
	w.StartBox(bmff.TypeMinf)
	switch t.Info.Kind {
	case media.StreamVideo:
		w.WriteVmhd()
	case media.StreamAudio:
		w.WriteSmhd()
	}

	w.StartBox(bmff.TypeDinf)
	w.WriteDref(1)
	w.WriteURL(1) // flags=1: media data is in the same file, no URL string
	w.EndBox()    // dref
	w.EndBox()    // dinf

	w.StartBox(bmff.TypeStbl)
	if err := t.writeStsd(w); err != nil {
		w.EndBox()
		w.EndBox()
		return err
	}
	// Fragmented tracks carry empty sample tables in the init segment;
	// per-fragment sample data lives entirely in moof/mdat (§3.2, §4.3).
	w.WriteStts(nil)
	w.WriteStsc(nil)
	w.WriteStsz(0, 0, nil)
	w.WriteStco(nil)
	w.EndBox() // stbl

	w.EndBox() // minf
	return nil
}

func (t *Track) writeStsd(w *bmff.Writer) error {
	enc := t.Info.Encryption
	entryCount := uint32(1)
	if enc != nil && enc.ClearLead > 0 {
		entryCount = 2
	}
	w.StartStsd(entryCount)

	original := bmff.BoxType(t.Info.Codec.SampleEntryFormat())
	if enc != nil {
		boxFormat := encryptedFormat(original)
		if err := t.writeSampleEntry(w, boxFormat, original); err != nil {
			w.EndBox()
			return err
		}
		w.StartBox(bmff.TypeSinf)
		w.WriteFrma(original)
		w.WriteSchm(bmff.BoxType(enc.Scheme), 0x00010000)
		w.StartBox(bmff.TypeSchi)
		if err := cenc.WriteTrackEncryption(w, *enc); err != nil {
			w.EndBox()
			w.EndBox()
			w.EndBox()
			return err
		}
		w.EndBox() // schi
		w.EndBox() // sinf
		w.EndBox() // sample entry

		if entryCount == 2 {
			if err := t.writeSampleEntry(w, original, original); err != nil {
				w.EndBox()
				return err
			}
			w.EndBox()
		}
	} else {
		if err := t.writeSampleEntry(w, original, original); err != nil {
			w.EndBox()
			return err
		}
		w.EndBox()
	}

	w.EndBox() // stsd
	return nil
}

// writeSampleEntry opens the sample entry box (boxFormat, which may be
// encv/enca for an encrypted track) and writes the codec configuration
// child appropriate for codecFormat (the original, unencrypted format).
// The caller is responsible for EndBox.
func (t *Track) writeSampleEntry(w *bmff.Writer, boxFormat, codecFormat bmff.BoxType) error {
	switch t.Info.Kind {
	case media.StreamVideo:
		w.StartVisualSampleEntry(boxFormat, uint16(t.Info.Width), uint16(t.Info.Height), "")
		if aspectX, aspectY := pixelAspect(t.Info); aspectX != aspectY {
			w.WritePasp(aspectX, aspectY)
		}
		return t.writeVideoCodecConfig(w, codecFormat)
	case media.StreamAudio:
		w.StartAudioSampleEntry(boxFormat, t.Info.ChannelCount, 16, t.Info.SampleRate)
		return t.writeAudioCodecConfig(w, codecFormat)
	default:
		return fmt.Errorf("mux: unsupported stream kind for sample entry %s", boxFormat)
	}
}

func (t *Track) writeVideoCodecConfig(w *bmff.Writer, format bmff.BoxType) error {
	cfgBox, ok := bmff.CodecConfigBoxType(format)
	if !ok {
		return fmt.Errorf("mux: no codec config box known for %s", format)
	}
	record := t.Info.Codec.Bytes()
	switch cfgBox {
	case bmff.TypeAvcC:
		w.WriteAvcC(record)
	case bmff.TypeHvcC:
		w.WriteHvcC(record)
	default:
		w.StartBox(cfgBox)
		w.Append(record)
		w.EndBox()
	}
	return nil
}

func (t *Track) writeAudioCodecConfig(w *bmff.Writer, format bmff.BoxType) error {
	switch format {
	case bmff.TypeMp4a, bmff.TypeEnca:
		w.WriteEsds(t.Info.Codec.Bytes())
	case bmff.TypeAc3:
		w.WriteDac3(t.Info.Codec.Bytes())
	case bmff.TypeEc3:
		w.WriteDec3(t.Info.Codec.Bytes())
	case bmff.TypeOpus:
		w.WriteDOps(t.Info.Codec.Bytes())
	default:
		return fmt.Errorf("mux: no codec config box known for %s", format)
	}
	return nil
}

func encryptedFormat(format bmff.BoxType) bmff.BoxType {
	switch format {
	case bmff.TypeMp4a, bmff.TypeAc3, bmff.TypeEc3, bmff.TypeOpus, bmff.TypeFlac:
		return bmff.TypeEnca
	default:
		return bmff.TypeEncv
	}
}
