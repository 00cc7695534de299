// Package segment implements the segmenter family: a shared per-track
// fragment accumulator plus the single-segment (VOD), multi-segment
// (live/on-disk) and low-latency (chunked CMAF) output strategies built on
// top of it, grounded in shaka-packager's mp4/single_segment_segmenter.h,
// multi_segment_segmenter.h and low_latency_segment_segmenter.h.
package segment

import (
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/cenc"
	"github.com/tetsuo/dashmux/media"
)

// sample flag constants (ISO/IEC 14496-12 §8.8.3.1): sample_depends_on in
// bits 25-24, sample_is_non_sync_sample in bit 16.
const (
	sampleFlagsSync    = 0x02000000
	sampleFlagsNonSync = 0x01010000
)

func sampleFlagsFor(isSync bool) uint32 {
	if isSync {
		return sampleFlagsSync
	}
	return sampleFlagsNonSync
}

type fragSample struct {
	size              uint32
	duration          uint32
	flags             uint32
	compositionOffset int32
	isSync            bool
}

// Fragment accumulates one track's samples into a single moof+mdat pair
// (spec §4.3 "Fragment accumulator"). Samples must be added in
// monotonically non-decreasing dts order; the caller (a segmenter) owns
// enforcing SAP alignment at fragment boundaries.
type Fragment struct {
	TrackID             uint32
	BaseMediaDecodeTime uint64

	samples []fragSample
	mdat    []byte

	needsVersion1Trun bool
	hasCompositionOff bool

	encryptor *cenc.FragmentEncryptor

	cumulativeDuration uint64
	earliestPTS        int64
	sampleCount        int

	rotationSeig *bmff.SeigEntry
	rotationPSSH [][]byte
}

// NewFragment starts a fragment for trackID at baseMediaDecodeTime
// (dts of the first sample, in the track's timescale). encryptor is nil
// for unencrypted tracks.
func NewFragment(trackID uint32, baseMediaDecodeTime uint64, encryptor *cenc.FragmentEncryptor) *Fragment {
	return &Fragment{TrackID: trackID, BaseMediaDecodeTime: baseMediaDecodeTime, encryptor: encryptor, earliestPTS: -1}
}

// AddSample folds one sample into the fragment, encrypting it first if the
// fragment has an encryptor (spec §4.3 add_sample steps 1-4).
func (f *Fragment) AddSample(sample media.MediaSample) error {
	compositionOffset := int32(sample.PTS - sample.DTS)
	if compositionOffset < 0 {
		f.needsVersion1Trun = true
	}
	if compositionOffset != 0 {
		f.hasCompositionOff = true
	}

	data := sample.Data
	if f.encryptor != nil {
		cipherData, err := f.encryptor.EncryptAndTrack(sample.Data, sample.SubsampleLayout)
		if err != nil {
			return fmt.Errorf("segment: encrypting sample: %w", err)
		}
		data = cipherData
	}

	f.samples = append(f.samples, fragSample{
		size:              uint32(len(data)),
		duration:          sample.Duration,
		flags:             sampleFlagsFor(sample.IsSyncSample),
		compositionOffset: compositionOffset,
		isSync:            sample.IsSyncSample,
	})
	f.mdat = append(f.mdat, data...)
	f.cumulativeDuration += uint64(sample.Duration)
	f.sampleCount++
	if f.earliestPTS < 0 || sample.PTS < f.earliestPTS {
		f.earliestPTS = sample.PTS
	}
	return nil
}

// SetKeyRotation marks this fragment as the first one to use a newly
// rotated-in key (spec §4.4 "Key rotation"): its traf gains a sgpd/sbgp pair
// mapping every sample in the fragment to entry, and its moof gains one
// pssh per element of pssh, sibling to traf, announcing the new key to
// DRM systems ahead of the samples that need it.
func (f *Fragment) SetKeyRotation(entry bmff.SeigEntry, pssh [][]byte) {
	f.rotationSeig = &entry
	f.rotationPSSH = pssh
}

// Empty reports whether any sample has been added yet.
func (f *Fragment) Empty() bool { return f.sampleCount == 0 }

// Duration is the fragment's accumulated duration in the track's timescale.
func (f *Fragment) Duration() uint64 { return f.cumulativeDuration }

// EarliestPTS is the lowest PTS among this fragment's samples, or -1 if
// empty.
func (f *Fragment) EarliestPTS() int64 { return f.earliestPTS }

// FirstSampleIsSync reports whether the fragment's first sample is a SAP,
// the alignment rule §4.3 requires of every segment and subsegment.
func (f *Fragment) FirstSampleIsSync() bool {
	return f.sampleCount > 0 && f.samples[0].isSync
}

type uniformFields struct {
	duration      uint32
	uniformDur    bool
	size          uint32
	uniformSize   bool
	flags         uint32
	uniformFlags  bool
}

func (f *Fragment) computeUniform() uniformFields {
	var u uniformFields
	u.uniformDur, u.uniformSize, u.uniformFlags = true, true, true
	for i, s := range f.samples {
		if i == 0 {
			u.duration, u.size, u.flags = s.duration, s.size, s.flags
			continue
		}
		if s.duration != u.duration {
			u.uniformDur = false
		}
		if s.size != u.size {
			u.uniformSize = false
		}
		if s.flags != u.flags {
			u.uniformFlags = false
		}
	}
	return u
}

// Finalize writes this fragment's moof+mdat into w, using sequenceNumber as
// mfhd's sequence_number, and returns the number of bytes written. Per-
// sample arrays are demoted to tfhd.default_sample_* whenever uniform
// (spec §4.3 finalize_fragment); trun's data_offset and, if encrypted,
// saio's offset are backpatched once the enclosing moof's size is known —
// this Writer's append-then-patch buffer makes the "two-pass" sizing the
// original describes a single pass with a deferred patch, not a literal
// second serialization.
func (f *Fragment) Finalize(w *bmff.Writer, sequenceNumber uint32) (int, error) {
	if f.Empty() {
		return 0, fmt.Errorf("segment: finalizing an empty fragment")
	}

	moofStart := w.Pos()
	w.StartBox(bmff.TypeMoof)
	w.WriteMfhd(sequenceNumber)
	for _, p := range f.rotationPSSH {
		w.Append(p)
	}

	w.StartBox(bmff.TypeTraf)

	u := f.computeUniform()
	tfhdFlags := uint32(bmff.TfhdDefaultBaseIsMoof)
	tfhd := bmff.Tfhd{TrackID: f.TrackID}
	if u.uniformDur {
		tfhdFlags |= bmff.TfhdDefaultSampleDurationPresent
		tfhd.DefaultSampleDuration = u.duration
	}
	if u.uniformSize {
		tfhdFlags |= bmff.TfhdDefaultSampleSizePresent
		tfhd.DefaultSampleSize = u.size
	}
	if u.uniformFlags {
		tfhdFlags |= bmff.TfhdDefaultSampleFlagsPresent
		tfhd.DefaultSampleFlags = u.flags
	}
	tfhd.Flags = tfhdFlags
	w.WriteTfhd(tfhd)
	w.WriteTfdt(f.BaseMediaDecodeTime)

	var saioFieldPos, sencFirstEntryPos int
	if f.encryptor != nil {
		saioFieldPos, sencFirstEntryPos = f.encryptor.WriteAuxInfo(w)
	}

	if f.rotationSeig != nil {
		w.WriteSgpdSeig(cenc.SeigEntryLength(*f.rotationSeig), []bmff.SeigEntry{*f.rotationSeig})
		w.WriteSbgp(bmff.GroupingTypeSeig, [][2]uint32{{uint32(len(f.samples)), 1}})
	}

	trunFlags := uint32(bmff.TrunDataOffsetPresent)
	if !u.uniformDur {
		trunFlags |= bmff.TrunSampleDurationPresent
	}
	if !u.uniformSize {
		trunFlags |= bmff.TrunSampleSizePresent
	}
	if !u.uniformFlags {
		trunFlags |= bmff.TrunSampleFlagsPresent
	}
	if f.hasCompositionOff {
		trunFlags |= bmff.TrunSampleCompositionTimeOffsetPresent
	}

	version := uint8(0)
	if f.needsVersion1Trun {
		version = 1
	}

	entries := make([]bmff.TrunEntry, len(f.samples))
	for i, s := range f.samples {
		entries[i] = bmff.TrunEntry{
			Duration:              s.duration,
			Size:                  s.size,
			Flags:                 s.flags,
			CompositionTimeOffset: s.compositionOffset,
		}
	}

	dataOffsetPos := w.WriteTrun(version, trunFlags, 0, entries)

	w.EndBox() // traf
	w.EndBox() // moof

	moofSize := w.Pos() - moofStart
	w.PatchInt32(dataOffsetPos, int32(moofSize+8))
	if f.encryptor != nil {
		w.PatchUint32(saioFieldPos, uint32(sencFirstEntryPos-moofStart))
	}

	w.StartBox(bmff.TypeMdat)
	w.Append(f.mdat)
	w.EndBox()

	return w.Pos() - moofStart, nil
}
