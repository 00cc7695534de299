package media

import "io"

// StreamKind distinguishes the handful of elementary stream kinds this
// module understands well enough to mux (§3.2, Non-goals in §1 exclude
// text/subtitle rendering but not carrying wvtt/stpp samples verbatim).
type StreamKind int

const (
	StreamVideo StreamKind = iota
	StreamAudio
	StreamText
)

// CodecConfig is the decoder configuration record for one stream, already
// parsed by an external demuxer (§1 Non-goals: decoder-specific config
// parsing is out of scope here). The muxer only needs to know how to shape
// a sample entry around it.
type CodecConfig interface {
	// SampleEntryFormat is the box type of the stsd entry this config
	// belongs under (avc1, hev1, mp4a, ...).
	SampleEntryFormat() [4]byte
	// Bytes returns the codec configuration record to embed verbatim in
	// the matching codec-config box (avcC/hvcC/esds payload).
	Bytes() []byte
}

// StreamInfo describes one elementary stream for the duration of a Muxer
// session (§6.2).
type StreamInfo struct {
	TrackID      uint32
	Kind         StreamKind
	Timescale    uint32
	Language     string // ISO-639-2/T, validated by mux.sanitizeLanguage
	Width        uint32 // visual streams only
	Height       uint32
	PixelAspectX uint32 // visual streams only; 0 (or equal to PixelAspectY) means 1:1, no pasp emitted
	PixelAspectY uint32
	ChannelCount uint16 // audio streams only
	SampleRate   uint32
	Codec        CodecConfig
	Encryption   *EncryptionConfig // nil if this stream is not encrypted
}

// MediaSample is one access unit delivered to the muxer in decode order
// (§3.2, §5: producer order must be preserved end to end).
type MediaSample struct {
	TrackID               uint32
	Data                  []byte
	DTS                   int64
	PTS                   int64
	Duration              uint32
	IsSyncSample           bool
	SubsampleLayout       []SubsampleRegion // nil for unencrypted/whole-sample encryption
}

// SubsampleRegion marks one clear/cipher span within a sample's NAL-unit
// layout, prior to encryption (spec §4.4); cenc.PartitionNALs produces these
// from the raw Annex-B-free (length-prefixed) sample bytes.
type SubsampleRegion struct {
	ClearBytes   int
	CipherBytes  int
}

// EncryptionConfig carries the per-stream CENC parameters (§3.4).
type EncryptionConfig struct {
	Scheme        [4]byte // cenc, cbc1, cens, cbcs
	KeyID         [16]byte
	Key           []byte // 16 bytes, AES-128
	ConstantIV    []byte // used by cbcs/cbc1 with pattern, nil for per-sample IV schemes
	CryptByteBlock uint8 // pattern encryption, 0 for cenc/cbc1
	SkipByteBlock  uint8
	ClearLead      int // number of leading samples left unencrypted
}

// SegmentInfo reports the result of finalizing one segment or chunk back
// to the caller (§4.3, §4.5), for feeding an external manifest generator.
type SegmentInfo struct {
	TrackID        uint32
	StartTime      uint64 // in the stream's timescale
	Duration       uint64
	IsSubsegment   bool
	SAPType        uint8
	FirstSampleIsSAP bool
	Size           int64 // bytes written for this segment/chunk
}

// MuxerOptions configures a Muxer session (§6.3). Segment/fragment
// durations here are given in seconds.
type MuxerOptions struct {
	SegmentTemplate       string // e.g. "$RepresentationID$/$Number$.m4s"
	SegmentDurationSeconds float64
	FragmentDurationSeconds float64
	LowLatencyDASHMode    bool
	IncludePSSHInStream   bool
	NumSubsegmentsPerSIDX int
}

// Notifier receives segment boundaries for manifest generation, an
// external collaborator per §1 Non-goals (MPD/playlist generation is out
// of scope for this module, which only calls back into the interface).
type Notifier interface {
	NotifySegment(info SegmentInfo)
	NotifyKeyFrame(trackID uint32, timestamp uint64)
}

// KeySource supplies encryption keys and, for key rotation, reacts to cue
// events (§4.4); acquiring keys from a license server is out of scope
// (§1 Non-goals) so this module only consumes the interface.
type KeySource interface {
	GetKey(trackID uint32) (EncryptionConfig, error)
}

// CueEvent marks a point in a track's timeline where the muxer should
// consider closing the current segment and requesting a new key from the
// KeySource (§4.4 "Key rotation"); Timestamp is in the track's own
// timescale. A content packager or ad-insertion signal is the usual
// producer of these; generating them is out of scope (§1 Non-goals).
type CueEvent struct {
	TrackID   uint32
	Timestamp int64
}

// Clock abstracts wall-clock time so tests can run deterministically; the
// zero value is unusable, use SystemClock or a fake in tests.
type Clock interface {
	Now() int64 // unix seconds
}

// WriteSeeker is the minimal output-file interface the segmenter family
// writes through. The segmenters only Write and Close it; none of them
// calls Seek.
type WriteSeeker interface {
	io.Writer
	io.Seeker
	io.Closer
}
