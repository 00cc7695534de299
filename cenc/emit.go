package cenc

import (
	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
)

// FragmentEncryptor accumulates per-sample auxiliary encryption info for one
// track fragment and emits the senc/saiz/saio boxes a segmenter writes into
// its moof's traf (spec §4.4). One FragmentEncryptor is built per fragment;
// its IVSequencer is owned by the track across fragments so the counter
// keeps advancing.
type FragmentEncryptor struct {
	scheme         Scheme
	key            []byte
	ivSeq          *IVSequencer
	cryptByteBlock uint8
	skipByteBlock  uint8
	entries        []bmff.SencEntry
	useSubsample   bool
}

// NewFragmentEncryptor builds an encryptor for one fragment of a track
// configured with enc, advancing iv sequencing from seq (carried over from
// the previous fragment, or freshly seeded for the first one).
func NewFragmentEncryptor(enc media.EncryptionConfig, seq *IVSequencer) (*FragmentEncryptor, error) {
	props, err := PropertiesOf(Scheme(enc.Scheme))
	if err != nil {
		return nil, err
	}

	cryptByteBlock, skipByteBlock := uint8(0), uint8(0)
	if props.HasPattern {
		cryptByteBlock, skipByteBlock = enc.CryptByteBlock, enc.SkipByteBlock
		if cryptByteBlock == 0 && skipByteBlock == 0 {
			cryptByteBlock, skipByteBlock = DefaultCryptByteBlock, DefaultSkipByteBlock
		}
	}

	return &FragmentEncryptor{
		scheme:         Scheme(enc.Scheme),
		key:            enc.Key,
		ivSeq:          seq,
		cryptByteBlock: cryptByteBlock,
		skipByteBlock:  skipByteBlock,
	}, nil
}

// IVSizeFor reports the per-sample IV size (in bytes) a track's tenc box
// should declare for enc: 0 when a constant IV makes per-sample IVs
// unnecessary (pattern schemes with a fixed IV), otherwise the 8-byte size
// most encoders use unless the caller has a reason to want the full 16.
func IVSizeFor(enc media.EncryptionConfig, want16 bool) int {
	return ivSizeFromConstant(enc.ConstantIV, want16)
}

// EncryptAndTrack encrypts one sample's data (NAL-partitioned for video via
// regions, whole-sample when regions is nil) and records its senc entry,
// returning the ciphertext the caller should write to mdat in place of the
// clear sample.
func (fe *FragmentEncryptor) EncryptAndTrack(data []byte, regions []media.SubsampleRegion) ([]byte, error) {
	iv := fe.ivSeq.Current()
	cipherData, subsamples, err := EncryptSample(fe.scheme, fe.key, iv, data, regions, fe.cryptByteBlock, fe.skipByteBlock)
	if err != nil {
		return nil, err
	}

	protected := len(cipherData)
	if subsamples != nil {
		protected = TotalProtectedBytes(regions)
	}
	fe.ivSeq.Advance(protected)

	if len(subsamples) > 0 {
		fe.useSubsample = true
	}
	fe.entries = append(fe.entries, bmff.SencEntry{IV: iv, Subsamples: subsamples})
	return cipherData, nil
}

// WriteAuxInfo emits this fragment's senc, saiz and saio boxes into traf. It
// returns saio's placeholder offset field position (absolute, within w's
// buffer) and the absolute position of the first byte of senc's first IV,
// the value saio's offset field must hold once expressed relative to the
// enclosing moof's start (two-pass sizing, spec §4.3 / §4.4 item 3).
func (fe *FragmentEncryptor) WriteAuxInfo(w *bmff.Writer) (saioOffsetFieldPos, firstEntryPos int) {
	sizes := make([]uint8, len(fe.entries))
	uniform := true
	for i, e := range fe.entries {
		sizes[i] = uint8(len(e.IV))
		if fe.useSubsample {
			sizes[i] += uint8(2 + 6*len(e.Subsamples))
		}
		if i > 0 && sizes[i] != sizes[0] {
			uniform = false
		}
	}

	if uniform && len(sizes) > 0 {
		w.WriteSaiz(BoxTypeCenc, false, sizes[0], nil)
	} else {
		w.WriteSaiz(BoxTypeCenc, false, 0, sizes)
	}

	saioOffsetFieldPos = w.WriteSaio(BoxTypeCenc, false)

	// senc's full box header (size+type, 8 bytes) plus its version/flags
	// (4 bytes) and sample_count (4 bytes) precede the first IV byte.
	sencBoxStart := w.Pos()
	w.WriteSenc(fe.useSubsample, fe.entries)
	firstEntryPos = sencBoxStart + 16
	return saioOffsetFieldPos, firstEntryPos
}

// BoxTypeCenc is the aux_info_type used when saiz/saio need to disambiguate
// CENC auxiliary information from other per-sample side data; left unset
// (hasAuxInfoType=false) in WriteAuxInfo since a traf with only one
// encrypted track never needs the disambiguation, but kept available for a
// future multi-scheme track.
var BoxTypeCenc = bmff.BoxType{'c', 'e', 'n', 'c'}
