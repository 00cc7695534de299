package cenc

import (
	"github.com/rs/zerolog/log"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
)

// NormalizeKeyID resizes kid to exactly 16 bytes, warning rather than
// failing the mux (§7: a resized KID is a named "user-visible failure"
// example that must not abort the operation). Oversized input is
// truncated; undersized input is zero-padded on the right.
func NormalizeKeyID(kid []byte) [16]byte {
	var out [16]byte
	if len(kid) != 16 {
		log.Warn().Int("length", len(kid)).Msg("key ID is not 16 bytes, resizing")
	}
	copy(out[:], kid)
	return out
}

// WriteTrackEncryption emits the sinf/schi's tenc box for enc, using the
// tenc version and pattern fields its scheme requires.
func WriteTrackEncryption(w *bmff.Writer, enc media.EncryptionConfig) error {
	props, err := PropertiesOf(Scheme(enc.Scheme))
	if err != nil {
		return err
	}

	kid := NormalizeKeyID(enc.KeyID[:])

	pattern := bmff.TencPattern{}
	if props.HasPattern {
		cb, sb := enc.CryptByteBlock, enc.SkipByteBlock
		if cb == 0 && sb == 0 {
			cb, sb = DefaultCryptByteBlock, DefaultSkipByteBlock
		}
		pattern = bmff.TencPattern{CryptByteBlock: cb, SkipByteBlock: sb}
	}

	isProtected := uint8(1)
	perSampleIVSize := uint8(IVSizeFor(enc, false))
	var constantIV []byte
	if len(enc.ConstantIV) > 0 {
		perSampleIVSize = 0
		constantIV = enc.ConstantIV
	}

	w.WriteTenc(props.TencVersion, pattern, isProtected, perSampleIVSize, kid, constantIV)
	return nil
}
