package cenc

import (
	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
)

// SeigEntryFor builds the CENC sample-group entry a rotated-in key needs
// (spec §4.4 "Key rotation"): the same isProtected/pattern/KID/constant-IV
// fields WriteTrackEncryption derives for tenc, but shaped for sgpd's 'seig'
// grouping type instead.
func SeigEntryFor(enc media.EncryptionConfig) (bmff.SeigEntry, error) {
	props, err := PropertiesOf(Scheme(enc.Scheme))
	if err != nil {
		return bmff.SeigEntry{}, err
	}

	cryptByteBlock, skipByteBlock := uint8(0), uint8(0)
	if props.HasPattern {
		cryptByteBlock, skipByteBlock = enc.CryptByteBlock, enc.SkipByteBlock
		if cryptByteBlock == 0 && skipByteBlock == 0 {
			cryptByteBlock, skipByteBlock = DefaultCryptByteBlock, DefaultSkipByteBlock
		}
	}

	perSampleIVSize := uint8(IVSizeFor(enc, false))
	var constantIV []byte
	if len(enc.ConstantIV) > 0 {
		perSampleIVSize = 0
		constantIV = enc.ConstantIV
	}

	return bmff.SeigEntry{
		IsProtected:     1,
		PerSampleIVSize: perSampleIVSize,
		KID:             NormalizeKeyID(enc.KeyID[:]),
		ConstantIVSize:  uint8(len(constantIV)),
		ConstantIV:      constantIV,
		CryptByteBlock:  cryptByteBlock,
		SkipByteBlock:   skipByteBlock,
	}, nil
}

// SeigEntryLength is the serialized byte length of one SeigEntry as
// WriteSgpdSeig encodes it, the value sgpd's default_length field carries
// when (as here) a fragment rotates in exactly one new key.
func SeigEntryLength(e bmff.SeigEntry) uint32 {
	const fixed = 1 + 1 + 1 + 1 + 16 // reserved + pattern + isProtected + perSampleIVSize + KID
	if e.IsProtected == 1 && e.PerSampleIVSize == 0 {
		return fixed + 1 + uint32(e.ConstantIVSize)
	}
	return fixed
}
