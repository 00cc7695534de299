package cenc

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/media"
)

// EncryptSample encrypts a copy of data (data itself is left unmodified)
// per scheme's cipher mode and,
// for pattern schemes (cens/cbcs), its crypt/skip byte block pattern.
// regions is nil for whole-sample encryption (audio, or video where the
// caller chose not to expose NAL structure); iv must already be sized for
// the scheme. Returns the senc subsample list alongside the ciphertext,
// nil when regions was nil.
func EncryptSample(scheme Scheme, key, iv []byte, data []byte, regions []media.SubsampleRegion, cryptByteBlock, skipByteBlock uint8) ([]byte, []bmff.SubsampleEntry, error) {
	props, err := PropertiesOf(scheme)
	if err != nil {
		return nil, nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("cenc: %w", err)
	}

	out := append([]byte(nil), data...)
	block16 := expandIV(iv)

	if len(regions) == 0 {
		encryptRun(block, props.Cipher, block16, out, cryptByteBlock, skipByteBlock)
		return out, nil, nil
	}

	subsamples := make([]bmff.SubsampleEntry, len(regions))
	offset := 0
	for i, r := range regions {
		offset += r.ClearBytes
		span := out[offset : offset+r.CipherBytes]
		encryptRun(block, props.Cipher, block16, span, cryptByteBlock, skipByteBlock)
		offset += r.CipherBytes
		subsamples[i] = bmff.SubsampleEntry{
			BytesOfClearData:     uint16(r.ClearBytes),
			BytesOfProtectedData: uint32(r.CipherBytes),
		}
	}
	return out, subsamples, nil
}

// expandIV right-pads an 8-byte per-sample IV to the 16-byte block size
// crypto/cipher's CTR and CBC modes require; 16-byte IVs pass through
// unchanged.
func expandIV(iv []byte) []byte {
	if len(iv) == 16 {
		return iv
	}
	full := make([]byte, 16)
	copy(full, iv)
	return full
}

// encryptRun encrypts span under the given cipher mode. cryptByteBlock and
// skipByteBlock being both zero means "no pattern, encrypt every byte" (the
// cenc/cbc1 case and also the cens/cbcs whole-sample-within-range case);
// otherwise span is walked in cryptByteBlock*16-byte encrypted runs
// separated by skipByteBlock*16-byte clear runs (spec §3.4).
func encryptRun(block cipher.Block, mode Cipher, iv, span []byte, cryptByteBlock, skipByteBlock uint8) {
	if cryptByteBlock == 0 && skipByteBlock == 0 {
		encryptFull(block, mode, iv, span)
		return
	}

	// One CBC chain / CTR keystream spans all crypt runs of span, so each
	// run continues from where the previous one stopped.
	var cbc cipher.BlockMode
	var ctr cipher.Stream
	if mode == CipherCBC {
		cbc = cipher.NewCBCEncrypter(block, iv)
	} else {
		ctr = cipher.NewCTR(block, iv)
	}
	runBytes := int(cryptByteBlock) * 16
	skipBytes := int(skipByteBlock) * 16
	pos := 0
	for pos < len(span) {
		end := pos + runBytes
		if end > len(span) {
			end = len(span)
		}
		n := (end - pos) - (end-pos)%16 // CBC/CTR both advance whole blocks here
		if n > 0 {
			run := span[pos : pos+n]
			if cbc != nil {
				cbc.CryptBlocks(run, run)
			} else {
				ctr.XORKeyStream(run, run)
			}
		}
		pos = end + skipBytes
	}
}

// encryptFull encrypts span as one contiguous run, rounding CBC down to a
// whole number of blocks (a dangling partial block stays clear, the caller
// is expected to have already excluded it via cenc.PartitionNALs).
func encryptFull(block cipher.Block, mode Cipher, iv, span []byte) {
	switch mode {
	case CipherCTR:
		stream := cipher.NewCTR(block, iv)
		stream.XORKeyStream(span, span)
	case CipherCBC:
		n := len(span) - len(span)%16
		if n == 0 {
			return
		}
		enc := cipher.NewCBCEncrypter(block, iv)
		enc.CryptBlocks(span[:n], span[:n])
	}
}
