package cenc

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/media"
)

func testKey() []byte {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

func testIV8() []byte {
	return []byte{1, 2, 3, 4, 5, 6, 7, 8}
}

func TestEncryptSampleCTRWholeSampleIsReversible(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	key, iv := testKey(), testIV8()

	cipherText, subsamples, err := EncryptSample(SchemeCenc, key, iv, data, nil, 0, 0)
	require.NoError(t, err)
	require.Nil(t, subsamples)
	require.NotEqual(t, data, cipherText)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	stream := cipher.NewCTR(block, expandIV(iv))
	plain := make([]byte, len(cipherText))
	stream.XORKeyStream(plain, cipherText)
	require.Equal(t, data, plain)
}

func TestEncryptSampleWithRegionsProducesMatchingSubsamples(t *testing.T) {
	data := make([]byte, 48)
	regions := []media.SubsampleRegion{
		{ClearBytes: 5, CipherBytes: 16},
		{ClearBytes: 11, CipherBytes: 16},
	}
	_, subsamples, err := EncryptSample(SchemeCenc, testKey(), testIV8(), data, regions, 0, 0)
	require.NoError(t, err)
	require.Len(t, subsamples, 2)
	require.Equal(t, uint16(5), subsamples[0].BytesOfClearData)
	require.Equal(t, uint32(16), subsamples[0].BytesOfProtectedData)
	require.Equal(t, uint16(11), subsamples[1].BytesOfClearData)
	require.Equal(t, uint32(16), subsamples[1].BytesOfProtectedData)
}

func TestEncryptSampleLeavesClearBytesUntouched(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = 0xAB
	}
	regions := []media.SubsampleRegion{{ClearBytes: 10, CipherBytes: 22}}
	cipherText, _, err := EncryptSample(SchemeCenc, testKey(), testIV8(), data, regions, 0, 0)
	require.NoError(t, err)
	require.Equal(t, data[:10], cipherText[:10])
	require.NotEqual(t, data[10:], cipherText[10:])
}

func TestEncryptSampleCBCPatternSkipsSkipBlocks(t *testing.T) {
	data := make([]byte, 160) // 10 blocks
	for i := range data {
		data[i] = byte(i)
	}
	cipherText, _, err := EncryptSample(SchemeCbcs, testKey(), append(testIV8(), testIV8()...), data, nil, DefaultCryptByteBlock, DefaultSkipByteBlock)
	require.NoError(t, err)

	// block 0 (bytes 0-15) is encrypted, blocks 1-9 (skip=9) stay clear.
	require.NotEqual(t, data[:16], cipherText[:16])
	require.Equal(t, data[16:160], cipherText[16:160])
}

func TestExpandIVPadsEightByteIV(t *testing.T) {
	iv := testIV8()
	full := expandIV(iv)
	require.Len(t, full, 16)
	require.Equal(t, iv, full[:8])
	require.Equal(t, make([]byte, 8), full[8:])
}

func TestExpandIVPassesThroughSixteenByteIV(t *testing.T) {
	iv := append(testIV8(), testIV8()...)
	require.Equal(t, iv, expandIV(iv))
}

func TestEncryptSampleUnrecognizedSchemeErrors(t *testing.T) {
	_, _, err := EncryptSample(Scheme{'x', 'x', 'x', 'x'}, testKey(), testIV8(), []byte{1, 2, 3}, nil, 0, 0)
	require.Error(t, err)
}
