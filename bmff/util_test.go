package bmff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpackLanguageRoundTrip(t *testing.T) {
	for _, code := range []string{"eng", "deu", "jpn", "und"} {
		packed := PackLanguage(code)
		require.Equal(t, code, UnpackLanguage(packed))
	}
}

func TestPackLanguageInvalidFallsBackToUnd(t *testing.T) {
	require.Equal(t, PackLanguage("und"), PackLanguage("x"))
	require.Equal(t, PackLanguage("und"), PackLanguage("12345"))
}

func TestFixedPoint(t *testing.T) {
	require.Equal(t, uint32(0x00010000), Fixed16(1.0))
	require.Equal(t, uint16(0x0100), Fixed8(1.0))
}

func TestWriteReadMatrixRoundTrip(t *testing.T) {
	buf := make([]byte, 36)
	WriteMatrix(buf, IdentityMatrix)
	require.Equal(t, IdentityMatrix, ReadMatrix(buf))
}
