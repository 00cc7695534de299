package cenc

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/bmff"
)

func TestBuildPSSHRoundTrip(t *testing.T) {
	sysID, ok := CommonSystemID("widevine")
	require.True(t, ok)

	kid := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	box := BuildPSSH(PSSHBox{SystemID: sysID, KeyIDs: [][16]byte{kid}, Data: []byte{0xde, 0xad, 0xbe, 0xef}})

	r := bmff.NewReader(box)
	require.True(t, r.Next())
	require.Equal(t, bmff.TypePssh, r.Type())
	require.Equal(t, uint8(1), r.Version())

	d := r.Data()
	require.Equal(t, sysID[:], d[0:16])
}

func TestCommonSystemIDRecognizesKnownNames(t *testing.T) {
	for _, name := range []string{"widevine", "playready", "fairplay", "clearkey"} {
		id, ok := CommonSystemID(name)
		require.True(t, ok)
		require.NotEqual(t, uuid.UUID{}, id)
	}
}

func TestCommonSystemIDUnknownNameReturnsFalse(t *testing.T) {
	id, ok := CommonSystemID("nonexistent-drm")
	require.False(t, ok)
	require.Equal(t, uuid.UUID{}, id)
}
