package mux

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFtypBaseBrands(t *testing.T) {
	major, minor, compatible := buildFtyp([]string{"avc1"}, false)
	require.Equal(t, fourCC("mp41"), major)
	require.Equal(t, uint32(512), minor)
	require.Contains(t, compatible, fourCC("isom"))
	require.Contains(t, compatible, fourCC("dash"))
	require.Contains(t, compatible, fourCC("avc1"))
	require.Contains(t, compatible, fourCC("cmfc"))
}

func TestBuildFtypSingleStreamOutOfBandParamSetsOmitsCmfc(t *testing.T) {
	_, _, compatible := buildFtyp([]string{"avc3"}, true)
	require.NotContains(t, compatible, fourCC("cmfc"))
}

func TestBuildFtypMultiStreamOutOfBandParamSetsKeepsCmfc(t *testing.T) {
	_, _, compatible := buildFtyp([]string{"avc3"}, false)
	require.Contains(t, compatible, fourCC("cmfc"))
}

func TestBuildFtypDolbyVisionAddsDby1(t *testing.T) {
	_, _, compatible := buildFtyp([]string{"dvh1"}, true)
	require.Contains(t, compatible, fourCC("dby1"))
}

func TestBuildFtypNoDuplicateBrands(t *testing.T) {
	_, _, compatible := buildFtyp([]string{"isom", "dash"}, false)
	seen := map[[4]byte]int{}
	for _, c := range compatible {
		seen[c]++
	}
	for brand, count := range seen {
		require.Equalf(t, 1, count, "brand %q appeared %d times", brand, count)
	}
}
