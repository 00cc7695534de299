package mux

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetsuo/dashmux/bmff"
)

func TestSanitizeLanguageValidCode(t *testing.T) {
	packed := sanitizeLanguage("eng")
	require.Equal(t, "eng", bmff.UnpackLanguage(packed))
}

func TestSanitizeLanguageEmptyFallsBackToUnd(t *testing.T) {
	packed := sanitizeLanguage("")
	require.Equal(t, "und", bmff.UnpackLanguage(packed))
}

func TestSanitizeLanguageWrongLengthFallsBackToUnd(t *testing.T) {
	packed := sanitizeLanguage("english")
	require.Equal(t, "und", bmff.UnpackLanguage(packed))
}
