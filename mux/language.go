package mux

import (
	"github.com/rs/zerolog/log"

	"github.com/tetsuo/dashmux/bmff"
)

// sanitizeLanguage packs code into mdhd's 15-bit field, warning and falling
// back to "und" on anything that isn't a valid 3-letter ISO-639-2/T code
// rather than failing the mux (§7: invalid language code is a named
// "user-visible failure" that must not abort the operation).
func sanitizeLanguage(code string) uint16 {
	if len(code) != 3 {
		if code != "" {
			log.Warn().Str("language", code).Msg("invalid language code, using und")
		}
		return bmff.PackLanguage("und")
	}
	packed := bmff.PackLanguage(code)
	if bmff.UnpackLanguage(packed) != code {
		log.Warn().Str("language", code).Msg("invalid language code, using und")
		return bmff.PackLanguage("und")
	}
	return packed
}
