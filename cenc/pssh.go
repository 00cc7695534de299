package cenc

import (
	"github.com/google/uuid"

	"github.com/tetsuo/dashmux/bmff"
)

// PSSHBox describes one DRM system's protection header to embed in the
// init segment's moov or the stream's first moof (spec §3.4, §6.2).
type PSSHBox struct {
	SystemID uuid.UUID
	KeyIDs   [][16]byte
	Data     []byte // system-specific init data, opaque to this module
}

// BuildPSSH renders p as a pssh box.
func BuildPSSH(p PSSHBox) []byte {
	w := bmff.NewWriter()
	var sys [16]byte
	copy(sys[:], p.SystemID[:])
	w.WritePssh(sys, p.KeyIDs, p.Data)
	return w.Bytes()
}

// CommonSystemID returns the registered uuid for a handful of widely
// deployed DRM systems, recognized by the lowercase name used in DASH-IF
// interop guidelines ("widevine", "playready", "fairplay", "clearkey").
// The zero UUID and false are returned for anything else; callers with a
// system ID the caller already has as a uuid.UUID don't need this helper.
func CommonSystemID(name string) (uuid.UUID, bool) {
	switch name {
	case "widevine":
		return uuid.MustParse("edef8ba9-79d6-4ace-a3c8-27dcd51d21ed"), true
	case "playready":
		return uuid.MustParse("9a04f079-9840-4286-ab92-e65be0885f95"), true
	case "fairplay":
		return uuid.MustParse("94ce86fb-07ff-4f43-adb8-93d2fa968ca2"), true
	case "clearkey":
		return uuid.MustParse("e2719d58-a985-b3c9-781a-b030af78d30e"), true
	default:
		return uuid.UUID{}, false
	}
}
