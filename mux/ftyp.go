package mux

import "strings"

// buildFtyp derives the major/compatible brand list for an init segment,
// following shaka-packager's MP4Muxer::DelayInitializeMuxer (mp4_muxer.cc):
// a fixed ISOBMFF base, a DASH-profile brand, the codec's own fourcc, and
// two special cases carried over from the original even though spec.md's
// ftyp policy paragraph doesn't call them out by name (SPEC_FULL §4):
// Dolby Vision codec strings add "dby1", and CMAF compliance ("cmfc") is
// added unless the only codec present needs out-of-band parameter sets
// (avc3/hev1) in a single-stream init segment.
func buildFtyp(codecFourCCs []string, singleStream bool) (major [4]byte, minor uint32, compatible [][4]byte) {
	major = fourCC("mp41")
	minor = 512

	compatible = [][4]byte{fourCC("isom"), fourCC("iso8"), fourCC("mp41")}

	seen := map[[4]byte]bool{major: true, compatible[0]: true, compatible[1]: true, compatible[2]: true}
	add := func(s string) {
		c := fourCC(s)
		if !seen[c] {
			compatible = append(compatible, c)
			seen[c] = true
		}
	}

	add("dash")

	needsOutOfBandParamSets := false
	hasDolbyVision := false
	for _, codec := range codecFourCCs {
		if len(codec) >= 4 {
			add(codec[:4])
		}
		if codec == "avc3" || codec == "hev1" {
			needsOutOfBandParamSets = true
		}
		if strings.Contains(codec, "dvh") {
			hasDolbyVision = true
		}
	}

	if hasDolbyVision {
		add("dby1")
	}
	if !(singleStream && needsOutOfBandParamSets) {
		add("cmfc")
	}

	return major, minor, compatible
}

func fourCC(s string) [4]byte {
	var f [4]byte
	copy(f[:], s)
	return f
}
