// Package bmff implements encoding and decoding of ISO Base Media File
// Format (ISOBMFF) boxes: the container format used by fragmented and
// unfragmented MP4 files.
package bmff

// BoxType is a 4-byte box type identifier.
type BoxType [4]byte

func (t BoxType) String() string { return string(t[:]) }

// Known box types.
var (
	TypeFtyp = BoxType{'f', 't', 'y', 'p'} // File type and compatibility
	TypeStyp = BoxType{'s', 't', 'y', 'p'} // Segment type (fragmented MP4)
)

// Movie structure boxes (moov and children).
var (
	TypeMoov = BoxType{'m', 'o', 'o', 'v'} // Movie metadata container
	TypeMvhd = BoxType{'m', 'v', 'h', 'd'} // Movie header (timescale, duration)
	TypeTrak = BoxType{'t', 'r', 'a', 'k'} // Track container
	TypeTkhd = BoxType{'t', 'k', 'h', 'd'} // Track header (ID, dimensions)
	TypeEdts = BoxType{'e', 'd', 't', 's'} // Edit list container
	TypeElst = BoxType{'e', 'l', 's', 't'} // Edit list entries
	TypeMdia = BoxType{'m', 'd', 'i', 'a'} // Media information container
	TypeMdhd = BoxType{'m', 'd', 'h', 'd'} // Media header (timescale, duration)
	TypeHdlr = BoxType{'h', 'd', 'l', 'r'} // Handler reference (vide/soun/text)
	TypeMinf = BoxType{'m', 'i', 'n', 'f'} // Media information container
	TypeVmhd = BoxType{'v', 'm', 'h', 'd'} // Video media header
	TypeSmhd = BoxType{'s', 'm', 'h', 'd'} // Sound media header
	TypeNmhd = BoxType{'n', 'm', 'h', 'd'} // Null media header
	TypeSthd = BoxType{'s', 't', 'h', 'd'} // Subtitle media header
	TypeDinf = BoxType{'d', 'i', 'n', 'f'} // Data information container
	TypeDref = BoxType{'d', 'r', 'e', 'f'} // Data reference (URL/URN entries)
	TypeUrl  = BoxType{'u', 'r', 'l', ' '} // Data entry URL box
)

// Sample table boxes (stbl children).
var (
	TypeStbl = BoxType{'s', 't', 'b', 'l'} // Sample table container
	TypeStsd = BoxType{'s', 't', 's', 'd'} // Sample descriptions (codec config)
	TypeStts = BoxType{'s', 't', 't', 's'} // Decoding time-to-sample
	TypeCtts = BoxType{'c', 't', 't', 's'} // Composition time-to-sample
	TypeStsc = BoxType{'s', 't', 's', 'c'} // Sample-to-chunk mapping
	TypeStsz = BoxType{'s', 't', 's', 'z'} // Sample sizes
	TypeStco = BoxType{'s', 't', 'c', 'o'} // Chunk offsets (32-bit)
	TypeCo64 = BoxType{'c', 'o', '6', '4'} // Chunk offsets (64-bit)
	TypeStss = BoxType{'s', 't', 's', 's'} // Sync sample table (keyframes)
	TypeSbgp = BoxType{'s', 'b', 'g', 'p'} // Sample-to-group
	TypeSgpd = BoxType{'s', 'g', 'p', 'd'} // Sample group description
	TypeSaiz = BoxType{'s', 'a', 'i', 'z'} // Sample auxiliary information sizes
	TypeSaio = BoxType{'s', 'a', 'i', 'o'} // Sample auxiliary information offsets
)

// Fragment boxes (moof and children, mvex).
var (
	TypeMvex = BoxType{'m', 'v', 'e', 'x'} // Movie extends (signals fragmented file)
	TypeMehd = BoxType{'m', 'e', 'h', 'd'} // Movie extends header (fragment duration)
	TypeTrex = BoxType{'t', 'r', 'e', 'x'} // Track extends defaults
	TypeMoof = BoxType{'m', 'o', 'o', 'f'} // Movie fragment container
	TypeMfhd = BoxType{'m', 'f', 'h', 'd'} // Movie fragment header (sequence number)
	TypeTraf = BoxType{'t', 'r', 'a', 'f'} // Track fragment container
	TypeTfhd = BoxType{'t', 'f', 'h', 'd'} // Track fragment header
	TypeTfdt = BoxType{'t', 'f', 'd', 't'} // Track fragment decode time
	TypeTrun = BoxType{'t', 'r', 'u', 'n'} // Track run (per-sample metadata)
	TypeSidx = BoxType{'s', 'i', 'd', 'x'} // Segment index
)

// Data boxes.
var (
	TypeMdat = BoxType{'m', 'd', 'a', 't'} // Media data payload
	TypeFree = BoxType{'f', 'r', 'e', 'e'} // Free space (can be skipped)
)

// Sample entry boxes (children of stsd) and codec configuration boxes.
var (
	TypeAvc1 = BoxType{'a', 'v', 'c', '1'}
	TypeAvc3 = BoxType{'a', 'v', 'c', '3'}
	TypeHev1 = BoxType{'h', 'e', 'v', '1'}
	TypeHvc1 = BoxType{'h', 'v', 'c', '1'}
	TypeDvh1 = BoxType{'d', 'v', 'h', '1'}
	TypeDvhe = BoxType{'d', 'v', 'h', 'e'}
	TypeVp08 = BoxType{'v', 'p', '0', '8'}
	TypeVp09 = BoxType{'v', 'p', '0', '9'}
	TypeAv01 = BoxType{'a', 'v', '0', '1'}
	TypeEncv = BoxType{'e', 'n', 'c', 'v'}
	TypeEnca = BoxType{'e', 'n', 'c', 'a'}

	TypeAvcC = BoxType{'a', 'v', 'c', 'C'}
	TypeHvcC = BoxType{'h', 'v', 'c', 'C'}
	TypeVpcC = BoxType{'v', 'p', 'c', 'C'}
	TypeAv1C = BoxType{'a', 'v', '1', 'C'}
	TypeColr = BoxType{'c', 'o', 'l', 'r'}
	TypePasp = BoxType{'p', 'a', 's', 'p'}

	TypeMp4a = BoxType{'m', 'p', '4', 'a'}
	TypeAc3  = BoxType{'a', 'c', '-', '3'}
	TypeEc3  = BoxType{'e', 'c', '-', '3'}
	TypeOpus = BoxType{'O', 'p', 'u', 's'}
	TypeFlac = BoxType{'f', 'L', 'a', 'C'}
	TypeEsds = BoxType{'e', 's', 'd', 's'}
	TypeDOps = BoxType{'d', 'O', 'p', 's'}
	TypeDfLa = BoxType{'d', 'f', 'L', 'a'}
	TypeDac3 = BoxType{'d', 'a', 'c', '3'}
	TypeDec3 = BoxType{'d', 'e', 'c', '3'}

	TypeWvtt = BoxType{'w', 'v', 't', 't'}
	TypeStpp = BoxType{'s', 't', 'p', 'p'}
)

// CENC (Common Encryption) boxes.
var (
	TypeSinf = BoxType{'s', 'i', 'n', 'f'} // Protection scheme info container
	TypeFrma = BoxType{'f', 'r', 'm', 'a'} // Original format
	TypeSchm = BoxType{'s', 'c', 'h', 'm'} // Scheme type
	TypeSchi = BoxType{'s', 'c', 'h', 'i'} // Scheme information container
	TypeTenc = BoxType{'t', 'e', 'n', 'c'} // Track encryption
	TypeSenc = BoxType{'s', 'e', 'n', 'c'} // Sample encryption
	TypePssh = BoxType{'p', 's', 's', 'h'} // Protection system specific header
)

// IsFullBox returns true if the box type has version and flags fields.
func IsFullBox(t BoxType) bool {
	switch t {
	case TypeMvhd, TypeTkhd, TypeMdhd, TypeHdlr,
		TypeVmhd, TypeSmhd, TypeNmhd, TypeSthd, TypeDref,
		TypeStsd, TypeStts, TypeCtts, TypeStsc, TypeStsz,
		TypeStco, TypeCo64, TypeStss, TypeElst,
		TypeEsds, TypeMehd, TypeTrex,
		TypeMfhd, TypeTfhd, TypeTfdt, TypeTrun,
		TypeSbgp, TypeSgpd, TypeSaiz, TypeSaio,
		TypeSidx, TypeSchm, TypeTenc, TypeSenc, TypePssh, TypeUrl:
		return true
	}
	return false
}

// IsContainerBox returns true if the box type is a container that holds
// child boxes.
func IsContainerBox(t BoxType) bool {
	switch t {
	case TypeMoov, TypeTrak, TypeEdts, TypeMdia,
		TypeMinf, TypeDinf, TypeStbl, TypeMvex, TypeMoof, TypeTraf,
		TypeSinf, TypeSchi:
		return true
	}
	return false
}

// IsVisualSampleEntry reports whether t is a known visual sample entry
// format (§3.3).
func IsVisualSampleEntry(t BoxType) bool {
	switch t {
	case TypeAvc1, TypeAvc3, TypeHev1, TypeHvc1, TypeDvh1, TypeDvhe,
		TypeVp08, TypeVp09, TypeAv01, TypeEncv:
		return true
	}
	return false
}

// IsAudioSampleEntry reports whether t is a known audio sample entry format
// (§3.3).
func IsAudioSampleEntry(t BoxType) bool {
	switch t {
	case TypeMp4a, TypeAc3, TypeEc3, TypeOpus, TypeFlac, TypeEnca:
		return true
	}
	return false
}

// CodecConfigBoxType returns the codec-configuration box type nested inside
// a visual sample entry of the given format, per the table in spec §3.3.
func CodecConfigBoxType(format BoxType) (BoxType, bool) {
	switch format {
	case TypeAvc1, TypeAvc3, TypeEncv:
		return TypeAvcC, true
	case TypeHev1, TypeHvc1, TypeDvh1, TypeDvhe:
		return TypeHvcC, true
	case TypeVp08, TypeVp09:
		return TypeVpcC, true
	case TypeAv01:
		return TypeAv1C, true
	}
	return BoxType{}, false
}
