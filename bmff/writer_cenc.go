package bmff

// WriteFrma emits a frma box naming the original, unencrypted sample entry
// format (spec §3.4).
func (w *Writer) WriteFrma(originalFormat BoxType) {
	w.StartBox(TypeFrma)
	w.putFourCC(originalFormat)
	w.EndBox()
}

// WriteSchm emits a schm box for one of the CENC protection schemes
// (cenc/cbc1/cens/cbcs).
func (w *Writer) WriteSchm(schemeType BoxType, schemeVersion uint32) {
	w.StartFullBox(TypeSchm, 0, 0)
	w.putFourCC(schemeType)
	w.putUint32(schemeVersion)
	w.EndBox()
}

// TencPattern carries the pattern-encryption byte counts used by cbcs/cens
// (zero for cenc/cbc1, which encrypt every byte of every subsample).
type TencPattern struct {
	CryptByteBlock uint8
	SkipByteBlock  uint8
}

// WriteTenc emits a tenc box. version 0 matches cenc/cbc1 (no pattern
// fields); version 1 adds the crypt/skip byte block pattern used by
// cens/cbcs, per the version-per-scheme rule in shaka's GenerateSinf.
func (w *Writer) WriteTenc(version uint8, pattern TencPattern, defaultIsProtected uint8, defaultPerSampleIVSize uint8, defaultKID [16]byte, constantIV []byte) {
	w.StartFullBox(TypeTenc, version, 0)
	w.putUint8(0) // reserved
	if version == 0 {
		w.putUint8(0) // reserved
	} else {
		w.putUint8(pattern.CryptByteBlock<<4 | pattern.SkipByteBlock)
	}
	w.putUint8(defaultIsProtected)
	w.putUint8(defaultPerSampleIVSize)
	w.buf = append(w.buf, defaultKID[:]...)
	if defaultPerSampleIVSize == 0 {
		w.putUint8(uint8(len(constantIV)))
		w.buf = append(w.buf, constantIV...)
	}
	w.EndBox()
}

// WriteSaiz emits a saiz box. If all entries share the same size,
// defaultSampleInfoSize carries it and sizes is nil.
func (w *Writer) WriteSaiz(auxInfoType BoxType, hasAuxInfoType bool, defaultSampleInfoSize uint8, sizes []uint8) {
	var flags uint32
	if hasAuxInfoType {
		flags = 1
	}
	w.StartFullBox(TypeSaiz, 0, flags)
	if hasAuxInfoType {
		w.putFourCC(auxInfoType)
		w.putUint32(0) // aux_info_type_parameter
	}
	w.putUint8(defaultSampleInfoSize)
	w.putUint32(uint32(len(sizes)))
	if defaultSampleInfoSize == 0 {
		for _, s := range sizes {
			w.putUint8(s)
		}
	}
	w.EndBox()
}

// WriteSaio emits a version-0 saio box with a single entry, the common case
// for one contiguous senc payload per fragment.
func (w *Writer) WriteSaio(auxInfoType BoxType, hasAuxInfoType bool) (offsetPos int) {
	var flags uint32
	if hasAuxInfoType {
		flags = 1
	}
	w.StartFullBox(TypeSaio, 0, flags)
	if hasAuxInfoType {
		w.putFourCC(auxInfoType)
		w.putUint32(0)
	}
	w.putUint32(1) // entry_count
	offsetPos = len(w.buf)
	w.putUint32(0) // placeholder, patched once the senc offset is known
	w.EndBox()
	return offsetPos
}

// SubsampleEntry is one (clear, cipher) byte-count pair within a sample's
// subsample encryption map (spec §3.4, §4.4).
type SubsampleEntry struct {
	BytesOfClearData     uint16
	BytesOfProtectedData uint32
}

// SencEntry is one sample's auxiliary encryption information.
type SencEntry struct {
	IV         []byte // 8 or 16 bytes
	Subsamples []SubsampleEntry
}

// WriteSenc emits a senc box. useSubsampleEncryption must be true whenever
// any entry has a non-empty Subsamples list (flags bit 0x2, ISO/IEC
// 23001-7 §7.2).
func (w *Writer) WriteSenc(useSubsampleEncryption bool, entries []SencEntry) {
	var flags uint32
	if useSubsampleEncryption {
		flags = 0x000002
	}
	w.StartFullBox(TypeSenc, 0, flags)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.Append(e.IV)
		if useSubsampleEncryption {
			w.putUint16(uint16(len(e.Subsamples)))
			for _, s := range e.Subsamples {
				w.putUint16(s.BytesOfClearData)
				w.putUint32(s.BytesOfProtectedData)
			}
		}
	}
	w.EndBox()
}

// WritePssh emits a version-1 pssh box (key ID list present; version 1 is
// used unconditionally since CENC key rotation makes the KID list
// routinely non-empty).
func (w *Writer) WritePssh(systemID [16]byte, kids [][16]byte, data []byte) {
	w.StartFullBox(TypePssh, 1, 0)
	w.buf = append(w.buf, systemID[:]...)
	w.putUint32(uint32(len(kids)))
	for _, k := range kids {
		w.buf = append(w.buf, k[:]...)
	}
	w.putUint32(uint32(len(data)))
	w.Append(data)
	w.EndBox()
}

// SeigEntry is one CENC sample-group entry (ISO/IEC 23001-7 §4, grouping_type
// 'seig').
type SeigEntry struct {
	IsProtected         uint8
	PerSampleIVSize     uint8
	KID                 [16]byte
	ConstantIVSize      uint8
	ConstantIV          []byte
	CryptByteBlock      uint8
	SkipByteBlock       uint8
}

// RollEntry is an audio roll-recovery sample-group entry (grouping_type
// 'roll', ISO/IEC 14496-12 §10.1), carried as the non-CENC arm of
// SampleGroupDescription for shared-box completeness.
type RollEntry struct {
	RollDistance int16
}

// GroupingTypeSeig and GroupingTypeRoll identify the sgpd/sbgp variant
// written by WriteSgpd/WriteSbgp.
var (
	GroupingTypeSeig = BoxType{'s', 'e', 'i', 'g'}
	GroupingTypeRoll = BoxType{'r', 'o', 'l', 'l'}
)

// WriteSgpdSeig emits a version-1 sgpd box (default_length path) for CENC
// key-rotation sample groups.
func (w *Writer) WriteSgpdSeig(defaultLength uint32, entries []SeigEntry) {
	w.StartFullBox(TypeSgpd, 1, 0)
	w.putFourCC(GroupingTypeSeig)
	w.putUint32(defaultLength)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putUint8(0) // reserved
		w.putUint8(e.CryptByteBlock<<4 | e.SkipByteBlock)
		w.putUint8(e.IsProtected)
		w.putUint8(e.PerSampleIVSize)
		w.buf = append(w.buf, e.KID[:]...)
		if e.IsProtected == 1 && e.PerSampleIVSize == 0 {
			w.putUint8(e.ConstantIVSize)
			w.buf = append(w.buf, e.ConstantIV...)
		}
	}
	w.EndBox()
}

// WriteSgpdRoll emits a version-1 sgpd box for 'roll' sample groups.
func (w *Writer) WriteSgpdRoll(entries []RollEntry) {
	w.StartFullBox(TypeSgpd, 1, 0)
	w.putFourCC(GroupingTypeRoll)
	w.putUint32(2) // default_length: one int16 per entry
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putInt16(e.RollDistance)
	}
	w.EndBox()
}

// WriteSbgp emits an sbgp box mapping runs of consecutive samples to
// sample-group-description indices (1-based; a group of 0 means "not a
// member of the group described by this grouping_type").
func (w *Writer) WriteSbgp(groupingType BoxType, entries [][2]uint32) {
	w.StartFullBox(TypeSbgp, 0, 0)
	w.putFourCC(groupingType)
	w.putUint32(uint32(len(entries)))
	for _, e := range entries {
		w.putUint32(e[0]) // sample_count
		w.putUint32(e[1]) // group_description_index
	}
	w.EndBox()
}

// WriteSinf writes the sinf container (frma + schm + schi{tenc}) for one
// encrypted sample entry. schi's tenc is written by the caller-supplied fn
// so callers can use WriteTenc with the right version/pattern for their
// scheme.
func (w *Writer) WriteSinf(originalFormat, schemeType BoxType, schemeVersion uint32, writeTenc func(w *Writer)) {
	w.StartBox(TypeSinf)
	w.WriteFrma(originalFormat)
	w.WriteSchm(schemeType, schemeVersion)
	w.StartBox(TypeSchi)
	writeTenc(w)
	w.EndBox()
	w.EndBox()
}
