package bmff

// sampleEntryHeader writes the 6 reserved bytes + data_reference_index
// common to every SampleEntry (ISO/IEC 14496-12 §8.5.2.2).
func (w *Writer) sampleEntryHeader(dataReferenceIndex uint16) {
	w.putZero(6)
	w.putUint16(dataReferenceIndex)
}

// StartVisualSampleEntry opens a visual sample entry box (avc1/avc3/hev1/
// hvc1/encv/...). The caller must write the codec configuration box (and,
// for encv, a sinf box) and call EndBox.
func (w *Writer) StartVisualSampleEntry(format BoxType, width, height uint16, compressorName string) {
	w.StartBox(format)
	w.sampleEntryHeader(1)
	w.putUint16(0) // pre_defined
	w.putUint16(0) // reserved
	w.putZero(12)  // pre_defined[3]
	w.putUint16(width)
	w.putUint16(height)
	w.putUint32(0x00480000) // horizresolution 72dpi
	w.putUint32(0x00480000) // vertresolution 72dpi
	w.putUint32(0)          // reserved
	w.putUint16(1)          // frame_count
	w.putCompressorName(compressorName)
	w.putUint16(0x0018) // depth
	w.putInt16(-1)      // pre_defined
}

// putCompressorName writes the fixed 32-byte pascal-string compressor name
// field (name truncated to 31 bytes if longer).
func (w *Writer) putCompressorName(name string) {
	if len(name) > 31 {
		name = name[:31]
	}
	w.putUint8(uint8(len(name)))
	w.buf = append(w.buf, name...)
	w.putZero(31 - len(name))
}

// StartAudioSampleEntry opens an audio sample entry box (mp4a/ac-3/ec-3/
// Opus/encа/...). The caller must write the codec-specific config box and
// call EndBox.
func (w *Writer) StartAudioSampleEntry(format BoxType, channelCount, sampleSize uint16, sampleRate uint32) {
	w.StartBox(format)
	w.sampleEntryHeader(1)
	w.putUint64(0) // reserved[2]
	w.putUint16(channelCount)
	w.putUint16(sampleSize)
	w.putUint16(0) // pre_defined
	w.putUint16(0) // reserved
	w.putUint32(sampleRate << 16)
}

// WritePasp emits a pasp box (ISO/IEC 14496-12 §12.1.4) carrying the pixel
// aspect ratio as a simple fraction hSpacing:vSpacing.
func (w *Writer) WritePasp(hSpacing, vSpacing uint32) {
	w.StartBox(TypePasp)
	w.putUint32(hSpacing)
	w.putUint32(vSpacing)
	w.EndBox()
}

// WriteAvcC emits an avcC box from an already-assembled AVCDecoderConfigurationRecord.
func (w *Writer) WriteAvcC(record []byte) {
	w.StartBox(TypeAvcC)
	w.Append(record)
	w.EndBox()
}

// WriteHvcC emits an hvcC box from an already-assembled HEVCDecoderConfigurationRecord.
func (w *Writer) WriteHvcC(record []byte) {
	w.StartBox(TypeHvcC)
	w.Append(record)
	w.EndBox()
}

// WriteEsds emits an esds box wrapping a pre-built MPEG-4 ES_Descriptor.
func (w *Writer) WriteEsds(esDescriptor []byte) {
	w.StartFullBox(TypeEsds, 0, 0)
	w.Append(esDescriptor)
	w.EndBox()
}

// WriteDac3 emits a dac3 box (AC-3 specific box, ETSI TS 102 366 Annex F).
func (w *Writer) WriteDac3(payload []byte) {
	w.StartBox(TypeDac3)
	w.Append(payload)
	w.EndBox()
}

// WriteDec3 emits a dec3 box (E-AC-3 specific box).
func (w *Writer) WriteDec3(payload []byte) {
	w.StartBox(TypeDec3)
	w.Append(payload)
	w.EndBox()
}

// WriteDOps emits a dOps box (Opus specific box, per the Opus-in-ISOBMFF spec).
func (w *Writer) WriteDOps(payload []byte) {
	w.StartBox(TypeDOps)
	w.Append(payload)
	w.EndBox()
}

// StartStsd opens an stsd box; the caller writes one sample entry (or two,
// for a clear-lead encrypted track: the protected entry followed by a clear
// entry) and calls EndBox.
func (w *Writer) StartStsd(entryCount uint32) {
	w.StartFullBox(TypeStsd, 0, 0)
	w.putUint32(entryCount)
}
