package bmff

// WriteDref opens a dref box with the given entry count and writes the
// entry_count field; the caller writes entryCount child url/urn boxes and
// calls EndBox.
func (w *Writer) WriteDref(entryCount uint32) {
	w.StartFullBox(TypeDref, 0, 0)
	w.putUint32(entryCount)
}

// WriteURL emits a self-contained data entry url box (ISO/IEC 14496-12
// §8.7.2). flags bit 0x1 set means the referenced media is in the same
// file, the common case for a muxed DASH/CMAF segment; no location string
// is written in that case.
func (w *Writer) WriteURL(flags uint32) {
	w.StartFullBox(TypeUrl, 0, flags)
	if flags&0x1 == 0 {
		w.putUint8(0) // empty location string's NUL terminator
	}
	w.EndBox()
}
