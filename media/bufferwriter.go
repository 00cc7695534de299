package media

import "encoding/binary"

// BufferWriter is a growing byte buffer with big-endian primitive writers
// for assembling payloads outside the box tree proper — the Go equivalent
// of shaka-packager's BufferWriter companion to BoxBuffer (box_buffer.h).
// The packages of this module build their boxes, PSSH and sidx included,
// through bmff.Writer and do not call it.
type BufferWriter struct {
	buf []byte
}

// Bytes returns the accumulated buffer.
func (b *BufferWriter) Bytes() []byte { return b.buf }

// Len returns the number of bytes written so far.
func (b *BufferWriter) Len() int { return len(b.buf) }

// WriteUint8 appends one byte.
func (b *BufferWriter) WriteUint8(v uint8) { b.buf = append(b.buf, v) }

// WriteUint16 appends a big-endian uint16.
func (b *BufferWriter) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// WriteUint32 appends a big-endian uint32.
func (b *BufferWriter) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// WriteUint64 appends a big-endian uint64.
func (b *BufferWriter) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// Write appends raw bytes.
func (b *BufferWriter) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}
