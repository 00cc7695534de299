package bmff

import (
	"fmt"
	"io"
)

// Entry describes one top-level box found by Scanner, without reading its
// body.
type Entry struct {
	Type   BoxType
	Size   uint64 // total size including header
	Offset int64  // file offset of the box header
	header int    // header length in bytes (8 or 16)
}

// DataSize returns the size of the box's payload, excluding its header.
func (e Entry) DataSize() int64 { return int64(e.Size) - int64(e.header) }

// Scanner walks the top-level boxes of a file without loading the whole
// file into memory, used for files too large to buffer whole (segment
// index construction, mp4dump on VOD assets).
type Scanner struct {
	r    io.ReadSeeker
	pos  int64
	size int64
	cur  Entry
	err  error
}

// NewScanner creates a Scanner over r, which must support Seek (so ReadBody
// can be skipped cheaply between Next calls).
func NewScanner(r io.ReadSeeker) (*Scanner, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("bmff: scanner: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("bmff: scanner: %w", err)
	}
	return &Scanner{r: r, size: size}, nil
}

// Err returns the first error encountered by Next.
func (s *Scanner) Err() error { return s.err }

// Entry returns the box found by the most recent successful Next.
func (s *Scanner) Entry() Entry { return s.cur }

// Next advances to the next top-level box, skipping over the body of the
// previous one if the caller didn't consume it.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	if s.pos >= s.size {
		return false
	}
	if _, err := s.r.Seek(s.pos, io.SeekStart); err != nil {
		s.err = fmt.Errorf("bmff: scanner: %w", err)
		return false
	}
	var hdr [8]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		s.err = fmt.Errorf("bmff: scanner: reading header at %d: %w", s.pos, err)
		return false
	}
	size := be.Uint32(hdr[:4])
	var t BoxType
	copy(t[:], hdr[4:8])

	header := 8
	var boxSize int64
	switch {
	case size == 1:
		var ext [8]byte
		if _, err := io.ReadFull(s.r, ext[:]); err != nil {
			s.err = fmt.Errorf("bmff: scanner: reading largesize at %d: %w", s.pos, err)
			return false
		}
		header = 16
		boxSize = int64(be.Uint64(ext[:]))
	case size == 0:
		boxSize = s.size - s.pos
	default:
		boxSize = int64(size)
	}

	if boxSize < int64(header) || s.pos+boxSize > s.size {
		s.err = fmt.Errorf("bmff: scanner: box %s at %d has invalid size %d", t, s.pos, boxSize)
		return false
	}

	s.cur = Entry{Type: t, Size: uint64(boxSize), Offset: s.pos, header: header}
	s.pos += boxSize
	return true
}

// ReadBody reads the current entry's payload (excluding header) into buf,
// which must have length >= Entry().DataSize(). ReadBody seeks to the
// payload itself; it reads the entry found by the most recent Next, so it
// must be called before the next Next.
func (s *Scanner) ReadBody(buf []byte) error {
	if _, err := s.r.Seek(s.cur.Offset+int64(s.cur.header), io.SeekStart); err != nil {
		return fmt.Errorf("bmff: scanner: %w", err)
	}
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return fmt.Errorf("bmff: scanner: reading body of %s: %w", s.cur.Type, err)
	}
	return nil
}
