package segment

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tetsuo/dashmux/media"
)

// fakeWriteSeeker is an in-memory media.WriteSeeker for tests that never
// touch a real filesystem.
type fakeWriteSeeker struct {
	buf    bytes.Buffer
	pos    int64
	closed bool
}

func (f *fakeWriteSeeker) Write(p []byte) (int, error) {
	n, err := f.buf.Write(p)
	f.pos += int64(n)
	return n, err
}

func (f *fakeWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	case io.SeekEnd:
		f.pos = int64(f.buf.Len()) + offset
	}
	return f.pos, nil
}

func (f *fakeWriteSeeker) Close() error {
	f.closed = true
	return nil
}

func (f *fakeWriteSeeker) Bytes() []byte { return f.buf.Bytes() }

// fakeOpener hands out a fresh fakeWriteSeeker per segment, recording every
// one it opened so a test can inspect them afterward.
type fakeOpener struct {
	opened []*fakeWriteSeeker
}

func (o *fakeOpener) OpenSegment(segmentNumber uint32, segmentTime uint64) (media.WriteSeeker, error) {
	if segmentNumber == 0 {
		return nil, fmt.Errorf("test opener: refusing segment 0")
	}
	w := &fakeWriteSeeker{}
	o.opened = append(o.opened, w)
	return w, nil
}
