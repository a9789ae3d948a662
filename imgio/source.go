package imgio

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotRewindable marks a source that can only be read once.
var ErrNotRewindable = errors.New("source cannot rewind")

// Source is a stream of encoded input bytes. Rewind returns the read
// position to the start; a source that cannot rewind forces the pipeline to
// materialize the input into a Buffer before any second pass.
type Source interface {
	io.Reader
	Rewind() error
}

type bytesSource struct {
	data []byte
	off  int
}

// NewBytesSource wraps an in-memory input; it always rewinds.
func NewBytesSource(data []byte) Source {
	return &bytesSource{data: data}
}

func (s *bytesSource) Read(p []byte) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.off:])
	s.off += n
	return n, nil
}

func (s *bytesSource) Rewind() error {
	s.off = 0
	return nil
}

type readerSource struct {
	r io.Reader
}

// NewReaderSource wraps an arbitrary reader. Rewind succeeds only when the
// reader seeks; anything else reports ErrNotRewindable.
func NewReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

// NewFileSource wraps an open file; files seek, so the source rewinds.
func NewFileSource(f *os.File) Source {
	return &readerSource{r: f}
}

func (s *readerSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *readerSource) Rewind() error {
	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return ErrNotRewindable
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind source: %w", err)
	}
	return nil
}
