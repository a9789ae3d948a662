package imgio

import (
	"bytes"
	"io"
)

// Target is the output sink: Setup announces the file extension before the
// first write, End completes the response.
type Target interface {
	Setup(ext string)
	io.Writer
	End() error
}

// BytesTarget captures the written output in memory, the form hosts and
// tests use to inspect the encoded result.
type BytesTarget struct {
	ext   string
	buf   bytes.Buffer
	ended bool
}

func NewBytesTarget() *BytesTarget {
	return &BytesTarget{}
}

func (t *BytesTarget) Setup(ext string) {
	t.ext = ext
}

func (t *BytesTarget) Write(p []byte) (int, error) {
	return t.buf.Write(p)
}

func (t *BytesTarget) End() error {
	t.ended = true
	return nil
}

// Ext returns the extension announced via Setup.
func (t *BytesTarget) Ext() string {
	return t.ext
}

func (t *BytesTarget) Bytes() []byte {
	return t.buf.Bytes()
}

// Ended reports whether End was called.
func (t *BytesTarget) Ended() bool {
	return t.ended
}

type writerTarget struct {
	w   io.Writer
	ext string
}

// NewWriterTarget streams the output into w; Setup and End only track
// state the writer itself cannot express.
func NewWriterTarget(w io.Writer) Target {
	return &writerTarget{w: w}
}

func (t *writerTarget) Setup(ext string) {
	t.ext = ext
}

func (t *writerTarget) Write(p []byte) (int, error) {
	return t.w.Write(p)
}

func (t *writerTarget) End() error {
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
