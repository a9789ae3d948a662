package imgio

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBytesSourceRewind(t *testing.T) {
	src := NewBytesSource([]byte("abcdef"))

	head := make([]byte, 3)
	if _, err := io.ReadFull(src, head); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := src.Rewind(); err != nil {
		t.Fatalf("rewind: %v", err)
	}

	all, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if string(all) != "abcdef" {
		t.Fatalf("read %q after rewind, want full input", all)
	}
}

func TestReaderSourceRewind(t *testing.T) {
	// A seeking reader rewinds.
	src := NewReaderSource(bytes.NewReader([]byte("abc")))
	if _, err := io.ReadAll(src); err != nil {
		t.Fatalf("read all: %v", err)
	}
	if err := src.Rewind(); err != nil {
		t.Fatalf("rewind seeker: %v", err)
	}

	// A plain reader does not.
	src = NewReaderSource(iotest{strings.NewReader("abc")})
	if err := src.Rewind(); err == nil {
		t.Fatal("expected rewind to fail for a non-seeking reader")
	}
}

// iotest hides the Seeker interface of the wrapped reader.
type iotest struct{ r io.Reader }

func (w iotest) Read(p []byte) (int, error) { return w.r.Read(p) }

func TestBytesTarget(t *testing.T) {
	target := NewBytesTarget()
	target.Setup(".png")
	if _, err := target.Write([]byte("data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := target.End(); err != nil {
		t.Fatalf("end: %v", err)
	}

	if target.Ext() != ".png" {
		t.Errorf("ext = %q, want .png", target.Ext())
	}
	if string(target.Bytes()) != "data" {
		t.Errorf("bytes = %q, want %q", target.Bytes(), "data")
	}
	if !target.Ended() {
		t.Error("target should report ended")
	}
}

func TestWriterTarget(t *testing.T) {
	var sink bytes.Buffer
	target := NewWriterTarget(&sink)
	target.Setup(".jpg")
	if _, err := target.Write([]byte("jpeg bytes")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := target.End(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if sink.String() != "jpeg bytes" {
		t.Errorf("sink = %q, want %q", sink.String(), "jpeg bytes")
	}
}
