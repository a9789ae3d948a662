package imgio

import "testing"

func TestBufferReleaseExactlyOnce(t *testing.T) {
	released := 0
	b := NewBufferWithRelease([]byte("pixels"), func([]byte) { released++ })

	c := b.Clone()
	b.Close()
	if released != 0 {
		t.Fatal("slab released while a clone is alive")
	}
	if string(c.Bytes()) != "pixels" {
		t.Fatalf("clone bytes = %q, want %q", c.Bytes(), "pixels")
	}

	c.Close()
	if released != 1 {
		t.Fatalf("released %d times, want exactly once", released)
	}

	// Closing the same handles again must not double-release.
	b.Close()
	c.Close()
	if released != 1 {
		t.Fatalf("released %d times after re-close, want 1", released)
	}
}

func TestBufferNilHandle(t *testing.T) {
	var b *Buffer
	if !b.IsNil() {
		t.Error("nil handle should report IsNil")
	}
	if b.Len() != 0 || b.Bytes() != nil {
		t.Error("nil handle should read as empty")
	}
	b.Close() // must not panic
	if c := b.Clone(); !c.IsNil() {
		t.Error("clone of nil should stay nil")
	}
}

func TestBufferCloneSharesSlab(t *testing.T) {
	data := []byte{1, 2, 3}
	b := NewBuffer(data)
	defer b.Close()

	c := b.Clone()
	defer c.Close()
	if &c.Bytes()[0] != &b.Bytes()[0] {
		t.Error("clone must share the slab, not copy it")
	}
}
