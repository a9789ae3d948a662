// Package imgio holds the byte-level seams between the pipeline and its
// host: streaming sources, streaming targets and the shared buffer handle
// used when a source has to be materialized in memory.
package imgio

import "sync/atomic"

// Buffer is a shared handle over one immutable byte slab. Clone shares the
// slab and bumps the reference count; Close drops one reference and runs
// the release hook when the last handle goes away. A nil *Buffer is a valid
// "absent" handle: it reads as empty and tolerates Close.
type Buffer struct {
	slab   *slab
	closed atomic.Bool
}

type slab struct {
	data    []byte
	refs    atomic.Int64
	release func([]byte)
}

// NewBuffer wraps data in a fresh handle holding the only reference.
func NewBuffer(data []byte) *Buffer {
	return NewBufferWithRelease(data, nil)
}

// NewBufferWithRelease additionally registers a hook invoked exactly once,
// when the last handle closes.
func NewBufferWithRelease(data []byte, release func([]byte)) *Buffer {
	s := &slab{data: data, release: release}
	s.refs.Store(1)
	return &Buffer{slab: s}
}

// IsNil reports whether the handle refers to no slab at all.
func (b *Buffer) IsNil() bool {
	return b == nil || b.slab == nil
}

func (b *Buffer) Bytes() []byte {
	if b.IsNil() {
		return nil
	}
	return b.slab.data
}

func (b *Buffer) Len() int {
	if b.IsNil() {
		return 0
	}
	return len(b.slab.data)
}

// Clone returns a new handle sharing the slab; no bytes are copied.
func (b *Buffer) Clone() *Buffer {
	if b.IsNil() || b.closed.Load() {
		return nil
	}
	b.slab.refs.Add(1)
	return &Buffer{slab: b.slab}
}

// Close drops this handle's reference. Closing the same handle twice is a
// no-op; the slab is released when the final handle closes.
func (b *Buffer) Close() {
	if b.IsNil() || !b.closed.CompareAndSwap(false, true) {
		return
	}
	if b.slab.refs.Add(-1) == 0 {
		if b.slab.release != nil {
			b.slab.release(b.slab.data)
		}
		b.slab.data = nil
	}
}
