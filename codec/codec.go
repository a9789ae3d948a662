// Package codec is the seam between the pipeline and the native image
// library. The pipeline decides which pages to load and which options to
// save with; the codec does the pixel work. A govips-backed implementation
// is selected with `-tags govips` on cgo builds, with a pure-Go fallback
// otherwise.
package codec

import (
	"context"

	"github.com/imgplex/imgplex/imagetype"
	"github.com/imgplex/imgplex/imgio"
)

// MaxCoord caps any single image dimension, mirroring the native library's
// coordinate limit.
const MaxCoord = 10_000_000

// Access selects the decode access pattern. Sequential is the default;
// operations that scan the whole image up front (trim) need random access.
type Access int

const (
	AccessSequential Access = iota
	AccessRandom
)

// LoadParams select how much of a multi-page document is decoded.
type LoadParams struct {
	Access      Access
	FailOnError bool
	Page        int
	NumPages    int
}

// SaveParams carry the per-format encode options derived by the pipeline.
// Each backend reads only the fields that apply to the requested format.
type SaveParams struct {
	StripMetadata    bool
	Quality          int
	Interlace        bool
	OptimizeCoding   bool
	CompressionLevel int
	AdaptiveFilter   bool
	Lossless         bool
	Effort           int
}

// Image is one decoded image. The caller owns it and must Close it; Copy
// produces an independent handle so metadata changes never leak back.
type Image interface {
	Width() int
	Height() int
	// Pages is the total page count of the source document, 1 for
	// single-page formats.
	Pages() int
	PageHeight() int
	HasAlpha() bool
	// Orientation is the EXIF orientation code, 0 when absent.
	Orientation() int
	Format() imagetype.Type

	Copy() (Image, error)
	SetPageHeight(h int)
	SetLoop(loop int)
	// SetDelay attaches per-frame delays in milliseconds.
	SetDelay(ms []int)

	Export(ctx context.Context, target imgio.Target, output imagetype.Output, params SaveParams) error
	Close()
}

// Codec detects and decodes encoded inputs.
type Codec interface {
	// DetectSource sniffs the format from a streaming source without
	// consuming it. Sources that cannot rewind are reported undetected so
	// the pipeline falls back to buffer materialization.
	DetectSource(src imgio.Source) (imagetype.Type, bool)
	DetectBuffer(buf []byte) (imagetype.Type, bool)
	// Load decodes from buf when it is non-nil, from src otherwise.
	Load(ctx context.Context, src imgio.Source, buf *imgio.Buffer, typ imagetype.Type, params LoadParams) (Image, error)
}

// Default returns the backend selected at build time.
func Default() Codec {
	return newCodec()
}
