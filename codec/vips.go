//go:build govips && cgo

package codec

import (
	"context"
	"fmt"
	"io"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/imgplex/imgplex/imagetype"
	"github.com/imgplex/imgplex/imgio"
)

type vipsCodec struct{}

func newCodec() Codec {
	return vipsCodec{}
}

// sniffLen covers every magic signature vips recognizes, including the
// ftyp-box formats that need bytes past offset 8.
const sniffLen = 32

func (vipsCodec) DetectSource(src imgio.Source) (imagetype.Type, bool) {
	// Probe rewindability before reading anything, so a one-shot source is
	// never partially consumed.
	if err := src.Rewind(); err != nil {
		return imagetype.TypeUnknown, false
	}
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(src, head)
	if err := src.Rewind(); err != nil {
		return imagetype.TypeUnknown, false
	}
	return detectVips(head[:n])
}

func (vipsCodec) DetectBuffer(buf []byte) (imagetype.Type, bool) {
	return detectVips(buf)
}

func detectVips(data []byte) (imagetype.Type, bool) {
	typ := typeFromVips(vips.DetermineImageType(data))
	return typ, typ != imagetype.TypeUnknown
}

func typeFromVips(t vips.ImageType) imagetype.Type {
	switch t {
	case vips.ImageTypeJPEG:
		return imagetype.TypeJPEG
	case vips.ImageTypePNG:
		return imagetype.TypePNG
	case vips.ImageTypeWEBP:
		return imagetype.TypeWEBP
	case vips.ImageTypeGIF:
		return imagetype.TypeGIF
	case vips.ImageTypeTIFF:
		return imagetype.TypeTIFF
	case vips.ImageTypeAVIF:
		return imagetype.TypeAVIF
	case vips.ImageTypeHEIF:
		return imagetype.TypeHEIF
	case vips.ImageTypeBMP:
		return imagetype.TypeBMP
	case vips.ImageTypeSVG:
		return imagetype.TypeSVG
	case vips.ImageTypePDF:
		return imagetype.TypePDF
	case vips.ImageTypeMagick:
		return imagetype.TypeMagick
	default:
		return imagetype.TypeUnknown
	}
}

func (vipsCodec) Load(ctx context.Context, src imgio.Source, buf *imgio.Buffer, typ imagetype.Type, params LoadParams) (Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data := buf.Bytes()
	if buf.IsNil() {
		if err := src.Rewind(); err != nil {
			return nil, fmt.Errorf("rewind source: %w", err)
		}
		var err error
		data, err = io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
	}

	// govips exposes no sequential/random access knob; params.Access only
	// matters to the fallback backend.
	importParams := vips.NewImportParams()
	importParams.FailOnError.Set(params.FailOnError)
	importParams.Page.Set(params.Page)
	if params.NumPages != 0 {
		importParams.NumPages.Set(params.NumPages)
	}

	ref, err := vips.LoadImageFromBuffer(data, importParams)
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", typ, err)
	}
	return &vipsImage{ref: ref, format: typ, loop: -1}, nil
}

type vipsImage struct {
	ref    *vips.ImageRef
	format imagetype.Type
	// loop is carried on the wrapper because govips exposes no setter for
	// the gif-loop metadata.
	// TODO: push loop into the image once govips grows a loop setter.
	loop int
}

func (i *vipsImage) Width() int  { return i.ref.Width() }

func (i *vipsImage) Height() int { return i.ref.Height() }

func (i *vipsImage) Pages() int {
	if n := i.ref.Pages(); n > 0 {
		return n
	}
	return 1
}

func (i *vipsImage) PageHeight() int { return i.ref.PageHeight() }

func (i *vipsImage) HasAlpha() bool { return i.ref.HasAlpha() }

func (i *vipsImage) Orientation() int { return i.ref.Orientation() }

func (i *vipsImage) Format() imagetype.Type { return i.format }

func (i *vipsImage) SetPageHeight(h int) { _ = i.ref.SetPageHeight(h) }

func (i *vipsImage) SetLoop(loop int) { i.loop = loop }

func (i *vipsImage) SetDelay(ms []int) { _ = i.ref.SetPageDelay(ms) }

func (i *vipsImage) Close() { i.ref.Close() }

func (i *vipsImage) Copy() (Image, error) {
	ref, err := i.ref.Copy()
	if err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	return &vipsImage{ref: ref, format: i.format, loop: i.loop}, nil
}

func (i *vipsImage) Export(ctx context.Context, target imgio.Target, output imagetype.Output, params SaveParams) error {
	var (
		data []byte
		err  error
	)

	switch output {
	case imagetype.OutputJPEG:
		p := vips.NewJpegExportParams()
		p.StripMetadata = params.StripMetadata
		p.Quality = params.Quality
		p.Interlace = params.Interlace
		p.OptimizeCoding = params.OptimizeCoding
		data, _, err = i.ref.ExportJpeg(p)
	case imagetype.OutputPNG:
		p := vips.NewPngExportParams()
		p.StripMetadata = params.StripMetadata
		p.Compression = params.CompressionLevel
		p.Interlace = params.Interlace
		if params.AdaptiveFilter {
			p.Filter = vips.PngFilterAll
		} else {
			p.Filter = vips.PngFilterNone
		}
		data, _, err = i.ref.ExportPng(p)
	case imagetype.OutputWEBP:
		p := vips.NewWebpExportParams()
		p.StripMetadata = params.StripMetadata
		p.Quality = params.Quality
		p.Lossless = params.Lossless
		p.ReductionEffort = params.Effort
		data, _, err = i.ref.ExportWebp(p)
	case imagetype.OutputAVIF:
		p := vips.NewAvifExportParams()
		p.StripMetadata = params.StripMetadata
		p.Quality = params.Quality
		p.Speed = params.Effort
		data, _, err = i.ref.ExportAvif(p)
	case imagetype.OutputTIFF:
		p := vips.NewTiffExportParams()
		p.StripMetadata = params.StripMetadata
		p.Quality = params.Quality
		p.Compression = vips.TiffCompressionJpeg
		data, _, err = i.ref.ExportTiff(p)
	case imagetype.OutputGIF:
		p := vips.NewGifExportParams()
		p.StripMetadata = params.StripMetadata
		p.EffortLevel = params.Effort
		data, _, err = i.ref.ExportGIF(p)
	default:
		return fmt.Errorf("no encoder for output %q", output)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", output, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := target.Write(data); err != nil {
		return fmt.Errorf("write target: %w", err)
	}
	return nil
}
