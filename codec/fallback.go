//go:build !govips || !cgo

package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/imgplex/imgplex/imagetype"
	"github.com/imgplex/imgplex/imgio"
)

type fallbackCodec struct{}

func newCodec() Codec {
	return fallbackCodec{}
}

// sniffLen covers every magic signature below, including the ftyp brands at
// offset 8.
const sniffLen = 32

func (fallbackCodec) DetectSource(src imgio.Source) (imagetype.Type, bool) {
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
	return sniff(head[:n])
}

func (fallbackCodec) DetectBuffer(buf []byte) (imagetype.Type, bool) {
	return sniff(buf)
}

func sniff(data []byte) (imagetype.Type, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return imagetype.TypeJPEG, true
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return imagetype.TypePNG, true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return imagetype.TypeGIF, true
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return imagetype.TypeWEBP, true
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return imagetype.TypeTIFF, true
	case bytes.HasPrefix(data, []byte("BM")):
		return imagetype.TypeBMP, true
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		switch string(data[8:12]) {
		case "avif", "avis":
			return imagetype.TypeAVIF, true
		case "heic", "heix", "mif1", "msf1":
			return imagetype.TypeHEIF, true
		}
	}
	return imagetype.TypeUnknown, false
}

func (fallbackCodec) Load(ctx context.Context, src imgio.Source, buf *imgio.Buffer, typ imagetype.Type, params LoadParams) (Image, error) {
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

	if typ == imagetype.TypeGIF {
		return loadGIF(data, params)
	}

	m, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", typ, err)
	}

	img := &fallbackImage{
		format:     typ,
		frames:     []image.Image{m},
		pages:      1,
		pageHeight: m.Bounds().Dy(),
		loop:       -1,
	}
	if typ == imagetype.TypeJPEG || typ == imagetype.TypeTIFF {
		img.orientation = exifOrientation(data)
	}
	return img, nil
}

// loadGIF composes the requested frame range onto a shared canvas,
// honoring per-frame disposal so partial frames render the way a viewer
// would show them.
func loadGIF(data []byte, params LoadParams) (Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	total := len(g.Image)
	if total == 0 {
		return nil, fmt.Errorf("decode gif: no frames")
	}

	page := params.Page
	if page < 0 || page >= total {
		page = 0
	}
	n := params.NumPages
	if n < 1 {
		n = 1
	}
	if page+n > total {
		n = total - page
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewRGBA(bounds)
	frames := make([]image.Image, 0, n)
	delays := make([]int, 0, n)
	for i := 0; i < page+n; i++ {
		frame := g.Image[i]

		var before *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			before = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		if i >= page {
			frames = append(frames, cloneRGBA(canvas))
			delay := 0
			if i < len(g.Delay) {
				delay = g.Delay[i] * 10 // centiseconds to milliseconds
			}
			delays = append(delays, delay)
		}

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				if before != nil {
					canvas = before
				}
			}
		}
	}

	return &fallbackImage{
		format:     imagetype.TypeGIF,
		frames:     frames,
		pages:      total,
		pageHeight: bounds.Dy(),
		delays:     delays,
		loop:       -1,
	}, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 0
	}
	return o
}

// fallbackImage keeps decoded frames in memory. Frames are immutable once
// decoded, so Copy shares pixel data and duplicates only the metadata.
type fallbackImage struct {
	format      imagetype.Type
	frames      []image.Image
	pages       int // total pages in the source document
	pageHeight  int
	orientation int
	delays      []int // milliseconds per frame
	loop        int   // -1 when unset
}

func (i *fallbackImage) Width() int {
	return i.frames[0].Bounds().Dx()
}

// Height reports the combined height of every loaded frame, matching the
// native library's vertical frame-strip layout for animated loads.
func (i *fallbackImage) Height() int {
	return i.pageHeight * len(i.frames)
}

func (i *fallbackImage) Pages() int { return i.pages }

func (i *fallbackImage) PageHeight() int { return i.pageHeight }

func (i *fallbackImage) Orientation() int { return i.orientation }

func (i *fallbackImage) Format() imagetype.Type { return i.format }

func (i *fallbackImage) SetPageHeight(h int) { i.pageHeight = h }

func (i *fallbackImage) SetLoop(loop int) { i.loop = loop }

func (i *fallbackImage) Close() {}

func (i *fallbackImage) SetDelay(ms []int) {
	i.delays = append([]int(nil), ms...)
}

func (i *fallbackImage) HasAlpha() bool {
	for _, frame := range i.frames {
		if op, ok := frame.(interface{ Opaque() bool }); ok {
			if !op.Opaque() {
				return true
			}
		}
	}
	return false
}

func (i *fallbackImage) Copy() (Image, error) {
	dup := *i
	dup.frames = append([]image.Image(nil), i.frames...)
	dup.delays = append([]int(nil), i.delays...)
	return &dup, nil
}

func (i *fallbackImage) Export(ctx context.Context, target imgio.Target, output imagetype.Output, params SaveParams) error {
	var buf bytes.Buffer
	var err error

	switch output {
	case imagetype.OutputJPEG:
		quality := params.Quality
		if quality < 1 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(&buf, i.frames[0], &jpeg.Options{Quality: quality})
	case imagetype.OutputPNG:
		enc := png.Encoder{CompressionLevel: pngLevel(params.CompressionLevel)}
		err = enc.Encode(&buf, i.frames[0])
	case imagetype.OutputGIF:
		err = i.encodeGIF(&buf)
	case imagetype.OutputTIFF:
		err = tiff.Encode(&buf, i.frames[0], &tiff.Options{Compression: tiff.Deflate})
	case imagetype.OutputWEBP, imagetype.OutputAVIF:
		return fmt.Errorf("%s encode requires the govips build tag", output)
	default:
		return fmt.Errorf("no encoder for output %q", output)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", output, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := target.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write target: %w", err)
	}
	return nil
}

func (i *fallbackImage) encodeGIF(w io.Writer) error {
	out := &gif.GIF{
		Image:    make([]*image.Paletted, 0, len(i.frames)),
		Delay:    make([]int, 0, len(i.frames)),
		Disposal: make([]byte, 0, len(i.frames)),
	}
	if i.loop >= 0 {
		out.LoopCount = i.loop
	}

	for idx, frame := range i.frames {
		pal := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, frame.Bounds(), frame, frame.Bounds().Min)
		out.Image = append(out.Image, pal)

		delay := 0
		if idx < len(i.delays) {
			delay = i.delays[idx] / 10 // milliseconds to centiseconds
		}
		out.Delay = append(out.Delay, delay)
		out.Disposal = append(out.Disposal, gif.DisposalNone)
	}

	return gif.EncodeAll(w, out)
}

func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level >= 7:
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}
