//go:build !govips || !cgo

package codec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/imgplex/imgplex/imagetype"
	"github.com/imgplex/imgplex/imgio"
)

func buildPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func buildGIF(t *testing.T, frames int, w, h int) []byte {
	t.Helper()
	out := &gif.GIF{}
	for i := 0; i < frames; i++ {
		pal := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{
			color.Black, color.White,
		})
		for p := range pal.Pix {
			pal.Pix[p] = uint8(i % 2)
		}
		out.Image = append(out.Image, pal)
		out.Delay = append(out.Delay, 4) // centiseconds
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	pngBytes := buildPNG(t, 4, 4, color.White)
	gifBytes := buildGIF(t, 2, 4, 4)

	cases := []struct {
		name string
		data []byte
		want imagetype.Type
		ok   bool
	}{
		{"png", pngBytes, imagetype.TypePNG, true},
		{"gif", gifBytes, imagetype.TypeGIF, true},
		{"jpeg magic", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0}, imagetype.TypeJPEG, true},
		{"tiff le", []byte("II*\x00rest"), imagetype.TypeTIFF, true},
		{"tiff be", []byte("MM\x00*rest"), imagetype.TypeTIFF, true},
		{"webp", append([]byte("RIFF\x00\x00\x00\x00WEBP"), 0), imagetype.TypeWEBP, true},
		{"avif", []byte("\x00\x00\x00 ftypavif...."), imagetype.TypeAVIF, true},
		{"garbage", []byte("not an image at all"), imagetype.TypeUnknown, false},
		{"empty", nil, imagetype.TypeUnknown, false},
	}
	for _, tc := range cases {
		got, ok := sniff(tc.data)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%s: sniff = %v/%v, want %v/%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDetectSourceDoesNotConsume(t *testing.T) {
	c := newCodec()
	data := buildPNG(t, 4, 4, color.White)
	src := imgio.NewBytesSource(data)

	typ, ok := c.DetectSource(src)
	if !ok || typ != imagetype.TypePNG {
		t.Fatalf("detect = %v/%v, want png", typ, ok)
	}

	// The full stream must still be readable from the start.
	img, err := c.Load(context.Background(), src, nil, typ, LoadParams{NumPages: 1})
	if err != nil {
		t.Fatalf("load after detect: %v", err)
	}
	defer img.Close()
	if img.Width() != 4 || img.Height() != 4 {
		t.Errorf("size = %dx%d, want 4x4", img.Width(), img.Height())
	}
}

func TestLoadGIFPages(t *testing.T) {
	c := newCodec()
	data := buildGIF(t, 4, 8, 6)
	buf := imgio.NewBuffer(data)
	defer buf.Close()

	img, err := c.Load(context.Background(), nil, buf, imagetype.TypeGIF, LoadParams{NumPages: 1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Close()

	if img.Pages() != 4 {
		t.Errorf("pages = %d, want 4", img.Pages())
	}
	if img.PageHeight() != 6 || img.Height() != 6 {
		t.Errorf("page height = %d height = %d, want 6/6", img.PageHeight(), img.Height())
	}

	// Loading three frames stacks them vertically.
	multi, err := c.Load(context.Background(), nil, buf, imagetype.TypeGIF, LoadParams{Page: 1, NumPages: 3})
	if err != nil {
		t.Fatalf("load multi: %v", err)
	}
	defer multi.Close()
	if multi.Height() != 18 {
		t.Errorf("multi height = %d, want 18", multi.Height())
	}
}

func TestExportRoundTrip(t *testing.T) {
	c := newCodec()
	data := buildPNG(t, 10, 5, color.RGBA{R: 255, A: 255})
	buf := imgio.NewBuffer(data)
	defer buf.Close()

	img, err := c.Load(context.Background(), nil, buf, imagetype.TypePNG, LoadParams{NumPages: 1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Close()

	for _, output := range []imagetype.Output{imagetype.OutputJPEG, imagetype.OutputPNG, imagetype.OutputGIF, imagetype.OutputTIFF} {
		target := imgio.NewBytesTarget()
		target.Setup(output.Ext())
		if err := img.Export(context.Background(), target, output, SaveParams{Quality: 80, CompressionLevel: 6}); err != nil {
			t.Fatalf("export %v: %v", output, err)
		}
		if len(target.Bytes()) == 0 {
			t.Errorf("export %v produced no bytes", output)
		}
	}
}

func TestExportWebpUnsupported(t *testing.T) {
	c := newCodec()
	data := buildPNG(t, 2, 2, color.White)
	buf := imgio.NewBuffer(data)
	defer buf.Close()

	img, err := c.Load(context.Background(), nil, buf, imagetype.TypePNG, LoadParams{NumPages: 1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Close()

	target := imgio.NewBytesTarget()
	if err := img.Export(context.Background(), target, imagetype.OutputWEBP, SaveParams{}); err == nil {
		t.Fatal("webp export should fail without govips")
	}
}

func TestHasAlpha(t *testing.T) {
	c := newCodec()

	opaque := buildPNG(t, 2, 2, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	translucent := buildPNG(t, 2, 2, color.RGBA{R: 1, G: 2, B: 3, A: 128})

	for _, tc := range []struct {
		data []byte
		want bool
	}{
		{opaque, false},
		{translucent, true},
	} {
		buf := imgio.NewBuffer(tc.data)
		img, err := c.Load(context.Background(), nil, buf, imagetype.TypePNG, LoadParams{NumPages: 1})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got := img.HasAlpha(); got != tc.want {
			t.Errorf("HasAlpha = %v, want %v", got, tc.want)
		}
		img.Close()
		buf.Close()
	}
}

func TestCopyIsolatesMetadata(t *testing.T) {
	c := newCodec()
	data := buildGIF(t, 2, 4, 4)
	buf := imgio.NewBuffer(data)
	defer buf.Close()

	img, err := c.Load(context.Background(), nil, buf, imagetype.TypeGIF, LoadParams{NumPages: 2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Close()

	dup, err := img.Copy()
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	defer dup.Close()

	dup.SetPageHeight(99)
	if img.PageHeight() == 99 {
		t.Error("copy metadata leaked back to the original")
	}
}
