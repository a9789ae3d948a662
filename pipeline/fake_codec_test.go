package pipeline

import (
	"context"
	"fmt"

	"github.com/imgplex/imgplex/codec"
	"github.com/imgplex/imgplex/imagetype"
	"github.com/imgplex/imgplex/imgio"
)

// fakeCodec serves synthetic page dimensions and records every load, so
// tests can assert ordering properties like "no page decoded past the
// limit check".
type fakeCodec struct {
	typ          imagetype.Type
	noStreamLoad bool
	pageSizes    [][2]int // width, height per page
	alpha        bool
	orientation  int
	loadErr      error

	loads []codec.LoadParams
}

func (c *fakeCodec) DetectSource(src imgio.Source) (imagetype.Type, bool) {
	if c.noStreamLoad || c.typ == imagetype.TypeUnknown {
		return imagetype.TypeUnknown, false
	}
	return c.typ, true
}

func (c *fakeCodec) DetectBuffer(buf []byte) (imagetype.Type, bool) {
	if c.typ == imagetype.TypeUnknown {
		return imagetype.TypeUnknown, false
	}
	return c.typ, true
}

func (c *fakeCodec) Load(_ context.Context, _ imgio.Source, _ *imgio.Buffer, typ imagetype.Type, params codec.LoadParams) (codec.Image, error) {
	c.loads = append(c.loads, params)
	if c.loadErr != nil {
		return nil, c.loadErr
	}

	page := params.Page
	if page < 0 || page >= len(c.pageSizes) {
		return nil, fmt.Errorf("page %d out of range", params.Page)
	}
	n := params.NumPages
	if n < 1 {
		n = 1
	}
	if page+n > len(c.pageSizes) {
		n = len(c.pageSizes) - page
	}

	return &fakeImage{
		width:       c.pageSizes[page][0],
		height:      c.pageSizes[page][1] * n,
		pages:       len(c.pageSizes),
		pageHeight:  c.pageSizes[page][1],
		alpha:       c.alpha,
		orientation: c.orientation,
		format:      typ,
		rec:         &fakeRecord{},
	}, nil
}

// fakeRecord collects the metadata mutations and exports applied to an
// image and all its copies.
type fakeRecord struct {
	pageHeight *int
	loop       *int
	delays     []int
	exports    []exportCall
}

type exportCall struct {
	output imagetype.Output
	params codec.SaveParams
}

type fakeImage struct {
	width, height int
	pages         int
	pageHeight    int
	alpha         bool
	orientation   int
	format        imagetype.Type
	exportErr     error

	rec    *fakeRecord
	closed bool
}

func (f *fakeImage) Width() int { return f.width }

func (f *fakeImage) Height() int { return f.height }

func (f *fakeImage) Pages() int { return f.pages }

func (f *fakeImage) PageHeight() int { return f.pageHeight }

func (f *fakeImage) HasAlpha() bool { return f.alpha }

func (f *fakeImage) Orientation() int { return f.orientation }

func (f *fakeImage) Format() imagetype.Type { return f.format }

func (f *fakeImage) Close() { f.closed = true }

func (f *fakeImage) Copy() (codec.Image, error) {
	dup := *f
	dup.closed = false
	return &dup, nil
}

func (f *fakeImage) SetPageHeight(h int) {
	f.pageHeight = h
	f.rec.pageHeight = &h
}

func (f *fakeImage) SetLoop(loop int) {
	f.rec.loop = &loop
}

func (f *fakeImage) SetDelay(ms []int) {
	f.rec.delays = append([]int(nil), ms...)
}

func (f *fakeImage) Export(_ context.Context, target imgio.Target, output imagetype.Output, params codec.SaveParams) error {
	if f.exportErr != nil {
		return f.exportErr
	}
	f.rec.exports = append(f.rec.exports, exportCall{output: output, params: params})
	_, err := target.Write([]byte("encoded:" + output.String()))
	return err
}
