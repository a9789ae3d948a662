package pipeline

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/imgplex/imgplex/codec"
	"github.com/imgplex/imgplex/imagetype"
	"github.com/imgplex/imgplex/imgio"
	"github.com/imgplex/imgplex/query"
	"github.com/imgplex/imgplex/status"
)

// Decode detects the input format, loads the requested page range and
// resolves the geometry parameters. The returned image is owned by the
// caller. Failures are terminal: InvalidImage when no codec matches,
// UnreadableImage on decode errors and TooLargeImage when a configured
// limit is exceeded.
func (s *Stream) Decode(ctx context.Context, src imgio.Source, params *query.Params) (codec.Image, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.decode")
	defer span.End()
	start := time.Now()

	// Streaming detection first; sources without a streaming loader are
	// materialized into a shared buffer and re-detected from bytes.
	var buf *imgio.Buffer
	typ, ok := s.codec.DetectSource(src)
	if !ok {
		data, err := io.ReadAll(src)
		if err != nil || len(data) == 0 {
			s.metrics.Failure(status.InvalidImage.String())
			return nil, status.New(status.InvalidImage, "input does not match any known image format")
		}
		buf = imgio.NewBuffer(data)
		defer buf.Close()

		typ, ok = s.codec.DetectBuffer(buf.Bytes())
		if !ok {
			s.metrics.Failure(status.InvalidImage.String())
			return nil, status.New(status.InvalidImage, "input does not match any known image format")
		}
	}
	params.Update("type", typ)
	span.SetAttributes(attribute.String("image.type", typ.String()))

	// Trim scans the whole image to find its crop box, which rules out
	// sequential access.
	access := codec.AccessSequential
	if params.Int("trim", 0) != 0 {
		access = codec.AccessRandom
	}

	load := codec.LoadParams{
		Access:      access,
		FailOnError: s.cfg.FailOnError,
		Page:        0,
		NumPages:    1,
	}
	img, err := s.codec.Load(ctx, src, buf, typ, load)
	if err != nil {
		s.metrics.Failure(status.UnreadableImage.String())
		return nil, status.Newf(status.UnreadableImage, "image not readable: %v", err)
	}

	pages := img.Pages()
	n, page := pageLoadOptions(params, pages)

	if n != 1 || page != 0 {
		// Scan requests are charged the full page count so the limit is
		// enforced before any extra decode work happens.
		charged := n
		if page == -1 || page == -2 {
			charged = pages
		}
		if s.cfg.MaxPages > 0 && charged > s.cfg.MaxPages {
			img.Close()
			s.metrics.Failure(status.TooLargeImage.String())
			return nil, status.Newf(status.TooLargeImage,
				"input image exceeds the maximum number of pages, number of pages should be less than %d", s.cfg.MaxPages)
		}

		switch page {
		case -1:
			page, err = s.resolvePage(ctx, img, pages, src, buf, typ, func(a, b uint64) bool { return a > b })
		case -2:
			page, err = s.resolvePage(ctx, img, pages, src, buf, typ, func(a, b uint64) bool { return a < b })
		}
		if err != nil {
			img.Close()
			return nil, err
		}

		reload := codec.LoadParams{
			Access:      access,
			FailOnError: s.cfg.FailOnError,
			Page:        page,
			NumPages:    n,
		}
		img.Close()
		img, err = s.codec.Load(ctx, src, buf, typ, reload)
		if err != nil {
			s.metrics.Failure(status.UnreadableImage.String())
			return nil, status.Newf(status.UnreadableImage, "image not readable: %v", err)
		}
	}

	if s.cfg.LimitInputPixels > 0 &&
		uint64(img.Width())*uint64(img.Height()) > s.cfg.LimitInputPixels {
		img.Close()
		s.metrics.Failure(status.TooLargeImage.String())
		return nil, status.Newf(status.TooLargeImage,
			"input image exceeds pixel limit, width x height should be less than %d", s.cfg.LimitInputPixels)
	}

	params.Update("n", n)
	params.Update("page", page)
	params.Update("page_height", img.PageHeight())

	resolveDimensions(img, params)

	s.metrics.ObserveDecode(typ.String(), time.Since(start))
	s.logf("decoded type=%s pages=%d n=%d page=%d size=%dx%d",
		typ, pages, n, page, img.Width(), img.Height())
	return img, nil
}

// pageLoadOptions resolves the page/n request against the document's page
// count. page -1 selects the largest page, -2 the smallest, both implying
// n=1; n == -1 means every page from `page` to the end.
func pageLoadOptions(params *query.Params, pages int) (n, page int) {
	if pages == 1 {
		return 1, 0
	}

	page = params.IntIf("page", 0, func(p int) bool {
		return p == -1 || p == -2 || (p >= 0 && p <= pages)
	})
	if page == -1 || page == -2 {
		return 1, page
	}

	n = params.IntIf("n", 1, func(n int) bool {
		return n == -1 || (n >= 1 && n <= pages)
	})
	if n == -1 {
		n = pages - page
	}
	return n, page
}

// resolvePage finds the page whose pixel area wins under better, decoding
// pages 1..pages-1 one at a time. Page 0 is the already-decoded image, so
// ties keep the earliest page.
func (s *Stream) resolvePage(ctx context.Context, img codec.Image, pages int, src imgio.Source, buf *imgio.Buffer, typ imagetype.Type, better func(a, b uint64) bool) (int, error) {
	scanBuf := buf.Clone()
	defer scanBuf.Close()

	best := uint64(img.Height()) * uint64(img.Width())
	target := 0

	for i := 1; i < pages; i++ {
		pg, err := s.codec.Load(ctx, src, scanBuf, typ, codec.LoadParams{
			Access:      codec.AccessSequential,
			FailOnError: s.cfg.FailOnError,
			Page:        i,
			NumPages:    1,
		})
		if err != nil {
			s.metrics.Failure(status.UnreadableImage.String())
			return 0, status.Newf(status.UnreadableImage, "image not readable: %v", err)
		}
		size := uint64(pg.Height()) * uint64(pg.Width())
		pg.Close()
		s.metrics.PageScanned()

		if better(size, best) {
			target = i
			best = size
		}
	}
	return target, nil
}
