package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/imgplex/imgplex/codec"
	"github.com/imgplex/imgplex/imagetype"
	"github.com/imgplex/imgplex/imgio"
	"github.com/imgplex/imgplex/query"
	"github.com/imgplex/imgplex/status"
)

// Write negotiates the output format, derives the per-format save options
// and writes the encoded image to the target. The caller's image is never
// mutated: metadata is attached to a working copy.
func (s *Stream) Write(ctx context.Context, img codec.Image, params *query.Params, target imgio.Target) error {
	ctx, span := s.tracer.Start(ctx, "pipeline.write")
	defer span.End()

	work, err := img.Copy()
	if err != nil {
		s.metrics.Failure(status.ProcessingFailed.String())
		return status.Newf(status.ProcessingFailed, "copy image: %v", err)
	}
	defer work.Close()

	// Only attach a page height when there is more than one frame, or a
	// still image could accidentally turn animated later.
	n := params.Int("n", 1)
	if n > 1 {
		work.SetPageHeight(params.Int("page_height", work.PageHeight()))
	}

	// loop: 0 means infinite, k loops k times; negative leaves the source
	// value alone.
	if loop := params.Int("loop", -1); loop >= 0 {
		work.SetLoop(loop)
	}

	delays := params.IntsIf("delay", nil, func(v []int) bool {
		for _, d := range v {
			if d < 0 {
				return false
			}
		}
		return true
	})
	if len(delays) > 0 {
		if len(delays) == 1 {
			// One delay covers every frame.
			single := delays[0]
			delays = make([]int, n)
			for i := range delays {
				delays[i] = single
			}
		}
		work.SetDelay(delays)
	}

	inputType := typeParam(params)
	output := imagetype.ParseOutput(params.String("output", ""))
	if output == imagetype.OutputOrigin {
		// Force PNG when the image carries alpha the input format's saver
		// cannot express; otherwise keep the natural output.
		if inputType.SupportsAlpha() || !work.HasAlpha() {
			output = inputType.Natural()
		} else {
			output = imagetype.OutputPNG
		}
	}
	span.SetAttributes(attribute.String("image.output", output.String()))

	ext := output.Ext()
	if !s.cfg.Savers.Has(output) {
		s.metrics.Failure(status.UnsupportedSaver.String())
		return status.Newf(status.UnsupportedSaver,
			"saving to %s is disabled, supported savers: %s", strings.TrimPrefix(ext, "."), s.cfg.Savers)
	}

	if output == imagetype.OutputJSON {
		return writeMetadata(work, inputType, n, target)
	}

	save := s.saveParams(output, params)

	if s.cfg.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ProcessTimeout)
		defer cancel()
	}

	target.Setup(ext)
	start := time.Now()
	if err := work.Export(ctx, target, output, save); err != nil {
		s.metrics.Failure(status.ProcessingFailed.String())
		return status.Newf(status.ProcessingFailed, "encode %s: %v", output, err)
	}
	if err := target.End(); err != nil {
		s.metrics.Failure(status.ProcessingFailed.String())
		return status.Newf(status.ProcessingFailed, "finish target: %v", err)
	}

	s.metrics.ObserveEncode(output.String(), time.Since(start))
	s.metrics.Saved(output.String())
	s.logf("encoded output=%s ext=%s", output, ext)
	return nil
}

// saveParams derives the codec options for the negotiated format. Request
// overrides are validated; anything invalid falls back to configuration.
func (s *Stream) saveParams(output imagetype.Output, params *query.Params) codec.SaveParams {
	quality := func(def int) int {
		return params.IntIf("q", def, func(q int) bool { return q >= 1 && q <= 100 })
	}

	save := codec.SaveParams{StripMetadata: true}
	switch output {
	case imagetype.OutputJPEG:
		save.Quality = quality(s.cfg.JpegQuality)
		save.Interlace = params.Bool("il", false)
		save.OptimizeCoding = true
	case imagetype.OutputWEBP:
		save.Quality = quality(s.cfg.WebpQuality)
		save.Lossless = params.Bool("ll", false)
		save.Effort = s.cfg.WebpEffort
	case imagetype.OutputAVIF:
		save.Quality = quality(s.cfg.AvifQuality)
		save.Effort = s.cfg.AvifEffort
	case imagetype.OutputTIFF:
		save.Quality = quality(s.cfg.TiffQuality)
	case imagetype.OutputGIF:
		save.Effort = s.cfg.GifEffort
	default: // PNG
		save.CompressionLevel = params.IntIf("l", s.cfg.ZlibLevel, func(l int) bool {
			return l >= 0 && l <= 9
		})
		save.Interlace = params.Bool("il", false)
		save.AdaptiveFilter = params.Bool("af", false)
	}
	return save
}

// writeMetadata serializes the image metadata instead of pixels; the codec
// is never invoked for JSON output.
func writeMetadata(img codec.Image, inputType imagetype.Type, n int, target imgio.Target) error {
	height := img.Height()
	if n > 1 {
		height = img.PageHeight()
	}

	doc := struct {
		Format      string `json:"format"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		Pages       int    `json:"pages"`
		HasAlpha    bool   `json:"hasAlpha"`
		Orientation int    `json:"orientation"`
	}{
		Format:      inputType.String(),
		Width:       img.Width(),
		Height:      height,
		Pages:       img.Pages(),
		HasAlpha:    img.HasAlpha(),
		Orientation: img.Orientation(),
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return status.Newf(status.ProcessingFailed, "marshal metadata: %v", err)
	}

	target.Setup(imagetype.OutputJSON.Ext())
	if _, err := target.Write(out); err != nil {
		return status.Newf(status.ProcessingFailed, "write metadata: %v", err)
	}
	if err := target.End(); err != nil {
		return status.Newf(status.ProcessingFailed, "finish target: %v", err)
	}
	return nil
}

func typeParam(params *query.Params) imagetype.Type {
	if v, ok := params.Value("type"); ok {
		if t, ok := v.(imagetype.Type); ok {
			return t
		}
	}
	return imagetype.TypeUnknown
}
