// Package pipeline is the request-time transformation core: it decodes a
// source, selects pages, reconciles orientation with the requested
// geometry, negotiates the output format and writes the encoded result.
// Every stage shares one query.Params store and every failure is a terminal
// *status.Status.
package pipeline

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/imgplex/imgplex/codec"
	"github.com/imgplex/imgplex/config"
	"github.com/imgplex/imgplex/imgio"
	"github.com/imgplex/imgplex/metrics"
	"github.com/imgplex/imgplex/query"
)

type Stream struct {
	cfg     config.Config
	codec   codec.Codec
	logger  *log.Logger
	metrics *metrics.Recorder
	tracer  trace.Tracer
}

type Option func(*Stream)

func WithLogger(logger *log.Logger) Option {
	return func(s *Stream) { s.logger = logger }
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *Stream) { s.metrics = recorder }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Stream) { s.tracer = tracer }
}

// WithCodec replaces the build-selected backend; tests inject fakes here.
func WithCodec(c codec.Codec) Option {
	return func(s *Stream) { s.codec = c }
}

func New(cfg config.Config, opts ...Option) *Stream {
	s := &Stream{
		cfg:    cfg,
		codec:  codec.Default(),
		tracer: otel.Tracer("imgplex/pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run decodes, writes and closes in one call, for hosts with no
// intermediate operators between decode and encode.
func (s *Stream) Run(ctx context.Context, src imgio.Source, params *query.Params, target imgio.Target) error {
	img, err := s.Decode(ctx, src, params)
	if err != nil {
		return err
	}
	defer img.Close()
	return s.Write(ctx, img, params, target)
}

func (s *Stream) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
