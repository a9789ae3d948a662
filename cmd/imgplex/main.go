// Command imgplex runs the transformation pipeline once: file in,
// transformed file out. It is a development harness and a reference for
// hosts embedding the pipeline, not the reverse proxy itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/imgplex/imgplex/codec"
	"github.com/imgplex/imgplex/config"
	"github.com/imgplex/imgplex/imgio"
	"github.com/imgplex/imgplex/pipeline"
	"github.com/imgplex/imgplex/query"
	"github.com/imgplex/imgplex/status"
	"github.com/imgplex/imgplex/telemetry"
)

func main() {
	var (
		inPath    = flag.String("in", "", "input image path (required)")
		outPath   = flag.String("out", "", "output path (required unless -json)")
		rawParams = flag.String("params", "", "transformation query string, e.g. \"w=320&output=webp\"")
		jsonOnly  = flag.Bool("json", false, "write the metadata document instead of pixels")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[imgplex] ", log.LstdFlags|log.Lmsgprefix)

	if *inPath == "" || (*outPath == "" && !*jsonOnly) {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(logger, *inPath, *outPath, *rawParams, *jsonOnly); err != nil {
		st := status.From(err)
		fmt.Fprintln(os.Stderr, string(st.Body()))
		os.Exit(1)
	}
}

func run(logger *log.Logger, inPath, outPath, rawParams string, jsonOnly bool) error {
	ctx := context.Background()

	cfg := config.Load()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfigFromEnv("imgplex"), logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	if err := codec.Startup(); err != nil {
		return fmt.Errorf("start codec runtime: %w", err)
	}
	defer codec.Shutdown()

	values, err := url.ParseQuery(rawParams)
	if err != nil {
		return fmt.Errorf("parse params: %w", err)
	}
	params := query.FromValues(values)
	if jsonOnly {
		params.Update("output", "json")
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	target := imgio.NewBytesTarget()
	stream := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err := stream.Run(ctx, imgio.NewFileSource(in), params, target); err != nil {
		return err
	}

	if jsonOnly && outPath == "" {
		fmt.Println(string(target.Bytes()))
		return nil
	}
	if err := os.WriteFile(outPath, target.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Printf("wrote output path=%s ext=%s bytes=%d", outPath, target.Ext(), len(target.Bytes()))
	return nil
}
