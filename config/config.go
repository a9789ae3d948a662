// Package config holds the process-wide pipeline configuration, read once
// at startup and treated as read-only afterwards.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/imgplex/imgplex/imagetype"
)

type Config struct {
	// Per-format encode defaults, overridable per request within the
	// validated ranges.
	JpegQuality int
	WebpQuality int
	AvifQuality int
	TiffQuality int
	ZlibLevel   int
	WebpEffort  int
	AvifEffort  int
	GifEffort   int

	// Input safety limits; zero disables the check.
	MaxPages         int
	LimitInputPixels uint64

	// ProcessTimeout bounds the final encode write.
	ProcessTimeout time.Duration

	// FailOnError makes decode warnings fatal.
	FailOnError bool

	// Savers is the mask of administratively enabled output formats.
	Savers imagetype.Savers

	// DefaultImage optionally names a redirect destination applied to
	// failed requests that carry no `default` parameter themselves.
	DefaultImage string
}

func Default() Config {
	return Config{
		JpegQuality:      80,
		WebpQuality:      80,
		AvifQuality:      80,
		TiffQuality:      80,
		ZlibLevel:        6,
		WebpEffort:       4,
		AvifEffort:       4,
		GifEffort:        7,
		MaxPages:         256,
		LimitInputPixels: 71_000_000,
		ProcessTimeout:   10 * time.Second,
		FailOnError:      false,
		Savers:           imagetype.SaversAll,
		DefaultImage:     "",
	}
}

// Load builds a Config from IMGPLEX_* environment variables, starting from
// the defaults.
func Load() Config {
	def := Default()

	savers := def.Savers
	if list := env("IMGPLEX_SAVERS", ""); list != "" {
		savers = imagetype.ParseSavers(list)
	}

	return Config{
		JpegQuality:      envInt("IMGPLEX_JPEG_QUALITY", def.JpegQuality),
		WebpQuality:      envInt("IMGPLEX_WEBP_QUALITY", def.WebpQuality),
		AvifQuality:      envInt("IMGPLEX_AVIF_QUALITY", def.AvifQuality),
		TiffQuality:      envInt("IMGPLEX_TIFF_QUALITY", def.TiffQuality),
		ZlibLevel:        envInt("IMGPLEX_ZLIB_LEVEL", def.ZlibLevel),
		WebpEffort:       envInt("IMGPLEX_WEBP_EFFORT", def.WebpEffort),
		AvifEffort:       envInt("IMGPLEX_AVIF_EFFORT", def.AvifEffort),
		GifEffort:        envInt("IMGPLEX_GIF_EFFORT", def.GifEffort),
		MaxPages:         envInt("IMGPLEX_MAX_PAGES", def.MaxPages),
		LimitInputPixels: envUint64("IMGPLEX_LIMIT_INPUT_PIXELS", def.LimitInputPixels),
		ProcessTimeout:   envDuration("IMGPLEX_PROCESS_TIMEOUT", def.ProcessTimeout),
		FailOnError:      envBool("IMGPLEX_FAIL_ON_ERROR", def.FailOnError),
		Savers:           savers,
		DefaultImage:     env("IMGPLEX_DEFAULT_IMAGE", def.DefaultImage),
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envUint64(key string, fallback uint64) uint64 {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
