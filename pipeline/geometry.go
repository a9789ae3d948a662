package pipeline

import (
	"math"

	"github.com/imgplex/imgplex/codec"
	"github.com/imgplex/imgplex/query"
)

// resolveDimensions reconciles the requested rotation and flips with the
// embedded EXIF orientation and resolves the target dimensions, persisting
// the results for the downstream operators.
func resolveDimensions(img codec.Image, params *query.Params) {
	rotate := params.IntIf("ro", 0, func(r int) bool {
		// Any sign is fine as long as the angle is a multiple of 90.
		return r%90 == 0
	})
	flip := params.Bool("flip", false)
	flop := params.Bool("flop", false)

	orientation := img.Orientation()
	switch orientation {
	case 6:
		rotate += 90
	case 3:
		rotate += 180
	case 8:
		rotate += 270
	case 2: // flop 1
		flop = true
	case 7: // flip 6
		flip = true
		rotate += 90
	case 4: // flop 3
		flop = true
		rotate += 180
	case 5: // flip 8
		flip = true
		rotate += 270
	}

	angle := rotate % 360
	if angle < 0 {
		angle += 360
	}

	params.Update("angle", angle)
	params.Update("flip", flip)
	params.Update("flop", flop)

	inputWidth := img.Width()
	inputHeight := img.Height()
	targetWidth := params.Coordinate("w", query.Coordinate{}).ToPixels(inputWidth)
	targetHeight := params.Coordinate("h", query.Coordinate{}).ToPixels(inputHeight)

	ratio := params.Float("dpr", -1)
	if ratio >= 0 && ratio <= 8 {
		targetWidth = int(math.Round(float64(targetWidth) * ratio))
		targetHeight = int(math.Round(float64(targetHeight) * ratio))
	}

	if orientation > 4 && !params.Bool("precrop", false) {
		// The orientation-driven rotation has not been applied yet, so the
		// requested dimensions refer to the upright image. Unless the
		// caller precropped, swap to match.
		targetWidth, targetHeight = targetHeight, targetWidth
	}

	params.Update("w", clampInt(targetWidth, 0, codec.MaxCoord))
	params.Update("h", clampInt(targetHeight, 0, codec.MaxCoord))

	// The original dimensions feed focal-point math downstream.
	params.Update("input_width", inputWidth)
	params.Update("input_height", inputHeight)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
