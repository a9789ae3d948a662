package imagetype

import "strings"

// Type identifies the format of a decoded input image, derived from the
// loader that accepted the byte stream.
type Type int

const (
	TypeUnknown Type = iota
	TypeJPEG
	TypePNG
	TypeWEBP
	TypeGIF
	TypeTIFF
	TypeAVIF
	TypeHEIF
	TypeBMP
	TypeSVG
	TypePDF
	TypeMagick
)

func (t Type) String() string {
	switch t {
	case TypeJPEG:
		return "jpeg"
	case TypePNG:
		return "png"
	case TypeWEBP:
		return "webp"
	case TypeGIF:
		return "gif"
	case TypeTIFF:
		return "tiff"
	case TypeAVIF:
		return "avif"
	case TypeHEIF:
		return "heif"
	case TypeBMP:
		return "bmp"
	case TypeSVG:
		return "svg"
	case TypePDF:
		return "pdf"
	case TypeMagick:
		return "magick"
	default:
		return "unknown"
	}
}

// SupportsAlpha reports whether the format's natural saver can carry an
// alpha channel.
func (t Type) SupportsAlpha() bool {
	switch t {
	case TypePNG, TypeWEBP, TypeGIF, TypeTIFF, TypeAVIF:
		return true
	default:
		return false
	}
}

// Natural maps an input format to the saver that keeps it as-is. Formats
// without an encode path (vector and document inputs) fall back to PNG.
func (t Type) Natural() Output {
	switch t {
	case TypeJPEG:
		return OutputJPEG
	case TypePNG:
		return OutputPNG
	case TypeWEBP:
		return OutputWEBP
	case TypeGIF:
		return OutputGIF
	case TypeTIFF:
		return OutputTIFF
	case TypeAVIF, TypeHEIF:
		return OutputAVIF
	default:
		return OutputPNG
	}
}

// Output identifies the requested saver. OutputOrigin defers the choice to
// the input format.
type Output int

const (
	OutputOrigin Output = iota
	OutputJPEG
	OutputPNG
	OutputWEBP
	OutputAVIF
	OutputTIFF
	OutputGIF
	OutputJSON
)

// ParseOutput maps a query value to a saver. Unknown values resolve to
// OutputOrigin so that an invalid request degrades to the input format.
func ParseOutput(s string) Output {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg":
		return OutputJPEG
	case "png":
		return OutputPNG
	case "webp":
		return OutputWEBP
	case "avif", "av1":
		return OutputAVIF
	case "tiff":
		return OutputTIFF
	case "gif":
		return OutputGIF
	case "json":
		return OutputJSON
	default:
		return OutputOrigin
	}
}

func (o Output) String() string {
	switch o {
	case OutputJPEG:
		return "jpg"
	case OutputPNG:
		return "png"
	case OutputWEBP:
		return "webp"
	case OutputAVIF:
		return "avif"
	case OutputTIFF:
		return "tiff"
	case OutputGIF:
		return "gif"
	case OutputJSON:
		return "json"
	default:
		return "origin"
	}
}

// Ext is the file extension announced to the target before writing.
func (o Output) Ext() string {
	switch o {
	case OutputJPEG:
		return ".jpg"
	case OutputPNG:
		return ".png"
	case OutputWEBP:
		return ".webp"
	case OutputAVIF:
		return ".avif"
	case OutputTIFF:
		return ".tiff"
	case OutputGIF:
		return ".gif"
	case OutputJSON:
		return ".json"
	default:
		return ""
	}
}

func (o Output) Mime() string {
	switch o {
	case OutputJPEG:
		return "image/jpeg"
	case OutputPNG:
		return "image/png"
	case OutputWEBP:
		return "image/webp"
	case OutputAVIF:
		return "image/avif"
	case OutputTIFF:
		return "image/tiff"
	case OutputGIF:
		return "image/gif"
	case OutputJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Savers is the capability mask of enabled output formats.
type Savers uint

const (
	SaverJPEG Savers = 1 << iota
	SaverPNG
	SaverWEBP
	SaverAVIF
	SaverTIFF
	SaverGIF
	SaverJSON
)

const SaversAll = SaverJPEG | SaverPNG | SaverWEBP | SaverAVIF | SaverTIFF | SaverGIF | SaverJSON

func saverBit(o Output) Savers {
	switch o {
	case OutputJPEG:
		return SaverJPEG
	case OutputPNG:
		return SaverPNG
	case OutputWEBP:
		return SaverWEBP
	case OutputAVIF:
		return SaverAVIF
	case OutputTIFF:
		return SaverTIFF
	case OutputGIF:
		return SaverGIF
	case OutputJSON:
		return SaverJSON
	default:
		return 0
	}
}

// Has reports whether saving to the given output is enabled.
func (s Savers) Has(o Output) bool {
	bit := saverBit(o)
	return bit != 0 && s&bit != 0
}

// ParseSavers builds a mask from a comma-separated list of saver names.
// Unknown names are ignored.
func ParseSavers(list string) Savers {
	var s Savers
	for _, name := range strings.Split(list, ",") {
		if o := ParseOutput(name); o != OutputOrigin {
			s |= saverBit(o)
		}
	}
	return s
}

// String lists the enabled savers in declaration order, the form used in
// unsupported-saver error messages.
func (s Savers) String() string {
	all := []Output{OutputJPEG, OutputPNG, OutputWEBP, OutputAVIF, OutputTIFF, OutputGIF, OutputJSON}
	names := make([]string, 0, len(all))
	for _, o := range all {
		if s.Has(o) {
			names = append(names, o.String())
		}
	}
	return strings.Join(names, ", ")
}
