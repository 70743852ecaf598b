package ocr

import (
	"context"
	"image"
	"strings"
)

// ImageFormat identifies the content type of an encoded image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatGIF  ImageFormat = "image/gif"
	ImageFormatBMP  ImageFormat = "image/bmp"
	ImageFormatTIFF ImageFormat = "image/tiff"
	ImageFormatWebP ImageFormat = "image/webp"
)

// Well-known model identifiers. Engines map them to their own trained data.
const (
	ModelHandwritten = "handwritten"
	ModelGeneric     = "eng"
)

// ProgressFunc receives the recognition progress as a fraction in [0,1].
type ProgressFunc func(fraction float64)

// Request is a single image submitted for recognition. It is built once and
// never modified by engines.
type Request struct {
	// Image is the encoded image payload in the format given by Format.
	Image []byte
	// Format declares the image content type. Empty means "sniff it".
	Format ImageFormat
	// Model selects the trained model/language the engine must load.
	Model string
	// Progress is notified during the recognition phase only. May be nil.
	Progress ProgressFunc
	// Metadata passes engine-specific knobs (e.g. Tesseract variables)
	// through without widening the API.
	Metadata map[string]string
}

// Word is a single recognized token with its pixel bounds.
type Word struct {
	Text       string
	Bounds     image.Rectangle
	Confidence float64
}

// Result captures the output of one recognition attempt.
type Result struct {
	Text       string
	Model      string
	Confidence float64
	Words      []Word
}

// IsEmpty reports whether the recognized text has no visible characters.
func (r Result) IsEmpty() bool { return strings.TrimSpace(r.Text) == "" }

// Engine recognizes text in one image per call. Implementations must
// release any per-call engine instance before returning, on every path.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, req Request) (Result, error)
}
