package preprocess

import (
	"fmt"
	"image"
	"strings"

	"github.com/meditatva/rxocr/ocr"
)

// Variant selects a preprocessing pass.
type Variant int

const (
	// Basic is grayscale plus a fixed contrast/brightness boost.
	Basic Variant = iota + 1
	// Advanced is resize, grayscale and binarization, tuned for
	// handwritten prescriptions.
	Advanced
)

func (v Variant) String() string {
	switch v {
	case Basic:
		return "basic"
	case Advanced:
		return "advanced"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant parses "basic" or "advanced" (case-insensitive).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return Basic, nil
	case "advanced":
		return Advanced, nil
	}
	return 0, fmt.Errorf("unknown preprocess variant %q", s)
}

// Config holds the tunables for both variants.
type Config struct {
	// MaxDimension bounds the longer side after the Advanced resize.
	MaxDimension int
	// ContrastPercent and BrightnessPercent drive the Basic boost
	// (100 leaves the image unchanged).
	ContrastPercent   int
	BrightnessPercent int
	// BinarizeThreshold: intensities strictly above it become white.
	BinarizeThreshold int
	// Quality is the JPEG encoding quality (1-100) of the output payload.
	Quality int
	// OutputFormat is the encoding of the output payload (JPEG or PNG).
	OutputFormat ocr.ImageFormat
	// Denoise runs after binarization when set. Nil is a no-op.
	Denoise func(*image.NRGBA) *image.NRGBA
}

// DefaultConfig returns the settings used for handwritten prescriptions.
func DefaultConfig() Config {
	return Config{
		MaxDimension:      1200,
		ContrastPercent:   140,
		BrightnessPercent: 110,
		BinarizeThreshold: 180,
		Quality:           95,
		OutputFormat:      ocr.ImageFormatJPEG,
	}
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	if c.MaxDimension < 1 {
		return fmt.Errorf("max dimension must be positive, got %d", c.MaxDimension)
	}
	if c.ContrastPercent < 0 || c.BrightnessPercent < 0 {
		return fmt.Errorf("contrast/brightness must not be negative")
	}
	if c.BinarizeThreshold < 0 || c.BinarizeThreshold > 255 {
		return fmt.Errorf("binarize threshold must be within 0-255, got %d", c.BinarizeThreshold)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be within 1-100, got %d", c.Quality)
	}
	switch c.OutputFormat {
	case ocr.ImageFormatJPEG, ocr.ImageFormatPNG:
	default:
		return fmt.Errorf("unsupported output format %q", c.OutputFormat)
	}
	return nil
}
