package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/meditatva/rxocr/ocr"
)

var errUnknownFormat = errors.New("unknown output format")

// DefaultQuality is the JPEG quality used when callers pass zero.
const DefaultQuality = 95

// Encode serializes img as format and returns it as bare base64. Quality
// applies to JPEG only and is clamped to 1..100.
func Encode(img image.Image, format ocr.ImageFormat, quality int) (string, error) {
	data, err := EncodeRaw(img, format, quality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeRaw is Encode without the base64 step.
func EncodeRaw(img image.Image, format ocr.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case ocr.ImageFormatJPEG, "":
		if quality <= 0 {
			quality = DefaultQuality
		}
		if quality > 100 {
			quality = 100
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case ocr.ImageFormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownFormat, format)
	}
	return buf.Bytes(), nil
}
