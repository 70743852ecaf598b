// Package preprocess prepares prescription photos for text recognition.
package preprocess

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/meditatva/rxocr/imaging"
)

// Preprocess decodes a bare base64 payload, runs the selected variant and
// re-encodes the result in the same bare base64 form. Decode failures are
// returned unchanged as *ocr.DecodeError.
func Preprocess(payload string, v Variant, cfg Config) (string, error) {
	img, err := imaging.Decode(payload)
	if err != nil {
		return "", err
	}
	var out *image.NRGBA
	switch v {
	case Basic:
		out = BasicPass(img, cfg)
	case Advanced:
		out = AdvancedPass(img, cfg)
	default:
		return "", fmt.Errorf("preprocess: unknown variant %v", v)
	}
	encoded, err := imaging.Encode(out, cfg.OutputFormat, cfg.Quality)
	if err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}
	return encoded, nil
}

// BasicPass converts img to grayscale and applies the contrast/brightness
// boost.
func BasicPass(img image.Image, cfg Config) *image.NRGBA {
	dst := imaging.ToNRGBA(img)
	Grayscale(dst)
	applyLUT(dst, toneCurve(float64(cfg.ContrastPercent)/100, float64(cfg.BrightnessPercent)/100))
	return dst
}

// AdvancedPass downscales img to fit MaxDimension, converts it to grayscale
// and binarizes it. The Denoise hook runs last.
func AdvancedPass(img image.Image, cfg Config) *image.NRGBA {
	dst := Resize(img, cfg.MaxDimension)
	Grayscale(dst)
	Binarize(dst, cfg.BinarizeThreshold)
	if cfg.Denoise != nil {
		dst = cfg.Denoise(dst)
	}
	return dst
}

// FitWithin returns the dimensions of a w x h image scaled down so that its
// longer side is at most limit, preserving aspect ratio. Images that already
// fit are returned unchanged.
func FitWithin(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, scaledSide(h, limit, w)
	}
	return scaledSide(w, limit, h), limit
}

func scaledSide(side, limit, longer int) int {
	n := int(math.Round(float64(side) * float64(limit) / float64(longer)))
	if n < 1 {
		n = 1
	}
	return n
}

// Resize returns a copy of img whose longer side is at most limit.
func Resize(img image.Image, limit int) *image.NRGBA {
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), limit)
	if w == b.Dx() && h == b.Dy() {
		return imaging.ToNRGBA(img)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Grayscale replaces R, G and B of every pixel with their rounded mean.
// Alpha is left untouched.
func Grayscale(img *image.NRGBA) {
	forEachPixel(img, func(px []uint8) {
		sum := int(px[0]) + int(px[1]) + int(px[2])
		v := uint8((sum + 1) / 3)
		px[0], px[1], px[2] = v, v, v
	})
}

// Binarize maps every pixel to white when its intensity is above threshold
// and to black otherwise, on all three color channels. Intensity is the
// channel mean, so grayscale input is used as-is.
func Binarize(img *image.NRGBA, threshold int) {
	forEachPixel(img, func(px []uint8) {
		sum := int(px[0]) + int(px[1]) + int(px[2])
		var v uint8
		if (sum+1)/3 > threshold {
			v = 255
		}
		px[0], px[1], px[2] = v, v, v
	})
}

// toneCurve follows the CSS contrast() then brightness() filter functions.
func toneCurve(contrast, brightness float64) [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		v := (float64(i)-127.5)*contrast + 127.5
		v *= brightness
		lut[i] = clamp8(v)
	}
	return lut
}

func applyLUT(img *image.NRGBA, lut [256]uint8) {
	forEachPixel(img, func(px []uint8) {
		px[0], px[1], px[2] = lut[px[0]], lut[px[1]], lut[px[2]]
	})
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

func forEachPixel(img *image.NRGBA, fn func(px []uint8)) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			fn(row[x*4 : x*4+4])
		}
	}
}
