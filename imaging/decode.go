// Package imaging is the raster surface of the pipeline: it turns bare
// base64 payloads into pixel buffers and back.
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/meditatva/rxocr/ocr"
)

// Decode turns a bare base64 image payload into a raster image. A leading
// data-URI header is tolerated and discarded.
func Decode(payload string) (image.Image, error) {
	data, err := DecodeBytes(payload)
	if err != nil {
		return nil, err
	}
	return DecodeRaw(data)
}

// DecodeBytes returns the binary image bytes carried by a base64 payload.
func DecodeBytes(payload string) ([]byte, error) {
	payload = bare(payload)
	if payload == "" {
		return nil, &ocr.DecodeError{Reason: "empty payload"}
	}
	enc := base64.StdEncoding
	if !strings.HasSuffix(payload, "=") && len(payload)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data, err := enc.DecodeString(payload)
	if err != nil {
		return nil, &ocr.DecodeError{Reason: "invalid base64", Cause: err}
	}
	return data, nil
}

// DecodeRaw decodes binary image bytes after checking the raster limits.
func DecodeRaw(data []byte) (image.Image, error) {
	format := SniffFormat(data)
	if format == "" {
		return nil, &ocr.DecodeError{Reason: "unsupported image format"}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ocr.DecodeError{Reason: "read " + string(format) + " header", Cause: err}
	}
	if err := validateBounds(cfg.Width, cfg.Height); err != nil {
		return nil, &ocr.DecodeError{Reason: "raster limits", Cause: err}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ocr.DecodeError{Reason: "decode " + string(format), Cause: err}
	}
	return img, nil
}

// SniffFormat reports the image content type of data, or "" when it is
// not one of the supported raster formats.
func SniffFormat(data []byte) ocr.ImageFormat {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ocr.ImageFormatWebP
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return ocr.ImageFormatTIFF
	}
	switch ct := http.DetectContentType(data); ct {
	case "image/png":
		return ocr.ImageFormatPNG
	case "image/jpeg":
		return ocr.ImageFormatJPEG
	case "image/gif":
		return ocr.ImageFormatGIF
	case "image/bmp":
		return ocr.ImageFormatBMP
	}
	return ""
}

// DataURI wraps a bare base64 payload with the media-type header matching
// its sniffed format.
func DataURI(payload string) (string, error) {
	data, err := DecodeBytes(payload)
	if err != nil {
		return "", err
	}
	format := SniffFormat(data)
	if format == "" {
		return "", &ocr.DecodeError{Reason: "unsupported image format"}
	}
	return "data:" + string(format) + ";base64," + bare(payload), nil
}

// ToNRGBA copies img onto a fresh NRGBA canvas whose origin is (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		// Row copy keeps non-opaque pixels exact; draw would round-trip them
		// through premultiplied color.
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[i:i+4*b.Dx()])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// bare drops a data-URI header and all whitespace from payload.
func bare(payload string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, stripDataURI(strings.TrimSpace(payload)))
}

func stripDataURI(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		return payload[i+len(";base64,"):]
	}
	return payload
}
