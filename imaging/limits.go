package imaging

import "fmt"

// Raster limits checked against the decoded header before any pixels are
// allocated. A prescription photo from a phone camera is well inside both.
const (
	MaxImageDimension       = 32768
	MaxImagePixels    int64 = 64 * 1024 * 1024
)

func validateBounds(width, height int) error {
	switch {
	case width <= 0 || height <= 0:
		return fmt.Errorf("payload declares an empty %dx%d raster", width, height)
	case width > MaxImageDimension || height > MaxImageDimension:
		return fmt.Errorf("%dx%d raster has a side longer than %d px", width, height, MaxImageDimension)
	case int64(width)*int64(height) > MaxImagePixels:
		return fmt.Errorf("%dx%d raster holds more than %d pixels", width, height, MaxImagePixels)
	}
	return nil
}
