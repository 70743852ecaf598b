package ocr

import (
	"math"
	"sync"
)

// MonotonicProgress wraps fn so that reported values are clamped to [0,1]
// and never go backwards. A nil fn yields a sink that discards updates.
func MonotonicProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(float64) {}
	}
	var (
		mu   sync.Mutex
		last float64
	)
	return func(fraction float64) {
		switch {
		case math.IsNaN(fraction):
			return
		case fraction < 0:
			fraction = 0
		case fraction > 1:
			fraction = 1
		}
		mu.Lock()
		if fraction < last {
			fraction = last
		}
		last = fraction
		mu.Unlock()
		fn(fraction)
	}
}
