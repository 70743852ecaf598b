package ocr

import (
	"math"
	"testing"
)

func TestMonotonicProgress(t *testing.T) {
	var got []float64
	sink := MonotonicProgress(func(f float64) { got = append(got, f) })
	for _, v := range []float64{-0.5, 0.2, 0.1, 0.6, math.NaN(), 1.7, 0.9} {
		sink(v)
	}
	want := []float64{0, 0.2, 0.2, 0.6, 1, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMonotonicProgressNil(t *testing.T) {
	sink := MonotonicProgress(nil)
	sink(0.5)
}
