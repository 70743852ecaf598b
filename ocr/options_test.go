package ocr

import (
	"reflect"
	"testing"
)

func TestNewRequest(t *testing.T) {
	meta := map[string]string{"psm": "6"}
	var calls int
	req := NewRequest(
		[]byte{1, 2, 3},
		ModelHandwritten,
		WithFormat(ImageFormatJPEG),
		WithMetadata(meta),
		WithProgress(func(float64) { calls++ }),
	)
	if req.Model != ModelHandwritten {
		t.Fatalf("unexpected model: %q", req.Model)
	}
	if req.Format != ImageFormatJPEG {
		t.Fatalf("unexpected format: %v", req.Format)
	}
	if !reflect.DeepEqual(req.Image, []byte{1, 2, 3}) {
		t.Fatalf("unexpected image: %v", req.Image)
	}
	meta["psm"] = "7"
	if req.Metadata["psm"] != "6" {
		t.Fatalf("metadata was not copied: %+v", req.Metadata)
	}
	req.Progress(0.5)
	if calls != 1 {
		t.Fatalf("progress sink not wired, calls=%d", calls)
	}
}

func TestWithMetadataClearsEmpty(t *testing.T) {
	req := Request{Metadata: map[string]string{"a": "b"}}
	WithMetadata(nil)(&req)
	if req.Metadata != nil {
		t.Fatalf("expected nil metadata, got %#v", req.Metadata)
	}
}

func TestTesseractOptions(t *testing.T) {
	req := Request{}
	WithTesseractPSM(6)(&req)
	if got := req.Metadata["tessedit_pageseg_mode"]; got != "6" {
		t.Fatalf("expected PSM to be set, got %q", got)
	}
	WithTesseractWhitelist("ABC")(&req)
	if got := req.Metadata["tessedit_char_whitelist"]; got != "ABC" {
		t.Fatalf("expected whitelist to be set, got %q", got)
	}
}

func TestResultIsEmpty(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{"  \n\t ", true},
		{"Amoxicillin 500mg", false},
		{" x ", false},
	}
	for _, tt := range tests {
		if got := (Result{Text: tt.text}).IsEmpty(); got != tt.want {
			t.Fatalf("IsEmpty(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
