package ocr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	decode := fmt.Errorf("preprocess: %w", &DecodeError{Reason: "invalid base64", Cause: cause})
	load := fmt.Errorf("attempt: %w", &ModelLoadError{Engine: "tesseract", Model: "handwritten", Cause: cause})
	rec := &RecognitionError{Engine: "tesseract", Model: "eng", Cause: cause}

	if !IsDecode(decode) || IsModelLoad(decode) || IsRecognition(decode) {
		t.Fatalf("decode error misclassified: %v", decode)
	}
	if !IsModelLoad(load) || IsDecode(load) || IsRecognition(load) {
		t.Fatalf("model load error misclassified: %v", load)
	}
	if !IsRecognition(rec) || IsModelLoad(rec) {
		t.Fatalf("recognition error misclassified: %v", rec)
	}
	for _, err := range []error{decode, load, rec} {
		if !errors.Is(err, cause) {
			t.Fatalf("cause not unwrapped from %v", err)
		}
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	err := &DecodeError{Reason: "unknown format"}
	if got := err.Error(); got != "decode image: unknown format" {
		t.Fatalf("unexpected message: %q", got)
	}
}
