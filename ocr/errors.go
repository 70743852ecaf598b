package ocr

import (
	"errors"
	"fmt"
)

// DecodeError reports an image payload that is not valid base64 or not a
// decodable raster.
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode image: %s: %v", e.Reason, e.Cause)
	}
	return "decode image: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ModelLoadError reports that an engine could not load the requested model.
type ModelLoadError struct {
	Engine string
	Model  string
	Cause  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("%s: load model %q: %v", e.Engine, e.Model, e.Cause)
}

func (e *ModelLoadError) Unwrap() error { return e.Cause }

// RecognitionError reports an engine failure while recognizing text.
type RecognitionError struct {
	Engine string
	Model  string
	Cause  error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("%s: recognize with model %q: %v", e.Engine, e.Model, e.Cause)
}

func (e *RecognitionError) Unwrap() error { return e.Cause }

// IsDecode reports whether err carries a DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsModelLoad reports whether err carries a ModelLoadError.
func IsModelLoad(err error) bool {
	var target *ModelLoadError
	return errors.As(err, &target)
}

// IsRecognition reports whether err carries a RecognitionError.
func IsRecognition(err error) bool {
	var target *RecognitionError
	return errors.As(err, &target)
}
