package ocr

import "strconv"

// RequestOption mutates a Request during construction.
type RequestOption func(*Request)

// NewRequest builds a recognition request for an encoded image.
func NewRequest(img []byte, model string, opts ...RequestOption) Request {
	req := Request{Image: img, Model: model}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithProgress sets the progress sink.
func WithProgress(fn ProgressFunc) RequestOption {
	return func(r *Request) { r.Progress = fn }
}

// WithFormat declares the image content type.
func WithFormat(format ImageFormat) RequestOption {
	return func(r *Request) { r.Format = format }
}

// WithMetadata sets provider-specific metadata for the request.
func WithMetadata(metadata map[string]string) RequestOption {
	return func(r *Request) {
		if len(metadata) == 0 {
			r.Metadata = nil
			return
		}
		r.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			r.Metadata[k] = v
		}
	}
}

// WithTesseractPSM sets the page segmentation mode (PSM) variable for Tesseract.
// See https://tesseract-ocr.github.io/tessdoc/ImproveQuality.html#page-segmentation-method for values.
func WithTesseractPSM(mode int) RequestOption {
	return func(r *Request) {
		if r.Metadata == nil {
			r.Metadata = make(map[string]string)
		}
		r.Metadata["tessedit_pageseg_mode"] = strconv.Itoa(mode)
	}
}

// WithTesseractWhitelist restricts recognition to the provided characters.
func WithTesseractWhitelist(chars string) RequestOption {
	return func(r *Request) {
		if r.Metadata == nil {
			r.Metadata = make(map[string]string)
		}
		r.Metadata["tessedit_char_whitelist"] = chars
	}
}
