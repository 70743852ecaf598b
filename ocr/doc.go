// Package ocr defines the recognizer contract used by the prescription OCR
// pipeline. Engines are pluggable: a local Tesseract binding lives in the
// tesseract subpackage, and tests substitute in-memory fakes. The contract
// is deliberately narrow so callers never see provider-specific types.
package ocr
