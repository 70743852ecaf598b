package ocr

import (
	"context"
	"sync"
)

var (
	defaultMu     sync.RWMutex
	defaultEngine Engine = noopEngine{}
)

// DefaultEngine returns the library's default OCR engine. Importing the
// tesseract subpackage installs Tesseract as the default.
func DefaultEngine() Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}

// SetDefaultEngine sets the library's default OCR engine. A nil engine
// restores the noop engine.
func SetDefaultEngine(engine Engine) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if engine == nil {
		engine = noopEngine{}
	}
	defaultEngine = engine
}

type noopEngine struct{}

func (noopEngine) Name() string {
	return "noop"
}

func (noopEngine) Recognize(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{Model: req.Model}, nil
}
