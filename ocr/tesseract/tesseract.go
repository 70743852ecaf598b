package tesseract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/meditatva/rxocr/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewEngine())
}

// DefaultModels maps pipeline model ids to Tesseract trained-data names.
var DefaultModels = map[string][]string{
	ocr.ModelHandwritten: {"handwritten"},
	ocr.ModelGeneric:     {"eng"},
}

// client is the subset of *gosseract.Client the engine drives.
type client interface {
	Close() error
	SetTessdataPrefix(prefix string) error
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	SetVariable(key gosseract.SettableVariable, value string) error
	Text() (string, error)
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
}

// Engine implements ocr.Engine on top of gosseract. Every call acquires a
// fresh client and closes it before returning.
type Engine struct {
	// TessdataPrefix points at the directory holding *.traineddata files.
	// Empty uses the Tesseract default.
	TessdataPrefix string
	// Models maps model ids to Tesseract languages. Ids that are not in the
	// map are passed through as a single language name.
	Models map[string][]string

	clientFactory func() client
}

// Option configures an Engine.
type Option func(*Engine)

// WithTessdataPrefix sets the trained-data directory.
func WithTessdataPrefix(prefix string) Option {
	return func(e *Engine) { e.TessdataPrefix = prefix }
}

// WithModels replaces the model id mapping.
func WithModels(models map[string][]string) Option {
	return func(e *Engine) { e.Models = models }
}

// NewEngine constructs a Tesseract-backed OCR engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		Models:        DefaultModels,
		clientFactory: func() client { return gosseract.NewClient() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize loads the requested model and runs recognition on one image.
// Progress is reported as 0 once the model is loaded and 1 on completion;
// a failed call reports nothing.
func (e *Engine) Recognize(ctx context.Context, req ocr.Request) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	c := e.clientFactory()
	defer c.Close()

	if err := e.loadModel(c, req.Model); err != nil {
		return ocr.Result{}, &ocr.ModelLoadError{Engine: e.Name(), Model: req.Model, Cause: err}
	}
	return e.recognizeWithClient(ctx, c, req)
}

func (e *Engine) languages(model string) []string {
	if langs, ok := e.Models[model]; ok && len(langs) > 0 {
		return langs
	}
	if model == "" {
		return nil
	}
	return []string{model}
}

func (e *Engine) loadModel(c client, model string) error {
	langs := e.languages(model)
	if len(langs) == 0 {
		return fmt.Errorf("no languages for model")
	}
	if e.TessdataPrefix != "" {
		for _, lang := range langs {
			path := filepath.Join(e.TessdataPrefix, lang+".traineddata")
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("trained data %s: %w", lang, err)
			}
		}
		if err := c.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(langs...); err != nil {
		return fmt.Errorf("set languages: %w", err)
	}
	return nil
}

func (e *Engine) recognizeWithClient(ctx context.Context, c client, req ocr.Request) (ocr.Result, error) {
	fail := func(err error) (ocr.Result, error) {
		return ocr.Result{}, &ocr.RecognitionError{Engine: e.Name(), Model: req.Model, Cause: err}
	}
	if err := c.SetImageFromBytes(req.Image); err != nil {
		return fail(fmt.Errorf("set image: %w", err))
	}
	for k, v := range req.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return fail(fmt.Errorf("set variable %s: %w", k, err))
		}
	}
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	text, err := c.Text()
	if err != nil {
		// gosseract initializes the API lazily, so a missing or broken
		// trained-data file only shows up here.
		if strings.Contains(err.Error(), "initialize") {
			return ocr.Result{}, &ocr.ModelLoadError{Engine: e.Name(), Model: req.Model, Cause: err}
		}
		return fail(fmt.Errorf("recognize text: %w", err))
	}
	// Text loads the model and recognizes in one call, so nothing is
	// reported until the model is known to be loaded.
	progress := ocr.MonotonicProgress(req.Progress)
	progress(0)
	words, avgConf := extractWords(c)
	progress(1)

	return ocr.Result{
		Text:       strings.TrimSpace(text),
		Model:      req.Model,
		Confidence: avgConf,
		Words:      words,
	}, nil
}

func extractWords(c client) ([]ocr.Word, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	words := make([]ocr.Word, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		words = append(words, ocr.Word{
			Text:       b.Word,
			Bounds:     b.Box,
			Confidence: conf,
		})
	}
	return words, sum / float64(len(words))
}
