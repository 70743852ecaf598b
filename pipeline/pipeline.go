// Package pipeline recognizes handwritten prescription text from base64
// images: it checks the cache, preprocesses once, tries the handwriting
// model and falls back to the generic model.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/meditatva/rxocr/cache"
	"github.com/meditatva/rxocr/imaging"
	"github.com/meditatva/rxocr/observability"
	"github.com/meditatva/rxocr/ocr"
	"github.com/meditatva/rxocr/preprocess"
)

// Config selects models and preprocessing for a Pipeline.
type Config struct {
	Preprocess    preprocess.Config
	PrimaryModel  string
	FallbackModel string
	// Deduplicate collapses concurrent requests for the same image into one
	// execution. Only the first caller's progress sink is notified. The
	// shared execution ignores caller cancellation; each caller stops
	// waiting when its own context is done, and the result is still cached.
	Deduplicate bool
}

// DefaultConfig uses the handwriting model first and the generic English
// model as fallback.
func DefaultConfig() Config {
	return Config{
		Preprocess:    preprocess.DefaultConfig(),
		PrimaryModel:  ocr.ModelHandwritten,
		FallbackModel: ocr.ModelGeneric,
	}
}

// withDefaults fills empty model ids and an unset preprocess section
// (MaxDimension 0) from DefaultConfig. A set Denoise hook is kept.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PrimaryModel == "" {
		c.PrimaryModel = def.PrimaryModel
	}
	if c.FallbackModel == "" {
		c.FallbackModel = def.FallbackModel
	}
	if c.Preprocess.MaxDimension == 0 {
		denoise := c.Preprocess.Denoise
		c.Preprocess = def.Preprocess
		c.Preprocess.Denoise = denoise
	}
	return c
}

// Pipeline is safe for concurrent use. Its only shared state is the cache.
type Pipeline struct {
	engine ocr.Engine
	cache  cache.Cache
	cfg    Config
	logger observability.Logger
	tracer observability.Tracer
	group  singleflight.Group
	newID  func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to observability.NopLogger.
func WithLogger(l observability.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTracer sets the tracer. Defaults to observability.NopTracer.
func WithTracer(t observability.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// New builds a pipeline. A nil engine uses ocr.DefaultEngine; a nil cache
// uses an unbounded in-memory cache owned by the pipeline. Empty model ids
// and a zero preprocess section take their DefaultConfig values.
func New(engine ocr.Engine, c cache.Cache, cfg Config, opts ...Option) *Pipeline {
	if engine == nil {
		engine = ocr.DefaultEngine()
	}
	if c == nil {
		c, _ = cache.NewLRU(0)
	}
	p := &Pipeline{
		engine: engine,
		cache:  c,
		cfg:    cfg.withDefaults(),
		logger: observability.NopLogger{},
		tracer: observability.NopTracer(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecognizeHandwrittenText returns the text recognized in a bare base64
// image. Empty text is a normal result. Errors are a DecodeError for a bad
// payload, or the fallback model's error.
func (p *Pipeline) RecognizeHandwrittenText(ctx context.Context, imageBase64 string, onProgress ocr.ProgressFunc) (string, error) {
	rep, err := p.Recognize(ctx, imageBase64, onProgress)
	if err != nil {
		return "", err
	}
	return rep.Text, nil
}

// Recognize is RecognizeHandwrittenText with a report of every attempt.
func (p *Pipeline) Recognize(ctx context.Context, imageBase64 string, onProgress ocr.ProgressFunc) (Report, error) {
	key := cache.Key(imageBase64)
	if !p.cfg.Deduplicate {
		return p.run(ctx, key, imageBase64, onProgress)
	}
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (interface{}, error) {
		return p.run(shared, key, imageBase64, onProgress)
	})
	select {
	case res := <-ch:
		rep, _ := res.Val.(Report)
		return rep, res.Err
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

func (p *Pipeline) run(ctx context.Context, key, imageBase64 string, onProgress ocr.ProgressFunc) (Report, error) {
	ctx, span := p.tracer.StartSpan(ctx, observability.SpanRecognize)
	defer span.Finish()
	log := p.logger.With(observability.String("request_id", p.newID()))
	start := time.Now()

	if text, ok := p.lookup(ctx, log, key); ok {
		span.SetTag("cached", true)
		log.Debug("cache hit", observability.Int("chars", len(text)))
		return Report{Text: text, Cached: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	img, err := p.preprocess(ctx, imageBase64)
	if err != nil {
		span.SetError(err)
		log.Warn("preprocess failed", observability.Error("error", err))
		return Report{}, err
	}

	primary := p.attempt(ctx, log, p.cfg.PrimaryModel, img, onProgress)
	rep := Report{Attempts: []Attempt{primary}}
	if primary.Outcome == OutcomeText {
		rep.Text, rep.Model = primary.Text, primary.Model
		p.store(ctx, log, key, rep.Text)
		log.Info("recognized text", observability.String("model", rep.Model), observability.Duration("elapsed", time.Since(start)))
		return rep, nil
	}
	if primary.Outcome == OutcomeFailed {
		log.Info("primary model failed, falling back",
			observability.String("model", primary.Model),
			observability.Bool("model_unavailable", ocr.IsModelLoad(primary.Err)),
			observability.Error("error", primary.Err))
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	fallback := p.attempt(ctx, log, p.cfg.FallbackModel, img, onProgress)
	rep.Attempts = append(rep.Attempts, fallback)
	if fallback.Outcome == OutcomeFailed {
		span.SetError(fallback.Err)
		log.Error("fallback model failed", observability.String("model", fallback.Model), observability.Error("error", fallback.Err))
		return rep, fmt.Errorf("fallback model %q: %w", fallback.Model, fallback.Err)
	}
	rep.Text, rep.Model = fallback.Text, fallback.Model
	p.store(ctx, log, key, rep.Text)
	log.Info("recognized text",
		observability.String("model", rep.Model),
		observability.Bool("empty", fallback.Outcome == OutcomeEmpty),
		observability.Duration("elapsed", time.Since(start)))
	return rep, nil
}

func (p *Pipeline) preprocess(ctx context.Context, imageBase64 string) ([]byte, error) {
	_, span := p.tracer.StartSpan(ctx, observability.SpanPreprocess)
	defer span.Finish()
	prepared, err := preprocess.Preprocess(imageBase64, preprocess.Advanced, p.cfg.Preprocess)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return imaging.DecodeBytes(prepared)
}

func (p *Pipeline) attempt(ctx context.Context, log observability.Logger, model string, img []byte, onProgress ocr.ProgressFunc) Attempt {
	ctx, span := p.tracer.StartSpan(ctx, observability.SpanAttempt)
	defer span.Finish()
	span.SetTag("model", model)

	start := time.Now()
	req := ocr.NewRequest(img, model,
		ocr.WithFormat(p.cfg.Preprocess.OutputFormat),
		ocr.WithProgress(ocr.MonotonicProgress(onProgress)),
	)
	res, err := p.engine.Recognize(ctx, req)
	a := Attempt{Model: model, Elapsed: time.Since(start)}
	switch {
	case err != nil:
		a.Outcome, a.Err = OutcomeFailed, err
		span.SetError(err)
	case res.IsEmpty():
		a.Outcome, a.Text = OutcomeEmpty, res.Text
	default:
		a.Outcome, a.Text = OutcomeText, res.Text
	}
	span.SetTag("outcome", a.Outcome.String())
	log.Debug("recognition attempt finished",
		observability.String("engine", p.engine.Name()),
		observability.String("model", model),
		observability.String("outcome", a.Outcome.String()),
		observability.Float64("confidence", res.Confidence),
		observability.Duration("elapsed", a.Elapsed))
	return a
}

// Cache failures degrade to a miss or a skipped store.
func (p *Pipeline) lookup(ctx context.Context, log observability.Logger, key string) (string, bool) {
	text, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache lookup failed", observability.Error("error", err))
		return "", false
	}
	return text, ok
}

func (p *Pipeline) store(ctx context.Context, log observability.Logger, key, text string) {
	if err := p.cache.Set(ctx, key, text); err != nil {
		log.Warn("cache store failed", observability.Error("error", err))
	}
}
