// Package config loads pipeline settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/meditatva/rxocr/ocr"
	"github.com/meditatva/rxocr/pipeline"
	"github.com/meditatva/rxocr/preprocess"
)

// Config holds every tunable of the OCR pipeline and its host process.
type Config struct {
	// Preprocessing
	MaxDimension      int
	BinarizeThreshold int
	ContrastPercent   int
	BrightnessPercent int
	Quality           int
	OutputFormat      string

	// Recognition
	PrimaryModel   string
	FallbackModel  string
	TessdataPrefix string
	Deduplicate    bool

	// Cache
	CacheSize int
	RedisURL  string
	CacheTTL  time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	pp := preprocess.DefaultConfig()
	return Config{
		MaxDimension:      pp.MaxDimension,
		BinarizeThreshold: pp.BinarizeThreshold,
		ContrastPercent:   pp.ContrastPercent,
		BrightnessPercent: pp.BrightnessPercent,
		Quality:           pp.Quality,
		OutputFormat:      "jpeg",
		PrimaryModel:      ocr.ModelHandwritten,
		FallbackModel:     ocr.ModelGeneric,
		CacheSize:         256,
		CacheTTL:          24 * time.Hour,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Load reads the given .env files (".env" when none are named; missing
// files are ignored), then overlays RXOCR_* environment variables on the
// defaults and validates the result.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv overlays variables found through lookup on the defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	e := envReader{lookup: lookup}
	e.intVar("RXOCR_MAX_DIMENSION", &cfg.MaxDimension)
	e.intVar("RXOCR_BINARIZE_THRESHOLD", &cfg.BinarizeThreshold)
	e.intVar("RXOCR_CONTRAST_PERCENT", &cfg.ContrastPercent)
	e.intVar("RXOCR_BRIGHTNESS_PERCENT", &cfg.BrightnessPercent)
	e.intVar("RXOCR_QUALITY", &cfg.Quality)
	e.strVar("RXOCR_OUTPUT_FORMAT", &cfg.OutputFormat)
	e.strVar("RXOCR_PRIMARY_MODEL", &cfg.PrimaryModel)
	e.strVar("RXOCR_FALLBACK_MODEL", &cfg.FallbackModel)
	e.strVar("RXOCR_TESSDATA_PREFIX", &cfg.TessdataPrefix)
	e.boolVar("RXOCR_DEDUPLICATE", &cfg.Deduplicate)
	e.intVar("RXOCR_CACHE_SIZE", &cfg.CacheSize)
	e.strVar("RXOCR_REDIS_URL", &cfg.RedisURL)
	e.durationVar("RXOCR_CACHE_TTL", &cfg.CacheTTL)
	e.strVar("RXOCR_LOG_LEVEL", &cfg.LogLevel)
	e.strVar("RXOCR_LOG_FORMAT", &cfg.LogFormat)
	if e.err != nil {
		return Config{}, e.err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	if _, err := outputFormat(c.OutputFormat); err != nil {
		return err
	}
	if err := c.Preprocess().Validate(); err != nil {
		return err
	}
	if c.PrimaryModel == "" || c.FallbackModel == "" {
		return fmt.Errorf("RXOCR_PRIMARY_MODEL and RXOCR_FALLBACK_MODEL are required")
	}
	if c.PrimaryModel == c.FallbackModel {
		return fmt.Errorf("primary and fallback model must differ, both are %q", c.PrimaryModel)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("RXOCR_CACHE_TTL must not be negative, got %v", c.CacheTTL)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("RXOCR_LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Preprocess returns the preprocessing settings.
func (c Config) Preprocess() preprocess.Config {
	pp := preprocess.DefaultConfig()
	pp.MaxDimension = c.MaxDimension
	pp.BinarizeThreshold = c.BinarizeThreshold
	pp.ContrastPercent = c.ContrastPercent
	pp.BrightnessPercent = c.BrightnessPercent
	pp.Quality = c.Quality
	pp.OutputFormat, _ = outputFormat(c.OutputFormat)
	return pp
}

// Pipeline returns the controller settings.
func (c Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Preprocess:    c.Preprocess(),
		PrimaryModel:  c.PrimaryModel,
		FallbackModel: c.FallbackModel,
		Deduplicate:   c.Deduplicate,
	}
}

func outputFormat(s string) (ocr.ImageFormat, error) {
	switch strings.ToLower(s) {
	case "jpeg", "jpg", string(ocr.ImageFormatJPEG):
		return ocr.ImageFormatJPEG, nil
	case "png", string(ocr.ImageFormatPNG):
		return ocr.ImageFormatPNG, nil
	}
	return "", fmt.Errorf("RXOCR_OUTPUT_FORMAT must be jpeg or png, got %q", s)
}

// envReader records the first malformed variable.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) strVar(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) intVar(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) boolVar(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = b
}

func (e *envReader) durationVar(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}
