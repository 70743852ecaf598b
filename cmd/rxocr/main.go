package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meditatva/rxocr/cache"
	"github.com/meditatva/rxocr/config"
	"github.com/meditatva/rxocr/observability"
	"github.com/meditatva/rxocr/ocr/tesseract"
	"github.com/meditatva/rxocr/pipeline"
	"github.com/meditatva/rxocr/preprocess"
)

type options struct {
	input          string
	envFile        string
	variant        preprocess.Variant
	preprocessOnly bool
	model          string
	progress       bool
	report         bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rxocr: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "rxocr: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: rxocr [flags] <image-file | ->\n")
		fmt.Fprintf(flag.CommandLine.Output(), "  '-' reads a bare base64 payload from stdin.\n")
		flag.PrintDefaults()
	}
	envFile := flag.String("env", ".env", "Optional dotenv file with RXOCR_* settings")
	variant := flag.String("variant", "advanced", "Preprocess variant used with -preprocess-only (basic|advanced)")
	preprocessOnly := flag.Bool("preprocess-only", false, "Print the preprocessed base64 image instead of recognizing text")
	model := flag.String("model", "", "Override the primary recognition model")
	progress := flag.Bool("progress", false, "Log recognition progress")
	report := flag.Bool("report", false, "Log every recognition attempt")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing image path")
	}
	v, err := preprocess.ParseVariant(*variant)
	if err != nil {
		return options{}, err
	}
	opts.input = flag.Arg(0)
	opts.envFile = *envFile
	opts.variant = v
	opts.preprocessOnly = *preprocessOnly
	opts.model = *model
	opts.progress = *progress
	opts.report = *report
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if opts.model != "" {
		cfg.PrimaryModel = opts.model
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, err := observability.NewConsoleLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	payload, err := readPayload(opts.input)
	if err != nil {
		return err
	}

	if opts.preprocessOnly {
		out, err := preprocess.Preprocess(payload, opts.variant, cfg.Preprocess())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, out)
		return err
	}

	store, closeStore, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	engine := tesseract.NewEngine(tesseract.WithTessdataPrefix(cfg.TessdataPrefix))
	p := pipeline.New(engine, store, cfg.Pipeline(), pipeline.WithLogger(logger))

	var onProgress func(float64)
	if opts.progress {
		onProgress = func(f float64) {
			logger.Info("recognizing", observability.Int("percent", int(f*100)))
		}
	}
	rep, err := p.Recognize(ctx, payload, onProgress)
	if opts.report {
		for _, a := range rep.Attempts {
			logger.Info("attempt",
				observability.String("model", a.Model),
				observability.String("outcome", a.Outcome.String()),
				observability.Duration("elapsed", a.Elapsed),
				observability.Error("error", a.Err))
		}
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(rep.Text) == "" {
		logger.Warn("no text found")
		return nil
	}
	_, err = fmt.Fprintln(os.Stdout, rep.Text)
	return err
}

func readPayload(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func openCache(ctx context.Context, cfg config.Config) (cache.Cache, func(), error) {
	if cfg.RedisURL != "" {
		store, client, err := cache.DialRedis(ctx, cfg.RedisURL, cache.DefaultRedisPrefix, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { client.Close() }, nil
	}
	store, err := cache.NewLRU(cfg.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}
