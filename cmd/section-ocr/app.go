package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/section-ocr/internal/batch"
	"github.com/ironsheep/section-ocr/internal/config"
	"github.com/ironsheep/section-ocr/internal/envelope"
	"github.com/ironsheep/section-ocr/internal/logging"
	"github.com/ironsheep/section-ocr/internal/mapping"
	"github.com/ironsheep/section-ocr/internal/ocr"
)

// engineFactory builds the OCR engine; tests substitute a fake.
type engineFactory func(ctx context.Context, backend string, opts ocr.Options, logger *zap.SugaredLogger) (ocr.Engine, error)

type options struct {
	input     string
	lang      string
	backend   string
	normalize bool
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, newEngine engineFactory) int {
	cfg := config.Load()
	opts := options{lang: "en", backend: cfg.Backend}
	code := envelope.ExitOK
	var writeErr error

	cmd := &cobra.Command{
		Use:   "section-ocr --input <mapping.json> [--lang <code>]",
		Short: "OCR a JSON mapping of section names to image paths",
		Long: `section-ocr reads a JSON object mapping section names to image paths,
runs OCR on each image and prints one JSON envelope on stdout:

  {"success": true, "data": {"<section>": "<text>", ...}}
  {"success": false, "error": "<message>"}

Missing images and images that fail OCR produce "" for their section.
The exit code is 1 when the input cannot be read, the configuration is
invalid or the OCR engine cannot be loaded.

Environment variables:
  SECTION_OCR_LOG_LEVEL=debug   Log level for stderr (default warn)
  SECTION_OCR_BACKEND           gosseract (default) or tesseract-cli
  TESSDATA_PREFIX               Tesseract language data directory
  TESSERACT_BIN                 tesseract binary for the tesseract-cli backend
  SECTION_OCR_PSM               Page segmentation mode without orientation
                                classification (default 3)`,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := process(cmd.Context(), cfg, opts, stderr, newEngine)
			code = env.ExitCode()
			writeErr = envelope.Write(stdout, env)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.input, "input", "", "Path to JSON mapping {section: imagePath} (required)")
	flags.StringVar(&opts.lang, "lang", opts.lang, "Language hint for the OCR engine (en, ch, german, ... or a Tesseract code)")
	flags.StringVar(&opts.backend, "backend", opts.backend, "OCR backend: gosseract or tesseract-cli")
	flags.BoolVar(&opts.normalize, "normalize", false, "Collapse whitespace and blank lines in recognized text")
	_ = cmd.MarkFlagRequired("input")

	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, cmd.UsageString())
		return envelope.ExitUsage
	}
	if writeErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", writeErr)
		return envelope.ExitFatal
	}
	return code
}

// process reads the mapping, loads the engine, runs OCR and returns the
// envelope to print. The fatal points come in that order: configuration,
// input, engine.
func process(ctx context.Context, cfg *config.Config, opts options, stderr io.Writer, newEngine engineFactory) envelope.Envelope {
	cfg.Backend = opts.backend

	cfgErr := cfg.Validate()
	if errors.Is(cfgErr, config.ErrInvalidLogLevel) {
		return envelope.Failure("Invalid configuration: %v", cfgErr)
	}

	log, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return envelope.Failure("Invalid configuration: %v", err)
	}
	defer log.Sync() //nolint:errcheck

	m, err := mapping.Load(opts.input)
	if err != nil {
		log.Errorw("input load failed", "input", opts.input, "error", err)
		return envelope.Failure("Failed to read input: %v", err)
	}

	if cfgErr != nil {
		log.Errorw("engine configuration rejected", "backend", cfg.Backend, "error", cfgErr)
		return envelope.Failure("OCR engine load failed: invalid configuration: %v", cfgErr)
	}

	engine, err := newEngine(ctx, cfg.Backend, ocr.Options{
		Language:       opts.lang,
		UseGPU:         false,
		TessdataPrefix: cfg.TessdataPrefix,
		TesseractBin:   cfg.TesseractBin,
		PSM:            cfg.PSM,
	}, log)
	if err != nil {
		log.Errorw("engine load failed", "backend", cfg.Backend, "lang", opts.lang, "error", err)
		return envelope.Failure("OCR engine load failed: %v", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			log.Warnw("close engine", "error", cerr)
		}
	}()

	info := engine.Info()
	log.Debugw("engine loaded", "backend", info.Backend, "version", info.Version, "language", info.Language)

	runner := &batch.Runner{
		Engine:              engine,
		Logger:              log,
		ClassifyOrientation: true,
		Normalize:           opts.normalize,
	}
	result := runner.Run(ctx, m)

	log.Infow("ocr finished", "sections", len(result))
	return envelope.Success(result)
}
