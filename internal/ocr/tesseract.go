//go:build cgo

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractEngine performs OCR through the native Tesseract API.
//
// A single gosseract client is created at construction time and reused for
// every image, so language data is loaded once per process.
type TesseractEngine struct {
	client *gosseract.Client
	lang   string
	psm    gosseract.PageSegMode
	logger *zap.SugaredLogger
}

// NewTesseractEngine creates a gosseract client for opts.Language and forces
// Tesseract to initialize by recognizing a blank image, so missing language
// data surfaces here rather than on the first real image.
//
// Returns ErrEngineUnavailable (wrapped) when initialization fails.
func NewTesseractEngine(opts Options, logger *zap.SugaredLogger) (*TesseractEngine, error) {
	if opts.UseGPU {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, ErrGPUUnsupported)
	}
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	lang := TesseractLanguage(opts.Language)

	client := gosseract.NewClient()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: failed to set tessdata path: %w", ErrEngineUnavailable, err)
		}
	}

	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set language: %w", ErrEngineUnavailable, err)
	}

	if err := warmUp(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: language %q: %w", ErrEngineUnavailable, lang, err)
	}

	logger.Debugw("tesseract engine ready", "language", lang, "version", client.Version())

	return &TesseractEngine{
		client: client,
		lang:   lang,
		psm:    gosseract.PageSegMode(opts.PSM),
		logger: logger,
	}, nil
}

// warmUp runs OCR on a small blank PNG. gosseract initializes the
// Tesseract API lazily on the first recognition call.
func warmUp(client *gosseract.Client) error {
	blank := imaging.New(64, 32, color.White)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, blank, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode warm-up image: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to set warm-up image: %w", err)
	}
	if _, err := client.Text(); err != nil {
		return err
	}
	return nil
}

// Recognize performs OCR on an entire image file and returns its text lines.
//
// Lines come from Tesseract's RIL_TEXTLINE iterator level, each with its
// bounding box and confidence. Tesseract returns a single page per image.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string, classifyOrientation bool) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	psm := e.psm
	if classifyOrientation {
		psm = gosseract.PSM_AUTO_OSD
	}
	if err := e.client.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("%w: failed to set page segmentation mode: %w", ErrRecognition, err)
	}

	if err := e.client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("%w: failed to set image: %w", ErrRecognition, err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognition, err)
	}

	page := make(Page, 0, len(boxes))
	for _, box := range boxes {
		page = append(page, Line{
			Text:       strings.TrimSpace(box.Word),
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return []Page{page}, nil
}

// Info returns information about the loaded engine.
func (e *TesseractEngine) Info() Info {
	return Info{
		Backend:  BackendGosseract,
		Version:  e.client.Version(),
		Language: e.lang,
	}
}

// Close releases the Tesseract client.
func (e *TesseractEngine) Close() error {
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
