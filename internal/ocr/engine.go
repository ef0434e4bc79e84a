package ocr

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/section-ocr/internal/runner"
)

// Backend names accepted by New.
const (
	BackendGosseract    = "gosseract"
	BackendTesseractCLI = "tesseract-cli"
)

var (
	// ErrEngineUnavailable means the engine could not be loaded or initialized.
	ErrEngineUnavailable = errors.New("OCR engine unavailable")

	// ErrRecognition means OCR failed for a single image.
	ErrRecognition = errors.New("OCR failed")

	// ErrGPUUnsupported is returned when GPU inference is requested.
	// Tesseract runs on the CPU only.
	ErrGPUUnsupported = errors.New("GPU inference is not supported by Tesseract")

	// ErrUnknownBackend is returned by New for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown OCR backend")
)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Line is one recognized line of text.
type Line struct {
	// Text is the recognized text. May be empty.
	Text string `json:"text"`

	// Confidence is the recognition confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around the line.
	Bounds Bounds `json:"bounds"`
}

// Page is the sequence of lines recognized on one page, in reading order.
type Page []Line

// Info describes a loaded engine.
type Info struct {
	Backend  string `json:"backend"`
	Version  string `json:"version,omitempty"`
	Language string `json:"language"`
}

// Engine recognizes text in image files. Implementations are not safe for
// concurrent use.
type Engine interface {
	// Recognize runs OCR on the image at imagePath. When classifyOrientation
	// is set the engine detects page orientation before recognition.
	Recognize(ctx context.Context, imagePath string, classifyOrientation bool) ([]Page, error)

	// Info reports the backend, version and language in use.
	Info() Info

	// Close releases engine resources.
	Close() error
}

// Options configures engine initialization.
type Options struct {
	// Language is the language hint, e.g. "en". Empty means "en".
	Language string

	// UseGPU requests GPU inference. Must be false for Tesseract.
	UseGPU bool

	// TessdataPrefix overrides the tessdata directory.
	TessdataPrefix string

	// TesseractBin is the binary used by the tesseract-cli backend.
	// Empty means "tesseract".
	TesseractBin string

	// PSM is the page segmentation mode used without orientation
	// classification. Zero means 3 (fully automatic).
	PSM int

	// Runner executes the tesseract binary. Nil uses os/exec.
	Runner runner.Runner
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = "en"
	}
	if o.TesseractBin == "" {
		o.TesseractBin = "tesseract"
	}
	if o.PSM == 0 {
		o.PSM = psmAuto
	}
	return o
}

const (
	psmAutoOSD = 1
	psmAuto    = 3
)

// New creates the engine for backend.
func New(ctx context.Context, backend string, opts Options, logger *zap.SugaredLogger) (Engine, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.UseGPU {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, ErrGPUUnsupported)
	}

	switch backend {
	case BackendGosseract, "":
		e, err := NewTesseractEngine(opts, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	case BackendTesseractCLI:
		e, err := NewCLIEngine(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
