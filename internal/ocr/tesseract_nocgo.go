//go:build !cgo

package ocr

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TesseractEngine is unavailable in builds without cgo.
type TesseractEngine struct{}

// NewTesseractEngine always fails without cgo. Use the tesseract-cli backend.
func NewTesseractEngine(opts Options, logger *zap.SugaredLogger) (*TesseractEngine, error) {
	return nil, fmt.Errorf("%w: the gosseract backend requires cgo; use --backend %s", ErrEngineUnavailable, BackendTesseractCLI)
}

func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string, classifyOrientation bool) ([]Page, error) {
	return nil, ErrEngineUnavailable
}

func (e *TesseractEngine) Info() Info { return Info{Backend: BackendGosseract} }

func (e *TesseractEngine) Close() error { return nil }
