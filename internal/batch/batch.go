// Package batch runs OCR over every section of a mapping.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/section-ocr/internal/imaging"
	"github.com/ironsheep/section-ocr/internal/mapping"
	"github.com/ironsheep/section-ocr/internal/ocr"
)

// Section is the recognized text for one mapping entry.
type Section struct {
	Name string
	Text string
}

// Result holds section texts in mapping order.
type Result []Section

// Map returns the result as a map.
func (r Result) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, s := range r {
		m[s.Name] = s.Text
	}
	return m
}

// MarshalJSON encodes the result as a JSON object whose keys keep mapping
// order. HTML characters are not escaped.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, s := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(s.Name); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		if err := enc.Encode(s.Text); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Failure classes reported in logs for sections that recorded "".
const (
	classUnreadableImage = "unreadable_image"
	classEngineError     = "engine_error"
)

// Runner recognizes the sections of a mapping one at a time with a single
// engine.
type Runner struct {
	Engine ocr.Engine
	Logger *zap.SugaredLogger

	// ClassifyOrientation asks the engine to detect page orientation and
	// applies JPEG EXIF orientation before recognition.
	ClassifyOrientation bool

	// Normalize collapses whitespace in each section's text.
	Normalize bool
}

// Run processes every entry in mapping order and never fails: a section whose
// image is missing or cannot be recognized gets "".
//
// Sections that reference the same image path share one recognition.
func (r *Runner) Run(ctx context.Context, m mapping.Mapping) Result {
	log := r.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	result := make(Result, 0, len(m))
	done := make(map[string]string)

	for _, entry := range m {
		text := ""
		switch {
		case entry.Invalid:
			log.Debugw("section value is not a path", "section", entry.Section)
		case !fileExists(entry.Path):
			log.Debugw("no image for section", "section", entry.Section, "path", entry.Path)
		default:
			if cached, ok := done[entry.Path]; ok {
				text = cached
				break
			}
			var err error
			text, err = r.recognize(ctx, entry.Path)
			if err != nil {
				log.Warnw("ocr failed for section",
					"section", entry.Section,
					"path", entry.Path,
					"class", failureClass(err),
					"error", err,
				)
				text = ""
			}
			done[entry.Path] = text
		}
		result = append(result, Section{Name: entry.Section, Text: text})
	}

	return result
}

// recognize is the only guarded step: image preparation and the engine
// call. A panic inside the engine is reported as a recognition error. An
// engine failure on a file that did not decode here is classed as an
// unreadable image.
func (r *Runner) recognize(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: engine panic: %v", ocr.ErrRecognition, rec)
		}
	}()

	prepared, err := imaging.Prepare(path, r.ClassifyOrientation)
	if err != nil {
		return "", err
	}
	defer prepared.Cleanup()

	if r.Logger != nil {
		r.Logger.Debugw("recognizing image",
			"path", path,
			"format", prepared.Info.Format,
			"width", prepared.Info.Width,
			"height", prepared.Info.Height,
			"oriented", prepared.Oriented,
		)
	}

	pages, err := r.Engine.Recognize(ctx, prepared.Path, r.ClassifyOrientation)
	if err != nil {
		if !prepared.Decoded {
			return "", fmt.Errorf("%w: %w", imaging.ErrUnreadableImage, err)
		}
		return "", err
	}

	text = ocr.JoinLines(pages)
	if r.Normalize {
		text = ocr.NormalizeText(text)
	}
	return text, nil
}

func failureClass(err error) string {
	if errors.Is(err, imaging.ErrUnreadableImage) {
		return classUnreadableImage
	}
	return classEngineError
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
