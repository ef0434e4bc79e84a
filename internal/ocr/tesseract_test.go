//go:build cgo

package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createTextImage renders lines of text in black on white and scales the
// result up so Tesseract has enough pixels per glyph.
func createTextImage(t *testing.T, lines []string, scale int) string {
	t.Helper()

	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}
	// basicfont.Face7x13 is 7 pixels wide, 13 pixels tall per character
	w := maxLen*7 + 40
	h := len(lines)*16 + 30

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	for i, line := range lines {
		drawText(small, 20, 20+i*16, line, color.Black)
	}

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "text.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// newTestEngine returns a gosseract engine or skips when Tesseract or the
// English language data is not installed.
func newTestEngine(t *testing.T) *TesseractEngine {
	t.Helper()
	e, err := NewTesseractEngine(Options{Language: "en"}, nil)
	if err != nil {
		if errors.Is(err, ErrEngineUnavailable) {
			t.Skipf("Tesseract not available: %v", err)
		}
		t.Fatalf("NewTesseractEngine failed: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNewTesseractEngine_GPU(t *testing.T) {
	_, err := NewTesseractEngine(Options{UseGPU: true}, nil)
	if !errors.Is(err, ErrGPUUnsupported) {
		t.Errorf("expected ErrGPUUnsupported, got %v", err)
	}
}

func TestNewTesseractEngine_MissingLanguage(t *testing.T) {
	newTestEngine(t) // skip unless Tesseract itself works

	_, err := NewTesseractEngine(Options{Language: "zz_not_a_language"}, nil)
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestTesseractEngine_Info(t *testing.T) {
	e := newTestEngine(t)
	info := e.Info()
	if info.Backend != BackendGosseract {
		t.Errorf("Backend: got %q", info.Backend)
	}
	if info.Language != "eng" {
		t.Errorf("Language: got %q, want eng", info.Language)
	}
	t.Logf("Tesseract version: %s", info.Version)
}

func TestTesseractEngine_Recognize(t *testing.T) {
	e := newTestEngine(t)
	imgPath := createTextImage(t, []string{"HELLO WORLD"}, 3)

	pages, err := e.Recognize(context.Background(), imgPath, false)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	t.Logf("Extracted text: %q", JoinLines(pages))
	for i, line := range pages[0] {
		if line.Confidence < 0 || line.Confidence > 1 {
			t.Errorf("line %d confidence out of range: %f", i, line.Confidence)
		}
	}
}

func TestTesseractEngine_RecognizeMultiLine(t *testing.T) {
	e := newTestEngine(t)
	imgPath := createTextImage(t, []string{"LINE ONE", "LINE TWO", "LINE THREE"}, 3)

	pages, err := e.Recognize(context.Background(), imgPath, true)
	if err != nil {
		t.Fatalf("Recognize with orientation classification failed: %v", err)
	}

	for i, line := range pages[0] {
		t.Logf("  Line %d: %q (confidence: %.2f)", i, line.Text, line.Confidence)
	}
}

func TestTesseractEngine_ReusedAcrossImages(t *testing.T) {
	e := newTestEngine(t)
	first := createTextImage(t, []string{"FIRST"}, 4)
	second := createTextImage(t, []string{"SECOND"}, 4)

	for _, p := range []string{first, second, first} {
		if _, err := e.Recognize(context.Background(), p, false); err != nil {
			t.Fatalf("Recognize(%s) failed: %v", p, err)
		}
	}
}

func TestTesseractEngine_NonExistentFile(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Recognize(context.Background(), "/nonexistent/path/image.png", false)
	if !errors.Is(err, ErrRecognition) {
		t.Errorf("expected ErrRecognition, got %v", err)
	}
}

func TestTesseractEngine_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Recognize(ctx, createTextImage(t, []string{"X"}, 2), false); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
