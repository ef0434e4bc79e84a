package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// ErrUnreadableImage marks an engine failure on a file that could not be
// decoded here either.
var ErrUnreadableImage = errors.New("unreadable image")

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels after orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels after orientation is applied.
	Height int `json:"height"`

	// Format is detected from the file extension: "png", "jpeg", "gif",
	// "tiff", "bmp" or "unknown".
	Format string `json:"format"`
}

// Prepared is an image ready to be handed to the OCR engine.
type Prepared struct {
	// Path is the file the engine should read. It differs from the source
	// path when the image had to be rewritten upright.
	Path string

	// Info describes the decoded image. Width and Height are zero when the
	// format is unknown and the image was not decoded.
	Info ImageInfo

	// Oriented is set when Path points at a temporary upright copy.
	Oriented bool

	// Decoded is set when the image was decoded here. Files that fail to
	// decode are still handed to the engine, which reads more variants
	// (1-bit BMP, JPEG-compressed TIFF) than the Go decoders.
	Decoded bool

	cleanup func()
}

// Cleanup removes any temporary file created by Prepare. It is safe to call
// on a nil *Prepared and more than once.
func (p *Prepared) Cleanup() {
	if p == nil || p.cleanup == nil {
		return
	}
	p.cleanup()
	p.cleanup = nil
}

// Prepare probes the file at path and, when autoOrient is set, applies the
// JPEG EXIF orientation tag.
//
// Parameters:
//   - path: Path to the image file.
//   - autoOrient: Rotate/flip JPEG images according to their EXIF
//     orientation before OCR.
//
// Returns:
//   - *Prepared: The path to hand to the engine plus image metadata. Call
//     Cleanup when done.
//   - error: Only when an oriented copy cannot be written.
//
// # Unknown Formats
//
// Files whose extension is not one of the formats decoded here (for example
// .webp), and files the Go decoders reject, are passed through untouched with
// Format "unknown"; the engine decides whether it can read them.
//
// # Orientation
//
// EXIF orientation only exists for JPEG files. An oriented JPEG is written to
// a temporary PNG so the engine sees upright pixels. Other formats are used
// in place.
func Prepare(path string, autoOrient bool) (*Prepared, error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return &Prepared{Path: path, Info: ImageInfo{Format: "unknown"}}, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(autoOrient))
	if err != nil {
		return &Prepared{Path: path, Info: ImageInfo{Format: "unknown"}}, nil
	}

	bounds := img.Bounds()
	p := &Prepared{
		Path: path,
		Info: ImageInfo{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Format: formatName(format),
		},
		Decoded: true,
	}

	if !autoOrient || format != imaging.JPEG {
		return p, nil
	}

	tmpPath, err := saveTempPNG(img)
	if err != nil {
		return nil, err
	}
	p.Path = tmpPath
	p.Oriented = true
	p.cleanup = func() { _ = os.Remove(tmpPath) }
	return p, nil
}

// saveTempPNG writes img to a temporary PNG file and returns its path.
// The caller is responsible for deleting the file.
func saveTempPNG(img image.Image) (string, error) {
	tmpFile, err := os.CreateTemp("", "section-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := imaging.Encode(tmpFile, img, imaging.PNG); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	return tmpPath, nil
}

func formatName(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "jpeg"
	case imaging.PNG:
		return "png"
	case imaging.GIF:
		return "gif"
	case imaging.TIFF:
		return "tiff"
	case imaging.BMP:
		return "bmp"
	default:
		return "unknown"
	}
}
