// Package ocr runs Optical Character Recognition (OCR) on image files using Tesseract.
//
// Two backends implement the Engine interface:
//
//   - "gosseract": native Tesseract bindings via gosseract/v2 (requires cgo).
//     One client is created per engine and reused for every image.
//   - "tesseract-cli": shells out to the tesseract binary and parses its TSV
//     output. Useful when the binary is built without cgo.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// Orientation classification uses Tesseract's OSD page segmentation mode and
// needs osd.traineddata.
//
// # Languages
//
// Callers pass short language hints such as "en", "ch" or "german". They are
// mapped to Tesseract codes by TesseractLanguage. Codes that already name
// Tesseract data ("eng", "deu+eng") are used as-is.
//
// # Results
//
// Recognize returns pages of lines. Tesseract yields a single page for
// ordinary images and one page per frame for multi-page TIFFs through the CLI
// backend. JoinLines flattens the result into newline-separated text.
//
// # Error Handling
//
// Constructors fail with ErrEngineUnavailable when Tesseract or the requested
// language data cannot be loaded. Recognize fails with ErrRecognition for a
// single image; callers are expected to keep going with the next one.
package ocr
