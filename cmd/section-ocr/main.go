// Command section-ocr runs OCR over a JSON mapping of section names to image
// paths and prints one JSON envelope with the recognized text per section.
//
// Usage:
//
//	section-ocr --input <mapping.json> [--lang en]
//
// Logs go to stderr; stdout carries only the envelope.
package main

import (
	"os"

	"github.com/ironsheep/section-ocr/internal/ocr"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, ocr.New))
}
