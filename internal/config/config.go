// Package config loads section-ocr settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ironsheep/section-ocr/internal/ocr"
)

var (
	// ErrInvalidLogLevel means SECTION_OCR_LOG_LEVEL names no known level.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidPSM means SECTION_OCR_PSM is outside Tesseract's range.
	ErrInvalidPSM = errors.New("invalid page segmentation mode")
)

// Config holds all application configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error. Logs always go to stderr.
	LogLevel string

	// Backend selects the OCR engine implementation.
	Backend string

	// TessdataPrefix points Tesseract at a tessdata directory. Empty uses
	// Tesseract's built-in lookup.
	TessdataPrefix string

	// TesseractBin is the tesseract binary used by the tesseract-cli backend.
	TesseractBin string

	// PSM is the page segmentation mode used when orientation
	// classification is not requested.
	PSM int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		LogLevel:       getEnv("SECTION_OCR_LOG_LEVEL", "warn"),
		Backend:        getEnv("SECTION_OCR_BACKEND", ocr.BackendGosseract),
		TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),
		TesseractBin:   getEnv("TESSERACT_BIN", "tesseract"),
		PSM:            getEnvAsInt("SECTION_OCR_PSM", 3),
	}
}

// Validate checks the loaded configuration. An unknown backend wraps
// ocr.ErrUnknownBackend.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w %q (want debug, info, warn or error)", ErrInvalidLogLevel, c.LogLevel)
	}
	switch c.Backend {
	case ocr.BackendGosseract, ocr.BackendTesseractCLI:
	default:
		return fmt.Errorf("%w %q (want %s or %s)", ocr.ErrUnknownBackend, c.Backend, ocr.BackendGosseract, ocr.BackendTesseractCLI)
	}
	// Tesseract accepts 0..13; 0 (OSD only) produces no text.
	if c.PSM < 1 || c.PSM > 13 {
		return fmt.Errorf("%w: %d out of range 1..13", ErrInvalidPSM, c.PSM)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
