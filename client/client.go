// Package client invokes the section-ocr binary from Go programs.
//
// It is the caller half of the process-boundary contract: the section
// mapping is written to a temporary JSON file, the adapter runs once, and
// its envelope is decoded.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/section-ocr/internal/runner"
)

// maxErrorOutput caps adapter output quoted in errors.
const maxErrorOutput = 4000

var (
	// ErrAdapterExit means the adapter exited with a non-zero status.
	ErrAdapterExit = errors.New("ocr adapter exited with an error")

	// ErrInvalidOutput means stdout did not hold an envelope.
	ErrInvalidOutput = errors.New("invalid OCR output")
)

// Runner executes the adapter process. Any type with this Run method can be
// plugged in, for example to run the adapter in a container.
type Runner = runner.Runner

// AdapterError carries the message of a failure envelope.
type AdapterError struct {
	Message string

	// ExitCode is the adapter's exit status, or 0 when it exited cleanly.
	ExitCode int
}

func (e *AdapterError) Error() string {
	return "ocr adapter: " + e.Message
}

// Client runs the section-ocr adapter.
type Client struct {
	// Binary is the adapter executable. Defaults to "section-ocr".
	Binary string

	// Lang is passed as --lang. Defaults to "en".
	Lang string

	// TmpDir holds input files. Defaults to <os temp>/ocr-tmp.
	TmpDir string

	// Runner executes the adapter. Defaults to os/exec.
	Runner Runner

	Logger *zap.SugaredLogger
}

// New returns a client for the adapter binary at path.
func New(binary string, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		Binary: binary,
		Lang:   "en",
		TmpDir: filepath.Join(os.TempDir(), "ocr-tmp"),
		Runner: runner.Exec{Logger: logger},
		Logger: logger,
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    map[string]string `json:"data"`
	Error   string            `json:"error"`
}

// Recognize runs OCR for every section and returns section -> text.
//
// A failure envelope yields an empty map and an *AdapterError, whatever the
// exit status. A non-zero exit without an envelope yields ErrAdapterExit;
// unparseable output after a clean exit yields ErrInvalidOutput.
func (c *Client) Recognize(ctx context.Context, sections map[string]string) (map[string]string, error) {
	binary, lang, tmpDir := c.Binary, c.Lang, c.TmpDir
	if binary == "" {
		binary = "section-ocr"
	}
	if lang == "" {
		lang = "en"
	}
	if tmpDir == "" {
		tmpDir = filepath.Join(os.TempDir(), "ocr-tmp")
	}
	r := c.Runner
	if r == nil {
		r = runner.Exec{Logger: c.Logger}
	}

	inputPath, err := writeInput(tmpDir, sections)
	if err != nil {
		return nil, err
	}
	defer os.Remove(inputPath)

	stdout, stderr, err := r.Run(ctx, binary, "--input", inputPath, "--lang", lang)
	out := bytes.TrimSpace(stdout)
	if err != nil {
		// The adapter exits 1 after printing a failure envelope.
		var env envelope
		if json.Unmarshal(out, &env) == nil && !env.Success && env.Error != "" {
			return map[string]string{}, &AdapterError{Message: env.Error, ExitCode: runner.ExitCode(err)}
		}
		detail := bytes.TrimSpace(stderr)
		if len(detail) == 0 {
			detail = out
		}
		return nil, fmt.Errorf("%w: exit %d: %s", ErrAdapterExit, runner.ExitCode(err), runner.Truncate(string(detail), maxErrorOutput))
	}

	var env envelope
	if err := json.Unmarshal(out, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutput, runner.Truncate(string(out), maxErrorOutput))
	}
	if !env.Success {
		return map[string]string{}, &AdapterError{Message: env.Error}
	}
	if env.Data == nil {
		env.Data = map[string]string{}
	}

	if c.Logger != nil {
		c.Logger.Debugw("ocr adapter finished", "sections", len(env.Data))
	}
	return env.Data, nil
}

// writeInput stores sections as <tmpDir>/<uuid>-ocr-input.json.
func writeInput(tmpDir string, sections map[string]string) (string, error) {
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	if sections == nil {
		sections = map[string]string{}
	}
	data, err := json.Marshal(sections)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}
	path := filepath.Join(tmpDir, uuid.NewString()+"-ocr-input.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write input: %w", err)
	}
	return path, nil
}
