// Package envelope writes the single JSON document section-ocr prints on
// stdout.
//
// Success:
//
//	{"success":true,"data":{"<section>":"<text>",...}}
//
// Failure:
//
//	{"success":false,"error":"<message>"}
package envelope

import (
	"encoding/json"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitFatal = 1
	ExitUsage = 2
)

// Envelope is the tagged result written to stdout.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success wraps data in a success envelope. A nil data value is encoded as
// an empty object.
func Success(data interface{}) Envelope {
	if data == nil {
		data = struct{}{}
	}
	return Envelope{Success: true, Data: data}
}

// Failure builds a failure envelope.
func Failure(format string, args ...interface{}) Envelope {
	return Envelope{Success: false, Error: fmt.Sprintf(format, args...)}
}

// ExitCode returns the process exit code that goes with e.
func (e Envelope) ExitCode() int {
	if e.Success {
		return ExitOK
	}
	return ExitFatal
}

// Write encodes e as one line of UTF-8 JSON. Non-ASCII text is written as-is
// and HTML characters are not escaped.
func Write(w io.Writer, e Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}
