package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// fakeAdapter records the input file and answers with canned output.
type fakeAdapter struct {
	stdout string
	stderr string
	err    error

	args  []string
	input map[string]string
}

func (f *fakeAdapter) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	for i, a := range args {
		if a == "--input" && i+1 < len(args) {
			data, err := os.ReadFile(args[i+1])
			if err == nil {
				_ = json.Unmarshal(data, &f.input)
			}
		}
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newTestClient(t *testing.T, f *fakeAdapter) *Client {
	t.Helper()
	c := New("/opt/bin/section-ocr", nil)
	c.TmpDir = t.TempDir()
	c.Runner = f
	return c
}

func TestRecognize_Success(t *testing.T) {
	f := &fakeAdapter{stdout: `{"success":true,"data":{"title":"Hello\nWorld","body":""}}` + "\n"}
	c := newTestClient(t, f)
	c.Lang = "german"

	sections := map[string]string{"title": "/img/1.png", "body": ""}
	got, err := c.Recognize(context.Background(), sections)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	want := map[string]string{"title": "Hello\nWorld", "body": ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(f.input, sections) {
		t.Errorf("adapter input: got %v, want %v", f.input, sections)
	}
	if f.args[0] != "/opt/bin/section-ocr" || f.args[3] != "--lang" || f.args[4] != "german" {
		t.Errorf("unexpected args: %v", f.args)
	}
	if !strings.HasSuffix(f.args[2], "-ocr-input.json") {
		t.Errorf("input file name: %s", f.args[2])
	}
}

func TestRecognize_RemovesInputFile(t *testing.T) {
	f := &fakeAdapter{stdout: `{"success":true,"data":{}}`}
	c := newTestClient(t, f)

	if _, err := c.Recognize(context.Background(), map[string]string{"a": ""}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(c.TmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir should be empty, found %d entries", len(entries))
	}
}

func TestRecognize_FailureEnvelope(t *testing.T) {
	f := &fakeAdapter{stdout: `{"success":false,"error":"Failed to read input: boom"}`}
	c := newTestClient(t, f)

	got, err := c.Recognize(context.Background(), map[string]string{"a": "x.png"})
	var ae *AdapterError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AdapterError, got %v", err)
	}
	if ae.Message != "Failed to read input: boom" {
		t.Errorf("Message: got %q", ae.Message)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestRecognize_NonZeroExit(t *testing.T) {
	f := &fakeAdapter{stderr: "traceback: engine exploded", err: &exec.ExitError{}}
	c := newTestClient(t, f)

	_, err := c.Recognize(context.Background(), map[string]string{"a": "x.png"})
	if !errors.Is(err, ErrAdapterExit) {
		t.Fatalf("expected ErrAdapterExit, got %v", err)
	}
	if !strings.Contains(err.Error(), "engine exploded") {
		t.Errorf("error should quote stderr: %v", err)
	}
}

func TestRecognize_FailureEnvelopeWithExitStatus(t *testing.T) {
	f := &fakeAdapter{
		stdout: `{"success":false,"error":"OCR engine load failed: OCR engine unavailable"}` + "\n",
		stderr: "ERROR engine load failed",
		err:    errors.New("exit status 1"),
	}
	c := newTestClient(t, f)

	got, err := c.Recognize(context.Background(), map[string]string{"a": "x.png"})
	var ae *AdapterError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AdapterError, got %v", err)
	}
	if ae.Message != "OCR engine load failed: OCR engine unavailable" {
		t.Errorf("Message: got %q", ae.Message)
	}
	if errors.Is(err, ErrAdapterExit) {
		t.Error("a failure envelope should not be reported as a bare exit error")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestRecognize_NonZeroExitFallsBackToStdout(t *testing.T) {
	f := &fakeAdapter{stdout: "panic: runtime error", err: errors.New("exit status 2")}
	c := newTestClient(t, f)

	_, err := c.Recognize(context.Background(), nil)
	if !errors.Is(err, ErrAdapterExit) {
		t.Fatalf("expected ErrAdapterExit, got %v", err)
	}
	if !strings.Contains(err.Error(), "panic: runtime error") {
		t.Errorf("error should quote stdout when stderr is empty: %v", err)
	}
}

func TestRecognize_LongOutputTruncated(t *testing.T) {
	f := &fakeAdapter{stderr: strings.Repeat("x", 10000), err: errors.New("exit status 1")}
	c := newTestClient(t, f)

	_, err := c.Recognize(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Error()) > maxErrorOutput+200 {
		t.Errorf("error not truncated: %d bytes", len(err.Error()))
	}
}

func TestRecognize_InvalidOutput(t *testing.T) {
	f := &fakeAdapter{stdout: "Segmentation fault"}
	c := newTestClient(t, f)

	_, err := c.Recognize(context.Background(), map[string]string{})
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestRecognize_Defaults(t *testing.T) {
	f := &fakeAdapter{stdout: `{"success":true}`}
	c := &Client{Runner: f, TmpDir: filepath.Join(t.TempDir(), "nested")}

	got, err := c.Recognize(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil map, got %v", got)
	}
	if f.args[0] != "section-ocr" || f.args[4] != "en" {
		t.Errorf("defaults not applied: %v", f.args)
	}
}

func TestAdapterError(t *testing.T) {
	err := &AdapterError{Message: "boom"}
	if err.Error() != "ocr adapter: boom" {
		t.Errorf("got %q", err.Error())
	}
}
