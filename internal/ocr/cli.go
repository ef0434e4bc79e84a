package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/section-ocr/internal/runner"
)

// CLIEngine performs OCR by running the tesseract binary and parsing its
// TSV output.
type CLIEngine struct {
	bin      string
	lang     string
	tessdata string
	psm      int
	version  string
	runner   runner.Runner
	logger   *zap.SugaredLogger
}

// NewCLIEngine checks that the tesseract binary runs and that data for every
// requested language is installed.
//
// Returns ErrEngineUnavailable (wrapped) when either check fails.
func NewCLIEngine(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*CLIEngine, error) {
	if opts.UseGPU {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, ErrGPUUnsupported)
	}
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := opts.Runner
	if r == nil {
		r = runner.Exec{Logger: logger}
	}

	e := &CLIEngine{
		bin:      opts.TesseractBin,
		lang:     TesseractLanguage(opts.Language),
		tessdata: opts.TessdataPrefix,
		psm:      opts.PSM,
		runner:   r,
		logger:   logger,
	}

	out, errb, err := r.Run(ctx, e.bin, "--version")
	if err != nil {
		return nil, fmt.Errorf("%w: %s --version: %w: %s", ErrEngineUnavailable, e.bin, err, runner.Truncate(string(errb), 512))
	}
	e.version = parseVersion(string(out) + string(errb))

	args := []string{"--list-langs"}
	if e.tessdata != "" {
		args = append(args, "--tessdata-dir", e.tessdata)
	}
	out, errb, err = r.Run(ctx, e.bin, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s --list-langs: %w: %s", ErrEngineUnavailable, e.bin, err, runner.Truncate(string(errb), 512))
	}
	// Tesseract 3 prints the list on stderr.
	installed := parseLanguages(string(out) + "\n" + string(errb))
	for _, l := range strings.Split(e.lang, "+") {
		if !installed[l] {
			return nil, fmt.Errorf("%w: language data for %q is not installed", ErrEngineUnavailable, l)
		}
	}

	logger.Debugw("tesseract cli engine ready", "bin", e.bin, "language", e.lang, "version", e.version)
	return e, nil
}

// Recognize runs `tesseract <image> stdout -l <lang> --psm <n> tsv` and
// groups the word rows into lines and pages.
func (e *CLIEngine) Recognize(ctx context.Context, imagePath string, classifyOrientation bool) ([]Page, error) {
	psm := e.psm
	if classifyOrientation {
		psm = psmAutoOSD
	}

	args := []string{imagePath, "stdout", "-l", e.lang, "--psm", strconv.Itoa(psm)}
	if e.tessdata != "" {
		args = append(args, "--tessdata-dir", e.tessdata)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.bin, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract: %w: %s", ErrRecognition, err, runner.Truncate(string(errb), 512))
	}
	return parseTSV(string(out)), nil
}

// Info returns information about the tesseract binary in use.
func (e *CLIEngine) Info() Info {
	return Info{
		Backend:  BackendTesseractCLI,
		Version:  e.version,
		Language: e.lang,
	}
}

// Close is a no-op; each recognition runs its own process.
func (e *CLIEngine) Close() error { return nil }

// TSV columns emitted by tesseract.
const (
	colLevel = iota
	colPage
	colBlock
	colPar
	colLine
	colWord
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns
)

const (
	levelLine = 4
	levelWord = 5
)

type lineKey struct {
	page, block, par, line int
}

type lineAcc struct {
	words   []string
	confSum float64
	confN   int
	bounds  Bounds
}

// parseTSV converts tesseract TSV output into pages of lines. Words are
// joined with single spaces; a line's confidence is the mean word confidence.
func parseTSV(tsv string) []Page {
	var (
		pageOrder []int
		pageLines = map[int][]lineKey{}
		lines     = map[lineKey]*lineAcc{}
	)

	get := func(k lineKey) *lineAcc {
		if acc, ok := lines[k]; ok {
			return acc
		}
		acc := &lineAcc{}
		lines[k] = acc
		if _, ok := pageLines[k.page]; !ok {
			pageOrder = append(pageOrder, k.page)
		}
		pageLines[k.page] = append(pageLines[k.page], k)
		return acc
	}

	for i, ln := range strings.Split(tsv, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.SplitN(ln, "\t", tsvColumns)
		if len(cols) < tsvColumns-1 {
			continue
		}
		level := atoi(cols[colLevel])
		if level != levelLine && level != levelWord {
			continue
		}
		k := lineKey{atoi(cols[colPage]), atoi(cols[colBlock]), atoi(cols[colPar]), atoi(cols[colLine])}
		acc := get(k)

		if level == levelLine {
			left, top := atoi(cols[colLeft]), atoi(cols[colTop])
			acc.bounds = Bounds{
				X1: left,
				Y1: top,
				X2: left + atoi(cols[colWidth]),
				Y2: top + atoi(cols[colHeight]),
			}
			continue
		}

		text := ""
		if len(cols) == tsvColumns {
			text = strings.TrimSpace(cols[colText])
		}
		if text == "" {
			continue
		}
		acc.words = append(acc.words, text)
		if conf, err := strconv.ParseFloat(cols[colConf], 64); err == nil && conf >= 0 {
			acc.confSum += conf
			acc.confN++
		}
	}

	pages := make([]Page, 0, len(pageOrder))
	for _, p := range pageOrder {
		page := make(Page, 0, len(pageLines[p]))
		for _, k := range pageLines[p] {
			acc := lines[k]
			var conf float64
			if acc.confN > 0 {
				conf = acc.confSum / float64(acc.confN) / 100.0
			}
			page = append(page, Line{
				Text:       strings.Join(acc.words, " "),
				Confidence: conf,
				Bounds:     acc.bounds,
			})
		}
		pages = append(pages, page)
	}
	return pages
}

// parseLanguages reads `tesseract --list-langs` output.
func parseLanguages(out string) map[string]bool {
	langs := map[string]bool{}
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "List of available languages") || strings.Contains(ln, " ") {
			continue
		}
		langs[ln] = true
	}
	return langs
}

// parseVersion returns the first line of `tesseract --version`, e.g.
// "tesseract 5.3.0".
func parseVersion(out string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(first)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
