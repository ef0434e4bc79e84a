package ocr

import "strings"

// languageCodes maps short language hints (as used by PaddleOCR and most
// callers) to Tesseract language data names.
var languageCodes = map[string]string{
	"en":          "eng",
	"ch":          "chi_sim",
	"chinese_cht": "chi_tra",
	"japan":       "jpn",
	"ja":          "jpn",
	"korean":      "kor",
	"ko":          "kor",
	"fr":          "fra",
	"french":      "fra",
	"german":      "deu",
	"de":          "deu",
	"es":          "spa",
	"pt":          "por",
	"it":          "ita",
	"nl":          "nld",
	"ru":          "rus",
	"uk":          "ukr",
	"ar":          "ara",
	"hi":          "hin",
	"ta":          "tam",
	"te":          "tel",
	"ka":          "kan",
	"fa":          "fas",
	"ur":          "urd",
	"vi":          "vie",
	"tr":          "tur",
	"pl":          "pol",
	"sv":          "swe",
	"da":          "dan",
	"no":          "nor",
	"fi":          "fin",
	"cs":          "ces",
	"ro":          "ron",
	"hu":          "hun",
	"el":          "ell",
	"latin":       "lat",
}

// TesseractLanguage converts a language hint into a Tesseract language
// string. Multiple hints may be joined with "+". Unknown codes pass through
// unchanged so native Tesseract codes keep working.
func TesseractLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "eng"
	}
	parts := strings.Split(code, "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if mapped, ok := languageCodes[strings.ToLower(p)]; ok {
			p = mapped
		}
		parts[i] = p
	}
	return strings.Join(parts, "+")
}
