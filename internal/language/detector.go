package language

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Supported language codes (ISO 639-1).
const (
	English = "en"
	Hindi   = "hi"
	Marathi = "mr"
	Bengali = "bn"

	Default = English
)

// Supported lists every language the assistant replies in.
var Supported = []string{English, Hindi, Marathi, Bengali}

// IsSupported reports whether code is one of the reply languages.
func IsSupported(code string) bool {
	for _, c := range Supported {
		if c == code {
			return true
		}
	}
	return false
}

// Normalize maps unknown codes to the default language.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if IsSupported(code) {
		return code
	}
	return Default
}

const (
	minLetters       = 3
	minConfidence    = 0.1
	devanagariFamily = "devanagari"
)

// Detector guesses the reply language of a message. It never fails.
type Detector struct {
	options whatlanggo.Options
}

// NewDetector builds a detector restricted to the supported languages.
func NewDetector() *Detector {
	return &Detector{
		options: whatlanggo.Options{
			Whitelist: map[whatlanggo.Lang]bool{
				whatlanggo.Eng: true,
				whatlanggo.Hin: true,
				whatlanggo.Mar: true,
				whatlanggo.Ben: true,
			},
		},
	}
}

// Detect returns the language code for text, defaulting to English.
func (d *Detector) Detect(text string) string {
	code, _ := d.DetectConfident(text)
	return code
}

// DetectConfident returns the language code and whether the detection was
// backed by enough signal. Unconfident results are always English, except that
// short Devanagari or Bengali text falls back to the script's main language.
func (d *Detector) DetectConfident(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if countLetters(text) < minLetters {
		return scriptFallback(text), false
	}

	opts := whatlanggo.Options{}
	if d != nil {
		opts = d.options
	}
	info := whatlanggo.DetectWithOptions(text, opts)

	code := fromWhatlang(info.Lang)
	if code == "" {
		return scriptFallback(text), false
	}
	if info.Confidence < minConfidence {
		// Hindi and Marathi share a script; low confidence between them
		// still means an Indic reply.
		return scriptFallback(text), false
	}
	return code, true
}

func fromWhatlang(lang whatlanggo.Lang) string {
	switch lang {
	case whatlanggo.Eng:
		return English
	case whatlanggo.Hin:
		return Hindi
	case whatlanggo.Mar:
		return Marathi
	case whatlanggo.Ben:
		return Bengali
	default:
		return ""
	}
}

func scriptFallback(text string) string {
	switch dominantScript(text) {
	case devanagariFamily:
		return Hindi
	case "bengali":
		return Bengali
	default:
		return Default
	}
}

func dominantScript(text string) string {
	var devanagari, bengali, other int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		case unicode.Is(unicode.Bengali, r):
			bengali++
		case unicode.IsLetter(r):
			other++
		}
	}
	switch {
	case devanagari > bengali && devanagari > other:
		return devanagariFamily
	case bengali > devanagari && bengali > other:
		return "bengali"
	default:
		return ""
	}
}

func countLetters(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
