package safety

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywordsYAML []byte

// Keywords is the static phrase configuration loaded once at startup.
type Keywords struct {
	Emergency []string `yaml:"emergency"`
	Exit      []string `yaml:"exit"`
}

// DefaultKeywords returns the built-in multilingual phrase list.
func DefaultKeywords() *Keywords {
	kw, err := ParseKeywords(defaultKeywordsYAML)
	if err != nil {
		panic(fmt.Sprintf("safety: embedded keywords are invalid: %v", err))
	}
	return kw
}

// LoadKeywords reads a YAML keyword file. An empty path yields the defaults.
func LoadKeywords(path string) (*Keywords, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultKeywords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safety: read keywords file: %w", err)
	}
	return ParseKeywords(data)
}

// ParseKeywords decodes a YAML keyword document.
func ParseKeywords(data []byte) (*Keywords, error) {
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("safety: decode keywords: %w", err)
	}
	kw.Emergency = cleanPhrases(kw.Emergency)
	kw.Exit = cleanPhrases(kw.Exit)
	if len(kw.Emergency) == 0 {
		return nil, errors.New("safety: at least one emergency keyword is required")
	}
	return &kw, nil
}

// cleanPhrases normalizes phrases and drops blanks and duplicates, keeping order.
func cleanPhrases(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, phrase := range in {
		norm := Normalize(phrase)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
