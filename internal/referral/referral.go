// Package referral builds the "nearest health center" map link appended to
// every triage reply.
package referral

import (
	"net/url"
	"strings"

	"github.com/wolfman30/whatsapp-triage/internal/language"
)

const mapsSearchURL = "https://www.google.com/maps/search/"

var localizedQuery = map[string]string{
	language.English: "health center near me",
	language.Hindi:   "नजदीकी स्वास्थ्य केंद्र",
	language.Marathi: "जवळचे आरोग्य केंद्र",
	language.Bengali: "নিকটস্থ স্বাস্থ্যকেন্দ্র",
}

var localizedLabel = map[string]string{
	language.English: "Nearby Health Center",
	language.Hindi:   "नजदीकी स्वास्थ्य केंद्र",
	language.Marathi: "जवळचे आरोग्य केंद्र",
	language.Bengali: "নিকটস্থ স্বাস্থ্যকেন্দ্র",
}

// Linker renders referral links, optionally pinned to a location such as a
// district name.
type Linker struct {
	location string
}

// NewLinker returns a Linker. An empty location searches "near me".
func NewLinker(location string) *Linker {
	return &Linker{location: strings.TrimSpace(location)}
}

// Link returns the Google Maps search URL for the given language.
func (l *Linker) Link(lang string) string {
	lang = language.Normalize(lang)
	query := localizedQuery[lang]
	if l != nil && l.location != "" {
		query = strings.TrimSuffix(query, " near me") + " " + l.location
	}
	params := url.Values{}
	params.Set("api", "1")
	params.Set("query", query)
	return mapsSearchURL + "?" + params.Encode()
}

// Footer is the block appended after a reply.
func (l *Linker) Footer(lang string) string {
	lang = language.Normalize(lang)
	return "\n\n---\n🗺️ " + localizedLabel[lang] + ": " + l.Link(lang)
}

// Append suffixes body with the referral footer.
func (l *Linker) Append(body, lang string) string {
	return strings.TrimRight(body, " \n") + l.Footer(lang)
}
