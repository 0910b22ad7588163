package domain

import "strings"

// citySynonyms maps canonical city names to their accepted aliases.
var citySynonyms = map[string][]string{
	"delhi":     {"new delhi", "ncr", "national capital region"},
	"bengaluru": {"bangalore", "bengaluru"},
	"mumbai":    {"bombay"},
	"kolkata":   {"calcutta"},
	"chennai":   {"madras"},
}

// NormalizeCity canonicalises a city name: lowercased and trimmed, with
// known synonyms collapsed to their canonical form. Unknown cities pass
// through unchanged, so normalization never fails; empty input yields "".
func NormalizeCity(city string) string {
	lowered := strings.ToLower(strings.TrimSpace(city))
	if lowered == "" {
		return ""
	}

	if _, ok := citySynonyms[lowered]; ok {
		return lowered
	}
	for canonical, synonyms := range citySynonyms {
		for _, synonym := range synonyms {
			if lowered == synonym {
				return canonical
			}
		}
	}
	return lowered
}
