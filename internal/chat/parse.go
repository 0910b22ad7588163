// Package chat provides the free-text glue around the engine: a field
// extractor for activity sentences and an intent router for the chat
// endpoint.
package chat

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const milesToKm = 1.60934

// ParsedFields are the activity fields recoverable from a free-text
// sentence. They are a hint for the entry builder, not a validated record.
type ParsedFields struct {
	Category    string
	Subcategory string
	DistanceKm  *float64
	Amount      *float64
	City        string
	Date        string
}

var (
	isoDateRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	distanceRe = regexp.MustCompile(`(\d+\.?\d*)\s*(?:km|kilometer(?:s)?|mile(?:s)?)`)
	amountRe   = regexp.MustCompile(`(\d+\.?\d*)\s*(?:kg|items|rs|inr|rupees?)`)
	cityRe     = regexp.MustCompile(`(?i)\bin\s+([A-Za-z ]+?)(?:[\s,.]|$)`)
)

// transportKeywords maps sentence words to transport subcategories. Order
// matters: the first matching subcategory wins, so "bike" resolves to
// motorcycle before bicycle.
var transportKeywords = []struct {
	subcategory string
	keywords    []string
}{
	{"car", []string{"car", "vehicle", "auto"}},
	{"bus", []string{"bus"}},
	{"train", []string{"train", "railway"}},
	{"motorcycle", []string{"motorcycle", "bike", "scooter"}},
	{"bicycle", []string{"bicycle", "cycle", "bike"}},
	{"walking", []string{"walk", "walked", "walking"}},
}

// Parse extracts activity fields from a sentence like
// "I rode a car 12.5 km today in Delhi". Missing fields stay zero-valued.
func Parse(message string, now time.Time) ParsedFields {
	lowered := strings.ToLower(message)
	parsed := ParsedFields{}

	switch {
	case strings.Contains(lowered, "today"):
		parsed.Date = now.Format("2006-01-02")
	case strings.Contains(lowered, "yesterday"):
		parsed.Date = now.AddDate(0, 0, -1).Format("2006-01-02")
	default:
		parsed.Date = isoDateRe.FindString(lowered)
	}

	if match := distanceRe.FindStringSubmatch(lowered); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			if strings.Contains(match[0], "mile") {
				value *= milesToKm
			}
			parsed.DistanceKm = &value
		}
	}

	for _, entry := range transportKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				parsed.Category = "transport"
				parsed.Subcategory = entry.subcategory
				break
			}
		}
		if parsed.Subcategory != "" {
			break
		}
	}

	if match := cityRe.FindStringSubmatch(message); match != nil {
		parsed.City = strings.TrimSpace(match[1])
	}

	if match := amountRe.FindStringSubmatch(lowered); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			parsed.Amount = &value
		}
	}

	return parsed
}
