package chat

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"example.com/carbonbuddy/internal/domain"
)

// Response is the chat endpoint payload.
type Response struct {
	Text         string      `json:"text"`
	Data         interface{} `json:"data,omitempty"`
	Intent       string      `json:"intent"`
	QuickReplies []string    `json:"quick_replies,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

// Router matches a message to one of six intents and delegates to the
// engine with already-parsed parameters.
type Router struct {
	service *domain.Service
	now     func() time.Time
}

// NewRouter constructs a Router.
func NewRouter(service *domain.Service) *Router {
	return &Router{service: service, now: time.Now}
}

// WithClock overrides the time source used for relative date phrases.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

const helpText = "I'm CarbonBuddy! I can help you:\n" +
	"• Log activities (e.g., 'I rode a car 12.5 km today in Delhi')\n" +
	"• Show history (e.g., 'Show my history for October 2025')\n" +
	"• Compare periods (e.g., 'Compare last month with this month')\n" +
	"• Compare cities (e.g., 'Compare Delhi and Bengaluru')\n" +
	"• Get summaries (e.g., 'Give me a summary of all usage this year')"

var (
	logPhrases     = []string{"log", "add", "i rode", "i took", "i drove", "i traveled"}
	historyPhrases = []string{"history", "show", "list", "entries"}
	summaryPhrases = []string{"summary", "overview", "total", "this year"}
	taskPhrases    = []string{"tasks", "challenges", "suggestions", "tips", "how to reduce", "reduce carbon"}
)

// Handle routes the message. Validation failures come back as chat text, not
// errors; only internal faults return a non-nil error.
func (r *Router) Handle(ctx context.Context, userID, message string) (Response, error) {
	lowered := strings.ToLower(message)
	now := r.now()

	switch {
	case containsAny(lowered, logPhrases):
		return r.logEntry(ctx, userID, message, now)

	case containsAny(lowered, historyPhrases):
		start, end := dateRange(lowered, now)
		history, err := r.service.History(ctx, userID, domain.HistoryFilter{StartDate: start, EndDate: end}, true)
		if err != nil {
			return Response{}, err
		}
		return r.respond("get_history", history.HumanMessage, history), nil

	case strings.Contains(lowered, "compare") && (strings.Contains(lowered, "month") || strings.Contains(lowered, "period")):
		thisStart, thisEnd := monthBounds(now)
		lastStart, lastEnd := monthBounds(now.AddDate(0, 0, -now.Day()))
		cmp, err := r.service.ComparePeriods(ctx, userID, lastStart, lastEnd, thisStart, thisEnd, "")
		if err != nil {
			return Response{}, err
		}
		return r.respond("compare_periods", cmp.HumanMessage, cmp), nil

	case strings.Contains(lowered, "compare"):
		if cityA, cityB, ok := cityPair(lowered); ok {
			start, end := dateRange(lowered, now)
			cmp, err := r.service.CompareCities(ctx, userID, cityA, cityB, start, end, "")
			if err != nil {
				return Response{}, err
			}
			return r.respond("compare_cities", cmp.HumanMessage, cmp), nil
		}
		return r.help(), nil

	case containsAny(lowered, summaryPhrases):
		var start, end string
		if strings.Contains(lowered, "this year") {
			start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02")
			end = now.Format("2006-01-02")
		}
		result, err := r.service.Summary(ctx, userID, start, end)
		if err != nil {
			return Response{}, err
		}
		return r.respond("summary", result.HumanMessage, result), nil

	case containsAny(lowered, taskPhrases):
		start, end := dateRange(lowered, now)
		list, err := r.service.GenerateTasks(ctx, userID, start, end)
		if err != nil {
			return Response{}, err
		}
		return r.respond("get_tasks", list.HumanMessage, list), nil

	default:
		return r.help(), nil
	}
}

func (r *Router) logEntry(ctx context.Context, userID, message string, now time.Time) (Response, error) {
	parsed := Parse(message, now)
	result, err := r.service.LogEntry(ctx, userID, domain.LogEntryInput{
		Category:    parsed.Category,
		Subcategory: parsed.Subcategory,
		DistanceKm:  parsed.DistanceKm,
		Amount:      parsed.Amount,
		City:        parsed.City,
		Date:        parsed.Date,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return r.respond("log_entry", verr.Error(), verr), nil
		}
		return Response{}, err
	}
	return r.respond("log_entry", result.HumanMessage, result.Entry), nil
}

func (r *Router) respond(intent, text string, data interface{}) Response {
	return Response{Text: text, Data: data, Intent: intent, Timestamp: r.now().UTC()}
}

func (r *Router) help() Response {
	return Response{
		Text:         helpText,
		Intent:       "general_inquiry",
		QuickReplies: []string{"Log Activity", "Show History", "Compare Periods", "Get Summary"},
		Timestamp:    r.now().UTC(),
	}
}

func containsAny(message string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var monthYearRe = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})`)

// dateRange resolves month phrases ("this month", "last month",
// "october 2025") into an inclusive YYYY-MM-DD range. Unrecognised messages
// yield an unbounded range.
func dateRange(lowered string, now time.Time) (string, string) {
	if strings.Contains(lowered, "this month") {
		start, _ := monthBounds(now)
		return start, now.Format("2006-01-02")
	}
	if strings.Contains(lowered, "last month") {
		return monthBounds(now.AddDate(0, 0, -now.Day()))
	}
	if match := monthYearRe.FindStringSubmatch(lowered); match != nil {
		year, err := strconv.Atoi(match[2])
		if err == nil {
			for i, name := range monthNames {
				if name == match[1] {
					return monthBounds(time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, now.Location()))
				}
			}
		}
	}
	return "", ""
}

// monthBounds returns the first and last day of t's month.
func monthBounds(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}

// cityPair picks two known city names mentioned in the message.
func cityPair(lowered string) (string, string, bool) {
	found := make([]string, 0, 2)
	for _, city := range []string{"delhi", "bengaluru", "bangalore", "mumbai", "bombay", "kolkata", "chennai"} {
		if strings.Contains(lowered, city) {
			canonical := domain.NormalizeCity(city)
			if len(found) == 0 || found[0] != canonical {
				found = append(found, canonical)
			}
		}
		if len(found) == 2 {
			return found[0], found[1], true
		}
	}
	// A single mention is compared against the default counterpart.
	if len(found) == 1 {
		other := "bengaluru"
		if found[0] == "bengaluru" {
			other = "delhi"
		}
		return found[0], other, true
	}
	return "", "", false
}
