// Package domain implements the emissions computation and aggregation engine:
// entry validation and pricing, the per-user activity log contract, history
// aggregation, period/city comparison, and reduction-task generation.
package domain

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/carbonbuddy/internal/observability"
)

// EntryStore is the per-user append-only activity log. Implementations must
// serialize appends for the same user; reads see whatever snapshot exists at
// call time.
type EntryStore interface {
	Append(ctx context.Context, userID string, entry ActivityEntry) error
	ListByUser(ctx context.Context, userID string) ([]ActivityEntry, error)
}

// EntryPublisher broadcasts stored entries to downstream consumers.
type EntryPublisher interface {
	PublishEntryLogged(ctx context.Context, entry ActivityEntry) error
}

// Service orchestrates entry logging and all read-path aggregation.
type Service struct {
	store     EntryStore
	factors   *FactorRegistry
	publisher EntryPublisher
	now       func() time.Time
}

// Option customises Service construction.
type Option func(*Service)

// WithPublisher attaches an event publisher invoked after each append.
func WithPublisher(publisher EntryPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(store EntryStore, factors *FactorRegistry, opts ...Option) *Service {
	s := &Service{store: store, factors: factors, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogEntryInput captures the raw fields of an activity record. Pointer
// fields distinguish absent from zero.
type LogEntryInput struct {
	Category       string
	Subcategory    string
	DistanceKm     *float64
	Amount         *float64
	Units          string
	City           string
	Date           string
	Notes          string
	EmissionFactor *float64
}

// LogEntryResult pairs the stored entry with its confirmation message.
type LogEntryResult struct {
	Entry        ActivityEntry
	HumanMessage string
}

// LogEntry validates the input, computes emissions, and appends the entry to
// the store. Entries that cannot be priced are rejected before storage; a
// *ValidationError describes why.
func (s *Service) LogEntry(ctx context.Context, userID string, input LogEntryInput) (*LogEntryResult, error) {
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, newValidationError(CodeMissingCategory,
			"Error: Category is required. Please specify transport, food, shopping, energy, or other.")
	}

	if category == CategoryTransport {
		if input.DistanceKm == nil {
			return nil, newValidationError(CodeMissingDistance,
				"Error: Distance (km) is required for transport entries.")
		}
		if *input.DistanceKm < 0 {
			return nil, newValidationError(CodeNegativeDistance,
				"Error: Distance cannot be negative.")
		}
	}

	emissions, verr := s.resolveEmissions(category, input)
	if verr != nil {
		return nil, verr
	}

	if userID == "" {
		userID = DefaultUserID
	}
	now := s.now().UTC()
	date := input.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}

	entry := ActivityEntry{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		Date:                   date,
		Category:               category,
		Subcategory:            input.Subcategory,
		DistanceKm:             input.DistanceKm,
		Amount:                 input.Amount,
		Units:                  input.Units,
		City:                   NormalizeCity(input.City),
		Notes:                  input.Notes,
		EmissionFactorOverride: input.EmissionFactor,
		EmissionsKg:            emissions,
		CreatedAt:              now,
	}

	if err := s.store.Append(ctx, userID, entry); err != nil {
		return nil, err
	}

	observability.RecordEntryLogged(entry.Category, entry.EmissionsKg, entry.CreatedAt)

	if s.publisher != nil {
		if err := s.publisher.PublishEntryLogged(ctx, entry); err != nil {
			log.Printf("publish entry.logged for %s failed: %v", entry.ID, err)
		}
	}

	return &LogEntryResult{Entry: entry, HumanMessage: confirmationMessage(entry)}, nil
}

// resolveEmissions prices the record. Transport requires a resolvable factor;
// other categories fall back to zero when no explicit factor is given.
func (s *Service) resolveEmissions(category string, input LogEntryInput) (float64, *ValidationError) {
	if category == CategoryTransport {
		subcategory := input.Subcategory
		if strings.TrimSpace(subcategory) == "" {
			subcategory = "car"
		}

		var factor float64
		resolved := false
		if input.EmissionFactor != nil {
			factor = *input.EmissionFactor
			resolved = true
		} else {
			factor, resolved = s.factors.Lookup(subcategory)
		}
		if !resolved {
			suggested := SuggestedFactor(subcategory)
			verr := newValidationError(CodeNoFactorFound, fmt.Sprintf(
				"Error: No emission factor found for %s. Please provide an emission_factor in the request. Suggested factor: %g kg CO₂e per km.",
				subcategory, suggested))
			verr.SuggestedFactor = &suggested
			return 0, verr
		}
		return *input.DistanceKm * factor, nil
	}

	if input.Amount != nil && input.EmissionFactor != nil {
		return *input.Amount * *input.EmissionFactor, nil
	}
	// Non-transport entries without an explicit factor are accepted at
	// zero cost rather than rejected.
	return 0, nil
}

// EmissionFactors returns the current registry contents.
func (s *Service) EmissionFactors() map[string]float64 {
	return s.factors.All()
}

// SetEmissionFactor overrides a factor at runtime.
func (s *Service) SetEmissionFactor(subcategory string, factor float64) error {
	return s.factors.Set(subcategory, factor)
}

func confirmationMessage(entry ActivityEntry) string {
	label := entry.Subcategory
	if label == "" {
		label = entry.Category
	}
	label = titleWords(label)

	if entry.DistanceKm != nil {
		msg := fmt.Sprintf("Logged: %s — %.1f km on %s", label, *entry.DistanceKm, entry.Date)
		if entry.City != "" {
			msg += " in " + titleWords(entry.City)
		}
		return msg + fmt.Sprintf(" → %.2f kg CO₂e.", entry.EmissionsKg)
	}

	amount := 0.0
	if entry.Amount != nil {
		amount = *entry.Amount
	}
	units := entry.Units
	if units == "" {
		units = "items"
	}
	return fmt.Sprintf("Logged: %s — %.1f %s on %s → %.2f kg CO₂e.",
		label, amount, units, entry.Date, entry.EmissionsKg)
}

// titleWords upper-cases the first letter of each space-separated word.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
