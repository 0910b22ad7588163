package domain

import "time"

// Known category tags. Categories are open-ended strings; these four plus
// "other" receive dedicated aggregation treatment.
const (
	CategoryTransport = "transport"
	CategoryFood      = "food"
	CategoryShopping  = "shopping"
	CategoryEnergy    = "energy"
	CategoryOther     = "other"
)

// DefaultUserID is used when a request carries no user identity.
const DefaultUserID = "anonymous"

// ActivityEntry is the canonical activity record held in the store.
// Emissions are derived once at creation; later registry changes never
// reprice stored entries.
type ActivityEntry struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	Date                   string    `json:"date"`
	Category               string    `json:"category"`
	Subcategory            string    `json:"subcategory,omitempty"`
	DistanceKm             *float64  `json:"distance_km,omitempty"`
	Amount                 *float64  `json:"amount,omitempty"`
	Units                  string    `json:"units,omitempty"`
	City                   string    `json:"city,omitempty"`
	Notes                  string    `json:"notes,omitempty"`
	EmissionFactorOverride *float64  `json:"emission_factor_override,omitempty"`
	EmissionsKg            float64   `json:"emissions_kg"`
	CreatedAt              time.Time `json:"created_at"`
}
