package domain

// Validation error codes returned to the glue layer as structured failures.
const (
	CodeMissingCategory  = "missing_category"
	CodeMissingDistance  = "missing_distance"
	CodeNegativeDistance = "negative_distance"
	CodeNoFactorFound    = "no_factor_found"
	CodeInvalidFactor    = "invalid_factor"
)

// ValidationError is a recoverable input failure. NoFactorFound carries a
// suggested factor so the caller can retry with an explicit value.
type ValidationError struct {
	Code            string   `json:"error"`
	Message         string   `json:"-"`
	SuggestedFactor *float64 `json:"suggested_factor,omitempty"`
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}
