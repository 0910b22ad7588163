// Package api exposes the HTTP endpoints of the carbon tracker.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/carbonbuddy/internal/chat"
	"example.com/carbonbuddy/internal/domain"
)

// Handler coordinates HTTP requests with the engine and the chat router.
type Handler struct {
	service *domain.Service
	chat    *chat.Router
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service, chat: chat.NewRouter(service)}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/logEntry", h.logEntry)
	mux.HandleFunc("/api/getHistory", h.getHistory)
	mux.HandleFunc("/api/comparePeriods", h.comparePeriods)
	mux.HandleFunc("/api/compareCities", h.compareCities)
	mux.HandleFunc("/api/summary", h.summary)
	mux.HandleFunc("/api/getTasks", h.getTasks)
	mux.HandleFunc("/api/getEmissionFactors", h.getEmissionFactors)
	mux.HandleFunc("/api/setEmissionFactor", h.setEmissionFactor)
	mux.HandleFunc("/chatbot/chat", h.chatMessage)
	mux.HandleFunc("/health", health)
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "carbonbuddy",
	})
}

// envelope is the uniform response shape: the structured data is
// authoritative, the message a rendering of it.
type envelope struct {
	Success      bool        `json:"success"`
	HumanMessage string      `json:"human_message"`
	Data         interface{} `json:"data,omitempty"`
}

type logEntryRequest struct {
	UserID         string   `json:"user_id"`
	Category       string   `json:"category"`
	Subcategory    string   `json:"subcategory"`
	DistanceKm     *float64 `json:"distance_km"`
	Amount         *float64 `json:"amount"`
	Units          string   `json:"units"`
	City           string   `json:"city"`
	Date           string   `json:"date"`
	Notes          string   `json:"notes"`
	EmissionFactor *float64 `json:"emission_factor"`
	Message        string   `json:"message"`
	Text           string   `json:"text"`
}

func (h *Handler) logEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req logEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			HumanMessage: "Error: unable to parse request body.",
			Data:         map[string]string{"error": "invalid_request"},
		})
		return
	}

	input := domain.LogEntryInput{
		Category:       req.Category,
		Subcategory:    req.Subcategory,
		DistanceKm:     req.DistanceKm,
		Amount:         req.Amount,
		Units:          req.Units,
		City:           req.City,
		Date:           req.Date,
		Notes:          req.Notes,
		EmissionFactor: req.EmissionFactor,
	}
	// Free-text input supplies hints for fields the caller left blank.
	if message := firstNonEmpty(req.Message, req.Text); message != "" {
		mergeParsedFields(&input, chat.Parse(message, time.Now()))
	}

	result, err := h.service.LogEntry(r.Context(), userID(r, req.UserID), input)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:      true,
		HumanMessage: result.HumanMessage,
		Data:         map[string]interface{}{"entry": result.Entry},
	})
}

func mergeParsedFields(input *domain.LogEntryInput, parsed chat.ParsedFields) {
	if input.Category == "" {
		input.Category = parsed.Category
	}
	if input.Subcategory == "" {
		input.Subcategory = parsed.Subcategory
	}
	if input.DistanceKm == nil {
		input.DistanceKm = parsed.DistanceKm
	}
	if input.Amount == nil {
		input.Amount = parsed.Amount
	}
	if input.City == "" {
		input.City = parsed.City
	}
	if input.Date == "" {
		input.Date = parsed.Date
	}
}

type historyRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	City      string `json:"city"`
	Category  string `json:"category"`
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHistoryRequest(w, r)
	if !ok {
		return
	}

	history, err := h.service.History(r.Context(), userID(r, req.UserID), domain.HistoryFilter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		City:      req.City,
		Category:  req.Category,
	}, true)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:      true,
		HumanMessage: history.HumanMessage,
		Data:         history,
	})
}

func decodeHistoryRequest(w http.ResponseWriter, r *http.Request) (historyRequest, bool) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		return historyRequest{
			UserID:    q.Get("user_id"),
			StartDate: q.Get("start_date"),
			EndDate:   q.Get("end_date"),
			City:      q.Get("city"),
			Category:  q.Get("category"),
		}, true
	case http.MethodPost:
		var req historyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{
				HumanMessage: "Error: unable to parse request body.",
				Data:         map[string]string{"error": "invalid_request"},
			})
			return historyRequest{}, false
		}
		return req, true
	default:
		writeMethodNotAllowed(w)
		return historyRequest{}, false
	}
}

type comparePeriodsRequest struct {
	UserID    string `json:"user_id"`
	FromStart string `json:"from_start"`
	FromEnd   string `json:"from_end"`
	ToStart   string `json:"to_start"`
	ToEnd     string `json:"to_end"`
	Category  string `json:"category"`
}

// comparePeriodsResponse keeps from/to/change at the top level alongside the
// envelope fields.
type comparePeriodsResponse struct {
	Success      bool                `json:"success"`
	HumanMessage string              `json:"human_message"`
	From         domain.PeriodTotals `json:"from"`
	To           domain.PeriodTotals `json:"to"`
	Change       domain.PeriodChange `json:"change"`
}

func (h *Handler) comparePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req comparePeriodsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			HumanMessage: "Error: unable to parse request body.",
			Data:         map[string]string{"error": "invalid_request"},
		})
		return
	}

	cmp, err := h.service.ComparePeriods(r.Context(), userID(r, req.UserID),
		req.FromStart, req.FromEnd, req.ToStart, req.ToEnd, req.Category)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comparePeriodsResponse{
		Success:      true,
		HumanMessage: cmp.HumanMessage,
		From:         cmp.From,
		To:           cmp.To,
		Change:       cmp.Change,
	})
}

type compareCitiesRequest struct {
	UserID    string `json:"user_id"`
	CityA     string `json:"cityA"`
	CityB     string `json:"cityB"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Category  string `json:"category"`
}

func (h *Handler) compareCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req compareCitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			HumanMessage: "Error: unable to parse request body.",
			Data:         map[string]string{"error": "invalid_request"},
		})
		return
	}

	cmp, err := h.service.CompareCities(r.Context(), userID(r, req.UserID),
		req.CityA, req.CityB, req.StartDate, req.EndDate, req.Category)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:      true,
		HumanMessage: cmp.HumanMessage,
		Data:         cmp,
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHistoryRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Summary(r.Context(), userID(r, req.UserID), req.StartDate, req.EndDate)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:      true,
		HumanMessage: result.HumanMessage,
		Data:         result,
	})
}

func (h *Handler) getTasks(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeHistoryRequest(w, r)
	if !ok {
		return
	}

	list, err := h.service.GenerateTasks(r.Context(), userID(r, req.UserID), req.StartDate, req.EndDate)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:      true,
		HumanMessage: list.HumanMessage,
		Data:         list,
	})
}

func (h *Handler) getEmissionFactors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:      true,
		HumanMessage: "Current emission factors.",
		Data: map[string]interface{}{
			"factors": h.service.EmissionFactors(),
			"units":   "kg CO₂e per km",
		},
	})
}

type setFactorRequest struct {
	Subcategory string      `json:"subcategory"`
	Value       interface{} `json:"value"`
}

func (h *Handler) setEmissionFactor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req setFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			HumanMessage: "Error: unable to parse request body.",
			Data:         map[string]string{"error": "invalid_request"},
		})
		return
	}
	if req.Subcategory == "" || req.Value == nil {
		writeJSON(w, http.StatusBadRequest, envelope{
			HumanMessage: "Error: subcategory and value are required.",
			Data:         map[string]string{"error": "missing_parameters"},
		})
		return
	}

	factor, ok := coerceFactor(req.Value)
	if !ok {
		writeJSON(w, http.StatusBadRequest, envelope{
			HumanMessage: "Error: emission factor must be a number >= 0.",
			Data:         map[string]string{"error": domain.CodeInvalidFactor},
		})
		return
	}
	if err := h.service.SetEmissionFactor(req.Subcategory, factor); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:      true,
		HumanMessage: strings.TrimSpace(req.Subcategory) + " factor updated.",
		Data:         map[string]interface{}{"subcategory": req.Subcategory, "value": factor},
	})
}

// coerceFactor accepts JSON numbers and numeric strings.
func coerceFactor(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	UserID2 string `json:"user_id"`
}

func (h *Handler) chatMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unable to parse body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required"})
		return
	}

	resp, err := h.chat.Handle(r.Context(), userID(r, firstNonEmpty(req.UserID, req.UserID2)), message)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "An error occurred processing your message",
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// userID resolves the effective user: body value, then X-User-Id header.
// The engine itself falls back to the anonymous user.
func userID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return r.Header.Get("X-User-Id")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// writeEngineError distinguishes validation failures from internal faults.
func writeEngineError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, envelope{
			HumanMessage: verr.Error(),
			Data:         verr,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, envelope{
		HumanMessage: "Internal server error.",
		Data:         map[string]string{"error": "internal_error"},
	})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		HumanMessage: "Error: unsupported method.",
		Data:         map[string]string{"error": "method_not_allowed"},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
