package schedulehandlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	scheduleservice "github.com/polp-online/schedule-service/app/modules/schedule/application"
)

// Handlers carries the HTTP endpoints for the schedule module.
type Handlers struct {
	service scheduleservice.Service
	logger  *slog.Logger
}

// NewHandlers creates the schedule HTTP handlers.
func NewHandlers(service scheduleservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

type subscribeRequest struct {
	UserID   int64   `json:"user_id"`
	EventIDs []int64 `json:"event_ids"`
}

type attendanceRequest struct {
	UserID  int64 `json:"user_id"`
	EventID int64 `json:"event_id"`
}

// HandlePing is a liveness probe.
func (h *Handlers) HandlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Pong!"})
}

// HandleListEvents returns every event with its per-round capacities.
func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleSubscribe replaces the caller's subscriptions with the
// requested event set.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.service.SubscribeToEvents(r.Context(), req.UserID, req.EventIDs); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

// HandleJoin stamps physical check-in on an existing subscription.
func (h *Handlers) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.service.JoinEvent(r.Context(), req.UserID, req.EventID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// HandleLeave stamps check-out on an existing subscription.
func (h *Handlers) HandleLeave(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.service.LeaveEvent(r.Context(), req.UserID, req.EventID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// HandleEventUsersStatus lists per-user presence for an event round.
func (h *Handlers) HandleEventUsersStatus(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	round, err := strconv.ParseInt(chi.URLParam(r, "round"), 10, 32)
	if err != nil {
		http.Error(w, "invalid round", http.StatusBadRequest)
		return
	}

	statuses, err := h.service.EventUsersStatus(r.Context(), eventID, int32(round))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statuses)
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scheduleservice.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, scheduleservice.ErrNotSubscribed):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
