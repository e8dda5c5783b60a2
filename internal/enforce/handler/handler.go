// Package handler is the thin HTTP layer for the event ingest endpoint. It
// delegates to the enforcement engine without embedding business logic so
// transport concerns remain isolated.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orgguard/internal/enforce/engine"
	"orgguard/internal/enforce/models"
	"orgguard/pkg/requestcontext"
)

type Handler struct {
	engine *engine.Service
	logger *slog.Logger
}

func New(engine *engine.Service, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register wires the ingest route onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/events", h.HandleEvent)
}

// HandleEvent accepts one bridged membership event and runs an enforcement
// invocation. Misrouted events are acknowledged and ignored so the dispatcher
// does not retry them.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event models.MembershipEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.WarnContext(ctx, "event payload is not valid JSON",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_payload"})
		return
	}

	if !event.IsAcceptHandshake() {
		h.logger.InfoContext(ctx, "ignoring non-handshake event",
			"event_id", event.ID,
			"source", event.Source,
			"event_name", event.Detail.EventName,
		)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	ctx = requestcontext.WithSourceEventID(ctx, event.ID)

	result, err := h.engine.Enforce(ctx, event)
	switch {
	case errors.Is(err, models.ErrMissingAccountID):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":         "missing_account_id",
			"invocation_id": result.InvocationID,
		})
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "enforcement invocation failed",
			"error", err,
			"event_id", event.ID,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
