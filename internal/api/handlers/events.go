// Package handlers contains the HTTP handler implementations for the
// chatrelay ingest API.
//
// The event-detection layer (the platform hook that observes saves, blocks,
// uploads, and so on) POSTs normalized events to /v1/events with localized,
// link-formatted text already rendered. The handler validates the payload,
// maps it to a domain Event, and runs the dispatch engine synchronously;
// per the best-effort contract the response is 202 regardless of whether
// the notification was suppressed or any delivery later failed.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"chatrelay/internal/core"
	"chatrelay/internal/types"
)

// Notifier is the dispatch engine contract the handler depends on.
type Notifier interface {
	Notify(ctx context.Context, event types.Event)
}

// EventsHandler serves the /v1/events ingest endpoint.
type EventsHandler struct {
	engine   Notifier
	validate *validator.Validate
	logger   types.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(engine Notifier, logger types.Logger) *EventsHandler {
	return &EventsHandler{
		engine:   engine,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes mounts the handler's routes on the router.
func (h *EventsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/events", h.HandleIngest)
}

// requestLogger returns the request-scoped logger (pre-enriched with the
// request ID by middleware), falling back to the handler's own logger when
// the middleware chain did not run.
func (h *EventsHandler) requestLogger(r *http.Request) types.Logger {
	if l := types.LoggerFromContext(r.Context()); l != nil {
		return l
	}
	return h.logger
}

// --- Request/Response Models ---

// ActorPayload describes the identity that performed the platform action.
type ActorPayload struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Registered  bool     `json:"registered"`
	Groups      []string `json:"groups"`
	Permissions []string `json:"permissions"`
}

// FieldPayload is one embed field; order in the request is preserved.
type FieldPayload struct {
	Name  string `json:"name" validate:"required,max=256"`
	Value string `json:"value" validate:"max=1024"`
}

// EventRequest is the request body for POST /v1/events.
type EventRequest struct {
	Actor        ActorPayload   `json:"actor" validate:"required"`
	Action       string         `json:"action" validate:"required,max=64"`
	Text         string         `json:"text" validate:"required,max=4000"`
	Fields       []FieldPayload `json:"fields,omitempty" validate:"max=25,dive"`
	Destination  string         `json:"destination,omitempty" validate:"omitempty,url"`
	Experimental bool           `json:"experimental,omitempty"`
}

// EventResponse is the 202 acknowledgement body.
type EventResponse struct {
	Status string `json:"status"`
}

// HandleIngest processes one event submission.
func (h *EventsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, r, "validation_malformed_body", err.Error())
		return
	}

	if err := h.validate.Struct(req); err != nil {
		core.BadRequest(w, r, "validation_failed", err.Error())
		return
	}

	event := types.Event{
		Actor: types.Actor{
			Name:        req.Actor.Name,
			Registered:  req.Actor.Registered,
			Groups:      req.Actor.Groups,
			Permissions: req.Actor.Permissions,
		},
		Action:              types.ActionKind(req.Action),
		RenderedText:        req.Text,
		ExplicitDestination: req.Destination,
		Experimental:        req.Experimental,
	}
	for _, f := range req.Fields {
		event.Fields = append(event.Fields, types.Field{Name: f.Name, Value: f.Value})
	}

	// Unknown action kinds are accepted; they render with the default
	// category color and match only global policy rules.
	if !event.Action.IsKnown() {
		h.requestLogger(r).Warn("unrecognized action kind", "action", req.Action)
	}

	h.engine.Notify(r.Context(), event)

	core.JSON(w, r, http.StatusAccepted, EventResponse{Status: "accepted"})
}
