package core

import "net/http"

// healthResponse is the JSON response body for the health check endpoint.
type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth reports liveness. The relay's only external dependencies are
// the destination webhooks, and probing those would post real traffic, so
// health is process liveness only. Mounted unauthenticated at GET /health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
}
