package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatrelay/internal/types"
)

// maxRequestBodySize is the maximum allowed size of a request body (1 MB).
const maxRequestBodySize = 1 << 20

// APIErrorResponse is the standard envelope for error responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned to clients.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError,
			"internal_unexpected_error", "failed to marshal response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError writes a standardized error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := APIErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: types.GetRequestID(r.Context()),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// BadRequest writes a 400 error with the given code and message.
func BadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	writeError(w, r, http.StatusBadRequest, code, message)
}

// DecodeJSON reads and decodes a JSON request body into dst. The body size
// is capped and unknown fields are rejected, so a typo in a payload key
// surfaces as a 400 rather than silently dropping data.
func DecodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is empty")
		case strings.Contains(err.Error(), "unknown field"):
			return fmt.Errorf("unexpected field in request body: %w", err)
		default:
			return fmt.Errorf("malformed JSON body: %w", err)
		}
	}

	// A second decode call must return EOF; anything else means trailing
	// garbage after the JSON document.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("request body contains more than one JSON document")
	}

	return nil
}
