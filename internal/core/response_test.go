package core

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"x"}`, ""},
		{"empty body", ``, "request body is empty"},
		{"unknown field", `{"name":"x","extra":1}`, "unexpected field"},
		{"malformed", `{"name":`, "malformed JSON body"},
		{"trailing document", `{"name":"x"}{"name":"y"}`, "more than one JSON document"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))

			var dst payload
			err := DecodeJSON(req, &dst)

			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Name != "x" {
					t.Errorf("decoded name = %q", dst.Name)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(big))

	var dst struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(req, &dst)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("error = %v, want size-limit error", err)
	}
}
