package middleware

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// errorEnvelope is the uniform JSON error body for middleware failures.
type errorEnvelope struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, errName, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error:      errName,
		Message:    message,
		StatusCode: status,
		RequestID:  chimw.GetReqID(r.Context()),
	})
}
