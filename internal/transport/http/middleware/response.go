package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError is the minimal error envelope shared by the authentication
// gate, role check and rate limiter. Handlers have their own richer envelopes;
// middleware rejections only ever carry a reason string.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
