/*
Package devapi is an in-memory stand-in for the upstream social API.

This file provides the JSON response helpers. The upstream API returns bare
JSON bodies (arrays for feeds, objects elsewhere) with a {"detail": ...}
shape on errors; the fixture mirrors that exactly so the client's decoding
paths see production-shaped traffic.
*/
package devapi

import (
	"encoding/json"
	"net/http"

	"yapnet/internal/pkg/logx"
)

// respondJSON writes payload as the JSON response body.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", status)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	w.Write(body)
}

// respondError writes the upstream-style error body.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// respondMessage writes the upstream-style {"message": ...} acknowledgement.
func respondMessage(w http.ResponseWriter, message string, extra map[string]any) {
	payload := map[string]any{"message": message}
	for k, v := range extra {
		payload[k] = v
	}
	respondJSON(w, http.StatusOK, payload)
}
