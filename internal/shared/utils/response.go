package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the JSON body of every client facing error
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes data as JSON with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WriteJSON] encode error: %v", err)
	}
}

// WriteError writes an ErrorResponse. err, when non-nil, is exposed as details.
func WriteError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	WriteJSON(w, status, resp)
}
