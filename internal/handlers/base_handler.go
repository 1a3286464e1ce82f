package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// BaseHandler carries the logger and the response helpers shared by all handlers
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON writes data as JSON with the given status
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError writes a bare error envelope
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondFormError writes an error envelope with the submitted form fields
// echoed back so the page can re-render them filled in
func (h *BaseHandler) RespondFormError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	body := make(map[string]string, len(fields)+1)
	for field, value := range fields {
		body[field] = value
	}
	body["error"] = message
	h.RespondJSON(w, status, body)
}
