package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps a domain error kind to an HTTP status. Anything that is not
// a domain error is an internal failure and stays opaque to the client.
func writeError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Code: "INTERNAL", Message: "internal server error"},
		})
		return
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindUnauthorized:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindInvariant:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: de.Code, Message: de.Message}})
}

type listResponse struct {
	Items any   `json:"items"`
	Total int32 `json:"total"`
}
