package http

import (
	"encoding/json"
	"net/http"

	apperrors "chairside/pkg/errors"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps an error to its HTTP status and writes an {error} body.
// Unknown errors are treated as internal and never leak their message.
func WriteError(w http.ResponseWriter, err error) error {
	switch e := err.(type) {
	case *apperrors.AppError:
		return WriteJSON(w, e.StatusCode(), ErrorResponse{
			Error:   e.Message,
			Details: e.Details,
		})
	default:
		return WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
		})
	}
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, data)
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, data)
}
