package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation, domain.KindInvalidStateTransition, domain.KindQuantityOverrun:
		return http.StatusBadRequest
	case domain.KindStockConflict:
		return http.StatusConflict
	case domain.KindPlanLimitExceeded:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders business errors with their kind and details. Anything
// else is logged in full and reported to the client as a generic failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		writeJSON(w, statusForKind(de.Kind), errorResponse{
			Error:   string(de.Kind),
			Message: de.Message,
			Details: de.Details,
		})
		return
	}

	logger.ErrorContext(r.Context(), "Unhandled request error",
		"method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "INTERNAL",
		Message: "internal server error",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// decodeJSON reads a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidation("invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}
