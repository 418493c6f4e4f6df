package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dkralj/bloodbank/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// domainError translates a typed domain error into an HTTP response with the
// structured data the client needs for its own message. Returns false if err
// is not a domain error, leaving the caller to handle it.
func domainError(w http.ResponseWriter, err error) bool {
	var groupErr *model.InvalidBloodGroupError
	if errors.As(err, &groupErr) {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":       groupErr.Error(),
			"blood_group": groupErr.Group,
		})
		return true
	}

	var unitsErr *model.InvalidUnitsError
	if errors.As(err, &unitsErr) {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error": unitsErr.Error(),
			"units": unitsErr.Units,
		})
		return true
	}

	var eligibleErr *model.NotEligibleError
	if errors.As(err, &eligibleErr) {
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":          eligibleErr.Error(),
			"days_remaining": eligibleErr.DaysRemaining,
		})
		return true
	}

	var stockErr *model.InsufficientUnitsError
	if errors.As(err, &stockErr) {
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":     stockErr.Error(),
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
		return true
	}

	var unfulfillableErr *model.RequestUnfulfillableError
	if errors.As(err, &unfulfillableErr) {
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":       unfulfillableErr.Error(),
			"blood_group": unfulfillableErr.Group,
			"units":       unfulfillableErr.Units,
		})
		return true
	}

	var stateErr *model.RequestStateError
	if errors.As(err, &stateErr) {
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":  stateErr.Error(),
			"status": stateErr.Status,
		})
		return true
	}

	return false
}
