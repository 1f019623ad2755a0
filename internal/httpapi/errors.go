package httpapi

import (
	"errors"
	"net/http"

	"github.com/mfadel/spendwell/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter) {
	writeErr(w, http.StatusNotFound, "not_found", "not_found")
}

// writeServiceErr maps service-layer sentinels onto HTTP statuses.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, "invalid", "invalid")
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrUnauthorized):
		writeErr(w, http.StatusForbidden, "unauthorized", "unauthorized")
	case errors.Is(err, errs.ErrInsufficientBalance):
		writeErr(w, http.StatusUnprocessableEntity, "insufficient balance in selected wallet", "insufficient_balance")
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, "conflicting concurrent update, retry", "conflict")
	case errors.Is(err, errs.ErrImageUpload):
		writeErr(w, http.StatusBadGateway, "image upload failed", "image_upload_failed")
	case errors.Is(err, errs.ErrQueryFailed):
		writeErr(w, http.StatusServiceUnavailable, "store query failed", "query_failed")
	case errors.Is(err, errs.ErrInconsistentState):
		writeErr(w, http.StatusInternalServerError, "wallet state needs operator attention", "inconsistent_state")
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "")
	}
}
