package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/erpdesk/session"
	"github.com/jmcleod/erpdesk/storage"
)

var (
	errUnknownUser  = errors.New("unknown user")
	errForbidden    = errors.New("forbidden")
	errUnknownSort  = errors.New("unknown sort column")
	errMissingEmail = errors.New("email is required")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope[any]{Success: false, Message: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUnknownUser):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errForbidden), errors.Is(err, session.ErrInvalidRole):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errUnknownSort), errors.Is(err, errMissingEmail):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
