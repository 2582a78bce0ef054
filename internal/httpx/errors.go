package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/pressline/dryclean-api/internal/apperr"
)

// errorBody is the wire shape of every failed mutation.
type errorBody struct {
	ErrorKind   apperr.Kind       `json:"error_kind"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindInvalidTransition:   http.StatusConflict,
	apperr.KindForbidden:           http.StatusForbidden,
	apperr.KindPricingNotFound:     http.StatusBadRequest,
	apperr.KindInvalidQuantity:     http.StatusBadRequest,
	apperr.KindEmptyOrder:          http.StatusBadRequest,
	apperr.KindInvalidSchedule:     http.StatusBadRequest,
	apperr.KindInsufficientPoints:  http.StatusBadRequest,
	apperr.KindNotFound:            http.StatusNotFound,
	apperr.KindConcurrencyConflict: http.StatusConflict,
	apperr.KindValidation:          http.StatusBadRequest,
	apperr.KindUnauthorized:        http.StatusUnauthorized,
	apperr.KindStorageFailure:      http.StatusInternalServerError,
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := errorBody{ErrorKind: kind, Message: "an error occurred"}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Message = ae.Message
		body.FieldErrors = ae.Fields
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("internal error")
		body.Message = "internal error" // do not leak storage details
	}
	writeJSON(w, status, body)
}
