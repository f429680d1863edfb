package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/go-rentals/internal/apperrors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the {status, message} body of action endpoints.
type Envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Warning string            `json:"warning,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"status":"error","message":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Success writes a 200 success envelope.
func Success(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Envelope{Status: StatusSuccess, Message: msg})
}

// SuccessWithWarning is Success with a non-fatal warning attached (e.g. email not delivered).
func SuccessWithWarning(w http.ResponseWriter, msg, warning string) {
	JSON(w, http.StatusOK, Envelope{Status: StatusSuccess, Message: msg, Warning: warning})
}

func JSONError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	JSON(w, status, Envelope{Status: StatusError, Message: msg, Errors: fields})
}

// Error maps an application error to its status and error envelope.
func Error(w http.ResponseWriter, err error) {
	JSONError(w, apperrors.HTTPStatus(err), apperrors.Message(err), apperrors.FieldsOf(err))
}
