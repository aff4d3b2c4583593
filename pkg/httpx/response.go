// Package httpx writes the JSON envelope every endpoint answers with and maps
// the error taxonomy onto status codes.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func JSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func List(w http.ResponseWriter, data any, count int) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

func Message(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Error: msg})
}

// StatusOf maps an error onto its HTTP status.
func StatusOf(err error) int {
	var (
		nf *apperror.NotFoundError
		is *apperror.InsufficientStockError
		cf *apperror.ConflictError
		ve *apperror.ValidationError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &is), errors.As(err, &cf), errors.As(err, &ve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err. Business errors carry their own message; anything else is
// logged and hidden behind fallback.
func Error(w http.ResponseWriter, log logger.ZapLogger, err error, fallback string) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error(fallback, zap.Error(err))
		Fail(w, status, fallback)
		return
	}
	Fail(w, status, err.Error())
}

// Decode reads a JSON body into dst and runs its validate tags.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Validation("", "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.Validation(verrs[0].Field(), "failed '"+verrs[0].Tag()+"' validation")
		}
		return apperror.Validation("", err.Error())
	}
	return nil
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(name, "must be a positive integer")
	}
	return id, nil
}
