// Package httpx holds the JSON and error plumbing shared by every service's
// chi handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorBody is the wire form of every non-2xx response.
type ErrorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindReservationFailure:
		return http.StatusConflict
	case apperr.KindIneligibleState:
		return http.StatusUnprocessableEntity
	case apperr.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps err onto its status code. Internal errors are logged and
// their detail is not echoed to the client.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		msg = "internal error"
	}
	WriteJSON(w, status, ErrorBody{
		Error:     msg,
		Kind:      apperr.KindOf(err).String(),
		Retryable: apperr.Retryable(err),
	})
}

// Decode reads a JSON body into v and runs its `validate` struct tags.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid body: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return apperr.Validation("invalid request: %s", strings.Join(parts, ", "))
		}
		return apperr.Validation("invalid request: %v", err)
	}
	return nil
}

func ParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("path parameter %s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func Param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// QueryInt reads a required integer query parameter.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperr.Validation("query parameter %s is required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("query parameter %s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// Query reads a required string query parameter.
func Query(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", apperr.Validation("query parameter %s is required", name)
	}
	return v, nil
}
