package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AlexTLDR/wedding-rsvp/internal/notify"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
	"github.com/AlexTLDR/wedding-rsvp/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	writeEnvelope(w, status, Envelope{Success: status < 400, Data: data}, logger)
}

// Success writes a 200 with data.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Message writes a 200 with a human-readable message and optional data.
func Message(w http.ResponseWriter, msg string, data any, logger *slog.Logger) {
	writeEnvelope(w, http.StatusOK, Envelope{Success: true, Message: msg, Data: data}, logger)
}

// Created writes a 201 with data.
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	writeEnvelope(w, status, Envelope{Success: false, Error: message}, logger)
}

func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, message, logger)
}

func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, message, logger)
}

func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, message, logger)
}

// HandleError maps domain and storage errors to responses. notFound is the
// message used for a missing record; anything unrecognized becomes a 500
// whose details stay in the log.
func HandleError(w http.ResponseWriter, err error, notFound string, logger *slog.Logger) {
	var vErr *validation.Error
	var sErr *storage.Error
	switch {
	case errors.As(err, &vErr):
		BadRequest(w, vErr.Error(), logger)
	case errors.Is(err, notify.ErrAlreadySent),
		errors.Is(err, notify.ErrNoRecipient),
		errors.Is(err, notify.ErrNoEvents):
		BadRequest(w, err.Error(), logger)
	case errors.Is(err, notify.ErrMailDisabled):
		Error(w, http.StatusServiceUnavailable, "Email delivery is not configured", logger)
	case errors.Is(err, storage.ErrNotFound):
		NotFound(w, notFound, logger)
	case errors.As(err, &sErr):
		Error(w, sErr.HTTPCode(), sErr.Message, logger)
	default:
		if logger != nil {
			logger.Error("unhandled error", "error", err)
		}
		InternalError(w, "Something went wrong. Please try again later.", logger)
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
