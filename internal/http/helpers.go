package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-markmap/internal/domain"
	goerrors "github.com/goliatone/go-errors"
)

const internalErrorCode = "internal_error"

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

// mapError turns err into a status and rejection body. Unclassified errors
// are redacted.
func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: internalErrorCode, Message: "internal server error"}
	}

	code := domain.Code(err)
	switch code {
	case domain.CodeInputTooLarge:
		return http.StatusRequestEntityTooLarge, rejection(code, err)
	case domain.CodeInvalidID:
		return http.StatusBadRequest, rejection(code, err)
	case domain.CodeStorageWriteFailed:
		return http.StatusInternalServerError, rejection(code, err)
	}

	switch {
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return http.StatusBadRequest, rejection(domain.CodeInvalidInput, err)
	case goerrors.IsCategory(err, goerrors.CategoryAuth):
		return http.StatusUnauthorized, rejection(code, err)
	case goerrors.IsCategory(err, goerrors.CategoryRateLimit):
		return http.StatusTooManyRequests, rejection(code, err)
	case goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return http.StatusNotFound, rejection(code, err)
	case goerrors.IsCategory(err, goerrors.CategoryExternal):
		return http.StatusBadGateway, rejection(code, err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorResponse{Error: "timeout", Message: "generation timed out"}
	}
	return http.StatusInternalServerError, errorResponse{Error: internalErrorCode, Message: "internal server error"}
}

func rejection(code string, err error) errorResponse {
	return errorResponse{Error: code, Message: domain.Message(err)}
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}
