package domain

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to clients in rejection bodies.
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInputTooLarge          = "INPUT_TOO_LARGE"
	CodeInvalidCredential      = "INVALID_CREDENTIAL"
	CodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	CodeInvalidID              = "INVALID_ID"
	CodeNotFound               = "NOT_FOUND"
	CodeStorageWriteFailed     = "STORAGE_WRITE_FAILED"
	CodeExternalRendererFailed = "EXTERNAL_RENDERER_FAILED"
	CodeInternal               = "INTERNAL_ERROR"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInputTooLarge          = errors.New("input too large")
	ErrInvalidCredential      = errors.New("invalid credential")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
	ErrInvalidID              = errors.New("invalid artifact id")
	ErrNotFound               = errors.New("artifact not found")
	ErrStorageWriteFailed     = errors.New("storage write failed")
	ErrExternalRendererFailed = errors.New("external renderer failed")
)

var taxonomy = []struct {
	sentinel error
	code     string
	category goerrors.Category
}{
	{ErrInvalidInput, CodeInvalidInput, goerrors.CategoryValidation},
	{ErrInputTooLarge, CodeInputTooLarge, goerrors.CategoryBadInput},
	{ErrInvalidCredential, CodeInvalidCredential, goerrors.CategoryAuth},
	{ErrRateLimitExceeded, CodeRateLimitExceeded, goerrors.CategoryRateLimit},
	{ErrInvalidID, CodeInvalidID, goerrors.CategoryBadInput},
	{ErrNotFound, CodeNotFound, goerrors.CategoryNotFound},
	{ErrStorageWriteFailed, CodeStorageWriteFailed, goerrors.CategoryInternal},
	{ErrExternalRendererFailed, CodeExternalRendererFailed, goerrors.CategoryExternal},
}

func classify(sentinel error, message string) error {
	for _, entry := range taxonomy {
		if entry.sentinel == sentinel {
			return goerrors.Wrap(sentinel, entry.category, message).WithTextCode(entry.code)
		}
	}
	return goerrors.Wrap(sentinel, goerrors.CategoryInternal, message).WithTextCode(CodeInternal)
}

// InvalidInput reports malformed or empty request content.
func InvalidInput(message string) error {
	return classify(ErrInvalidInput, message)
}

// InvalidInputFrom converts a field validation error into InvalidInput.
func InvalidInputFrom(err error) error {
	if err == nil {
		return nil
	}
	return classify(ErrInvalidInput, err.Error())
}

// InputTooLarge reports a payload exceeding the configured limit.
func InputTooLarge(size, limit int) error {
	return classify(ErrInputTooLarge, fmt.Sprintf("payload of %d bytes exceeds the %d byte limit", size, limit))
}

// InvalidCredential reports a missing or unknown API key.
func InvalidCredential() error {
	return classify(ErrInvalidCredential, "a valid API key is required")
}

// RateLimitExceeded reports an exhausted quota.
func RateLimitExceeded(limit int) error {
	return classify(ErrRateLimitExceeded, fmt.Sprintf("rate limit of %d requests per hour exceeded", limit))
}

// InvalidID reports an artifact id that could escape the store namespace.
func InvalidID(id string) error {
	return classify(ErrInvalidID, fmt.Sprintf("artifact id %q is not allowed", id))
}

// NotFound reports an absent artifact or manifest.
func NotFound(what string) error {
	return classify(ErrNotFound, what+" not found")
}

// StorageWriteFailed wraps a persistence failure. The cause is kept for logs
// only; the message never carries filesystem paths.
func StorageWriteFailed(kind string, cause error) error {
	err := classify(ErrStorageWriteFailed, "failed to store "+kind+" artifact")
	if cause == nil {
		return err
	}
	return &causeError{error: err, cause: cause}
}

// ExternalRendererFailed wraps a transformer or snapshot failure.
func ExternalRendererFailed(cause error) error {
	err := classify(ErrExternalRendererFailed, "external renderer failed")
	if cause == nil {
		return err
	}
	return &causeError{error: err, cause: cause}
}

// causeError keeps the classified error as the primary chain and exposes the
// underlying cause to errors.Is / errors.As.
type causeError struct {
	error
	cause error
}

func (e *causeError) Unwrap() []error { return []error{e.error, e.cause} }

// Cause returns the underlying failure.
func (e *causeError) Cause() error { return e.cause }

// Code resolves the client facing text code for err, or CodeInternal.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range taxonomy {
		if errors.Is(err, entry.sentinel) {
			return entry.code
		}
	}
	return CodeInternal
}

// Message resolves the client facing message for err. Unclassified errors
// yield a generic message so internal details never leak.
func Message(err error) string {
	var classified *goerrors.Error
	if errors.As(err, &classified) && classified != nil && classified.Message != "" {
		return classified.Message
	}
	return "internal server error"
}

// IsCategory reports whether err belongs to category.
func IsCategory(err error, category goerrors.Category) bool {
	return goerrors.IsCategory(err, category)
}
