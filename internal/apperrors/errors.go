package apperrors

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// Error carries a kind and a message that is safe to show to API clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error { return New(ErrValidation, message) }

func Conflict(message string) *Error { return New(ErrConflict, message) }

func NotFound(message string) *Error { return New(ErrNotFound, message) }

type kindInfo struct {
	kind   error
	status int
	code   string
}

var kinds = []kindInfo{
	{ErrValidation, fiber.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrUnauthenticated, fiber.StatusUnauthorized, "UNAUTHENTICATED"},
	{ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{ErrInsufficientStock, fiber.StatusBadRequest, "INSUFFICIENT_STOCK"},
}

// Describe maps err to an HTTP status, a stable code and a client-safe
// message. ok is false for errors outside the taxonomy; those must be
// treated as internal errors.
func Describe(err error) (status int, code, message string, ok bool) {
	for _, k := range kinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		message = k.kind.Error()
		var appErr *Error
		if errors.As(err, &appErr) && appErr.Message != "" {
			message = appErr.Message
		}
		return k.status, k.code, message, true
	}
	return fiber.StatusInternalServerError, "INTERNAL", "internal server error", false
}

// CodeForStatus gives a stable code for errors raised directly as *fiber.Error.
func CodeForStatus(status int) string {
	for _, k := range kinds {
		if k.status == status && k.kind != ErrInvalidCredentials && k.kind != ErrInsufficientStock {
			return k.code
		}
	}
	if status >= fiber.StatusInternalServerError {
		return "INTERNAL"
	}
	return "HTTP_ERROR"
}
