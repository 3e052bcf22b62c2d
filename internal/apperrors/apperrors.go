package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindValidation       Kind = "validation"
	KindRateLimited      Kind = "rate_limited"
	KindInternal         Kind = "internal"
)

// Machine-readable codes returned to clients.
const (
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeValidation              = "VALIDATION_ERROR"
	CodeAlreadyJoined           = "ALREADY_JOINED"
	CodeNoSeatsAvailable        = "NO_SEATS_AVAILABLE"
	CodeAlreadyRated            = "ALREADY_RATED"
	CodeEmailTaken              = "EMAIL_TAKEN"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeRateLimited             = "RATE_LIMITED"
	CodeInternal                = "INTERNAL_ERROR"
)

// Error is a typed failure carrying the HTTP status it should be rendered
// with. Err, when set, is the underlying cause and is never shown to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, Code and Message so each sentinel only equals itself
// and copies made by WithDetails. Empty Code or Message on target match any.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind &&
		(t.Code == "" || e.Code == t.Code) &&
		(t.Message == "" || e.Message == t.Message)
}

func (e *Error) WithDetails(details map[string]string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func New(kind Kind, status int, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Status: status}
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, http.StatusForbidden, CodeForbidden, message)
}

func NotFound(resource string) *Error {
	return New(KindNotFound, http.StatusNotFound, CodeNotFound, resource+" not found")
}

func Conflict(status int, code, message string) *Error {
	return New(KindConflict, status, code, message)
}

func CapacityExceeded(message string) *Error {
	return New(KindCapacityExceeded, http.StatusBadRequest, CodeNoSeatsAvailable, message)
}

func Validation(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, CodeValidation, message)
}

func ValidationWithCode(code, message string) *Error {
	return New(KindValidation, http.StatusBadRequest, code, message)
}

func RateLimited(message string) *Error {
	return New(KindRateLimited, http.StatusTooManyRequests, CodeRateLimited, message)
}

// Internal wraps an unexpected infrastructure failure.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    CodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Sentinels for the ride and chat business rules.
var (
	ErrRideNotFound    = NotFound("ride")
	ErrChatNotFound    = NotFound("chat")
	ErrUserNotFound    = NotFound("user")
	ErrMessageNotFound = NotFound("message")

	ErrAlreadyJoined    = Conflict(http.StatusBadRequest, CodeAlreadyJoined, "you have already joined this ride")
	ErrNoSeatsAvailable = CapacityExceeded("no seats available")
	ErrAlreadyRated     = Conflict(http.StatusBadRequest, CodeAlreadyRated, "you have already rated this ride")
	ErrEmailTaken       = Conflict(http.StatusConflict, CodeEmailTaken, "email is already registered")

	ErrNotParticipant      = Forbidden("not a participant of this chat")
	ErrNotRideDriver       = Forbidden("only the driver can change this ride")
	ErrDriverJoinForbidden = Forbidden("drivers cannot join their own ride")
	ErrNotRidePassenger    = Forbidden("only passengers can rate this ride")

	ErrInvalidCredentials = Unauthorized("invalid credentials")
)

// As returns the typed error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps any error to the status it should be rendered with.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
