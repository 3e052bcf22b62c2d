package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrRideNotFound, http.StatusNotFound},
		{"already joined", ErrAlreadyJoined, http.StatusBadRequest},
		{"no seats", ErrNoSeatsAvailable, http.StatusBadRequest},
		{"email taken", ErrEmailTaken, http.StatusConflict},
		{"forbidden", ErrNotParticipant, http.StatusForbidden},
		{"unauthorized", Unauthorized("invalid token"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("join: %w", ErrNoSeatsAvailable), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"internal", Internal(errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorsIsMatchesSentinel(t *testing.T) {
	wrapped := fmt.Errorf("ride 42: %w", ErrAlreadyJoined)
	if !errors.Is(wrapped, ErrAlreadyJoined) {
		t.Error("expected wrapped error to match ErrAlreadyJoined")
	}
	if errors.Is(wrapped, ErrAlreadyRated) {
		t.Error("conflict codes must not collide")
	}
	if !errors.Is(NotFound("ride"), ErrRideNotFound) {
		t.Error("NotFound(\"ride\") should match ErrRideNotFound")
	}
	if !errors.Is(ErrUserNotFound.WithDetails(map[string]string{"id": "x"}), ErrUserNotFound) {
		t.Error("WithDetails copy should still match its sentinel")
	}
	if !errors.Is(ErrChatNotFound, &Error{Kind: KindNotFound}) {
		t.Error("a kind-only target should match any not-found error")
	}
}

func TestErrorsIsSeparatesSameKindSentinels(t *testing.T) {
	tests := []struct {
		name        string
		err, target error
	}{
		{"ride vs chat", ErrRideNotFound, ErrChatNotFound},
		{"chat vs user", ErrChatNotFound, ErrUserNotFound},
		{"wrapped ride vs message", fmt.Errorf("load: %w", ErrRideNotFound), ErrMessageNotFound},
		{"driver vs participant", ErrNotRideDriver, ErrNotParticipant},
		{"self join vs passenger", ErrDriverJoinForbidden, ErrNotRidePassenger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = true", tt.err, tt.target)
			}
		})
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Internal(cause)

	if err.Message != "internal server error" {
		t.Errorf("Message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("Internal should unwrap to its cause")
	}
	if !IsKind(err, KindInternal) {
		t.Error("IsKind(KindInternal) = false")
	}
}
