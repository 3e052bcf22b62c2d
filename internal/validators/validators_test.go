package validators

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateCreateRide(t *testing.T) {
	valid := func() CreateRideRequest {
		return CreateRideRequest{
			Origin:      "Boston",
			Destination: "New York",
			Date:        "2026-11-02",
			Time:        "08:30",
			Seats:       3,
			Price:       25,
		}
	}

	req := valid()
	departure, errs := ValidateCreateRide(&req, time.UTC)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if want := time.Date(2026, 11, 2, 8, 30, 0, 0, time.UTC); !departure.Equal(want) {
		t.Errorf("departure = %v, want %v", departure, want)
	}

	tests := []struct {
		name   string
		mutate func(*CreateRideRequest)
		field  string
	}{
		{"zero seats", func(r *CreateRideRequest) { r.Seats = 0 }, "seats"},
		{"negative price", func(r *CreateRideRequest) { r.Price = -1 }, "price"},
		{"blank origin", func(r *CreateRideRequest) { r.Origin = "   " }, "origin"},
		{"bad date", func(r *CreateRideRequest) { r.Date = "02/11/2026" }, "date"},
		{"bad time", func(r *CreateRideRequest) { r.Time = "25:00" }, "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, errs := ValidateCreateRide(&req, time.UTC)
			if _, ok := errs.Details()[tt.field]; !ok {
				t.Errorf("expected error on %q, got %v", tt.field, errs)
			}
		})
	}
}

func TestValidateRateRide(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		req := RateRideRequest{Rating: rating}
		if errs := ValidateRateRide(&req); len(errs) == 0 {
			t.Errorf("rating %d accepted", rating)
		}
	}
	req := RateRideRequest{Rating: 5, Comment: "great"}
	if errs := ValidateRateRide(&req); len(errs) > 0 {
		t.Errorf("valid rating rejected: %v", errs)
	}
}

func TestValidateStartChat(t *testing.T) {
	a, b := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()

	ids, errs := ValidateStartChat(&StartChatRequest{Participants: []string{a, b, a}})
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(ids) != 2 || ids[0].Hex() != a || ids[1].Hex() != b {
		t.Errorf("ids = %v", ids)
	}

	bad := [][]string{
		nil,
		{a},
		{a, a},
		{a, "not-an-id"},
	}
	for _, participants := range bad {
		if _, errs := ValidateStartChat(&StartChatRequest{Participants: participants}); len(errs) == 0 {
			t.Errorf("participants %v accepted", participants)
		}
	}
}

func TestValidateStartChatParticipantCap(t *testing.T) {
	ids := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = primitive.NewObjectID().Hex()
		}
		return out
	}

	if _, errs := ValidateStartChat(&StartChatRequest{Participants: ids(MaxChatParticipants)}); len(errs) > 0 {
		t.Errorf("%d participants rejected: %v", MaxChatParticipants, errs)
	}
	if _, errs := ValidateStartChat(&StartChatRequest{Participants: ids(MaxChatParticipants + 1)}); len(errs) == 0 {
		t.Errorf("%d participants accepted", MaxChatParticipants+1)
	}
}

func TestValidateSendMessage(t *testing.T) {
	chat := primitive.NewObjectID()

	parsed, errs := ValidateSendMessage(&SendMessageRequest{Chat: chat.Hex(), Content: "  hello  "})
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if parsed.ChatID != chat || parsed.Content != "hello" || parsed.Sender != nil {
		t.Errorf("parsed = %+v", parsed)
	}

	tests := map[string]SendMessageRequest{
		"empty content": {Chat: chat.Hex(), Content: "   "},
		"too long":      {Chat: chat.Hex(), Content: strings.Repeat("x", 1001)},
		"bad chat id":   {Chat: "nope", Content: "hi"},
		"bad sender id": {Chat: chat.Hex(), Sender: "nope", Content: "hi"},
		"missing chat":  {Content: "hi"},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			req := req
			if _, errs := ValidateSendMessage(&req); len(errs) == 0 {
				t.Error("expected validation failure")
			}
		})
	}

	exact := SendMessageRequest{Chat: chat.Hex(), Content: strings.Repeat("é", 1000)}
	if _, errs := ValidateSendMessage(&exact); len(errs) > 0 {
		t.Errorf("1000 characters should be accepted: %v", errs)
	}
}

func TestValidationErrorsAppError(t *testing.T) {
	req := RegisterRequest{Name: "A", Email: "bad", Password: "123"}
	errs := ValidateRegister(&req)

	appErr := errs.AppError()
	if appErr == nil || appErr.Status != 400 {
		t.Fatalf("AppError = %+v", appErr)
	}
	if _, ok := appErr.Details["email"]; !ok {
		t.Errorf("details = %v", appErr.Details)
	}
	if _, ok := appErr.Details["password"]; !ok {
		t.Errorf("details = %v", appErr.Details)
	}
}

func TestNormalizeEmail(t *testing.T) {
	req := LoginRequest{Email: "  Alice@Example.COM ", Password: "x"}
	if errs := ValidateLogin(&req); len(errs) > 0 {
		t.Fatalf("errors: %v", errs)
	}
	if req.Email != "alice@example.com" {
		t.Errorf("email = %q", req.Email)
	}
}
