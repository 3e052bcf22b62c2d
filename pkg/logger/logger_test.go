package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBufferedLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()

	log, err := NewLogger(&Config{Level: DebugLevel, Format: "json", AppName: "carpool", Version: "test"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return log, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	return line
}

func TestJSONFormatterIncludesFields(t *testing.T) {
	log, buf := newBufferedLogger(t)

	rideID := primitive.NewObjectID()
	log.WithRideID(rideID).WithField("seats", 3).Info("ride created")

	line := decodeLine(t, buf)
	if line["message"] != "ride created" {
		t.Errorf("message = %v", line["message"])
	}
	if line["ride_id"] != rideID.Hex() {
		t.Errorf("ride_id = %v, want %s", line["ride_id"], rideID.Hex())
	}
	if line["app"] != "carpool" || line["version"] != "test" {
		t.Errorf("app/version not stamped: %v", line)
	}
	if line["level"] != "info" {
		t.Errorf("level = %v", line["level"])
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	log, buf := newBufferedLogger(t)

	child := log.WithField("chat_id", "abc")
	_ = child
	log.Info("parent")

	line := decodeLine(t, buf)
	if _, ok := line["chat_id"]; ok {
		t.Error("parent logger picked up child field")
	}
}

func TestWithContextExtractsRequestAndUser(t *testing.T) {
	log, buf := newBufferedLogger(t)

	userID := primitive.NewObjectID()
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, userID)

	log.WithContext(ctx).Warn("scoped")

	line := decodeLine(t, buf)
	if line["request_id"] != "req-1" {
		t.Errorf("request_id = %v", line["request_id"])
	}
	if line["user_id"] != userID.Hex() {
		t.Errorf("user_id = %v", line["user_id"])
	}
}

func TestLogAPIRequestLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{404, "warning"},
		{500, "error"},
	}

	for _, tt := range tests {
		log, buf := newBufferedLogger(t)
		log.LogAPIRequest("GET", "/api/rides", tt.status, 0, nil)

		line := decodeLine(t, buf)
		if line["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, line["level"], tt.level)
		}
	}
}
