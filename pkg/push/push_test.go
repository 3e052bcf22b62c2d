package push

import (
	"testing"

	"github.com/sideshow/apns2"
)

func TestBuildMulticastMessage(t *testing.T) {
	n := &Notification{
		Title:        "Alice",
		Body:         "see you at 8",
		Data:         map[string]string{"chatId": "abc"},
		Badge:        3,
		CollapseKey:  "chat_abc",
		HighPriority: true,
	}

	msg := buildMulticastMessage(n, []string{"t1", "t2"})

	if len(msg.Tokens) != 2 || msg.Data["chatId"] != "abc" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Notification.Title != "Alice" || msg.Notification.Body != "see you at 8" {
		t.Errorf("notification = %+v", msg.Notification)
	}
	if msg.Android.Priority != "high" || msg.Android.CollapseKey != "chat_abc" {
		t.Errorf("android = %+v", msg.Android)
	}
	if msg.APNS == nil || *msg.APNS.Payload.Aps.Badge != 3 {
		t.Error("badge not carried to the APNs payload")
	}
}

func TestBuildAPNSNotification(t *testing.T) {
	n := &Notification{
		Title: "Bob",
		Body:  "on my way",
		Data:  map[string]string{"chatId": "xyz"},
	}

	got := buildAPNSNotification(n, "device", "com.example.carpool")

	if got.DeviceToken != "device" || got.Topic != "com.example.carpool" {
		t.Fatalf("notification = %+v", got)
	}
	if got.Priority != apns2.PriorityLow {
		t.Errorf("priority = %d", got.Priority)
	}

	payload := got.Payload.(map[string]interface{})
	if payload["chatId"] != "xyz" {
		t.Errorf("custom data missing: %v", payload)
	}
	aps := payload["aps"].(map[string]interface{})
	if _, ok := aps["badge"]; ok {
		t.Error("badge should be omitted when zero")
	}
}
