package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewChatZeroesUnread(t *testing.T) {
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	chat := NewChat([]primitive.ObjectID{u1, u2})

	if len(chat.UnreadCount) != 2 {
		t.Fatalf("unread keys = %d, want 2", len(chat.UnreadCount))
	}
	for _, id := range []primitive.ObjectID{u1, u2} {
		v, ok := chat.UnreadCount[id.Hex()]
		if !ok || v != 0 {
			t.Errorf("unread[%s] = %d (present %v), want 0", id.Hex(), v, ok)
		}
	}
}

func TestApplyMessageCountsOnlyRecipients(t *testing.T) {
	u1, u2, u3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	chat := NewChat([]primitive.ObjectID{u1, u2, u3})

	send := func(sender primitive.ObjectID) *Message {
		msg := NewMessage(chat.ID, sender, "hi")
		msg.ID = primitive.NewObjectID()
		msg.CreatedAt = time.Now()
		chat.ApplyMessage(msg)
		return msg
	}

	send(u1)
	send(u1)
	last := send(u2)

	want := map[primitive.ObjectID]int{u1: 1, u2: 2, u3: 3}
	for id, n := range want {
		if got := chat.Unread(id); got != n {
			t.Errorf("unread[%s] = %d, want %d", id.Hex(), got, n)
		}
	}
	if chat.LastMessage == nil || *chat.LastMessage != last.ID {
		t.Error("last message pointer not moved")
	}
}

func TestApplyMessageMissingKeyStartsAtZero(t *testing.T) {
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	chat := &Chat{Participants: []primitive.ObjectID{u1, u2}}

	chat.ApplyMessage(&Message{ID: primitive.NewObjectID(), Sender: u1})

	if chat.Unread(u2) != 1 {
		t.Errorf("unread[u2] = %d, want 1", chat.Unread(u2))
	}
	if _, ok := chat.UnreadCount[u1.Hex()]; ok {
		t.Error("sender counter should not be created by their own message")
	}
}

func TestChatMatching(t *testing.T) {
	u1, u2, u3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	group := &Chat{Participants: []primitive.ObjectID{u1, u2, u3}}
	pair := []primitive.ObjectID{u1, u2}

	if !group.ContainsAll(pair) {
		t.Error("superset match should accept a subset of participants")
	}
	if group.MatchesExactly(pair) {
		t.Error("exact match should reject a larger participant set")
	}
	if !(&Chat{Participants: []primitive.ObjectID{u2, u1}}).MatchesExactly(pair) {
		t.Error("exact match should ignore order")
	}
}

func TestNewMessageSenderHasRead(t *testing.T) {
	sender := primitive.NewObjectID()
	msg := NewMessage(primitive.NewObjectID(), sender, "hello")

	if !msg.IsReadBy(sender) {
		t.Error("sender must be in readBy")
	}
	if len(msg.ReadBy) != 1 {
		t.Errorf("readBy = %v, want only the sender", msg.ReadBy)
	}
}
