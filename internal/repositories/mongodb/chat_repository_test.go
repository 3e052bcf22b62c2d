package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/apperrors"
	"carpool/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memMessageWriter keeps messages in a map and fails the chat update with
// updateErr when set.
type memMessageWriter struct {
	messages  map[primitive.ObjectID]*models.Message
	updateErr error
	deleteErr error
}

func newMemMessageWriter() *memMessageWriter {
	return &memMessageWriter{messages: make(map[primitive.ObjectID]*models.Message)}
}

func (w *memMessageWriter) insertMessage(_ context.Context, msg *models.Message) error {
	w.messages[msg.ID] = msg
	return nil
}

func (w *memMessageWriter) applyMessage(_ context.Context, msg *models.Message, _ []primitive.ObjectID) (*models.Chat, error) {
	if w.updateErr != nil {
		return nil, w.updateErr
	}
	last := msg.ID
	return &models.Chat{ID: msg.Chat, LastMessage: &last}, nil
}

func (w *memMessageWriter) deleteMessage(_ context.Context, id primitive.ObjectID) error {
	if w.deleteErr != nil {
		return w.deleteErr
	}
	delete(w.messages, id)
	return nil
}

func newTestMessage() *models.Message {
	msg := models.NewMessage(primitive.NewObjectID(), primitive.NewObjectID(), "hi")
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	return msg
}

func TestAppendMessageStoresMessageAndMovesChat(t *testing.T) {
	w := newMemMessageWriter()
	msg := newTestMessage()

	chat, err := appendMessage(context.Background(), w, msg, nil, true)
	if err != nil {
		t.Fatalf("appendMessage: %v", err)
	}
	if chat.LastMessage == nil || *chat.LastMessage != msg.ID {
		t.Error("last message not moved")
	}
	if _, ok := w.messages[msg.ID]; !ok {
		t.Error("message not stored")
	}
}

func TestAppendMessageRemovesMessageWhenChatUpdateFails(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
	}{
		{"chat deleted meanwhile", apperrors.ErrChatNotFound},
		{"store failure", errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newMemMessageWriter()
			w.updateErr = tt.updateErr
			msg := newTestMessage()

			if _, err := appendMessage(context.Background(), w, msg, nil, true); !errors.Is(err, tt.updateErr) {
				t.Fatalf("err = %v, want %v", err, tt.updateErr)
			}
			if len(w.messages) != 0 {
				t.Errorf("orphan messages left behind: %d", len(w.messages))
			}
		})
	}
}

func TestAppendMessageReportsFailedCleanup(t *testing.T) {
	w := newMemMessageWriter()
	w.updateErr = apperrors.ErrChatNotFound
	w.deleteErr = errors.New("delete failed")

	_, err := appendMessage(context.Background(), w, newTestMessage(), nil, true)
	if !errors.Is(err, apperrors.ErrChatNotFound) || !errors.Is(err, w.deleteErr) {
		t.Errorf("err = %v, want both the update and cleanup failures", err)
	}
}

func TestAppendMessageInTransactionLeavesRollbackToMongo(t *testing.T) {
	w := newMemMessageWriter()
	w.updateErr = apperrors.ErrChatNotFound

	if _, err := appendMessage(context.Background(), w, newTestMessage(), nil, false); err == nil {
		t.Fatal("expected the update error")
	}
	if len(w.messages) != 1 {
		t.Errorf("messages = %d, want the insert left for the transaction abort", len(w.messages))
	}
}

func TestMessageUpdateIncrementsEachRecipient(t *testing.T) {
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	msg := newTestMessage()

	update := messageUpdate(msg, []primitive.ObjectID{u1, u2})

	inc, ok := update["$inc"].(bson.M)
	if !ok || len(inc) != 2 || inc["unread_count."+u1.Hex()] != 1 || inc["unread_count."+u2.Hex()] != 1 {
		t.Errorf("$inc = %v", update["$inc"])
	}
	set := update["$set"].(bson.M)
	if set["last_message"] != msg.ID {
		t.Errorf("$set = %v", set)
	}
	if _, ok := messageUpdate(msg, nil)["$inc"]; ok {
		t.Error("no recipients should produce no $inc")
	}
}
