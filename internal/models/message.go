package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Chat      primitive.ObjectID   `json:"chat" bson:"chat"`
	Sender    primitive.ObjectID   `json:"sender" bson:"sender"`
	Content   string               `json:"content" bson:"content"`
	ReadBy    []primitive.ObjectID `json:"readBy" bson:"read_by"`
	CreatedAt time.Time            `json:"createdAt" bson:"created_at"`
}

// NewMessage builds a message the sender has already read.
func NewMessage(chatID, senderID primitive.ObjectID, content string) *Message {
	return &Message{
		Chat:    chatID,
		Sender:  senderID,
		Content: content,
		ReadBy:  []primitive.ObjectID{senderID},
	}
}

func (m *Message) IsReadBy(userID primitive.ObjectID) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ChatEvent is what the real-time layer pushes to chat participants.
type ChatEvent struct {
	Type       string               `json:"type"`
	ChatID     primitive.ObjectID   `json:"chatId"`
	Message    *Message             `json:"message,omitempty"`
	Recipients []primitive.ObjectID `json:"recipients"`
}

const ChatEventNewMessage = "new_message"
