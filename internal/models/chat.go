package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Chat struct {
	ID           primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Participants []primitive.ObjectID `json:"participants" bson:"participants"`
	LastMessage  *primitive.ObjectID  `json:"lastMessage,omitempty" bson:"last_message,omitempty"`
	// UnreadCount is keyed by participant hex id.
	UnreadCount map[string]int `json:"unreadCount" bson:"unread_count"`
	CreatedAt   time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updated_at"`
}

// NewChat builds a chat with a zeroed unread counter for every participant.
func NewChat(participants []primitive.ObjectID) *Chat {
	unread := make(map[string]int, len(participants))
	for _, p := range participants {
		unread[p.Hex()] = 0
	}
	return &Chat{
		Participants: participants,
		UnreadCount:  unread,
	}
}

func (c *Chat) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func (c *Chat) Unread(userID primitive.ObjectID) int {
	return c.UnreadCount[userID.Hex()]
}

// Recipients returns every participant except the sender.
func (c *Chat) Recipients(senderID primitive.ObjectID) []primitive.ObjectID {
	recipients := make([]primitive.ObjectID, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != senderID {
			recipients = append(recipients, p)
		}
	}
	return recipients
}

// ApplyMessage mirrors in memory what the store does when a message is
// recorded: every recipient's counter goes up by one (missing keys count as
// zero), the sender's is untouched, and the last-message pointer moves.
func (c *Chat) ApplyMessage(msg *Message) {
	if c.UnreadCount == nil {
		c.UnreadCount = make(map[string]int, len(c.Participants))
	}
	for _, p := range c.Recipients(msg.Sender) {
		c.UnreadCount[p.Hex()]++
	}
	id := msg.ID
	c.LastMessage = &id
	c.UpdatedAt = msg.CreatedAt
}

// ContainsAll reports whether every id is a participant (superset match).
func (c *Chat) ContainsAll(ids []primitive.ObjectID) bool {
	for _, id := range ids {
		if !c.HasParticipant(id) {
			return false
		}
	}
	return true
}

// MatchesExactly reports whether the participant set equals ids.
func (c *Chat) MatchesExactly(ids []primitive.ObjectID) bool {
	return len(c.Participants) == len(ids) && c.ContainsAll(ids)
}
