package validators

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxChatParticipants bounds the participant list of one chat. It must match
// the max in StartChatRequest's tag.
const MaxChatParticipants = 10

type StartChatRequest struct {
	Participants []string `json:"participants" validate:"required,min=2,max=10,dive,required,object_id"`
}

type SendMessageRequest struct {
	Chat    string `json:"chat" validate:"required,object_id"`
	Sender  string `json:"sender" validate:"omitempty,object_id"`
	Content string `json:"content" validate:"required,not_blank,max=1000"`
}

// ValidateStartChat returns the distinct participant ids in request order.
func ValidateStartChat(req *StartChatRequest) ([]primitive.ObjectID, ValidationErrors) {
	if errs := ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	seen := make(map[primitive.ObjectID]struct{}, len(req.Participants))
	ids := make([]primitive.ObjectID, 0, len(req.Participants))
	for _, raw := range req.Participants {
		id, _ := primitive.ObjectIDFromHex(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) < 2 {
		return nil, ValidationErrors{{
			Field:   "participants",
			Tag:     "min",
			Message: "participants must contain at least 2 distinct users",
		}}
	}

	return ids, nil
}

type ParsedMessage struct {
	ChatID  primitive.ObjectID
	Sender  *primitive.ObjectID
	Content string
}

func ValidateSendMessage(req *SendMessageRequest) (*ParsedMessage, ValidationErrors) {
	req.Content = strings.TrimSpace(req.Content)
	if errs := ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	chatID, _ := primitive.ObjectIDFromHex(req.Chat)
	parsed := &ParsedMessage{ChatID: chatID, Content: req.Content}
	if req.Sender != "" {
		sender, _ := primitive.ObjectIDFromHex(req.Sender)
		parsed.Sender = &sender
	}

	return parsed, nil
}
