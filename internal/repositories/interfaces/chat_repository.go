package interfaces

import (
	"context"

	"carpool/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatRepository interface {
	// Chat operations
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	// FindChatByParticipants returns a chat containing every id. With exact
	// set, the chat must contain no other participants. Returns
	// ErrChatNotFound when there is no match.
	FindChatByParticipants(ctx context.Context, participantIDs []primitive.ObjectID, exact bool) (*models.Chat, error)
	GetChatsByParticipant(ctx context.Context, participantID primitive.ObjectID) ([]*models.Chat, error)

	// Message operations
	// AppendMessage stores msg and, in the same step for the chat document,
	// increments the unread counter of every recipient and moves the
	// last-message pointer. Returns the updated chat.
	AppendMessage(ctx context.Context, msg *models.Message, recipients []primitive.ObjectID) (*models.Chat, error)
	GetMessagesByChatID(ctx context.Context, chatID primitive.ObjectID) ([]*models.Message, error)
	// MarkChatRead zeroes the user's unread counter and marks the chat's
	// messages as read by the user.
	MarkChatRead(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
}
