package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carpool/internal/apperrors"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatRepository struct {
	chatsCollection    *mongo.Collection
	messagesCollection *mongo.Collection
	// transactions wraps message insert and chat update in one transaction.
	transactions bool
}

func NewChatRepository(db *mongo.Database, transactions bool) interfaces.ChatRepository {
	return &chatRepository{
		chatsCollection:    db.Collection("chats"),
		messagesCollection: db.Collection("messages"),
		transactions:       transactions,
	}
}

// Chat operations
func (r *chatRepository) CreateChat(ctx context.Context, chat *models.Chat) error {
	now := time.Now()
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.UnreadCount == nil {
		chat.UnreadCount = map[string]int{}
	}

	if _, err := r.chatsCollection.InsertOne(ctx, chat); err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	return nil
}

func (r *chatRepository) GetChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := r.chatsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return &chat, nil
}

func (r *chatRepository) FindChatByParticipants(ctx context.Context, participantIDs []primitive.ObjectID, exact bool) (*models.Chat, error) {
	match := bson.M{"$all": participantIDs}
	if exact {
		match["$size"] = len(participantIDs)
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var chat models.Chat
	err := r.chatsCollection.FindOne(ctx, bson.M{"participants": match}, opts).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to find chat by participants: %w", err)
	}

	return &chat, nil
}

func (r *chatRepository) GetChatsByParticipant(ctx context.Context, participantID primitive.ObjectID) ([]*models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.chatsCollection.Find(ctx, bson.M{"participants": participantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := []*models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}

	return chats, nil
}

// Message operations
func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.Message, recipients []primitive.ObjectID) (*models.Chat, error) {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()

	if !r.transactions {
		return appendMessage(ctx, r, msg, recipients, true)
	}

	session, err := r.chatsCollection.Database().Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	// An aborted transaction discards the insert, so no compensation is needed.
	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return appendMessage(sc, r, msg, recipients, false)
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Chat), nil
}

// messageWriter is the set of single-document writes a message append is
// built from.
type messageWriter interface {
	insertMessage(ctx context.Context, msg *models.Message) error
	applyMessage(ctx context.Context, msg *models.Message, recipients []primitive.ObjectID) (*models.Chat, error)
	deleteMessage(ctx context.Context, id primitive.ObjectID) error
}

// appendMessage inserts msg and then moves its chat's counters. With
// compensate set, a failed chat update deletes the inserted message so the
// append either fully happens or leaves nothing behind.
func appendMessage(ctx context.Context, w messageWriter, msg *models.Message, recipients []primitive.ObjectID, compensate bool) (*models.Chat, error) {
	if err := w.insertMessage(ctx, msg); err != nil {
		return nil, err
	}

	chat, err := w.applyMessage(ctx, msg, recipients)
	if err == nil {
		return chat, nil
	}

	if compensate {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if delErr := w.deleteMessage(cleanupCtx, msg.ID); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to remove message %s: %w", msg.ID.Hex(), delErr))
		}
	}

	return nil, err
}

const cleanupTimeout = 5 * time.Second

func (r *chatRepository) insertMessage(ctx context.Context, msg *models.Message) error {
	if _, err := r.messagesCollection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *chatRepository) applyMessage(ctx context.Context, msg *models.Message, recipients []primitive.ObjectID) (*models.Chat, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var chat models.Chat
	err := r.chatsCollection.FindOneAndUpdate(ctx, bson.M{"_id": msg.Chat}, messageUpdate(msg, recipients), opts).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}

	return &chat, nil
}

func (r *chatRepository) deleteMessage(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.messagesCollection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// messageUpdate moves last_message to msg and adds one unread message for
// every recipient. Missing counters start at zero under $inc.
func messageUpdate(msg *models.Message, recipients []primitive.ObjectID) bson.M {
	update := bson.M{
		"$set": bson.M{
			"last_message": msg.ID,
			"updated_at":   msg.CreatedAt,
		},
	}
	if len(recipients) > 0 {
		inc := bson.M{}
		for _, p := range recipients {
			inc["unread_count."+p.Hex()] = 1
		}
		update["$inc"] = inc
	}
	return update
}

func (r *chatRepository) GetMessagesByChatID(ctx context.Context, chatID primitive.ObjectID) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.messagesCollection.Find(ctx, bson.M{"chat": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []*models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	return messages, nil
}

func (r *chatRepository) MarkChatRead(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	_, err := r.messagesCollection.UpdateMany(
		ctx,
		bson.M{"chat": chatID, "read_by": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages as read: %w", err)
	}

	update := bson.M{
		"$set": bson.M{"unread_count." + userID.Hex(): 0},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var chat models.Chat
	err = r.chatsCollection.FindOneAndUpdate(ctx, bson.M{"_id": chatID, "participants": userID}, update, opts).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to reset unread count: %w", err)
	}

	return &chat, nil
}
