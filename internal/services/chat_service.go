package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"carpool/internal/apperrors"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/utils"
	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notificationTimeout = 10 * time.Second

const (
	ChatMatchSuperset = "superset"
	ChatMatchExact    = "exact"
)

type ChatService interface {
	// Chats
	CreateOrGetChat(ctx context.Context, participantIDs []primitive.ObjectID) (*models.Chat, bool, error)
	ListChats(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error)
	GetChat(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
	MarkChatRead(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)

	// Messages
	RecordMessage(ctx context.Context, chatID, senderID primitive.ObjectID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID, userID primitive.ObjectID) ([]*models.Message, error)
}

type ChatServiceConfig struct {
	// MatchMode is ChatMatchSuperset or ChatMatchExact.
	MatchMode        string
	MaxMessageLength int
}

type chatService struct {
	chatRepo interfaces.ChatRepository
	notifier MessageNotifier
	config   ChatServiceConfig
	logger   *logger.Logger
}

func NewChatService(chatRepo interfaces.ChatRepository, notifier MessageNotifier, config ChatServiceConfig, logger *logger.Logger) ChatService {
	if config.MaxMessageLength <= 0 {
		config.MaxMessageLength = utils.MaxMessageLength
	}
	if config.MatchMode == "" {
		config.MatchMode = ChatMatchSuperset
	}
	return &chatService{
		chatRepo: chatRepo,
		notifier: notifier,
		config:   config,
		logger:   logger,
	}
}

// CreateOrGetChat returns an existing chat for the participants, or creates
// one with zeroed unread counters. The bool reports whether it was created.
func (s *chatService) CreateOrGetChat(ctx context.Context, participantIDs []primitive.ObjectID) (*models.Chat, bool, error) {
	participants := distinctIDs(participantIDs)
	if len(participants) < 2 {
		return nil, false, apperrors.Validation("participants must contain at least 2 distinct users")
	}

	existing, err := s.chatRepo.FindChatByParticipants(ctx, participants, s.config.MatchMode == ChatMatchExact)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrChatNotFound) {
		return nil, false, err
	}

	chat := models.NewChat(participants)
	if err := s.chatRepo.CreateChat(ctx, chat); err != nil {
		return nil, false, err
	}

	s.logger.WithContext(ctx).LogChatEvent(chat.ID, "created", map[string]interface{}{
		"participants": userIDs(participants),
	})

	return chat, true, nil
}

func (s *chatService) ListChats(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error) {
	return s.chatRepo.GetChatsByParticipant(ctx, userID)
}

func (s *chatService) GetChat(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	chat, err := s.chatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant
	}
	return chat, nil
}

// RecordMessage stores a message from a participant. Every other
// participant's unread counter goes up by one and the chat's last message
// moves to the new one. Notifiers run afterwards and cannot fail the call.
func (s *chatService) RecordMessage(ctx context.Context, chatID, senderID primitive.ObjectID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > s.config.MaxMessageLength {
		return nil, apperrors.Validation(fmt.Sprintf("content must be at most %d characters", s.config.MaxMessageLength))
	}

	chat, err := s.chatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, apperrors.ErrNotParticipant
	}

	msg := models.NewMessage(chatID, senderID, content)
	updated, err := s.chatRepo.AppendMessage(ctx, msg, chat.Recipients(senderID))
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithUserID(senderID).LogChatEvent(chatID, "message_recorded", map[string]interface{}{
		"message_id": msg.ID.Hex(),
	})

	dispatchNotification(ctx, s.notifier, s.logger, updated, msg, notificationTimeout)

	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, chatID, userID primitive.ObjectID) ([]*models.Message, error) {
	if _, err := s.GetChat(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetMessagesByChatID(ctx, chatID)
}

func (s *chatService) MarkChatRead(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	if _, err := s.GetChat(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.MarkChatRead(ctx, chatID, userID)
}

func distinctIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
