package handlers

import (
	"carpool/internal/apperrors"
	"carpool/internal/middleware"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/internal/validators"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	chatService services.ChatService
	logger      *logger.Logger
}

func NewMessageHandler(chatService services.ChatService, logger *logger.Logger) *MessageHandler {
	return &MessageHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// SendMessage records a message from the caller. A sender in the body must
// match the caller.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}

	var req validators.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	parsed, errs := validators.ValidateSendMessage(&req)
	if len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}
	if parsed.Sender != nil && *parsed.Sender != userID {
		utils.AbortWithError(c, apperrors.Forbidden("cannot send messages as another user"))
		return
	}

	msg, err := h.chatService.RecordMessage(c.Request.Context(), parsed.ChatID, userID, parsed.Content)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Message sent successfully", msg)
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "chatId")
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), chatID, userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Messages retrieved successfully", messages)
}
