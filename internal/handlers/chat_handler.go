package handlers

import (
	"carpool/internal/middleware"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/internal/validators"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService services.ChatService
	logger      *logger.Logger
}

func NewChatHandler(chatService services.ChatService, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// StartChat returns the chat for the participants, creating it if needed.
// Both outcomes answer 201.
func (h *ChatHandler) StartChat(c *gin.Context) {
	if _, ok := middleware.CurrentUserID(c); !ok {
		return
	}

	var req validators.StartChatRequest
	if !bindJSON(c, &req) {
		return
	}
	participants, errs := validators.ValidateStartChat(&req)
	if len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	chat, created, err := h.chatService.CreateOrGetChat(c.Request.Context(), participants)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	message := "Chat retrieved successfully"
	if created {
		message = "Chat created successfully"
	}
	utils.CreatedResponse(c, message, chat)
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}

	chats, err := h.chatService.ListChats(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chats retrieved successfully", chats)
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	chat, err := h.chatService.GetChat(c.Request.Context(), chatID, userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chat retrieved successfully", chat)
}

// MarkRead resets the caller's unread counter
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	chat, err := h.chatService.MarkChatRead(c.Request.Context(), chatID, userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chat marked as read", chat)
}
