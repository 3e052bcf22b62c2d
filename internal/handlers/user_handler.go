package handlers

import (
	"carpool/internal/middleware"
	"carpool/internal/models"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/internal/validators"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
	logger      *logger.Logger
}

func NewUserHandler(userService services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", user.Public())
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if errs := validators.ValidateUpdateUser(&req); len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	var update interfaces.UserUpdate
	if req.Name != "" {
		update.Name = &req.Name
	}
	if req.Email != "" {
		update.Email = &req.Email
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, actorID, update)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "User updated successfully", user)
}

// SearchUsers matches name or email against q
func (h *UserHandler) SearchUsers(c *gin.Context) {
	users, err := h.userService.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	utils.SuccessResponse(c, "Users retrieved successfully", public)
}

// RegisterDevice stores a push token for the caller
func (h *UserHandler) RegisterDevice(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}

	var req validators.DeviceTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	platform, errs := validators.ValidateDeviceToken(&req)
	if len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	if err := h.userService.RegisterDeviceToken(c.Request.Context(), userID, platform, req.Token); err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.NoContentResponse(c)
}
