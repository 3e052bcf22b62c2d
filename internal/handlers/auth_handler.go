package handlers

import (
	"carpool/internal/middleware"
	"carpool/internal/services"
	"carpool/internal/utils"
	"carpool/internal/validators"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	logger      *logger.Logger
}

func NewAuthHandler(authService services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req validators.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if errs := validators.ValidateRegister(&req); len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "User registered successfully", resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req validators.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if errs := validators.ValidateLogin(&req); len(errs) > 0 {
		utils.AbortWithError(c, errs.AppError())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", resp)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", user)
}
