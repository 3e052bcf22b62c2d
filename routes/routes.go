package routes

import (
	"carpool/internal/handlers"
	"carpool/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Ride      *handlers.RideHandler
	User      *handlers.UserHandler
	Chat      *handlers.ChatHandler
	Message   *handlers.MessageHandler
	Health    *handlers.HealthHandler
	WebSocket gin.HandlerFunc
}

// Setup registers every API route under /api.
func Setup(r *gin.Engine, h *Handlers, jwtSecret string) {
	api := r.Group("/api")
	auth := middleware.AuthRequired(jwtSecret)

	api.GET("/health", h.Health.Health)

	SetupAuthRoutes(api, h.Auth, auth)
	SetupRideRoutes(api, h.Ride, auth)
	SetupUserRoutes(api, h.User, h.Ride, auth)
	SetupChatRoutes(api, h.Chat, h.Message, auth)

	if h.WebSocket != nil {
		api.GET("/ws", middleware.WebSocketAuth(jwtSecret), h.WebSocket)
	}
}

func SetupAuthRoutes(r *gin.RouterGroup, h *handlers.AuthHandler, auth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", auth, h.Me)
	}
}

// SetupRideRoutes sets up ride routes. Browsing is public; everything that
// needs a caller is behind auth.
func SetupRideRoutes(r *gin.RouterGroup, h *handlers.RideHandler, auth gin.HandlerFunc) {
	rides := r.Group("/rides")
	{
		rides.GET("", h.ListRides)
		rides.GET("/featured", h.FeaturedRides)
		rides.GET("/stats", auth, h.Stats)
		rides.GET("/user", auth, h.MyRides)
		rides.GET("/history", auth, h.History)
		rides.GET("/:id", h.GetRide)

		rides.POST("", auth, h.CreateRide)
		rides.POST("/:id/join", auth, h.JoinRide)
		rides.PATCH("/:id/status", auth, h.UpdateStatus)
		rides.POST("/:id/rate", auth, h.RateRide)
	}
}

func SetupUserRoutes(r *gin.RouterGroup, h *handlers.UserHandler, rides *handlers.RideHandler, auth gin.HandlerFunc) {
	users := r.Group("/users")
	users.Use(auth)
	{
		users.GET("/search", h.SearchUsers)
		users.POST("/me/devices", h.RegisterDevice)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.GET("/:id/rides", rides.UserRides)
	}
}

func SetupChatRoutes(r *gin.RouterGroup, chats *handlers.ChatHandler, messages *handlers.MessageHandler, auth gin.HandlerFunc) {
	chatGroup := r.Group("/chats")
	chatGroup.Use(auth)
	{
		chatGroup.GET("", chats.ListChats)
		chatGroup.POST("/start", chats.StartChat)
		chatGroup.GET("/:id", chats.GetChat)
		chatGroup.POST("/:id/read", chats.MarkRead)
	}

	messageGroup := r.Group("/messages")
	messageGroup.Use(auth)
	{
		messageGroup.POST("", messages.SendMessage)
		messageGroup.GET("/chat/:chatId", messages.ListMessages)
	}
}
