package websocket

import (
	"net/http"
	"time"

	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Config struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
	PongTimeout      time.Duration
	AllowedOrigins   []string
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   Config
	log      *logger.Logger
}

func NewHandler(hub *Hub, config Config, log *logger.Logger) *Handler {
	if config.PongTimeout <= 0 {
		config.PongTimeout = 60 * time.Second
	}

	return &Handler{
		hub:    hub,
		config: config,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
			HandshakeTimeout: config.HandshakeTimeout,
			CheckOrigin:      originChecker(config.AllowedOrigins),
		},
	}
}

// HandleWebSocket upgrades an authenticated request. The auth middleware
// must have stored the caller's id under "user_id".
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithUserID(userObjectID).WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userObjectID, h.config.PongTimeout)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		return set[origin]
	}
}
