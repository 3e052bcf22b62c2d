package middleware

import (
	"context"
	"strings"
	"time"

	"carpool/internal/apperrors"
	"carpool/internal/utils"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the authenticated caller, valid for one request.
type Session struct {
	UserID    primitive.ObjectID
	Email     string
	ExpiresAt time.Time
}

type sessionKey struct{}

// AuthRequired validates the bearer token and attaches the caller's Session
// to both the gin context and the request context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return authenticate(jwtSecret, false)
}

// WebSocketAuth behaves like AuthRequired but also accepts the token from
// the "token" query parameter, since browsers cannot set headers on an
// upgrade request.
func WebSocketAuth(jwtSecret string) gin.HandlerFunc {
	return authenticate(jwtSecret, true)
}

func authenticate(jwtSecret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c, allowQuery)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		claims, verr := utils.ValidateToken(tokenString, jwtSecret)
		if verr != nil {
			utils.AbortWithError(c, apperrors.Unauthorized("invalid token"))
			return
		}

		session := &Session{
			UserID: claims.UserID,
			Email:  claims.Email,
		}
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Time
		}

		c.Set(utils.ContextKeySession, session)
		c.Set(utils.ContextKeyUserID, session.UserID)

		ctx := context.WithValue(c.Request.Context(), sessionKey{}, session)
		ctx = context.WithValue(ctx, logger.UserIDKey, session.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (string, *apperrors.Error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := c.Query("token"); token != "" {
				return token, nil
			}
		}
		return "", apperrors.Unauthorized("no authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", apperrors.Unauthorized("invalid token format")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		return "", apperrors.Unauthorized("no token provided")
	}

	return tokenString, nil
}

// GetSession returns the session attached by AuthRequired.
func GetSession(c *gin.Context) (*Session, bool) {
	value, exists := c.Get(utils.ContextKeySession)
	if !exists {
		return nil, false
	}
	session, ok := value.(*Session)
	return session, ok
}

// SessionFromContext returns the session carried by a request context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok
}

// CurrentUserID returns the authenticated user id, aborting with 401 when
// the route was not behind AuthRequired.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	session, ok := GetSession(c)
	if !ok {
		utils.AbortWithError(c, apperrors.Unauthorized("no authorization header"))
		return primitive.NilObjectID, false
	}
	return session.UserID, true
}
