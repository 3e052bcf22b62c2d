package utils

import "time"

const (
	AppName    = "Carpool"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1
	MaxPage         = 10000

	// Authentication
	DefaultAccessTokenTTL = 24 * time.Hour
	PasswordMinLength     = 6
	PasswordMaxLength     = 128

	// Rides
	FeaturedRidesLimit = 6
	MaxSeatsPerRide    = 8
	MinRating          = 1
	MaxRating          = 5
	MaxCommentLength   = 500
	RideDateLayout     = "2006-01-02"
	RideTimeLayout     = "15:04"

	// Chat
	MaxMessageLength   = 1000
	MaxChatParticipant = 10

	// Users
	UserSearchLimit = 20
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Context keys set by middleware on the gin context.
const (
	ContextKeySession   = "session"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
)

// Cache keys
const (
	CacheKeyFeaturedRides = "rides:featured"
	CacheKeyRideStats     = "rides:stats"
	CacheKeyRateLimit     = "rate_limit:%s"
)
