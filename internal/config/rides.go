package config

import "time"

const (
	ChatMatchSuperset = "superset"
	ChatMatchExact    = "exact"
)

type RidesConfig struct {
	// AllowDriverJoin lets a driver occupy a seat in their own ride.
	AllowDriverJoin bool          `yaml:"allow_driver_join"`
	FeaturedLimit   int           `yaml:"featured_limit"`
	SummaryCacheTTL time.Duration `yaml:"summary_cache_ttl"`
}

type ChatConfig struct {
	// MatchMode selects how POST /chats/start finds an existing chat:
	// "superset" returns any chat containing all requested participants,
	// "exact" requires the participant sets to be equal.
	MatchMode        string `yaml:"match_mode"`
	MaxMessageLength int    `yaml:"max_message_length"`
}

func loadRidesConfig() *RidesConfig {
	return &RidesConfig{
		AllowDriverJoin: getEnvAsBool("RIDES_ALLOW_DRIVER_JOIN", true),
		FeaturedLimit:   getEnvAsInt("RIDES_FEATURED_LIMIT", 6),
		SummaryCacheTTL: getEnvAsDuration("RIDES_SUMMARY_CACHE_TTL", 30*time.Second),
	}
}

func loadChatConfig() *ChatConfig {
	return &ChatConfig{
		MatchMode:        getEnv("CHAT_MATCH_MODE", ChatMatchSuperset),
		MaxMessageLength: getEnvAsInt("CHAT_MAX_MESSAGE_LENGTH", 1000),
	}
}
