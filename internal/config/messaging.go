package config

import "time"

type MessagingConfig struct {
	// URL is the AMQP connection string. Empty disables ride event publishing.
	URL            string        `yaml:"url"`
	RideExchange   string        `yaml:"ride_exchange"`
	ConnectRetries int           `yaml:"connect_retries"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
}

func loadMessagingConfig() *MessagingConfig {
	return &MessagingConfig{
		URL:            getEnv("RABBITMQ_URL", ""),
		RideExchange:   getEnv("RABBITMQ_RIDE_EXCHANGE", "carpool.rides"),
		ConnectRetries: getEnvAsInt("RABBITMQ_CONNECT_RETRIES", 5),
		RetryInterval:  getEnvAsDuration("RABBITMQ_RETRY_INTERVAL", 3*time.Second),
		DialTimeout:    getEnvAsDuration("RABBITMQ_DIAL_TIMEOUT", 5*time.Second),
	}
}

func (m *MessagingConfig) Enabled() bool {
	return m.URL != ""
}
