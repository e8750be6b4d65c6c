package config

import (
	"fmt"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel     string `env:"LOG_LEVEL" envDefault:"info"`                   // Log level for the application (e.g., DEBUG, INFO)
	EnvBotToken      string `env:"TELEGRAM_TOKEN,required"`                       // Telegram Bot Token for authentication with the Telegram API
	EnvStrapiURL     string `env:"STRAPI_URL" envDefault:"http://localhost:1337"` // Base URL of the Strapi content backend
	EnvStrapiToken   string `env:"STRAPI_API_TOKEN"`                              // Optional bearer token for the Strapi API
	EnvRedisHost     string `env:"DATABASE_HOST" envDefault:"localhost"`          // Redis host for the dialogue state store
	EnvRedisPort     int    `env:"DATABASE_PORT" envDefault:"6379"`               // Redis port for the dialogue state store
	EnvRedisPassword string `env:"DATABASE_PASSWORD"`                             // Redis password, empty if none
}

// NewConfig initializes a new Config instance, loading bot.env first when it
// is present. Real environment variables take precedence over the file.
// Returns an error if a required variable is missing.
func NewConfig() (*Config, error) {
	if err := godotenv.Load("bot.env"); err != nil {
		logrus.Infof("bot.env not loaded, relying on environment: %v", err)
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return config, nil
}
