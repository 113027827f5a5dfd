// Package config loads runtime configuration from environment variables.
package config

import "github.com/kelseyhightower/envconfig"

// Database holds libsql database configuration.
type Database struct {
	URL       string `envconfig:"ABKIT_DATABASE_URL" default:"file:abkit.db"`
	AuthToken string `envconfig:"ABKIT_AUTH_TOKEN"`
}

// Telemetry selects and configures the metric sink.
type Telemetry struct {
	// Sink is one of "none", "webhook" or "otel".
	Sink       string `envconfig:"ABKIT_TELEMETRY_SINK" default:"none"`
	WebhookURL string `envconfig:"ABKIT_WEBHOOK_URL"`
	QueueSize  int    `envconfig:"ABKIT_TELEMETRY_QUEUE_SIZE" default:"256"`
}

// Server holds HTTP server configuration.
type Server struct {
	Addr string `envconfig:"ABKIT_LISTEN_ADDR" default:":8080"`
}

// App is the full engine configuration.
type App struct {
	Database  Database
	Telemetry Telemetry
	Server    Server
}

// Load reads the engine configuration from environment variables.
func Load() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Telemetry); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, err
	}
	return &cfg, nil
}
