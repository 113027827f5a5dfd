package otel

import (
	"os"
	"strconv"
)

// Config holds OTEL sink configuration.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// LoadConfig loads OTEL configuration from environment variables.
func LoadConfig() Config {
	enabled, _ := strconv.ParseBool(os.Getenv("ABKIT_OTEL_ENABLED"))
	insecure, _ := strconv.ParseBool(os.Getenv("ABKIT_OTEL_INSECURE"))

	return Config{
		Endpoint: os.Getenv("ABKIT_OTEL_ENDPOINT"),
		Enabled:  enabled,
		Insecure: insecure,
	}
}
