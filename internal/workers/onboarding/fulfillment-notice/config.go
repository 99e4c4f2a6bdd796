// internal/workers/onboarding/fulfillment-notice/config.go
package fulfillmentnotice

import "time"

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
