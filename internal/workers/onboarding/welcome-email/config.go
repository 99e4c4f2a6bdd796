// internal/workers/onboarding/welcome-email/config.go
package welcomeemail

import "time"

type Config struct {
	Enabled        bool
	SupportContact string
	Timeout        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
