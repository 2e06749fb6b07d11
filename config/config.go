package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Client  ClientConfig  `mapstructure:"client"`
}

type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

type SessionConfig struct {
	// RenewThreshold is how close to expiry the credential may get before the
	// renewal loop refreshes it. Measured in hours, not the full token lifetime.
	RenewThreshold time.Duration `mapstructure:"renew_threshold"`
	// CheckInterval is how often the renewal loop compares expiry against the
	// threshold.
	CheckInterval  time.Duration `mapstructure:"check_interval"`
	CredentialFile string        `mapstructure:"credential_file"`
}

type ClientConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads config from the given YAML file path. A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.rate_limit_rps", 10)
	v.SetDefault("api.rate_limit_burst", 20)
	v.SetDefault("session.renew_threshold", "6h")
	v.SetDefault("session.check_interval", "1h")
	v.SetDefault("session.credential_file", defaultCredentialFile())
	v.SetDefault("client.debug", false)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultCredentialFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "gameshelf", "session.json")
}
