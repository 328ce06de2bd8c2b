package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wayfarer-travel/wayfarer/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
	Cache      CacheConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// AuthConfig configures the auth collaborator and token validation
type AuthConfig struct {
	// BaseURL of the auth backend that issues and refreshes tokens
	BaseURL string `validate:"required"`
	// Secret used to verify the HMAC signature of access tokens
	Secret string `validate:"required"`
	// RoleCacheTTL bounds how long a cached role hint may be served
	// before a profile fetch re-derives it
	RoleCacheTTL time.Duration
}

// BillingConfig configures the billing collaborator
type BillingConfig struct {
	// BaseURL of the billing backend that owns subscriptions
	BaseURL string `validate:"required"`
	Timeout time.Duration
	// MaxRefundDays is the refund eligibility window in days from the
	// subscription start date
	MaxRefundDays int `validate:"required,gt=0"`
}

type CacheConfig struct {
	Enabled bool
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/wayfarer")

	// Set up environment variables support
	v.SetEnvPrefix("WAYFARER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeAPI))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("auth.rolecachettl", 30*time.Minute)
	v.SetDefault("billing.timeout", 30*time.Second)
	v.SetDefault("billing.maxrefunddays", 14)
	v.SetDefault("cache.enabled", true)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Auth: AuthConfig{
			BaseURL:      "http://localhost:5001",
			Secret:       "local-dev-secret-do-not-use",
			RoleCacheTTL: 30 * time.Minute,
		},
		Billing: BillingConfig{
			BaseURL:       "http://localhost:5002",
			Timeout:       30 * time.Second,
			MaxRefundDays: 14,
		},
		Cache: CacheConfig{Enabled: true},
	}
}
