// Package config loads service configuration from a YAML file and overlays
// environment variables, so container deployments can run from env alone.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults that hold when neither file nor environment provides a value.
const (
	DefaultPort = 8080

	// DefaultSender is the known-safe sender on the verified domain.
	DefaultSender = "Ch3rryPi3 Website <contact@ch3rrypi3.ai>"
	// DefaultRecipient receives contact notifications when none is configured.
	DefaultRecipient = "hello@ch3rrypi3.ai"
	// DefaultVerifiedDomain is the domain the provider is verified to send from.
	DefaultVerifiedDomain = "ch3rrypi3.ai"

	defaultRateLimitWindowSeconds = 600
	defaultRateLimitMax           = 5
)

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Server    ServerConfig    `yaml:"server"`
	Captcha   CaptchaConfig   `yaml:"captcha"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Email     EmailConfig     `yaml:"email"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
}

type ServiceConfig struct {
	Name string `yaml:"name"`
}

type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type CaptchaConfig struct {
	// Secret signs challenge tokens. Falls back to the email provider API
	// key when unset, so a single-secret deployment still works.
	Secret string `yaml:"secret"`
}

type RateLimitConfig struct {
	// Backend selects the store: "memory" (default) or "redis".
	Backend        string `yaml:"backend"`
	WindowSeconds  int    `yaml:"window_seconds"`
	MaxSubmissions int    `yaml:"max_submissions"`
}

type EmailConfig struct {
	// Provider selects the mailer: "resend" (default) or "smtp".
	Provider     string `yaml:"provider"`
	ResendAPIKey string `yaml:"resend_api_key"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
	// VerifiedDomain is the sending domain the provider has verified; a
	// configured From outside it is replaced by the safe default.
	VerifiedDomain string     `yaml:"verified_domain"`
	SMTP           SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// LoadConfig reads the YAML file named by CONFIG_PATH (default
// ./configs/contact.yaml), then applies environment overrides and defaults.
// A missing file is not an error: env-only deployments are supported.
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/contact.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(absPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// Fall through to env + defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Captcha.Secret, "CONTACT_FORM_SECRET")
	setString(&c.Email.ResendAPIKey, "RESEND_API_KEY")
	setString(&c.Email.Provider, "EMAIL_PROVIDER")
	setString(&c.Email.From, "CONTACT_FROM_EMAIL")
	setString(&c.Email.To, "CONTACT_TO_EMAIL")
	setString(&c.Email.VerifiedDomain, "CONTACT_VERIFIED_DOMAIN")
	setString(&c.Email.SMTP.Host, "SMTP_HOST")
	setInt(&c.Email.SMTP.Port, "SMTP_PORT")
	setString(&c.Email.SMTP.Username, "SMTP_USERNAME")
	setString(&c.Email.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Username, "REDIS_USERNAME")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.RateLimit.Backend, "RATE_LIMIT_BACKEND")
	setInt(&c.Server.Port, "PORT")
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "contact"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = defaultRateLimitWindowSeconds
	}
	if c.RateLimit.MaxSubmissions == 0 {
		c.RateLimit.MaxSubmissions = defaultRateLimitMax
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = "memory"
	}
	if c.Email.Provider == "" {
		c.Email.Provider = "resend"
	}
	if c.Email.VerifiedDomain == "" {
		c.Email.VerifiedDomain = DefaultVerifiedDomain
	}
	// The captcha secret falls back to the provider API key so single-secret
	// deployments work out of the box.
	if c.Captcha.Secret == "" {
		c.Captcha.Secret = c.Email.ResendAPIKey
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
