package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/braamfashionweek/formmail"
)

// Config holds the service configuration loaded from environment variables.
type Config struct {
	Addr string `env:"FORMMAIL_ADDR" envDefault:":8080"`
	Env  string `env:"FORMMAIL_ENV" envDefault:"development"`

	// Email relay
	Provider         string            `env:"FORMMAIL_PROVIDER" envDefault:"emailjs"`
	ProviderSettings map[string]string `env:"FORMMAIL_PROVIDER_SETTINGS"` // key:value pairs, comma separated
	PublicKey        string            `env:"FORMMAIL_EMAILJS_PUBLIC_KEY"`
	PrivateKey       string            `env:"FORMMAIL_EMAILJS_PRIVATE_KEY"`
	ServiceID        string            `env:"FORMMAIL_SERVICE_ID"`
	TemplateID       string            `env:"FORMMAIL_TEMPLATE_ID"`
	Recipient        string            `env:"FORMMAIL_RECIPIENT"`
	SenderName       string            `env:"FORMMAIL_SENDER_NAME" envDefault:"Braam Fashion Week"`
	SenderEmail      string            `env:"FORMMAIL_SENDER_EMAIL"`
	SendTimeout      time.Duration     `env:"FORMMAIL_SEND_TIMEOUT" envDefault:"30s"`
	TemplatesDir     string            `env:"FORMMAIL_TEMPLATES_DIR"`
	RetryAttempts    int               `env:"FORMMAIL_RETRY_ATTEMPTS" envDefault:"0"` // 0 disables retry

	// Forms
	FormsPath      string        `env:"FORMMAIL_FORMS_PATH"`
	BannerTTL      time.Duration `env:"FORMMAIL_BANNER_TTL" envDefault:"5s"`
	MaxUploadBytes int64         `env:"FORMMAIL_MAX_UPLOAD_BYTES" envDefault:"33554432"`

	// Rate limiting per client IP
	RateLimit float64 `env:"FORMMAIL_RATE_LIMIT" envDefault:"1"`
	RateBurst int     `env:"FORMMAIL_RATE_BURST" envDefault:"5"`

	LogLevel  string `env:"FORMMAIL_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FORMMAIL_LOG_FORMAT"` // text in development, json otherwise
	LogOutput string `env:"FORMMAIL_LOG_OUTPUT" envDefault:"stdout"`
	Tracing   bool   `env:"FORMMAIL_TRACING" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"FORMMAIL_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load parses environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !formmail.ProviderType(c.Provider).Valid() {
		return fmt.Errorf("FORMMAIL_PROVIDER %q is not a known provider", c.Provider)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("FORMMAIL_RATE_LIMIT and FORMMAIL_RATE_BURST must be positive")
	}
	if c.BannerTTL <= 0 {
		return fmt.Errorf("FORMMAIL_BANNER_TTL must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("FORMMAIL_RETRY_ATTEMPTS must not be negative")
	}
	return nil
}

// IsDevelopment returns true if the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Logging returns the logger settings.
func (c *Config) Logging() formmail.LoggingConfig {
	format := c.LogFormat
	if format == "" {
		format = "json"
		if c.IsDevelopment() {
			format = "text"
		}
	}
	return formmail.LoggingConfig{Level: c.LogLevel, Format: format, Output: c.LogOutput}
}

// ClientOptions translates the relay settings into transport client options.
func (c *Config) ClientOptions() []formmail.Option {
	pt := formmail.ProviderType(c.Provider)

	settings := formmail.ProviderSettings{}
	for k, v := range c.ProviderSettings {
		settings[k] = v
	}
	if pt == formmail.ProviderEmailJS {
		if c.PublicKey != "" {
			settings["public_key"] = c.PublicKey
		}
		if c.PrivateKey != "" {
			settings["private_key"] = c.PrivateKey
		}
	}

	opts := []formmail.Option{
		formmail.WithProvider(pt, settings),
		formmail.WithService(c.ServiceID, c.TemplateID),
		formmail.WithRecipient(c.Recipient),
		formmail.WithTimeout(c.SendTimeout),
	}
	if c.SenderEmail != "" {
		opts = append(opts, formmail.WithSender(c.SenderName, c.SenderEmail))
	}
	if c.TemplatesDir != "" {
		opts = append(opts, formmail.WithTemplates(c.TemplatesDir))
	}
	if c.RetryAttempts > 0 {
		opts = append(opts, formmail.WithRetry(c.RetryAttempts, 200*time.Millisecond, 5*time.Second, 2.0))
	}
	if c.Tracing {
		opts = append(opts, formmail.WithTracing("formmail"))
	} else {
		opts = append(opts, formmail.WithoutTracing())
	}
	return opts
}
