package formmail

import (
	"strconv"
	"time"
)

// Option is a functional option for configuring the transport client.
type Option func(*Config)

// WithProvider sets the relay provider type and its settings.
func WithProvider(providerType ProviderType, settings ProviderSettings) Option {
	return func(c *Config) {
		c.Transport.Type = providerType
		c.Transport.Settings = settings
	}
}

// WithFallbackProvider sets a fallback provider for retryable failures.
func WithFallbackProvider(providerType ProviderType, settings ProviderSettings) Option {
	return func(c *Config) {
		fallbackSettings := ProviderSettings{}
		for k, v := range settings {
			fallbackSettings[k] = v
		}
		fallbackSettings["type"] = string(providerType)
		c.Transport.Fallback = &fallbackSettings
	}
}

// WithService sets the relay service and template identifiers.
func WithService(serviceID, templateID string) Option {
	return func(c *Config) {
		c.Transport.ServiceID = serviceID
		c.Transport.TemplateID = templateID
	}
}

// WithRecipient sets the inbox that receives submissions.
func WithRecipient(email string) Option {
	return func(c *Config) {
		c.Transport.Recipient = email
	}
}

// WithSender sets the From address for locally rendered messages.
func WithSender(name, email string) Option {
	return func(c *Config) {
		c.Transport.Sender = Address{Name: name, Email: email}
	}
}

// WithTimeout sets the provider operation timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Transport.Timeout = timeout
	}
}

// WithTemplates enables template rendering and sets the template directory.
func WithTemplates(directory string) Option {
	return func(c *Config) {
		c.Templates.Enabled = true
		c.Templates.Directory = directory
	}
}

// WithRetry configures retry behavior.
func WithRetry(maxAttempts int, initialDelay, maxDelay time.Duration, multiplier float64) Option {
	return func(c *Config) {
		c.Retry.Enabled = true
		c.Retry.MaxAttempts = maxAttempts
		c.Retry.InitialDelay = initialDelay
		c.Retry.MaxDelay = maxDelay
		c.Retry.Multiplier = multiplier
	}
}

// WithJitter enables or disables jitter in retry delays.
func WithJitter(enabled bool) Option {
	return func(c *Config) {
		c.Retry.Jitter = enabled
	}
}

// WithoutRetry disables retry functionality.
func WithoutRetry() Option {
	return func(c *Config) {
		c.Retry.Enabled = false
	}
}

// WithCircuitBreaker configures circuit breaker behavior.
func WithCircuitBreaker(failureThreshold, successThreshold int, timeout time.Duration) Option {
	return func(c *Config) {
		c.CircuitBreaker.Enabled = true
		c.CircuitBreaker.FailureThreshold = failureThreshold
		c.CircuitBreaker.SuccessThreshold = successThreshold
		c.CircuitBreaker.Timeout = timeout
	}
}

// WithoutCircuitBreaker disables circuit breaker functionality.
func WithoutCircuitBreaker() Option {
	return func(c *Config) {
		c.CircuitBreaker.Enabled = false
	}
}

// WithTracing enables distributed tracing under the given tracer name.
func WithTracing(serviceName string) Option {
	return func(c *Config) {
		c.Monitoring.Tracing.Enabled = true
		c.Monitoring.Tracing.ServiceName = serviceName
	}
}

// WithoutTracing disables distributed tracing.
func WithoutTracing() Option {
	return func(c *Config) {
		c.Monitoring.Tracing.Enabled = false
	}
}

// WithEmailJS configures the EmailJS relay. privateKey may be empty.
func WithEmailJS(publicKey, privateKey string) Option {
	settings := ProviderSettings{"public_key": publicKey}
	if privateKey != "" {
		settings["private_key"] = privateKey
	}
	return WithProvider(ProviderEmailJS, settings)
}

// WithAWSSES creates an AWS SES provider configuration.
func WithAWSSES(region string) Option {
	return WithProvider(ProviderAWSSES, ProviderSettings{
		"region": region,
	})
}

// WithAWSSESCredentials creates an AWS SES provider configuration with explicit credentials.
func WithAWSSESCredentials(region, accessKey, secretKey string) Option {
	return WithProvider(ProviderAWSSES, ProviderSettings{
		"region":     region,
		"access_key": accessKey,
		"secret_key": secretKey,
	})
}

// WithSendGrid creates a SendGrid provider configuration.
func WithSendGrid(apiKey string) Option {
	return WithProvider(ProviderSendGrid, ProviderSettings{
		"api_key": apiKey,
	})
}

// WithMailgun creates a Mailgun provider configuration.
func WithMailgun(apiKey, domain string) Option {
	return WithProvider(ProviderMailgun, ProviderSettings{
		"api_key": apiKey,
		"domain":  domain,
	})
}

// WithMailgunEU creates a Mailgun provider configuration for EU region.
func WithMailgunEU(apiKey, domain string) Option {
	return WithProvider(ProviderMailgun, ProviderSettings{
		"api_key":  apiKey,
		"domain":   domain,
		"base_url": "https://api.eu.mailgun.net",
	})
}

// WithSMTP creates an SMTP provider configuration with optional authentication.
func WithSMTP(host, port, username, password string, useTLS bool) Option {
	return WithProvider(ProviderSMTP, ProviderSettings{
		"host":     host,
		"port":     port,
		"username": username,
		"password": password,
		"tls":      strconv.FormatBool(useTLS),
	})
}

// WithPostmark creates a Postmark provider configuration.
func WithPostmark(serverToken string) Option {
	return WithProvider(ProviderPostmark, ProviderSettings{
		"server_token": serverToken,
	})
}

// WithDevDir writes every request to dir instead of sending it.
func WithDevDir(dir string) Option {
	return WithProvider(ProviderDevDir, ProviderSettings{
		"dir": dir,
	})
}
