package mailgun

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/braamfashionweek/formmail/internal/core"
)

// Provider implements the core.Provider interface for Mailgun.
type Provider struct {
	client mailgun.Mailgun
	config core.ProviderSettings
}

// NewProvider creates a new Mailgun provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	apiKey := settings.Get("api_key")
	if apiKey == "" {
		return nil, core.NewValidationError("api_key", "Mailgun API key is required")
	}

	domain := settings.Get("domain")
	if domain == "" {
		return nil, core.NewValidationError("domain", "Mailgun domain is required")
	}

	client := mailgun.NewMailgun(domain, apiKey)

	// EU accounts use a different API base.
	if baseURL := settings.Get("base_url"); baseURL != "" {
		client.SetAPIBase(baseURL)
	}

	return &Provider{
		client: client,
		config: settings,
	}, nil
}

// Send sends the rendered email using Mailgun.
func (p *Provider) Send(ctx context.Context, req *core.SendRequest) (*core.SendResult, error) {
	email, err := req.RenderedEmail(p.Name())
	if err != nil {
		return nil, err
	}

	if len(email.To) == 0 {
		return nil, core.NewValidationError("to", "at least one recipient is required")
	}

	message := mailgun.NewMessage(email.From.String(), email.Subject, email.TextBody, email.To[0].String())

	for i := 1; i < len(email.To); i++ {
		if err := message.AddRecipient(email.To[i].String()); err != nil {
			return nil, core.NewProviderError("mailgun", "recipient_add_failed",
				fmt.Sprintf("failed to add recipient %s: %v", email.To[i].String(), err))
		}
	}

	if email.HTMLBody != "" {
		message.SetHTML(email.HTMLBody)
	}

	if email.ReplyTo != nil {
		message.SetReplyTo(email.ReplyTo.String())
	}

	if email.Tag != "" {
		if err := message.AddTag(email.Tag); err != nil {
			return nil, core.NewProviderError("mailgun", "tag_add_failed", err.Error())
		}
	}

	for key, value := range email.Headers {
		message.AddHeader(key, value)
	}

	mes, id, err := p.client.Send(ctx, message)
	if err != nil {
		perr := core.NewRetryableProviderError("mailgun", "send_failed", err.Error())
		perr.Cause = err
		return nil, perr
	}

	return &core.SendResult{
		MessageID: id,
		Provider:  p.Name(),
		Status:    200,
		Text:      mes,
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the Mailgun provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("api_key") == "" {
		return core.NewValidationError("api_key", "Mailgun API key is required")
	}
	if p.config.Get("domain") == "" {
		return core.NewValidationError("domain", "Mailgun domain is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mailgun"
}
