package sendgrid

import (
	"context"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/braamfashionweek/formmail/internal/core"
)

// Provider implements the core.Provider interface for SendGrid.
type Provider struct {
	client *sendgrid.Client
	config core.ProviderSettings
}

// NewProvider creates a new SendGrid provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	apiKey := settings.Get("api_key")
	if apiKey == "" {
		return nil, core.NewValidationError("api_key", "SendGrid API key is required")
	}

	return &Provider{
		client: sendgrid.NewSendClient(apiKey),
		config: settings,
	}, nil
}

// Send sends the rendered email using SendGrid.
func (p *Provider) Send(ctx context.Context, req *core.SendRequest) (*core.SendResult, error) {
	email, err := req.RenderedEmail(p.Name())
	if err != nil {
		return nil, err
	}

	if len(email.To) == 0 {
		return nil, core.NewValidationError("to", "at least one recipient is required")
	}

	from := mail.NewEmail(email.From.Name, email.From.Email)
	to := mail.NewEmail(email.To[0].Name, email.To[0].Email)

	message := mail.NewSingleEmail(from, email.Subject, to, email.TextBody, email.HTMLBody)

	if len(email.To) > 1 {
		personalization := mail.NewPersonalization()
		for _, recipient := range email.To {
			personalization.AddTos(mail.NewEmail(recipient.Name, recipient.Email))
		}
		message.Personalizations = []*mail.Personalization{personalization}
	}

	if email.ReplyTo != nil {
		message.SetReplyTo(mail.NewEmail(email.ReplyTo.Name, email.ReplyTo.Email))
	}

	if email.Tag != "" {
		message.AddCategories(email.Tag)
	}

	if len(email.Headers) > 0 {
		if message.Headers == nil {
			message.Headers = make(map[string]string)
		}
		for key, value := range email.Headers {
			message.Headers[key] = value
		}
	}

	response, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		perr := core.NewTemporaryProviderError("sendgrid", "send_error", "failed to send email: "+err.Error())
		perr.Cause = err
		return nil, perr
	}

	if response.StatusCode >= 400 {
		perr := core.NewProviderError("sendgrid", "api_error", "SendGrid API error: "+response.Body)
		perr.StatusCode = response.StatusCode
		perr.IsRetryable = response.StatusCode == 429 || response.StatusCode >= 500
		return nil, perr
	}

	messageID := "unknown"
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	return &core.SendResult{
		MessageID: messageID,
		Provider:  p.Name(),
		Status:    response.StatusCode,
		Text:      response.Body,
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("api_key") == "" {
		return core.NewValidationError("api_key", "SendGrid API key is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "sendgrid"
}
