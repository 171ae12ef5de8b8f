package postmark

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/braamfashionweek/formmail/internal/core"
)

// Provider implements the core.Provider interface for Postmark.
type Provider struct {
	client *postmark.Client
	config core.ProviderSettings
}

// NewProvider creates a Postmark-backed provider.
// The server token is required; the account token is optional for sending.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	serverToken := settings.Get("server_token")
	if serverToken == "" {
		return nil, core.NewValidationError("server_token", "Postmark server token is required")
	}

	return &Provider{
		client: postmark.NewClient(serverToken, settings.Get("account_token")),
		config: settings,
	}, nil
}

// Send sends the rendered email through Postmark's transactional API.
func (p *Provider) Send(ctx context.Context, req *core.SendRequest) (*core.SendResult, error) {
	email, err := req.RenderedEmail(p.Name())
	if err != nil {
		return nil, err
	}

	if len(email.To) == 0 {
		return nil, core.NewValidationError("to", "at least one recipient is required")
	}

	msg := postmark.Email{
		From:     email.From.String(),
		To:       email.To[0].String(),
		Subject:  email.Subject,
		Tag:      email.Tag,
		TextBody: email.TextBody,
		HTMLBody: email.HTMLBody,
	}
	if email.ReplyTo != nil {
		msg.ReplyTo = email.ReplyTo.String()
	}
	for key, value := range email.Headers {
		msg.Headers = append(msg.Headers, postmark.Header{Name: key, Value: value})
	}

	resp, err := p.client.SendEmail(ctx, msg)
	if err != nil {
		perr := core.NewTemporaryProviderError("postmark", "send_error", "failed to send email: "+err.Error())
		perr.Cause = err
		return nil, perr
	}
	if resp.ErrorCode > 0 {
		return nil, core.NewProviderError("postmark", fmt.Sprintf("%d", resp.ErrorCode), resp.Message)
	}

	return &core.SendResult{
		MessageID: resp.MessageID,
		Provider:  p.Name(),
		Status:    200,
		Text:      resp.Message,
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("server_token") == "" {
		return core.NewValidationError("server_token", "Postmark server token is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "postmark"
}
