package formmail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/braamfashionweek/formmail/internal/async"
	"github.com/braamfashionweek/formmail/internal/core"
	"github.com/braamfashionweek/formmail/internal/providers"
)

// Type aliases re-export core types for the public API.
type (
	Provider         = core.Provider
	ProviderSettings = core.ProviderSettings
	Payload          = core.Payload
	SendRequest      = core.SendRequest
	SendResult       = core.SendResult
	Email            = core.Email
	Address          = core.Address
	ValidationError  = core.ValidationError
	ProviderError    = core.ProviderError
)

// Error constructor functions
var (
	NewValidationError        = core.NewValidationError
	NewProviderError          = core.NewProviderError
	NewRetryableProviderError = core.NewRetryableProviderError
	NewTemporaryProviderError = core.NewTemporaryProviderError
	IsRetryable               = core.IsRetryable
	IsTemporary               = core.IsTemporary
	GetRetryAfter             = core.GetRetryAfter
)

// Client implements Transport on top of a relay provider.
// All methods are safe for concurrent use.
type Client struct {
	config         Config
	provider       Provider
	fallback       Provider
	render         bool
	templateEng    TemplateEngine
	retryManager   *RetryManager
	circuitBreaker *CircuitBreaker
	tracer         trace.Tracer
	mu             sync.RWMutex
	closed         bool
}

var _ Transport = (*Client)(nil)

// New creates a transport client with the given configuration.
// The client must be closed when no longer needed.
func New(config Config, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		opt(&config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := &Client{config: config}
	if config.Monitoring.Tracing.Enabled {
		name := config.Monitoring.Tracing.ServiceName
		if name == "" {
			name = "github.com/braamfashionweek/formmail"
		}
		client.tracer = otel.Tracer(name)
	} else {
		client.tracer = noop.NewTracerProvider().Tracer("")
	}

	settings := withUserAgent(config.Transport.Type, config.Transport.Settings)
	provider, err := providers.New(string(config.Transport.Type), settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary provider: %w", err)
	}
	client.provider = provider
	client.render = !providers.RendersTemplates(string(config.Transport.Type))

	if config.Transport.Fallback != nil {
		fallbackType := ProviderType(config.Transport.Fallback.Get("type"))
		if fallbackType != "" {
			fallback, err := providers.New(string(fallbackType), withUserAgent(fallbackType, *config.Transport.Fallback))
			if err != nil {
				return nil, fmt.Errorf("failed to create fallback provider: %w", err)
			}
			client.fallback = fallback
			if !providers.RendersTemplates(string(fallbackType)) {
				client.render = true
			}
		}
	}

	if client.render && config.Templates.Enabled {
		templateEng, err := NewTemplateEngine(config.Templates)
		if err != nil {
			return nil, fmt.Errorf("failed to create template engine: %w", err)
		}
		client.templateEng = templateEng
	}

	if config.Retry.Enabled {
		client.retryManager = NewRetryManager(config.Retry)
	}

	if config.CircuitBreaker.Enabled {
		client.circuitBreaker = NewCircuitBreaker(config.CircuitBreaker)
	}

	return client, nil
}

// ServiceID returns the configured relay service identifier. A nil client
// has none.
func (c *Client) ServiceID() string {
	if c == nil {
		return ""
	}
	return c.config.Transport.ServiceID
}

// TemplateID returns the configured relay template identifier.
func (c *Client) TemplateID() string {
	if c == nil {
		return ""
	}
	return c.config.Transport.TemplateID
}

// Recipient returns the configured destination inbox.
func (c *Client) Recipient() string {
	if c == nil {
		return ""
	}
	return c.config.Transport.Recipient
}

// Send delivers a single request. Empty service and template ids are taken
// from the configuration.
func (c *Client) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	ctx, span := c.tracer.Start(ctx, "formmail.Client.Send")
	defer span.End()

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		span.RecordError(ErrClientClosed)
		span.SetStatus(codes.Error, ErrClientClosed.Error())
		return nil, ErrClientClosed
	}
	c.mu.RUnlock()

	req = c.complete(req)
	span.SetAttributes(
		attribute.String("formmail.service_id", req.ServiceID),
		attribute.String("formmail.template_id", req.TemplateID),
		attribute.String("formmail.provider", c.provider.Name()),
		attribute.Int("formmail.payload.fields", len(req.Payload)),
	)

	if req.ServiceID == "" || req.TemplateID == "" {
		span.RecordError(ErrNotConfigured)
		span.SetStatus(codes.Error, "missing relay identifiers")
		return nil, ErrNotConfigured
	}

	if c.render {
		email, err := c.renderEmail(req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
			return nil, err
		}
		if err := email.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			return nil, err
		}
		req.Email = email
	}

	var result *SendResult
	sendFn := func() error {
		var sendErr error
		result, sendErr = c.sendWithProvider(ctx, req, c.provider)

		if sendErr != nil && c.fallback != nil && IsRetryable(sendErr) {
			result, sendErr = c.sendWithProvider(ctx, req, c.fallback)
		}

		return sendErr
	}

	attempt := sendFn
	if c.circuitBreaker != nil {
		attempt = func() error { return c.circuitBreaker.Execute(sendFn) }
	}

	var err error
	if c.retryManager != nil {
		err = c.retryManager.Retry(ctx, attempt)
	} else {
		err = attempt()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return nil, err
	}

	if result != nil {
		span.SetAttributes(
			attribute.String("formmail.message_id", result.MessageID),
			attribute.Int("formmail.status", result.Status),
		)
	}
	span.SetStatus(codes.Ok, "payload sent")

	return result, nil
}

// SendAsync starts Send in the background.
func (c *Client) SendAsync(ctx context.Context, req *SendRequest) *SendFuture {
	return async.Go(ctx, func(ctx context.Context) (*SendResult, error) {
		return c.Send(ctx, req)
	})
}

// Close closes the client and releases any resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	if closer, ok := c.templateEng.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close template engine: %w", err)
		}
	}

	return nil
}

// complete returns a copy of req with configured defaults applied.
func (c *Client) complete(req *SendRequest) *SendRequest {
	out := &SendRequest{}
	if req != nil {
		*out = *req
	}
	if out.ServiceID == "" {
		out.ServiceID = c.config.Transport.ServiceID
	}
	if out.TemplateID == "" {
		out.TemplateID = c.config.Transport.TemplateID
	}
	if out.Payload == nil {
		out.Payload = Payload{}
	}
	return out
}

// sendWithProvider sends a request using a specific provider, bounded by the
// configured timeout.
func (c *Client) sendWithProvider(ctx context.Context, req *SendRequest, provider Provider) (*SendResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Transport.Timeout)
	defer cancel()

	startTime := time.Now()
	result, err := provider.Send(ctx, req)
	duration := time.Since(startTime)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int64("formmail.provider.duration_ms", duration.Milliseconds()),
		)
	}

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%w: %s: %w", ErrProviderTimeout, provider.Name(), err)
	}

	return result, err
}

// renderEmail builds the message for providers that do not render templates.
// Templates are looked up as <template id>.subject, .text and .html; when a
// part is missing it is derived from the payload.
func (c *Client) renderEmail(req *SendRequest) (*Email, error) {
	p := req.Payload

	subject, err := c.renderPart(req.TemplateID, "subject", p)
	if err != nil {
		return nil, err
	}
	textBody, err := c.renderPart(req.TemplateID, "text", p)
	if err != nil {
		return nil, err
	}
	htmlBody, err := c.renderPart(req.TemplateID, "html", p)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(subject) == "" {
		subject = defaultSubject(p)
	}
	if strings.TrimSpace(textBody) == "" && strings.TrimSpace(htmlBody) == "" {
		textBody = p.Get("message")
	}

	to := p.Get("to_email")
	if to == "" {
		to = c.config.Transport.Recipient
	}

	email := &Email{
		From:     c.config.Transport.Sender,
		To:       []Address{{Email: to}},
		Subject:  strings.TrimSpace(subject),
		TextBody: textBody,
		HTMLBody: htmlBody,
		Headers:  map[string]string{"X-Form-Template": req.TemplateID},
		Tag:      tagFor(p),
	}

	replyTo := p.Get("reply_to")
	if replyTo == "" {
		replyTo = p.Get("from_email")
	}
	if replyTo != "" {
		email.ReplyTo = &Address{Name: p.Get("from_name"), Email: replyTo}
	}

	return email, nil
}

func (c *Client) renderPart(templateID, part string, data Payload) (string, error) {
	if c.templateEng == nil {
		return "", nil
	}
	out, err := c.templateEng.Render(templateID+"."+part, map[string]string(data))
	if errors.Is(err, ErrTemplateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", NewTemplateError(templateID, "render", "failed to render "+part, err)
	}
	return out, nil
}

func defaultSubject(p Payload) string {
	if s := p.Get("subject"); s != "" {
		return s
	}
	if kind := p.Get("application_type"); kind != "" {
		return fmt.Sprintf("New %s Application from %s", kind, p.Get("from_name"))
	}
	return "New form submission from " + p.Get("from_name")
}

func tagFor(p Payload) string {
	if kind := p.Get("application_type"); kind != "" {
		return strings.ToLower(strings.ReplaceAll(kind, " ", "-"))
	}
	return "contact"
}

func withUserAgent(pt ProviderType, settings ProviderSettings) ProviderSettings {
	if pt != ProviderEmailJS || settings.Get("user_agent") != "" {
		return settings
	}
	out := ProviderSettings{}
	for k, v := range settings {
		out[k] = v
	}
	out.Set("user_agent", UserAgent())
	return out
}
