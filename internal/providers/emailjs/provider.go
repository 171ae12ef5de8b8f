package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/braamfashionweek/formmail/internal/core"
)

// DefaultBaseURL is the public EmailJS REST endpoint.
const DefaultBaseURL = "https://api.emailjs.com"

const sendPath = "/api/v1.0/email/send"

// Provider implements the core.Provider interface for the EmailJS REST API.
// EmailJS renders the template itself, so only the payload is transmitted.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
	privateKey string
	userAgent  string
	config     core.ProviderSettings
}

// sendBody is the JSON body accepted by the EmailJS send endpoint.
type sendBody struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// NewProvider creates a new EmailJS provider.
//
// Recognised settings: public_key (required), private_key, base_url, user_agent, timeout.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	publicKey := settings.Get("public_key")
	if publicKey == "" {
		return nil, core.NewValidationError("public_key", "EmailJS public key is required")
	}

	baseURL := strings.TrimRight(settings.Get("base_url"), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := 30 * time.Second
	if raw := settings.Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, core.NewValidationError("timeout", "invalid duration: "+raw)
		}
		timeout = d
	}

	return &Provider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		publicKey:  publicKey,
		privateKey: settings.Get("private_key"),
		userAgent:  settings.Get("user_agent"),
		config:     settings,
	}, nil
}

// Send posts the payload to EmailJS.
func (p *Provider) Send(ctx context.Context, req *core.SendRequest) (*core.SendResult, error) {
	if req.ServiceID == "" || req.TemplateID == "" {
		return nil, core.NewValidationError("service_id", "service and template identifiers are required")
	}

	body, err := json.Marshal(sendBody{
		ServiceID:      req.ServiceID,
		TemplateID:     req.TemplateID,
		UserID:         p.publicKey,
		AccessToken:    p.privateKey,
		TemplateParams: req.Payload,
	})
	if err != nil {
		return nil, core.NewProviderError(p.Name(), "encode_error", "failed to encode payload: "+err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return nil, core.NewProviderError(p.Name(), "request_error", "failed to build request: "+err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		perr := core.NewTemporaryProviderError(p.Name(), "network_error", "failed to reach EmailJS: "+err.Error())
		perr.Cause = err
		return nil, perr
	}
	defer func() { _ = resp.Body.Close() }()

	text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(text))

	if resp.StatusCode >= 400 {
		perr := core.NewProviderError(p.Name(), "api_error", fmt.Sprintf("EmailJS API error: %s", msg))
		perr.StatusCode = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			perr.IsRetryable = true
			perr.IsTemporary = true
		}
		return nil, perr
	}

	return &core.SendResult{
		Provider:  p.Name(),
		Status:    resp.StatusCode,
		Text:      msg,
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("public_key") == "" {
		return core.NewValidationError("public_key", "EmailJS public key is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "emailjs"
}
