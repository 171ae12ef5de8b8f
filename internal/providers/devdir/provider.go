// Package devdir implements a development relay that writes every request to
// disk instead of delivering it.
package devdir

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/braamfashionweek/formmail/internal/core"
)

// Provider saves each request as a JSON file under dir.
type Provider struct {
	dir    string
	config core.ProviderSettings
}

// record is the on-disk shape of a captured request.
type record struct {
	Timestamp  string       `json:"timestamp"`
	ServiceID  string       `json:"service_id"`
	TemplateID string       `json:"template_id"`
	Payload    core.Payload `json:"payload"`
	Email      *core.Email  `json:"email,omitempty"`
}

// NewProvider creates a directory-backed provider. Setting: dir (required).
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	p := &Provider{dir: settings.Get("dir"), config: settings}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	return p, nil
}

// Send writes the request to a timestamped file.
func (p *Provider) Send(ctx context.Context, req *core.SendRequest) (*core.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, core.NewProviderError(p.Name(), "mkdir_error", "failed to create directory: "+err.Error())
	}

	now := time.Now()
	identifier := req.Payload.Get("application_type")
	if identifier == "" {
		identifier = req.TemplateID
	}
	name := fmt.Sprintf("%s_%d_%s.json", now.Format("2006_01_02_150405"), now.Nanosecond(), sanitizeFilename(identifier))

	data, err := json.MarshalIndent(record{
		Timestamp:  now.Format(time.RFC3339),
		ServiceID:  req.ServiceID,
		TemplateID: req.TemplateID,
		Payload:    req.Payload,
		Email:      req.Email,
	}, "", "  ")
	if err != nil {
		return nil, core.NewProviderError(p.Name(), "encode_error", "failed to marshal request: "+err.Error())
	}

	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, core.NewProviderError(p.Name(), "write_error", "failed to write request: "+err.Error())
	}

	return &core.SendResult{
		MessageID: name,
		Provider:  p.Name(),
		Status:    200,
		Text:      "OK",
		Timestamp: now,
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("dir") == "" {
		return core.NewValidationError("dir", "output directory is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "devdir"
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > 64 {
		s = s[:64]
	}
	if s == "" {
		s = "request"
	}
	return strings.ToLower(s)
}
