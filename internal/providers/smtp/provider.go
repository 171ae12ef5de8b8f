package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/braamfashionweek/formmail/internal/core"
)

// Provider implements the core.Provider interface for SMTP.
type Provider struct {
	config core.ProviderSettings
}

// NewProvider creates a new SMTP provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	provider := &Provider{config: settings}
	if err := provider.ValidateConfig(); err != nil {
		return nil, err
	}
	return provider, nil
}

// Send sends the rendered email over SMTP.
func (p *Provider) Send(ctx context.Context, req *core.SendRequest) (*core.SendResult, error) {
	email, err := req.RenderedEmail(p.Name())
	if err != nil {
		return nil, err
	}

	host := p.config.Get("host")
	addr := net.JoinHostPort(host, p.config.Get("port"))
	username := p.config.Get("username")
	password := p.config.Get("password")

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	recipients := make([]string, 0, len(email.To))
	for _, to := range email.To {
		recipients = append(recipients, to.Email)
	}

	message := buildMessage(email)

	if p.config.Get("tls") == "true" {
		tlsConfig := &tls.Config{
			ServerName: host,
			MinVersion: tls.VersionTLS12,
		}
		if p.config.Get("tls_skip_verify") == "true" {
			tlsConfig.InsecureSkipVerify = true // #nosec G402 -- opt-in for development relays
		}
		err = sendMailTLS(ctx, addr, host, auth, email.From.Email, recipients, message, tlsConfig)
	} else {
		err = smtp.SendMail(addr, auth, email.From.Email, recipients, message)
	}

	if err != nil {
		perr := core.NewTemporaryProviderError("smtp", "send_error", "failed to send email: "+err.Error())
		perr.Cause = err
		return nil, perr
	}

	// SMTP does not hand back an identifier.
	messageID := fmt.Sprintf("%d@%s", time.Now().UnixNano(), host)

	return &core.SendResult{
		MessageID: messageID,
		Provider:  p.Name(),
		Status:    250,
		Text:      "OK",
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("host") == "" {
		return core.NewValidationError("host", "SMTP host is required")
	}

	port := p.config.Get("port")
	if port == "" {
		return core.NewValidationError("port", "SMTP port is required")
	}

	if _, err := strconv.Atoi(port); err != nil {
		return core.NewValidationError("port", "invalid port number: "+port)
	}

	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

// buildMessage builds a plain-text or multipart/alternative RFC 5322 message.
func buildMessage(email *core.Email) []byte {
	var message strings.Builder

	message.WriteString("From: " + email.From.String() + "\r\n")

	toAddrs := make([]string, 0, len(email.To))
	for _, to := range email.To {
		toAddrs = append(toAddrs, to.String())
	}
	message.WriteString("To: " + strings.Join(toAddrs, ", ") + "\r\n")

	if email.ReplyTo != nil {
		message.WriteString("Reply-To: " + email.ReplyTo.String() + "\r\n")
	}

	message.WriteString("Subject: " + email.Subject + "\r\n")
	message.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	message.WriteString("MIME-Version: 1.0\r\n")

	keys := make([]string, 0, len(email.Headers))
	for key := range email.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		message.WriteString(key + ": " + email.Headers[key] + "\r\n")
	}

	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		boundary := fmt.Sprintf("boundary_%d", time.Now().UnixNano())
		message.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")

		message.WriteString("--" + boundary + "\r\n")
		message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		message.WriteString(email.TextBody + "\r\n\r\n")

		message.WriteString("--" + boundary + "\r\n")
		message.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		message.WriteString(email.HTMLBody + "\r\n\r\n")

		message.WriteString("--" + boundary + "--\r\n")
	case email.HTMLBody != "":
		message.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		message.WriteString(email.HTMLBody + "\r\n")
	default:
		message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		message.WriteString(email.TextBody + "\r\n")
	}

	return []byte(message.String())
}

// sendMailTLS delivers over an implicit-TLS connection (port 465 style).
func sendMailTLS(ctx context.Context, addr, host string, auth smtp.Auth, from string, to []string, msg []byte, tlsConfig *tls.Config) error {
	dialer := &tls.Dialer{Config: tlsConfig}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}
