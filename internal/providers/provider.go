package providers

import (
	"fmt"

	"github.com/braamfashionweek/formmail/internal/core"
	"github.com/braamfashionweek/formmail/internal/providers/devdir"
	"github.com/braamfashionweek/formmail/internal/providers/emailjs"
	"github.com/braamfashionweek/formmail/internal/providers/mailgun"
	"github.com/braamfashionweek/formmail/internal/providers/postmark"
	"github.com/braamfashionweek/formmail/internal/providers/sendgrid"
	"github.com/braamfashionweek/formmail/internal/providers/ses"
	"github.com/braamfashionweek/formmail/internal/providers/smtp"
)

// Provider type names accepted by New.
const (
	EmailJS  = "emailjs"
	AWSSES   = "aws_ses"
	SendGrid = "sendgrid"
	Mailgun  = "mailgun"
	SMTP     = "smtp"
	Postmark = "postmark"
	DevDir   = "devdir"
)

// RendersTemplates reports whether the provider renders templates itself,
// in which case the client sends only the payload.
func RendersTemplates(providerType string) bool {
	return providerType == EmailJS
}

// New creates a provider instance based on type and settings.
func New(providerType string, settings core.ProviderSettings) (core.Provider, error) {
	switch providerType {
	case EmailJS:
		return emailjs.NewProvider(settings)
	case AWSSES:
		return ses.NewProvider(settings)
	case SendGrid:
		return sendgrid.NewProvider(settings)
	case Mailgun:
		return mailgun.NewProvider(settings)
	case SMTP:
		return smtp.NewProvider(settings)
	case Postmark:
		return postmark.NewProvider(settings)
	case DevDir:
		return devdir.NewProvider(settings)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
