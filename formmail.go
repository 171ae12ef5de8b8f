package formmail

import (
	"context"

	"github.com/braamfashionweek/formmail/internal/async"
)

// SendFuture is the pending result of an asynchronous send.
type SendFuture = async.Future[*SendResult]

// Public interfaces for the formmail library
type (
	// Transport delivers a payload to the configured relay.
	// All methods are safe for concurrent use.
	Transport interface {
		// Send delivers a single request and blocks until the relay answers.
		Send(ctx context.Context, req *SendRequest) (*SendResult, error)

		// SendAsync starts a send and returns immediately.
		SendAsync(ctx context.Context, req *SendRequest) *SendFuture

		// Close releases resources. The transport must not be used afterwards.
		Close() error
	}

	// TemplateEngine defines the interface for template rendering.
	TemplateEngine interface {
		// Render renders a template with the provided data.
		Render(templateName string, data interface{}) (string, error)

		// RegisterTemplate registers a template with the given name and content.
		RegisterTemplate(name string, content string) error

		// LoadTemplatesFromDir loads all templates from the specified directory.
		// Templates follow the naming convention: <name>.<type>.<ext>
		// where type is 'subject', 'html', or 'text'.
		LoadTemplatesFromDir(dir string) error
	}
)
