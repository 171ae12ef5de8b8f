// Package formmail validates the Braam Fashion Week application and contact
// forms, formats each submission into a plain-text message, and relays it
// through a transactional email provider.
//
// A Controller runs one form. It validates a Submission against the form's
// FormSpec, builds the relay payload, sends it through a Transport and
// reports every visible change (button, banner, field highlights, file
// indicators, character counter) to a Presenter.
//
// # Basic Usage
//
//	client, err := formmail.New(formmail.DefaultConfig(),
//		formmail.WithEmailJS("public-key", ""),
//		formmail.WithService("service_id", "template_id"),
//		formmail.WithRecipient("applications@example.com"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctrl, err := formmail.NewController(formmail.ContactForm(), client)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sub := formmail.NewSubmission().
//		Set("name", "Ava").
//		Set("email", "ava@example.com").
//		Set("message", "I would love to attend the show.")
//
//	rec := formmail.NewRecorder()
//	if _, err := ctrl.Submit(ctx, sub, rec); err != nil {
//		// errors.Is(err, formmail.ErrValidation) and friends
//	}
//
// # Providers
//
// EmailJS receives the payload as template parameters and renders the message
// itself. AWS SES, SendGrid, Mailgun, SMTP, Postmark and the development
// directory sink receive an Email rendered locally from the templates named
// <template id>.subject, <template id>.text and <template id>.html, falling
// back to a subject and body built from the payload.
//
// # Reliability
//
// Failed sends are not retried unless WithRetry is given; the form keeps its
// contents and the user is asked to try again. A circuit breaker can be
// enabled with WithCircuitBreaker.
//
// # Misconfiguration
//
// A controller without a transport or relay ids still constructs. Its Submit
// logs an error and presents nothing, so the page stays usable while the
// operator fixes the configuration.
package formmail
