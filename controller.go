package formmail

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultCounterMax is used when the counter field has no max length.
const defaultCounterMax = 500

// relayIdentity is implemented by transports that know their own relay ids.
type relayIdentity interface {
	ServiceID() string
	TemplateID() string
	Recipient() string
}

// Controller runs the submit flow for one form: validate, build the payload,
// send, and present the outcome. It is safe for concurrent use; concurrent
// submits are not serialized.
type Controller struct {
	form       *FormSpec
	transport  Transport
	serviceID  string
	templateID string
	recipient  string
	logger     *slog.Logger
	tracer     trace.Tracer
	newID      func() string
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRelayIDs overrides the relay service and template ids.
func WithRelayIDs(serviceID, templateID string) ControllerOption {
	return func(c *Controller) {
		c.serviceID = serviceID
		c.templateID = templateID
	}
}

// WithDestination overrides the to_email sent with each payload.
func WithDestination(email string) ControllerOption {
	return func(c *Controller) {
		c.recipient = email
	}
}

// WithIDGenerator replaces the submission id generator.
func WithIDGenerator(fn func() string) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithBannerTTL overrides how long banners stay visible.
func WithBannerTTL(ttl time.Duration) ControllerOption {
	return func(c *Controller) {
		if ttl > 0 {
			f := *c.form
			f.BannerTTL = ttl
			c.form = &f
		}
	}
}

// NewController returns a controller for form. A nil transport or missing
// relay ids do not fail construction; Submit then logs and does nothing.
func NewController(form *FormSpec, transport Transport, opts ...ControllerOption) (*Controller, error) {
	if form == nil {
		return nil, NewValidationError("form", "form spec is required")
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		form:      form,
		transport: transport,
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/braamfashionweek/formmail"),
		newID:     func() string { return uuid.NewString() },
	}
	if id, ok := transport.(relayIdentity); ok {
		c.serviceID = id.ServiceID()
		c.templateID = id.TemplateID()
		c.recipient = id.Recipient()
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Form returns the form spec the controller runs.
func (c *Controller) Form() *FormSpec { return c.form }

// Configured reports whether Submit can reach the relay.
func (c *Controller) Configured() bool {
	return c.transport != nil && c.serviceID != "" && c.templateID != ""
}

// Outcome describes a finished submission.
type Outcome struct {
	SubmissionID string      `json:"submission_id"`
	Form         string      `json:"form"`
	Result       *Result     `json:"result,omitempty"`
	Send         *SendResult `json:"-"`
}

// Submit runs the full submit flow against p. The button is always restored
// to Idle before Submit returns, whatever the outcome.
//
// Errors match ErrNotConfigured, ErrValidation or ErrTransportFailed.
// When the transport is not configured nothing is presented.
func (c *Controller) Submit(ctx context.Context, sub *Submission, p Presenter) (*Outcome, error) {
	id := c.newID()
	ctx, span := c.tracer.Start(ctx, "formmail.Controller.Submit",
		trace.WithAttributes(
			attribute.String("formmail.form", c.form.ID),
			attribute.String("formmail.submission_id", id),
		),
	)
	defer span.End()

	log := c.logger.With(slog.String("form", c.form.ID), slog.String("submission_id", id))

	if !c.Configured() {
		log.ErrorContext(ctx, "email transport is not configured",
			slog.Bool("transport", c.transport != nil),
			slog.Bool("service_id", c.serviceID != ""),
			slog.Bool("template_id", c.templateID != ""),
		)
		span.RecordError(ErrNotConfigured)
		span.SetStatus(codes.Error, "not configured")
		return nil, &SubmissionError{Form: c.form.ID, Kind: ErrNotConfigured}
	}

	if sub == nil {
		sub = NewSubmission()
	}

	c.present(ctx, log, "button", p.Button(ButtonState{
		Phase:    ButtonSubmitting,
		Label:    c.form.LoadingLabel,
		Disabled: true,
	}))
	defer func() {
		c.present(ctx, log, "button", p.Button(ButtonState{
			Phase: ButtonIdle,
			Label: c.form.ButtonLabel,
		}))
	}()

	out := &Outcome{SubmissionID: id, Form: c.form.ID}

	res := Validate(c.form, sub)
	out.Result = res
	if !res.Valid {
		c.present(ctx, log, "fields", p.Fields(c.fieldStates(res)))
		c.present(ctx, log, "banner", p.Banner(Banner{
			Kind: BannerError,
			Text: c.invalidText(res),
			TTL:  c.form.BannerTTL,
		}))
		log.InfoContext(ctx, "submission rejected", slog.Any("fields", res.InvalidFields()))
		span.SetStatus(codes.Error, "validation failed")
		return out, &SubmissionError{Form: c.form.ID, Kind: ErrValidation, Result: res}
	}
	c.present(ctx, log, "fields", p.Fields(c.fieldStates(res)))

	req := &SendRequest{
		ServiceID:  c.serviceID,
		TemplateID: c.templateID,
		Payload:    c.payload(c.normalize(sub)),
	}

	result, err := c.transport.SendAsync(ctx, req).AwaitContext(ctx)
	if err != nil {
		log.WarnContext(ctx, "submission failed", slog.Any("error", err))
		c.present(ctx, log, "banner", p.Banner(Banner{
			Kind: BannerError,
			Text: c.form.FailureText,
			TTL:  c.form.BannerTTL,
		}))
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return out, &SubmissionError{Form: c.form.ID, Kind: ErrTransportFailed, Cause: err}
	}
	out.Send = result

	c.present(ctx, log, "banner", p.Banner(Banner{
		Kind: BannerSuccess,
		Text: c.form.SuccessText,
		TTL:  c.form.BannerTTL,
	}))
	c.present(ctx, log, "reset", p.Reset(c.resetState()))

	if result != nil {
		log.InfoContext(ctx, "submission sent",
			slog.String("provider", result.Provider),
			slog.Int("status", result.Status),
		)
	}
	span.SetStatus(codes.Ok, "submission sent")

	return out, nil
}

// Revalidate checks one field as the user edits it and clears its highlight
// once it passes. A still-failing field is left as it is.
func (c *Controller) Revalidate(field, value string, p Presenter) *FieldError {
	fe := ValidateField(c.form, field, value)
	if fe == nil {
		c.present(context.Background(), c.logger, "fields", p.Fields([]FieldState{{Field: field, Valid: true}}))
	}
	return fe
}

// Files presents the indicator for count files selected on input.
func (c *Controller) Files(input string, count int, p Presenter) FileIndicator {
	ind := FileIndicatorFor(input, count)
	c.present(context.Background(), c.logger, "file_indicator", p.FileIndicator(ind))
	return ind
}

// Count presents the character counter for text. Forms without a counter
// field use "message" with a 500 character limit.
func (c *Controller) Count(text string, p Presenter) CharCounter {
	counter := c.counter(text)
	c.present(context.Background(), c.logger, "counter", p.Counter(counter))
	return counter
}

func (c *Controller) counter(text string) CharCounter {
	field := c.form.CounterField
	if field == "" {
		field = "message"
	}
	limit := c.form.CounterLimit()
	if limit <= 0 {
		limit = defaultCounterMax
	}
	return CounterFor(field, text, limit)
}

// normalize returns a copy of sub with phone fields reformatted.
func (c *Controller) normalize(sub *Submission) *Submission {
	out := NewSubmission()
	for _, key := range sub.keys {
		value := sub.values[key]
		if fs, ok := c.form.Field(key); ok && fs.Format == FormatPhoneNumber && strings.TrimSpace(value) != "" {
			value = FormatPhone(value)
		}
		out.Set(key, value)
	}
	for input, n := range sub.files {
		out.SetFiles(input, n)
	}
	return out
}

func (c *Controller) payload(sub *Submission) Payload {
	name := strings.TrimSpace(sub.Get("name"))
	email := strings.TrimSpace(sub.Get("email"))
	phone := strings.TrimSpace(sub.Get("phone"))

	if c.form.Shape == ShapeContact {
		p := Payload{
			"from_name":  name,
			"from_email": email,
			"message":    strings.TrimSpace(sub.Get("message")),
			"reply_to":   email,
			"subject":    "New contact message from " + name,
			"to_email":   c.recipient,
		}
		if phone != "" {
			p["phone"] = phone
		}
		return p
	}

	return Payload{
		"application_type": c.form.Category,
		"to_email":         c.recipient,
		"from_name":        name,
		"from_email":       email,
		"phone":            phone,
		"message":          formatMessage(c.form.Category, sub, c.form),
	}
}

// fieldStates presents every non-file field, so a field that failed an
// earlier attempt and passes now loses its highlight.
func (c *Controller) fieldStates(res *Result) []FieldState {
	failed := make(map[string]*FieldError, len(res.Errors))
	for i := range res.Errors {
		failed[res.Errors[i].Field] = &res.Errors[i]
	}

	states := make([]FieldState, 0, len(c.form.Fields))
	for _, f := range c.form.Fields {
		if f.File {
			continue
		}
		if e, ok := failed[f.Name]; ok {
			states = append(states, FieldState{Field: f.Name, Hint: e.Hint, TTL: c.form.HighlightTTL})
			continue
		}
		states = append(states, FieldState{Field: f.Name, Valid: true})
	}
	return states
}

func (c *Controller) invalidText(res *Result) string {
	if c.form.InvalidText != "" {
		return c.form.InvalidText
	}
	return strings.Join(res.Messages(), "\n")
}

func (c *Controller) resetState() ResetState {
	state := ResetState{}
	for _, f := range c.form.Fields {
		if f.File {
			state.Files = append(state.Files, FileIndicatorFor(f.Name, 0))
			continue
		}
		state.Fields = append(state.Fields, f.Name)
	}
	if _, ok := c.form.Field(c.form.CounterField); ok {
		counter := c.counter("")
		state.Counter = &counter
	}
	return state
}

func (c *Controller) present(ctx context.Context, log *slog.Logger, what string, err error) {
	if err != nil {
		log.WarnContext(ctx, "presenter failed", slog.String("update", what), slog.Any("error", err))
	}
}
