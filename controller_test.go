package formmail_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/braamfashionweek/formmail"
	"github.com/braamfashionweek/formmail/internal/async"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, req *formmail.SendRequest) (*formmail.SendResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*formmail.SendResult)
	return res, args.Error(1)
}

func (m *mockTransport) SendAsync(ctx context.Context, req *formmail.SendRequest) *formmail.SendFuture {
	return async.Go(ctx, func(ctx context.Context) (*formmail.SendResult, error) {
		return m.Send(ctx, req)
	})
}

func (m *mockTransport) Close() error { return nil }

func newController(t *testing.T, form *formmail.FormSpec, tr formmail.Transport, opts ...formmail.ControllerOption) *formmail.Controller {
	t.Helper()
	opts = append([]formmail.ControllerOption{
		formmail.WithRelayIDs("service_x", "template_y"),
		formmail.WithDestination("inbox@braam.example"),
		formmail.WithIDGenerator(func() string { return "sub-1" }),
	}, opts...)
	c, err := formmail.NewController(form, tr, opts...)
	require.NoError(t, err)
	return c
}

func validContact() *formmail.Submission {
	return contact("Ava", "ava@example.com", "I would love to attend the show.")
}

func TestController_ContactSuccess(t *testing.T) {
	t.Parallel()

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.MatchedBy(func(req *formmail.SendRequest) bool {
		return req.ServiceID == "service_x" && req.TemplateID == "template_y"
	})).Return(&formmail.SendResult{Provider: "emailjs", Status: 200, Text: "OK"}, nil).Once()

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ContactForm(), tr)

	out, err := c.Submit(context.Background(), validContact(), rec)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", out.SubmissionID)
	assert.True(t, out.Result.Valid)
	tr.AssertExpectations(t)

	req := tr.Calls[0].Arguments.Get(1).(*formmail.SendRequest)
	assert.Equal(t, formmail.Payload{
		"from_name":  "Ava",
		"from_email": "ava@example.com",
		"message":    "I would love to attend the show.",
		"reply_to":   "ava@example.com",
		"subject":    "New contact message from Ava",
		"to_email":   "inbox@braam.example",
	}, req.Payload)

	snap := rec.Snapshot()
	require.NotNil(t, snap.Banner)
	assert.Equal(t, formmail.BannerSuccess, snap.Banner.Kind)
	assert.Equal(t, "✓ Thank you for your message! We will get back to you soon.", snap.Banner.Text)
	assert.Equal(t, int64(5000), snap.Banner.TTLms)
	assert.True(t, snap.Reset)
	assert.Equal(t, []formmail.ButtonState{
		{Phase: formmail.ButtonSubmitting, Label: "SENDING...", Disabled: true},
		{Phase: formmail.ButtonIdle, Label: "SEND MESSAGE"},
	}, rec.ButtonHistory())
}

func TestController_ContactPhoneIncludedWhenPresent(t *testing.T) {
	t.Parallel()

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(&formmail.SendResult{Status: 200}, nil)

	c := newController(t, formmail.ContactForm(), tr)
	_, err := c.Submit(context.Background(), validContact().Set("phone", "(555) 123-4567"), formmail.NewRecorder())
	require.NoError(t, err)

	req := tr.Calls[0].Arguments.Get(1).(*formmail.SendRequest)
	assert.Equal(t, "(555) 123-4567", req.Payload.Get("phone"))
}

func TestController_ApplicationPayload(t *testing.T) {
	t.Parallel()

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(&formmail.SendResult{Status: 200}, nil)

	sub := formmail.NewSubmission().
		Set("name", "Ava").
		Set("email", "a@b.com").
		Set("brand", "AV").
		Set("experience", "5 years").
		Set("motivation", "Debut").
		SetFiles("portfolio", 2)

	rec := formmail.NewRecorder()
	c := newController(t, formmail.DesignerForm(), tr)
	_, err := c.Submit(context.Background(), sub, rec)
	require.NoError(t, err)

	req := tr.Calls[0].Arguments.Get(1).(*formmail.SendRequest)
	assert.Equal(t, "Designer", req.Payload.Get("application_type"))
	assert.Equal(t, "inbox@braam.example", req.Payload.Get("to_email"))
	assert.Equal(t, "Ava", req.Payload.Get("from_name"))
	assert.Equal(t, "a@b.com", req.Payload.Get("from_email"))
	assert.Contains(t, req.Payload, "phone")
	assert.Equal(t, "", req.Payload.Get("phone"))
	assert.Equal(t, formmail.FormatMessage("Designer", sub), req.Payload.Get("message"))

	snap := rec.Snapshot()
	assert.Equal(t, "Application submitted successfully! We'll get back to you soon.", snap.Banner.Text)
	assert.Equal(t, []formmail.FileIndicator{{Input: "portfolio", Label: "Upload Portfolio"}}, snap.Files)
}

func TestController_TransportFailureRestoresButton(t *testing.T) {
	t.Parallel()

	boom := errors.New("relay down")
	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(nil, boom)

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ModelForm(), tr)

	sub := formmail.NewSubmission().
		Set("name", "Kai").
		Set("email", "kai@example.com").
		Set("age", "21").
		Set("height", "183").
		Set("measurements", "86-61-89").
		Set("location", "Cape Town")

	_, err := c.Submit(context.Background(), sub, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, formmail.ErrTransportFailed)
	assert.ErrorIs(t, err, boom)

	snap := rec.Snapshot()
	assert.Equal(t, formmail.ButtonState{Phase: formmail.ButtonIdle, Label: "Submit Application"}, snap.Button)
	require.NotNil(t, snap.Banner)
	assert.Equal(t, formmail.BannerError, snap.Banner.Kind)
	assert.Equal(t, "Failed to submit application. Please try again.", snap.Banner.Text)
	assert.False(t, snap.Reset, "form contents are kept for resubmission")
}

func TestController_ValidationFailure(t *testing.T) {
	t.Parallel()

	tr := &mockTransport{}
	rec := formmail.NewRecorder()
	c := newController(t, formmail.ContactForm(), tr)

	out, err := c.Submit(context.Background(), contact("", "bad", "hi"), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, formmail.ErrValidation)

	var subErr *formmail.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, out.Result, subErr.Result)

	tr.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	snap := rec.Snapshot()
	assert.Equal(t, "Please enter your name.\nPlease enter a valid email address.\nMessage must be at least 10 characters long.", snap.Banner.Text)
	assert.Equal(t, []formmail.FieldState{
		{Field: "name", Hint: "Name is required"},
		{Field: "email", Hint: "Please enter a valid email"},
		{Field: "phone", Valid: true},
		{Field: "message", Hint: "Message must be at least 10 characters"},
	}, snap.Fields)
	assert.False(t, snap.Button.Disabled)
}

func TestController_ResubmitClearsFixedFields(t *testing.T) {
	t.Parallel()

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ContactForm(), &mockTransport{})

	_, err := c.Submit(context.Background(), contact("", "ava@example.com", "I would love to attend the show."), rec)
	require.ErrorIs(t, err, formmail.ErrValidation)

	_, err = c.Submit(context.Background(), contact("Ava", "bad", "I would love to attend the show."), rec)
	require.ErrorIs(t, err, formmail.ErrValidation)

	assert.Equal(t, []formmail.FieldState{
		{Field: "name", Valid: true},
		{Field: "email", Hint: "Please enter a valid email"},
		{Field: "phone", Valid: true},
		{Field: "message", Valid: true},
	}, rec.Snapshot().Fields)
}

func TestController_SuccessResetsForm(t *testing.T) {
	t.Parallel()

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(&formmail.SendResult{Status: 200}, nil)

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ContactForm(), tr)
	c.Count("I would love to attend the show.", rec)

	_, err := c.Submit(context.Background(), validContact(), rec)
	require.NoError(t, err)

	snap := rec.Snapshot()
	for _, f := range snap.Fields {
		assert.True(t, f.Valid, f.Field)
	}
	assert.Len(t, snap.Fields, 4)
	require.NotNil(t, snap.Counter)
	assert.Equal(t, formmail.CounterFor("message", "", 500), *snap.Counter)
}

func TestController_PhoneFormattedInPayload(t *testing.T) {
	t.Parallel()

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(&formmail.SendResult{Status: 200}, nil)

	sub := formmail.NewSubmission().
		Set("name", "Kai").
		Set("email", "kai@example.com").
		Set("phone", "555.123.4567").
		Set("age", "21").
		Set("height", "183").
		Set("measurements", "86-61-89").
		Set("location", "Cape Town")

	c := newController(t, formmail.ModelForm(), tr)
	_, err := c.Submit(context.Background(), sub, formmail.NewRecorder())
	require.NoError(t, err)

	req := tr.Calls[0].Arguments.Get(1).(*formmail.SendRequest)
	assert.Equal(t, "(555) 123-4567", req.Payload.Get("phone"))
	assert.Contains(t, req.Payload.Get("message"), "Phone Number: (555) 123-4567\n")
	assert.Equal(t, "555.123.4567", sub.Get("phone"), "the submission is not modified")
}

func TestController_NilClientTransport(t *testing.T) {
	t.Parallel()

	var client *formmail.Client
	c, err := formmail.NewController(formmail.ContactForm(), client)
	require.NoError(t, err)
	assert.False(t, c.Configured())

	_, err = c.Submit(context.Background(), validContact(), formmail.NewRecorder())
	assert.ErrorIs(t, err, formmail.ErrNotConfigured)
}

func TestController_ApplicationValidationBanner(t *testing.T) {
	t.Parallel()

	rec := formmail.NewRecorder()
	c := newController(t, formmail.DesignerForm(), &mockTransport{})

	_, err := c.Submit(context.Background(), formmail.NewSubmission(), rec)
	assert.ErrorIs(t, err, formmail.ErrValidation)

	snap := rec.Snapshot()
	assert.Equal(t, "Please fill in all required fields.", snap.Banner.Text)

	form := formmail.DesignerForm()
	for _, f := range snap.Fields {
		spec, ok := form.Field(f.Field)
		require.True(t, ok, f.Field)
		assert.Equal(t, !spec.Required, f.Valid, f.Field)
	}
}

func TestController_NotConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tr   formmail.Transport
		opts []formmail.ControllerOption
	}{
		{name: "nil transport", tr: nil},
		{name: "missing ids", tr: &mockTransport{}, opts: []formmail.ControllerOption{formmail.WithRelayIDs("", "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := formmail.NewRecorder()
			c := newController(t, formmail.ContactForm(), tt.tr, tt.opts...)
			assert.False(t, c.Configured())

			out, err := c.Submit(context.Background(), validContact(), rec)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, formmail.ErrNotConfigured)
			assert.Empty(t, rec.ButtonHistory(), "nothing is presented")
			assert.Nil(t, rec.Snapshot().Banner)
		})
	}
}

func TestController_DoubleSubmitEndsIdle(t *testing.T) {
	t.Parallel()

	release := make(chan time.Time)
	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).
		WaitUntil(release).
		Return(&formmail.SendResult{Status: 200}, nil)

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ContactForm(), tr)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Submit(context.Background(), validContact(), rec)
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	tr.AssertNumberOfCalls(t, "Send", 2)

	history := rec.ButtonHistory()
	require.Len(t, history, 4)
	assert.Equal(t, formmail.ButtonIdle, history[len(history)-1].Phase)

	snap := rec.Snapshot()
	assert.False(t, snap.Button.Disabled)
	require.NotNil(t, snap.Counter)
	assert.Equal(t, formmail.CounterFor("message", "", 500), *snap.Counter)
}

func TestController_ContextCanceled(t *testing.T) {
	t.Parallel()

	release := make(chan time.Time)
	defer close(release)

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).
		WaitUntil(release).
		Return(&formmail.SendResult{Status: 200}, nil).Maybe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ContactForm(), tr)
	_, err := c.Submit(ctx, validContact(), rec)

	assert.ErrorIs(t, err, formmail.ErrTransportFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, formmail.ButtonIdle, rec.Snapshot().Button.Phase)
}

func TestController_Revalidate(t *testing.T) {
	t.Parallel()

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ContactForm(), &mockTransport{})

	fe := c.Revalidate("name", "A", rec)
	require.NotNil(t, fe)
	assert.Empty(t, rec.Snapshot().Fields)

	assert.Nil(t, c.Revalidate("name", "Av", rec))
	assert.Equal(t, []formmail.FieldState{{Field: "name", Valid: true}}, rec.Snapshot().Fields)
}

func TestController_FilesAndCounter(t *testing.T) {
	t.Parallel()

	rec := formmail.NewRecorder()
	c := newController(t, formmail.ModelForm(), &mockTransport{})

	ind := c.Files("photos", 3, rec)
	assert.Equal(t, "3 files selected", ind.Label)

	counter := c.Count("hello", rec)
	assert.Equal(t, "5/500", counter.Text)
	assert.Equal(t, "message", counter.Field)

	snap := rec.Snapshot()
	assert.Equal(t, []formmail.FileIndicator{ind}, snap.Files)
	assert.Equal(t, &counter, snap.Counter)
}

func TestController_BannerTTLOverride(t *testing.T) {
	t.Parallel()

	form := formmail.ContactForm()
	c := newController(t, form, &mockTransport{}, formmail.WithBannerTTL(8*time.Second))

	assert.Equal(t, 8*time.Second, c.Form().BannerTTL)
	assert.Equal(t, 5*time.Second, form.BannerTTL, "shared form is untouched")
}

type failingPresenter struct {
	*formmail.Recorder
}

func (failingPresenter) Banner(formmail.Banner) error { return errors.New("stream closed") }

func TestController_PresenterErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	tr := &mockTransport{}
	tr.On("Send", mock.Anything, mock.Anything).Return(&formmail.SendResult{Status: 200}, nil)

	p := failingPresenter{formmail.NewRecorder()}
	c := newController(t, formmail.ContactForm(), tr)

	_, err := c.Submit(context.Background(), validContact(), p)
	require.NoError(t, err)
	assert.Equal(t, formmail.ButtonIdle, p.Snapshot().Button.Phase)
}
