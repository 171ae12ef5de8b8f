package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/braamfashionweek/formmail"
	dspresenter "github.com/braamfashionweek/formmail/internal/presenter/datastar"
)

// Application forms highlight in grey and fade back to the default border.
const (
	applicationInvalidBorder = "#808080"
	applicationResetBorder   = "#333"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	forms := make(map[string]bool, len(s.controllers))
	for id, ctrl := range s.controllers {
		forms[id] = ctrl.Configured()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": formmail.GetVersionInfo().Version,
		"forms":   forms,
	})
}

type submitResponse struct {
	Outcome *formmail.Outcome `json:"outcome,omitempty"`
	State   formmail.Snapshot `json:"state"`
	Error   *errorBody        `json:"error,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	in, err := s.readInput(w, r)
	if err != nil {
		s.logger.InfoContext(r.Context(), "unreadable submission", slog.Any("error", err))
		writeError(w, inputStatus(err), "bad_request", "The form could not be read.")
		return
	}

	form := ctrl.Form()
	sub := formmail.SubmissionFrom(form, in.values)
	for _, name := range form.FileInputs() {
		sub.SetFiles(name, in.files[name])
	}

	if isDatastar(r) {
		p := s.stream(w, r, form)
		_, _ = ctrl.Submit(r.Context(), sub, p)
		s.wait(r, p)
		return
	}

	rec := formmail.NewRecorder()
	out, err := ctrl.Submit(r.Context(), sub, rec)
	resp := submitResponse{Outcome: out, State: rec.Snapshot()}
	status := http.StatusOK
	if err != nil {
		status, resp.Error = submitError(form, err, resp.State)
	}
	writeJSON(w, status, resp)
}

func submitError(form *formmail.FormSpec, err error, state formmail.Snapshot) (int, *errorBody) {
	switch {
	case errors.Is(err, formmail.ErrValidation):
		msg := form.InvalidText
		if state.Banner != nil {
			msg = state.Banner.Text
		}
		return http.StatusUnprocessableEntity, &errorBody{Code: "invalid", Message: msg}
	case errors.Is(err, formmail.ErrTransportFailed):
		return http.StatusBadGateway, &errorBody{Code: "send_failed", Message: form.FailureText}
	case errors.Is(err, formmail.ErrNotConfigured):
		return http.StatusServiceUnavailable, &errorBody{Code: "unavailable", Message: "This form is not available right now."}
	default:
		return http.StatusInternalServerError, &errorBody{Code: "internal", Message: form.FailureText}
	}
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	field := chi.URLParam(r, "field")
	if _, ok := ctrl.Form().Field(field); !ok {
		writeError(w, http.StatusNotFound, "unknown_field", "Unknown field.")
		return
	}
	in, err := s.readInput(w, r)
	if err != nil {
		writeError(w, inputStatus(err), "bad_request", "The field could not be read.")
		return
	}
	value := in.value(field, "value")

	if isDatastar(r) {
		p := s.stream(w, r, ctrl.Form())
		ctrl.Revalidate(field, value, p)
		return
	}

	fe := ctrl.Revalidate(field, value, formmail.NewRecorder())
	writeJSON(w, http.StatusOK, map[string]any{
		"field": field,
		"valid": fe == nil,
		"error": fe,
	})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "input")
	in, err := s.readInput(w, r)
	if err != nil {
		writeError(w, inputStatus(err), "bad_request", "The files could not be read.")
		return
	}
	count := in.fileCount(name)

	if isDatastar(r) {
		ctrl.Files(name, count, s.stream(w, r, ctrl.Form()))
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Files(name, count, formmail.NewRecorder()))
}

func (s *Server) handleCounter(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	in, err := s.readInput(w, r)
	if err != nil {
		writeError(w, inputStatus(err), "bad_request", "The text could not be read.")
		return
	}
	field := ctrl.Form().CounterField
	if field == "" {
		field = "message"
	}
	text := in.value(field, "text")

	if isDatastar(r) {
		ctrl.Count(text, s.stream(w, r, ctrl.Form()))
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Count(text, formmail.NewRecorder()))
}

func (s *Server) handlePhone(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.controller(w, r); !ok {
		return
	}
	in, err := s.readInput(w, r)
	if err != nil {
		writeError(w, inputStatus(err), "bad_request", "The phone number could not be read.")
		return
	}
	phone := formmail.FormatPhone(in.value("phone", "value"))

	if isDatastar(r) {
		data, err := json.Marshal(map[string]any{"form": map[string]string{"phone": phone}})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "Could not format the phone number.")
			return
		}
		sse := datastar.NewSSE(w, r)
		if err := sse.PatchSignals(data); err != nil {
			s.logger.WarnContext(r.Context(), "phone signal patch failed", slog.Any("error", err))
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"phone": phone})
}

// stream opens the SSE stream and returns a presenter styled for form.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, form *formmail.FormSpec) *dspresenter.Presenter {
	var opts []dspresenter.Option
	if form.Shape == formmail.ShapeApplication {
		opts = append(opts, dspresenter.WithBorders(applicationInvalidBorder, applicationResetBorder))
	}
	return dspresenter.New(datastar.NewSSE(w, r), form.ID, opts...)
}

// wait keeps the stream open until banner and highlight timers have fired.
func (s *Server) wait(r *http.Request, p *dspresenter.Presenter) {
	if err := p.Wait(r.Context()); err != nil {
		s.logger.DebugContext(r.Context(), "client left before timers fired", slog.Any("error", err))
	}
}
