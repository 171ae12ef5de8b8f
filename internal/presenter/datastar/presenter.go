// Package datastar streams form state to the browser as Datastar SSE patches.
//
// Button, field, counter and reset state travel as signal patches. The client
// merges patches into its signals, so a reset names every field it clears.
// Banners and file indicators are patched as element fragments. Banner and
// highlight lifetimes run on timers owned by the presenter; the handler calls
// Wait before returning so the stream stays open until they fire.
package datastar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/braamfashionweek/formmail"
)

// ErrClosed is returned once the presenter stopped writing to the stream.
var ErrClosed = errors.New("datastar presenter: stream closed")

// Default border colours.
const (
	InvalidBorder = "#ff4444"
	ValidBorder   = ""
)

var fragments = template.Must(template.New("fragments").Parse(`
{{- define "banner" -}}
<div id="{{.ID}}" class="form-banner form-banner--{{.Kind}}" role="status">{{.Text}}</div>
{{- end -}}
{{- define "banner-empty" -}}
<div id="{{.ID}}" class="form-banner" role="status" hidden></div>
{{- end -}}
{{- define "file" -}}
<span id="{{.ID}}" class="file-indicator{{if .Selected}} file-indicator--selected{{end}}">
<i class="fas {{if .Selected}}fa-check{{else if .Portfolio}}fa-upload{{else}}fa-camera{{end}}"></i> {{.Label}}</span>
{{- end -}}
`))

// Presenter implements formmail.Presenter over one SSE stream.
type Presenter struct {
	sse    *datastar.ServerSentEventGenerator
	formID string

	invalidBorder string
	resetBorder   string

	mu      sync.Mutex
	closed  bool
	bannerN uint64
	resetN  uint64
	fieldN  map[string]uint64
	timers  []*time.Timer
	pending sync.WaitGroup
}

var _ formmail.Presenter = (*Presenter)(nil)

// Option configures a Presenter.
type Option func(*Presenter)

// WithBorders sets the border colour of invalid fields and the colour a
// timed highlight resets to.
func WithBorders(invalid, reset string) Option {
	return func(p *Presenter) {
		if invalid != "" {
			p.invalidBorder = invalid
		}
		p.resetBorder = reset
	}
}

// New returns a presenter writing to sse. Element ids are prefixed with formID.
func New(sse *datastar.ServerSentEventGenerator, formID string, opts ...Option) *Presenter {
	p := &Presenter{
		sse:           sse,
		formID:        formID,
		invalidBorder: InvalidBorder,
		resetBorder:   ValidBorder,
		fieldN:        make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BannerID returns the element id of the form's banner container.
func (p *Presenter) BannerID() string { return p.formID + "-banner" }

// FileID returns the element id of a file input's indicator.
func (p *Presenter) FileID(input string) string { return p.formID + "-" + input + "-indicator" }

func (p *Presenter) Button(s formmail.ButtonState) error {
	return p.signals(map[string]any{
		"button": map[string]any{
			"label":      s.Label,
			"disabled":   s.Disabled,
			"submitting": s.Phase == formmail.ButtonSubmitting,
		},
	})
}

func (p *Presenter) Banner(b formmail.Banner) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	html, err := render("banner", map[string]any{"ID": p.BannerID(), "Kind": b.Kind, "Text": b.Text})
	if err != nil {
		return err
	}
	if err := p.patchLocked(html, p.BannerID()); err != nil {
		return err
	}

	p.bannerN++
	gen := p.bannerN
	if b.TTL > 0 {
		p.afterLocked(b.TTL, func() error {
			if p.bannerN != gen {
				return nil
			}
			html, err := render("banner-empty", map[string]any{"ID": p.BannerID()})
			if err != nil {
				return err
			}
			return p.patchLocked(html, p.BannerID())
		})
	}
	return nil
}

func (p *Presenter) Fields(states []formmail.FieldState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fields := make(map[string]any, len(states))
	for _, s := range states {
		fields[s.Field] = p.fieldSignal(s.Valid, s.Hint)
		p.fieldN[s.Field]++

		if !s.Valid && s.TTL > 0 {
			name, gen := s.Field, p.fieldN[s.Field]
			p.afterLocked(s.TTL, func() error {
				if p.fieldN[name] != gen {
					return nil
				}
				return p.signalsLocked(map[string]any{
					"fields": map[string]any{
						name: map[string]any{"valid": true, "hint": "", "border": p.resetBorder},
					},
				})
			})
		}
	}
	return p.signalsLocked(map[string]any{"fields": fields})
}

// Reset empties every form value, marks every field valid, restores the
// file indicators and the counter, and bumps the reset signal so the page
// can react to each successful send.
func (p *Presenter) Reset(state formmail.ResetState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	form := make(map[string]any, len(state.Fields))
	fields := make(map[string]any, len(state.Fields))
	for _, name := range state.Fields {
		form[name] = ""
		fields[name] = p.fieldSignal(true, "")
		p.fieldN[name]++
	}
	p.resetN++

	patch := map[string]any{
		"reset":  p.resetN,
		"form":   form,
		"fields": fields,
	}
	if state.Counter != nil {
		patch["counter"] = counterSignal(*state.Counter)
	}
	if err := p.signalsLocked(patch); err != nil {
		return err
	}
	for _, f := range state.Files {
		if err := p.fileLocked(f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Presenter) FileIndicator(f formmail.FileIndicator) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fileLocked(f)
}

func (p *Presenter) Counter(c formmail.CharCounter) error {
	return p.signals(map[string]any{"counter": counterSignal(c)})
}

// Wait blocks until every pending banner or highlight timer has fired or ctx
// is done. After ctx is done the remaining timers are stopped and the
// presenter stops writing.
func (p *Presenter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.Close()
		return ctx.Err()
	}
}

// Close stops pending timers. Later presenter calls return ErrClosed.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, t := range p.timers {
		if t.Stop() {
			p.pending.Done()
		}
	}
	p.timers = nil
}

func (p *Presenter) fieldSignal(valid bool, hint string) map[string]any {
	border := p.invalidBorder
	if valid {
		border = ValidBorder
		hint = ""
	}
	return map[string]any{"valid": valid, "hint": hint, "border": border}
}

func counterSignal(c formmail.CharCounter) map[string]any {
	return map[string]any{
		"text":   c.Text,
		"length": c.Length,
		"max":    c.Max,
		"tier":   c.Tier,
		"colour": c.Colour,
	}
}

func (p *Presenter) fileLocked(f formmail.FileIndicator) error {
	html, err := render("file", map[string]any{
		"ID":        p.FileID(f.Input),
		"Label":     f.Label,
		"Selected":  f.Selected,
		"Portfolio": strings.Contains(f.Input, "portfolio"),
	})
	if err != nil {
		return err
	}
	return p.patchLocked(html, p.FileID(f.Input))
}

// afterLocked schedules fn under the presenter lock. Callers hold p.mu.
func (p *Presenter) afterLocked(d time.Duration, fn func() error) {
	if p.closed {
		return
	}
	p.pending.Add(1)
	t := time.AfterFunc(d, func() {
		defer p.pending.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		_ = fn()
	})
	p.timers = append(p.timers, t)
}

func (p *Presenter) signals(v map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signalsLocked(v)
}

func (p *Presenter) signalsLocked(v map[string]any) error {
	if p.closed {
		return ErrClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.sse.PatchSignals(data)
}

func (p *Presenter) patchLocked(html, id string) error {
	if p.closed {
		return ErrClosed
	}
	return p.sse.PatchElements(html,
		datastar.WithSelector("#"+id),
		datastar.WithMode(datastar.ElementPatchModeOuter),
	)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
