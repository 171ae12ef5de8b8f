package formmail

import (
	"sync"
)

// Recorder is a Presenter that keeps the latest presented state so it can be
// returned as JSON. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	button  ButtonState
	buttons []ButtonState
	banner  *Banner
	fields  []FieldState
	files   []FileIndicator
	counter *CharCounter
	reset   bool
}

var _ Presenter = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Snapshot is the JSON view of a Recorder.
type Snapshot struct {
	Button  ButtonState     `json:"button"`
	Banner  *BannerView     `json:"banner,omitempty"`
	Fields  []FieldState    `json:"fields,omitempty"`
	Files   []FileIndicator `json:"files,omitempty"`
	Counter *CharCounter    `json:"counter,omitempty"`
	Reset   bool            `json:"reset"`
}

// BannerView is a Banner with its lifetime in milliseconds.
type BannerView struct {
	Kind  BannerKind `json:"kind"`
	Text  string     `json:"text"`
	TTLms int64      `json:"ttl_ms"`
}

// Button records s as the current button and appends it to the history.
func (r *Recorder) Button(s ButtonState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.button = s
	r.buttons = append(r.buttons, s)
	return nil
}

// Banner records b as the visible banner. The TTL is kept, not run.
func (r *Recorder) Banner(b Banner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banner = &b
	return nil
}

// Fields merges states by field name; later states win.
func (r *Recorder) Fields(states []FieldState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range states {
		replaced := false
		for i := range r.fields {
			if r.fields[i].Field == s.Field {
				r.fields[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			r.fields = append(r.fields, s)
		}
	}
	return nil
}

// Reset marks every field valid, restores the file indicators and replaces
// the counter with the empty one.
func (r *Recorder) Reset(state ResetState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset = true
	r.fields = r.fields[:0]
	for _, name := range state.Fields {
		r.fields = append(r.fields, FieldState{Field: name, Valid: true})
	}
	r.files = append(r.files[:0], state.Files...)
	r.counter = nil
	if state.Counter != nil {
		c := *state.Counter
		r.counter = &c
	}
	return nil
}

// FileIndicator records f, replacing any indicator for the same input.
func (r *Recorder) FileIndicator(f FileIndicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.files {
		if r.files[i].Input == f.Input {
			r.files[i] = f
			return nil
		}
	}
	r.files = append(r.files, f)
	return nil
}

// Counter records c as the current counter.
func (r *Recorder) Counter(c CharCounter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter = &c
	return nil
}

// ButtonHistory returns every button state in the order presented.
func (r *Recorder) ButtonHistory() []ButtonState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ButtonState, len(r.buttons))
	copy(out, r.buttons)
	return out
}

// Snapshot returns a copy of the current state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Button: r.button,
		Reset:  r.reset,
	}
	if r.banner != nil {
		s.Banner = &BannerView{Kind: r.banner.Kind, Text: r.banner.Text, TTLms: r.banner.TTL.Milliseconds()}
	}
	if len(r.fields) > 0 {
		s.Fields = append([]FieldState(nil), r.fields...)
	}
	if len(r.files) > 0 {
		s.Files = append([]FileIndicator(nil), r.files...)
	}
	if r.counter != nil {
		c := *r.counter
		s.Counter = &c
	}
	return s
}
