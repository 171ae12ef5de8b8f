package formmail

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Presenter shows form state to the user. Implementations decide how state
// reaches the page; the controller only passes values. Returned errors are
// logged by the controller and never abort a submission.
type Presenter interface {
	// Button sets the submit button label and disabled flag.
	Button(ButtonState) error

	// Banner shows a success or error banner that hides itself after TTL.
	Banner(Banner) error

	// Fields marks fields valid or invalid.
	Fields([]FieldState) error

	// Reset returns the form to its initial state after a successful send.
	Reset(ResetState) error

	// FileIndicator updates the label of a file input's button.
	FileIndicator(FileIndicator) error

	// Counter updates the live character counter.
	Counter(CharCounter) error
}

// ResetState is the initial state a form returns to after a successful send.
type ResetState struct {
	// Fields names every non-file input; each is emptied and marked valid.
	Fields []string `json:"fields"`

	// Files holds the default indicator of every file input.
	Files []FileIndicator `json:"files,omitempty"`

	// Counter is the empty character counter, or nil when the form has none.
	Counter *CharCounter `json:"counter,omitempty"`
}

// ButtonPhase is the submit button state machine: Idle, Submitting, Idle.
type ButtonPhase string

const (
	ButtonIdle       ButtonPhase = "idle"
	ButtonSubmitting ButtonPhase = "submitting"
)

// ButtonState is the submit button as presented.
type ButtonState struct {
	Phase    ButtonPhase `json:"phase"`
	Label    string      `json:"label"`
	Disabled bool        `json:"disabled"`
}

// BannerKind selects banner styling.
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// Banner is a transient inline message.
type Banner struct {
	Kind BannerKind    `json:"kind"`
	Text string        `json:"text"`
	TTL  time.Duration `json:"-"`
}

// FieldState is the highlight state of one input. TTL, when set, clears an
// invalid highlight after the given time.
type FieldState struct {
	Field string        `json:"field"`
	Valid bool          `json:"valid"`
	Hint  string        `json:"hint,omitempty"`
	TTL   time.Duration `json:"-"`
}

// FileIndicator is the label on a file input's button.
type FileIndicator struct {
	Input    string `json:"input"`
	Count    int    `json:"count"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// FileIndicatorFor returns the indicator for count files selected on input.
func FileIndicatorFor(input string, count int) FileIndicator {
	if count > 0 {
		noun := "files"
		if count == 1 {
			noun = "file"
		}
		return FileIndicator{
			Input:    input,
			Count:    count,
			Label:    fmt.Sprintf("%d %s selected", count, noun),
			Selected: true,
		}
	}

	label := "Upload Photos"
	if strings.Contains(input, "portfolio") {
		label = "Upload Portfolio"
	}
	return FileIndicator{Input: input, Label: label}
}

// CounterTier is the colour band of the character counter.
type CounterTier string

const (
	CounterNormal    CounterTier = "normal"
	CounterWarning   CounterTier = "warning"
	CounterOverLimit CounterTier = "over-limit"
)

// Colour returns the CSS colour for the tier.
func (t CounterTier) Colour() string {
	switch t {
	case CounterWarning:
		return "#ffaa00"
	case CounterOverLimit:
		return "#ff4444"
	default:
		return "#808080"
	}
}

// CharCounter is the "n/max" counter under a text field.
type CharCounter struct {
	Field  string      `json:"field"`
	Length int         `json:"length"`
	Max    int         `json:"max"`
	Tier   CounterTier `json:"tier"`
	Text   string      `json:"text"`
	Colour string      `json:"colour"`
}

// CounterFor measures text against limit. The tier turns warning above 70%
// and over-limit above 90% of limit.
func CounterFor(field, text string, limit int) CharCounter {
	n := utf8.RuneCountInString(text)
	tier := CounterNormal
	switch {
	case n*10 > limit*9:
		tier = CounterOverLimit
	case n*10 > limit*7:
		tier = CounterWarning
	}
	return CharCounter{
		Field:  field,
		Length: n,
		Max:    limit,
		Tier:   tier,
		Text:   fmt.Sprintf("%d/%d", n, limit),
		Colour: tier.Colour(),
	}
}
