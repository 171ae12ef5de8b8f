package formmail

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Shape selects how a submission is turned into a relay payload.
type Shape string

const (
	// ShapeApplication sends the formatted message with application metadata.
	ShapeApplication Shape = "application"

	// ShapeContact sends the raw message with reply-to and subject.
	ShapeContact Shape = "contact"
)

// Format names how a field value is treated once the required check passes.
// Email values are checked; phone values are reformatted before sending.
type Format string

const (
	FormatNone        Format = ""
	FormatEmail       Format = "email"
	FormatPhoneNumber Format = "phone"
)

// FieldSpec describes one input of a form.
type FieldSpec struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label,omitempty"`
	Required  bool   `yaml:"required,omitempty"`
	MinLength int    `yaml:"min_length,omitempty"`
	MaxLength int    `yaml:"max_length,omitempty"`
	Format    Format `yaml:"format,omitempty"`
	File      bool   `yaml:"file,omitempty"`
}

// DisplayLabel returns the configured label or the shared label table entry.
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return Label(f.Name)
}

// FormSpec configures the controller for one form category.
type FormSpec struct {
	ID       string      `yaml:"id"`
	Category string      `yaml:"category,omitempty"`
	Shape    Shape       `yaml:"shape"`
	Fields   []FieldSpec `yaml:"fields"`

	ButtonLabel  string `yaml:"button_label"`
	LoadingLabel string `yaml:"loading_label"`

	SuccessText string `yaml:"success_text"`
	FailureText string `yaml:"failure_text"`
	// InvalidText replaces the joined validation messages in the error banner when set.
	InvalidText string `yaml:"invalid_text,omitempty"`

	BannerTTL time.Duration `yaml:"banner_ttl,omitempty"`
	// HighlightTTL clears invalid-field highlights after the given time. Zero
	// keeps them until the field passes revalidation.
	HighlightTTL time.Duration `yaml:"highlight_ttl,omitempty"`

	// CounterField is the text field that drives the character counter.
	CounterField string `yaml:"counter_field,omitempty"`
}

// Field returns the field spec for name.
func (f *FormSpec) Field(name string) (FieldSpec, bool) {
	for _, fs := range f.Fields {
		if fs.Name == name {
			return fs, true
		}
	}
	return FieldSpec{}, false
}

// FileInputs returns the names of the file fields.
func (f *FormSpec) FileInputs() []string {
	var out []string
	for _, fs := range f.Fields {
		if fs.File {
			out = append(out, fs.Name)
		}
	}
	return out
}

// CounterLimit returns the maximum length of the counter field, or 0.
func (f *FormSpec) CounterLimit() int {
	if f.CounterField == "" {
		return 0
	}
	fs, ok := f.Field(f.CounterField)
	if !ok {
		return 0
	}
	return fs.MaxLength
}

func (f *FormSpec) isFile(name string) bool {
	if isFileField(name) {
		return true
	}
	fs, ok := f.Field(name)
	return ok && fs.File
}

// Validate checks that the spec is usable.
func (f *FormSpec) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return NewValidationError("id", "form id is required")
	}
	switch f.Shape {
	case ShapeApplication:
		if f.Category == "" {
			return NewValidationError(f.ID+".category", "application forms need a category")
		}
	case ShapeContact:
	default:
		return NewValidationError(f.ID+".shape", "unknown shape: "+string(f.Shape))
	}
	if len(f.Fields) == 0 {
		return NewValidationError(f.ID+".fields", "at least one field is required")
	}
	seen := make(map[string]bool, len(f.Fields))
	for _, fs := range f.Fields {
		if fs.Name == "" {
			return NewValidationError(f.ID+".fields", "field name is required")
		}
		if seen[fs.Name] {
			return NewValidationError(f.ID+".fields", "duplicate field: "+fs.Name)
		}
		seen[fs.Name] = true
		if fs.MaxLength > 0 && fs.MinLength > fs.MaxLength {
			return NewValidationError(f.ID+"."+fs.Name, "min_length exceeds max_length")
		}
	}
	if f.ButtonLabel == "" || f.LoadingLabel == "" {
		return NewValidationError(f.ID+".button_label", "button labels are required")
	}
	if f.SuccessText == "" || f.FailureText == "" {
		return NewValidationError(f.ID+".success_text", "banner texts are required")
	}
	return nil
}

const (
	applicationSuccess = "Application submitted successfully! We'll get back to you soon."
	applicationFailure = "Failed to submit application. Please try again."
	applicationInvalid = "Please fill in all required fields."
)

// DesignerForm returns the designer application form.
func DesignerForm() *FormSpec {
	return &FormSpec{
		ID:       "designer",
		Category: "Designer",
		Shape:    ShapeApplication,
		Fields: []FieldSpec{
			{Name: "name", Required: true},
			{Name: "email", Required: true, Format: FormatEmail},
			{Name: "phone", Format: FormatPhoneNumber},
			{Name: "brand", Required: true},
			{Name: "experience", Required: true},
			{Name: "style"},
			{Name: "theme"},
			{Name: "motivation", Required: true},
			{Name: "portfolio", File: true},
		},
		ButtonLabel:  "Submit Application",
		LoadingLabel: "Submitting...",
		SuccessText:  applicationSuccess,
		FailureText:  applicationFailure,
		InvalidText:  applicationInvalid,
		BannerTTL:    5 * time.Second,
		HighlightTTL: 3 * time.Second,
	}
}

// ModelForm returns the model application form.
func ModelForm() *FormSpec {
	return &FormSpec{
		ID:       "model",
		Category: "Model",
		Shape:    ShapeApplication,
		Fields: []FieldSpec{
			{Name: "name", Required: true},
			{Name: "email", Required: true, Format: FormatEmail},
			{Name: "phone", Format: FormatPhoneNumber},
			{Name: "age", Required: true},
			{Name: "height", Required: true},
			{Name: "measurements", Required: true},
			{Name: "location", Required: true},
			{Name: "experience"},
			{Name: "skills"},
			{Name: "photos", File: true},
		},
		ButtonLabel:  "Submit Application",
		LoadingLabel: "Submitting...",
		SuccessText:  applicationSuccess,
		FailureText:  applicationFailure,
		InvalidText:  applicationInvalid,
		BannerTTL:    5 * time.Second,
		HighlightTTL: 3 * time.Second,
	}
}

// ContactForm returns the general contact form.
func ContactForm() *FormSpec {
	return &FormSpec{
		ID:    "contact",
		Shape: ShapeContact,
		Fields: []FieldSpec{
			{Name: "name", Required: true, MinLength: 2},
			{Name: "email", Required: true, Format: FormatEmail},
			{Name: "phone", Format: FormatPhoneNumber},
			{Name: "message", Required: true, MinLength: 10, MaxLength: 500},
		},
		ButtonLabel:  "SEND MESSAGE",
		LoadingLabel: "SENDING...",
		SuccessText:  "✓ Thank you for your message! We will get back to you soon.",
		FailureText:  "Failed to send message. Please try again.",
		BannerTTL:    5 * time.Second,
		CounterField: "message",
	}
}

// Catalog indexes form specs by id.
type Catalog struct {
	forms map[string]*FormSpec
}

// NewCatalog builds a catalog from specs. Later specs replace earlier ones
// with the same id.
func NewCatalog(specs ...*FormSpec) (*Catalog, error) {
	c := &Catalog{forms: make(map[string]*FormSpec, len(specs))}
	for _, spec := range specs {
		if err := c.Add(spec); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultCatalog returns the designer, model and contact forms.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DesignerForm(), ModelForm(), ContactForm())
	if err != nil {
		panic(fmt.Sprintf("formmail: built-in forms are invalid: %v", err))
	}
	return c
}

// Add validates spec and stores it, replacing any form with the same id.
func (c *Catalog) Add(spec *FormSpec) error {
	if spec == nil {
		return NewValidationError("form", "nil form spec")
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	c.forms[spec.ID] = spec
	return nil
}

// Form returns the spec for id or ErrUnknownForm.
func (c *Catalog) Form(id string) (*FormSpec, error) {
	spec, ok := c.forms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, id)
	}
	return spec, nil
}

// IDs returns the form ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.forms))
	for id := range c.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type catalogFile struct {
	Forms []*FormSpec `yaml:"forms"`
}

// ParseCatalog reads form specs from YAML and layers them over the built-in
// forms. Banner lifetime defaults to 5s when a form omits it.
func ParseCatalog(data []byte) (*Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("forms catalog is empty")
	}

	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse forms catalog: %w", err)
	}

	c := DefaultCatalog()
	for _, spec := range doc.Forms {
		if spec != nil && spec.BannerTTL == 0 {
			spec.BannerTTL = 5 * time.Second
		}
		if err := c.Add(spec); err != nil {
			return nil, fmt.Errorf("forms catalog: %w", err)
		}
	}

	return c, nil
}

// LoadCatalog reads a YAML forms catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forms catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}
