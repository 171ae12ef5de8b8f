package formmail

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// FieldError is one failed rule. Message is the sentence shown in the banner;
// Hint is the shorter text shown next to the field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Hint    string `json:"hint"`
}

// Result is the outcome of validating a submission.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Messages returns the error messages in field order.
func (r *Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

// InvalidFields returns the names of the failing fields in order.
func (r *Result) InvalidFields() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

// Validate checks every field of form against sub and reports all failures.
// A field that is required and blank yields one error and no further checks.
func Validate(form *FormSpec, sub *Submission) *Result {
	res := &Result{Valid: true}
	for _, f := range form.Fields {
		if f.File {
			continue
		}
		if fe := checkField(f, sub.Get(f.Name)); fe != nil {
			res.Errors = append(res.Errors, *fe)
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// ValidateField checks a single field. It returns nil when the value passes
// or when the form has no such field.
func ValidateField(form *FormSpec, field, value string) *FieldError {
	f, ok := form.Field(field)
	if !ok || f.File {
		return nil
	}
	return checkField(f, value)
}

func checkField(f FieldSpec, raw string) *FieldError {
	value := strings.TrimSpace(raw)
	noun := fieldNoun(f)

	if value == "" {
		if !f.Required {
			return nil
		}
		return &FieldError{
			Field:   f.Name,
			Message: "Please enter your " + requiredNoun(f) + ".",
			Hint:    noun + " is required",
		}
	}

	n := utf8.RuneCountInString(value)
	if f.MinLength > 0 && n < f.MinLength {
		return &FieldError{
			Field:   f.Name,
			Message: fmt.Sprintf("%s must be at least %d characters long.", noun, f.MinLength),
			Hint:    fmt.Sprintf("%s must be at least %d characters", noun, f.MinLength),
		}
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return &FieldError{
			Field:   f.Name,
			Message: fmt.Sprintf("%s must be no more than %d characters long.", noun, f.MaxLength),
			Hint:    fmt.Sprintf("%s must be at most %d characters", noun, f.MaxLength),
		}
	}

	if f.Format == FormatEmail && !ValidEmail(value) {
		return &FieldError{
			Field:   f.Name,
			Message: "Please enter a valid email address.",
			Hint:    "Please enter a valid email",
		}
	}

	return nil
}

// fieldNoun is the capitalized short name used in hints and length errors.
func fieldNoun(f FieldSpec) string {
	switch f.Name {
	case "name", "email", "message":
		return strings.ToUpper(f.Name[:1]) + f.Name[1:]
	}
	return f.DisplayLabel()
}

// requiredNoun completes "Please enter your ...".
func requiredNoun(f FieldSpec) string {
	switch f.Name {
	case "name", "message":
		return f.Name
	case "email":
		return "email address"
	}
	return strings.ToLower(f.DisplayLabel())
}
