package formmail

import (
	"sort"
)

// Submission holds the field values of one form post in field order.
// File inputs are tracked as selection counts only.
type Submission struct {
	keys   []string
	values map[string]string
	files  map[string]int
}

// NewSubmission returns an empty submission.
func NewSubmission() *Submission {
	return &Submission{
		values: make(map[string]string),
		files:  make(map[string]int),
	}
}

// Set stores value under key. A new key is appended to the field order.
func (s *Submission) Set(key, value string) *Submission {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
	return s
}

// Get returns the value for key, or an empty string.
func (s *Submission) Get(key string) string {
	return s.values[key]
}

// Has reports whether key was set.
func (s *Submission) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Keys returns the field keys in insertion order.
func (s *Submission) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of fields.
func (s *Submission) Len() int {
	return len(s.keys)
}

// SetFiles records how many files are selected on a file input.
func (s *Submission) SetFiles(input string, count int) *Submission {
	if count < 0 {
		count = 0
	}
	s.files[input] = count
	return s
}

// Files returns the number of files selected on input.
func (s *Submission) Files(input string) int {
	return s.files[input]
}

// FileInputs returns the names of file inputs with a recorded count, sorted.
func (s *Submission) FileInputs() []string {
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SubmissionFrom builds a submission from posted values. Fields declared by
// the form come first in declaration order, then any other keys sorted.
// Only the first value of a key is used.
func SubmissionFrom(form *FormSpec, values map[string][]string) *Submission {
	sub := NewSubmission()
	seen := make(map[string]bool, len(values))

	if form != nil {
		for _, f := range form.Fields {
			if f.File {
				continue
			}
			seen[f.Name] = true
			if v, ok := values[f.Name]; ok && len(v) > 0 {
				sub.Set(f.Name, v[0])
			}
		}
	}

	rest := make([]string, 0, len(values))
	for k := range values {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if form != nil && form.isFile(k) {
			continue
		}
		if v := values[k]; len(v) > 0 {
			sub.Set(k, v[0])
		}
	}

	return sub
}
