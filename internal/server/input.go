package server

import (
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/starfederation/datastar-go/datastar"
)

// signals is the Datastar signal tree the form markup binds to.
type signals struct {
	Form  map[string]string `json:"form"`
	Files map[string]int    `json:"files"`
}

// input is one request's submitted values, however they arrived.
type input struct {
	values map[string][]string
	files  map[string]int
}

func (in *input) value(keys ...string) string {
	for _, k := range keys {
		if v := in.values[k]; len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// fileCount returns the files selected on name. Clients that cannot upload
// may send the count as a "count" value instead.
func (in *input) fileCount(name string) int {
	if n, ok := in.files[name]; ok {
		return n
	}
	if n, err := strconv.Atoi(in.value("count")); err == nil && n >= 0 {
		return n
	}
	return 0
}

// isDatastar reports whether the request came from the Datastar client.
func isDatastar(r *http.Request) bool {
	if r.Header.Get("Datastar-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// readInput collects submitted values from Datastar signals, a multipart
// body or a url-encoded body. Every value has markup stripped.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (*input, error) {
	in := &input{values: map[string][]string{}, files: map[string]int{}}

	if isDatastar(r) {
		var sig signals
		if err := datastar.ReadSignals(r, &sig); err != nil {
			return nil, err
		}
		for k, v := range sig.Form {
			in.values[k] = []string{s.sanitize(v)}
		}
		for k, n := range sig.Files {
			in.files[k] = n
		}
		return in, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
			return nil, err
		}
		if r.MultipartForm != nil {
			for name, headers := range r.MultipartForm.File {
				in.files[name] = len(headers)
			}
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}

	for k, vs := range r.Form {
		clean := make([]string, len(vs))
		for i, v := range vs {
			clean[i] = s.sanitize(v)
		}
		in.values[k] = clean
	}
	return in, nil
}

func (s *Server) sanitize(v string) string {
	return html.UnescapeString(s.policy.Sanitize(v))
}

func newPolicy() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

func inputStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
