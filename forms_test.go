package formmail_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braamfashionweek/formmail"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := formmail.DefaultCatalog()
	assert.Equal(t, []string{"contact", "designer", "model"}, c.IDs())

	form, err := c.Form("designer")
	require.NoError(t, err)
	assert.Equal(t, "Designer", form.Category)
	assert.Equal(t, []string{"portfolio"}, form.FileInputs())

	_, err = c.Form("stylist")
	assert.ErrorIs(t, err, formmail.ErrUnknownForm)
}

func TestContactForm_Counter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 500, formmail.ContactForm().CounterLimit())
	assert.Equal(t, 0, formmail.DesignerForm().CounterLimit())
}

const catalogYAML = `
forms:
  - id: stylist
    category: Stylist
    shape: application
    fields:
      - name: name
        required: true
      - name: email
        required: true
        format: email
      - name: lookbook
        file: true
    button_label: Submit Application
    loading_label: Submitting...
    success_text: Thanks!
    failure_text: Please try again.
    highlight_ttl: 3s
  - id: contact
    shape: contact
    fields:
      - name: name
        required: true
      - name: email
        required: true
        format: email
      - name: message
        required: true
        max_length: 280
    counter_field: message
    button_label: SEND
    loading_label: SENDING...
    success_text: Sent.
    failure_text: Not sent.
    banner_ttl: 8s
`

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	c, err := formmail.ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"contact", "designer", "model", "stylist"}, c.IDs())

	stylist, err := c.Form("stylist")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, stylist.BannerTTL)
	assert.Equal(t, 3*time.Second, stylist.HighlightTTL)
	assert.Equal(t, []string{"lookbook"}, stylist.FileInputs())

	contact, err := c.Form("contact")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Second, contact.BannerTTL)
	assert.Equal(t, 280, contact.CounterLimit())
}

func TestParseCatalog_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":            "  ",
		"bad yaml":         "forms: [",
		"unknown shape":    "forms:\n  - id: x\n    shape: survey\n",
		"missing category": "forms:\n  - id: x\n    shape: application\n    fields: [{name: name}]\n    button_label: a\n    loading_label: b\n    success_text: c\n    failure_text: d\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := formmail.ParseCatalog([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "forms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	c, err := formmail.LoadCatalog(path)
	require.NoError(t, err)
	_, err = c.Form("stylist")
	assert.NoError(t, err)

	_, err = formmail.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSubmissionFrom(t *testing.T) {
	t.Parallel()

	values := map[string][]string{
		"website":   {"braam.example"},
		"email":     {"a@b.com"},
		"name":      {"Ava", "ignored"},
		"portfolio": {"file.pdf"},
		"brand":     {"AV"},
		"agree":     {"yes"},
	}

	sub := formmail.SubmissionFrom(formmail.DesignerForm(), values)
	assert.Equal(t, []string{"name", "email", "brand", "agree", "website"}, sub.Keys())
	assert.Equal(t, "Ava", sub.Get("name"))
	assert.False(t, sub.Has("portfolio"))
}
