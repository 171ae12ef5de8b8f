package formmail_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braamfashionweek/formmail"
)

func TestTemplateEngine_RegisterAndRender(t *testing.T) {
	t.Parallel()

	te, err := formmail.NewTemplateEngine(formmail.TemplateConfig{Enabled: true})
	require.NoError(t, err)

	require.NoError(t, te.RegisterTemplate("contact.subject", "Message from {{.from_name | title}}"))
	require.NoError(t, te.RegisterTemplate("contact.html", "<p>{{.message}}</p><p>{{phone .phone}}</p>"))

	data := map[string]string{"from_name": "ava doe", "message": "<b>hi</b>", "phone": "5551234567"}

	subject, err := te.Render("contact.subject", data)
	require.NoError(t, err)
	assert.Equal(t, "Message from Ava Doe", subject)

	html, err := te.Render("contact.html", data)
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;b&gt;hi&lt;/b&gt;</p><p>(555) 123-4567</p>", html)

	_, err = te.Render("missing", data)
	assert.ErrorIs(t, err, formmail.ErrTemplateNotFound)
}

func TestTemplateEngine_ParseError(t *testing.T) {
	t.Parallel()

	te, err := formmail.NewTemplateEngine(formmail.TemplateConfig{})
	require.NoError(t, err)

	err = te.RegisterTemplate("broken.text", "{{.name")
	var tplErr *formmail.TemplateError
	require.ErrorAs(t, err, &tplErr)
	assert.Equal(t, "parse", tplErr.Operation)
}

func TestTemplateEngine_LoadTemplatesFromDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "designer"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "designer", "subject.txt"), []byte("{{.application_type}} application"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.text.txt"), []byte("{{label \"skills\"}}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o600))

	te, err := formmail.NewTemplateEngine(formmail.TemplateConfig{
		Enabled:   true,
		Directory: dir,
		Extension: []string{".txt", ".html"},
	})
	require.NoError(t, err)

	out, err := te.Render("designer.subject", map[string]string{"application_type": "Designer"})
	require.NoError(t, err)
	assert.Equal(t, "Designer application", out)

	out, err = te.Render("contact.text", nil)
	require.NoError(t, err)
	assert.Equal(t, "Special Skills/Talents", out)

	_, err = te.Render("notes", nil)
	assert.ErrorIs(t, err, formmail.ErrTemplateNotFound)
}
