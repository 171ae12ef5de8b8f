package formmail

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	textTemplate "text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngineImpl implements the TemplateEngine interface.
// Names containing ".html" are parsed with html/template, all others with
// text/template.
type TemplateEngineImpl struct {
	config        TemplateConfig
	htmlTemplates map[string]*template.Template
	textTemplates map[string]*textTemplate.Template
	mutex         sync.RWMutex
}

// NewTemplateEngine creates a new template engine with the given configuration.
func NewTemplateEngine(config TemplateConfig) (TemplateEngine, error) {
	engine := &TemplateEngineImpl{
		config:        config,
		htmlTemplates: make(map[string]*template.Template),
		textTemplates: make(map[string]*textTemplate.Template),
	}

	if config.Directory != "" {
		if err := engine.LoadTemplatesFromDir(config.Directory); err != nil {
			return nil, fmt.Errorf("failed to load templates from directory: %w", err)
		}
	}

	return engine, nil
}

// Render renders a template with the provided data.
func (te *TemplateEngineImpl) Render(templateName string, data interface{}) (string, error) {
	te.mutex.RLock()
	defer te.mutex.RUnlock()

	if htmlTmpl, exists := te.htmlTemplates[templateName]; exists {
		var buf strings.Builder
		if err := htmlTmpl.Execute(&buf, data); err != nil {
			return "", NewTemplateError(templateName, "render", "failed to execute HTML template", err)
		}
		return buf.String(), nil
	}

	if textTmpl, exists := te.textTemplates[templateName]; exists {
		var buf strings.Builder
		if err := textTmpl.Execute(&buf, data); err != nil {
			return "", NewTemplateError(templateName, "render", "failed to execute text template", err)
		}
		return buf.String(), nil
	}

	return "", ErrTemplateNotFound
}

// RegisterTemplate registers a template with the given name and content.
func (te *TemplateEngineImpl) RegisterTemplate(name string, content string) error {
	te.mutex.Lock()
	defer te.mutex.Unlock()

	if strings.HasSuffix(name, ".html") {
		tmpl, err := template.New(name).Funcs(template.FuncMap(templateFuncs())).Parse(content)
		if err != nil {
			return NewTemplateError(name, "parse", "failed to parse HTML template", err)
		}
		te.htmlTemplates[name] = tmpl
		return nil
	}

	tmpl, err := textTemplate.New(name).Funcs(textTemplate.FuncMap(templateFuncs())).Parse(content)
	if err != nil {
		return NewTemplateError(name, "parse", "failed to parse text template", err)
	}
	te.textTemplates[name] = tmpl

	return nil
}

// LoadTemplatesFromDir loads all templates from the specified directory.
// A file contact/subject.txt or contact.subject.txt registers "contact.subject";
// contact.html.html registers "contact.html".
func (te *TemplateEngineImpl) LoadTemplatesFromDir(dir string) error {
	cleanDir := filepath.Clean(dir)

	return filepath.WalkDir(cleanDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		cleanPath := filepath.Clean(path)
		if !isPathWithinDir(cleanPath, cleanDir) {
			return fmt.Errorf("security error: path traversal detected: %s", path)
		}

		ext := filepath.Ext(path)
		if !te.validExtension(ext) {
			return nil
		}

		content, err := os.ReadFile(cleanPath)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", cleanPath, err)
		}

		relativePath, err := filepath.Rel(cleanDir, cleanPath)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}

		templateName := strings.TrimSuffix(relativePath, ext)
		templateName = strings.ReplaceAll(templateName, string(filepath.Separator), ".")

		if err := te.RegisterTemplate(templateName, string(content)); err != nil {
			return fmt.Errorf("failed to register template %s: %w", templateName, err)
		}

		return nil
	})
}

func (te *TemplateEngineImpl) validExtension(ext string) bool {
	for _, valid := range te.config.Extension {
		if ext == valid {
			return true
		}
	}
	return false
}

// Close clears the registered templates.
func (te *TemplateEngineImpl) Close() error {
	te.mutex.Lock()
	defer te.mutex.Unlock()

	te.htmlTemplates = make(map[string]*template.Template)
	te.textTemplates = make(map[string]*textTemplate.Template)

	return nil
}

// templateFuncs is shared by html and text templates. Both FuncMap types are
// map[string]any so a single map converts to either.
func templateFuncs() map[string]any {
	titleCaser := cases.Title(language.English)
	return map[string]any{
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    titleCaser.String,
		"trim":     strings.TrimSpace,
		"join":     strings.Join,
		"replace":  strings.ReplaceAll,
		"contains": strings.Contains,
		"label":    Label,
		"phone":    FormatPhone,
		"now":      time.Now,
		"formatTime": func(format string, t time.Time) string {
			return t.Format(format)
		},
		"default": func(defaultValue, value string) string {
			if strings.TrimSpace(value) == "" {
				return defaultValue
			}
			return value
		},
	}
}

// isPathWithinDir reports whether path is inside dir.
func isPathWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
