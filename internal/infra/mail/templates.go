package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// ErrUnknownTemplate is returned when a letter key has no template.
var ErrUnknownTemplate = errors.New("unknown letter template")

//go:embed templates/*.tmpl
var templateFS embed.FS

// Branding holds the site specific substitution fields shared by every letter.
type Branding struct {
	InstitutionName string
	ContactEmail    string
	SiteURL         string
	Signature       string
}

// ItemFields is the item description printed in a letter.
type ItemFields struct {
	Title     string
	Year      string
	Author    string
	ISBN      string
	Publisher string
}

// Letter is the data a recall template is executed with.
type Letter struct {
	Branding
	BorrowerName    string
	Item            ItemFields
	DueDate         string
	PreviousLetters int
}

var subjects = map[string]string{
	"RECALL1":     "Loan recall: %s",
	"RECALL2":     "Second loan recall: %s",
	"RECALL3":     "Final loan recall: %s",
	"ILL_RECALL1": "Inter-library loan recall: %s",
	"ILL_RECALL2": "Second inter-library loan recall: %s",
	"ILL_RECALL3": "Final inter-library loan recall: %s",
}

// Renderer renders recall letters from the embedded template set.
type Renderer struct {
	branding Branding
	tmpl     *template.Template
}

func NewRenderer(branding Branding) (*Renderer, error) {
	tmpl, err := template.New("letters").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse letter templates: %w", err)
	}
	for key := range subjects {
		if tmpl.Lookup(key+".tmpl") == nil {
			return nil, fmt.Errorf("letter template %s is missing", key)
		}
	}
	return &Renderer{branding: branding, tmpl: tmpl}, nil
}

// Render returns the subject and body of the letter with the given key.
// Branding fields left empty in letter are filled from the renderer's branding.
func (r *Renderer) Render(key string, letter Letter) (string, string, error) {
	subject, ok := subjects[key]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, key)
	}
	if letter.Branding == (Branding{}) {
		letter.Branding = r.branding
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, key+".tmpl", letter); err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", key, err)
	}

	title := letter.Item.Title
	if title == "" {
		title = "library item"
	}
	return fmt.Sprintf(subject, title), buf.String(), nil
}

// Keys returns the letter keys the renderer knows about.
func (r *Renderer) Keys() []string {
	keys := make([]string, 0, len(subjects))
	for k := range subjects {
		keys = append(keys, k)
	}
	return keys
}
