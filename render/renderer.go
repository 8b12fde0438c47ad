// Package render turns a control's error map into markup, using
// pongo2 templates kept in a Store.
package render

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/gdotgordon/fieldval"
)

var (
	// ErrTemplateNotFound is returned when a template name has no markup in the store.
	ErrTemplateNotFound = errors.New("render: template not found")

	// ErrControlNotFound is returned when a form has no control of the requested name.
	ErrControlNotFound = errors.New("render: control not found")
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplateKey sets the template used when Render is not given one.
func WithTemplateKey(key string) Option {
	return func(r *Renderer) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			r.key = trimmed
		}
	}
}

// WithPolicy replaces the policy applied to rendered markup.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(r *Renderer) {
		if p != nil {
			r.policy = p
		}
	}
}

// Renderer renders error maps with templates from a Store.
type Renderer struct {
	store  *Store
	key    string
	set    *pongo2.TemplateSet
	policy *bluemonday.Policy

	mu sync.Mutex
}

// New returns a renderer reading templates from store.
func New(store *Store, opts ...Option) *Renderer {
	r := &Renderer{
		store:  store,
		key:    fieldval.DefaultTemplateKey,
		set:    pongo2.NewSet("fieldval", loader{store}),
		policy: messagePolicy(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// FromConfig returns a renderer reading templates from store whose
// default template is the one cfg.TemplateKey names.
func FromConfig(cfg fieldval.Config, store *Store, opts ...Option) *Renderer {
	return New(store, append([]Option{WithTemplateKey(cfg.TemplateKey)}, opts...)...)
}

// messagePolicy allows the handful of elements message templates use,
// with class and role attributes, and strips everything else.
func messagePolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("div", "span", "p", "ul", "ol", "li", "small", "strong", "em")
	p.AllowAttrs("class", "role").Globally()
	return p
}

// Render renders errs with the template stored under tpl, or under the
// renderer's default key when tpl is empty.  The template sees the map
// as "errors", each entry carrying isValid and errorMessage.
func (r *Renderer) Render(errs *fieldval.ErrorMap, tpl string) (string, error) {
	name := strings.TrimSpace(tpl)
	if name == "" {
		name = r.key
	}
	markup, ok := r.store.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	t, err := r.compile(markup)
	if err != nil {
		return "", fmt.Errorf("render: parse template %q: %w", name, err)
	}

	data := map[string]any{}
	if errs != nil {
		data = errs.Context()
	}
	out, err := t.Execute(pongo2.Context{"errors": data})
	if err != nil {
		return "", fmt.Errorf("render: execute template %q: %w", name, err)
	}
	return r.policy.Sanitize(out), nil
}

// RenderControl renders the error map of the form control named model.
func (r *Renderer) RenderControl(form *fieldval.Form, model, tpl string) (string, error) {
	c := form.Control(model)
	if c == nil {
		return "", fmt.Errorf("%w: %q", ErrControlNotFound, model)
	}
	return r.Render(c.Errors(), tpl)
}

// compile parses markup on every render so that edits to the store,
// including to templates pulled in by include, show up immediately.
// The template set is not safe for concurrent parsing.
func (r *Renderer) compile(markup string) (*pongo2.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.FromString(markup)
}
