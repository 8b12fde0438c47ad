package render

import (
	"context"
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdotgordon/fieldval"
)

func failingMap() *fieldval.ErrorMap {
	m := fieldval.NewErrorMap()
	m.Set("password", fieldval.Invalid("Password must be of 5 character"))
	return m
}

func TestRenderDefaultTemplate(t *testing.T) {
	r := New(NewStore())

	out, err := r.Render(failingMap(), "")
	require.NoError(t, err)
	assert.Equal(t,
		`<div class="text-danger"><span>Password must be of 5 character</span></div>`, out)

	out, err = r.Render(fieldval.NewErrorMap(), "")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = r.Render(nil, "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderValidEntryHasNoMessage(t *testing.T) {
	m := fieldval.NewErrorMap()
	m.Set("password", fieldval.Valid())

	out, err := New(NewStore()).Render(m, "")
	require.NoError(t, err)
	assert.Equal(t, `<div class="text-danger"><span></span></div>`, out)
}

func TestRenderCustomTemplate(t *testing.T) {
	s := NewStore()
	s.Put("compact", `{% for key, value in errors %}{% if not value.isValid %}<small>{{ key }}: {{ value.errorMessage }}</small>{% endif %}{% endfor %}`)

	r := New(s)
	out, err := r.Render(failingMap(), "compact")
	require.NoError(t, err)
	assert.Equal(t, `<small>password: Password must be of 5 character</small>`, out)

	r = New(s, WithTemplateKey("compact"))
	out, err = r.Render(failingMap(), "")
	require.NoError(t, err)
	assert.Equal(t, `<small>password: Password must be of 5 character</small>`, out)

	// Edits to the store apply on the next render.
	s.Put("compact", `<em>{{ errors.password.errorMessage }}</em>`)
	out, err = r.Render(failingMap(), "")
	require.NoError(t, err)
	assert.Equal(t, `<em>Password must be of 5 character</em>`, out)
}

func TestRenderInclude(t *testing.T) {
	s := NewStore()
	s.Put("item", `<li>{{ value.errorMessage }}</li>`)
	s.Put("list", `<ul>{% for key, value in errors %}{% include "item" %}{% endfor %}</ul>`)

	out, err := New(s).Render(failingMap(), "list")
	require.NoError(t, err)
	assert.Equal(t, `<ul><li>Password must be of 5 character</li></ul>`, out)
}

func TestRenderMissingTemplate(t *testing.T) {
	_, err := New(NewStore()).Render(failingMap(), "nowhere")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = New(NewStore(), WithTemplateKey("nowhere")).Render(failingMap(), "")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderBrokenTemplate(t *testing.T) {
	s := NewStore()
	s.Put("broken", `{% for key in errors %}`)
	_, err := New(s).Render(failingMap(), "broken")
	assert.Error(t, err)
}

func TestRenderSanitizes(t *testing.T) {
	s := NewStore()
	s.Put("loud", `<script>alert(1)</script><p onclick="x()" class="hint">{{ errors.password.errorMessage }}</p>`)

	out, err := New(s).Render(failingMap(), "loud")
	require.NoError(t, err)
	assert.Equal(t, `<p class="hint">Password must be of 5 character</p>`, out)

	m := fieldval.NewErrorMap()
	m.Set("html", fieldval.Invalid("<b>bold</b>"))
	out, err = New(NewStore()).Render(m, "")
	require.NoError(t, err)
	assert.NotContains(t, out, "<b>")

	out, err = New(s, WithPolicy(bluemonday.UGCPolicy())).Render(failingMap(), "loud")
	require.NoError(t, err)
	assert.NotContains(t, out, "script")
	assert.Contains(t, out, "Password must be of 5 character")
}

type login struct {
	Password string `json:"password" validate:"password"`
}

func TestRenderControl(t *testing.T) {
	reg := fieldval.NewRegistry()
	reg.MustRegister("password", fieldval.ValidatorFunc(func(v any) fieldval.Result {
		if s, _ := v.(string); len(s) < 5 {
			return fieldval.Invalid("Password must be of 5 character")
		}
		return fieldval.Valid()
	}))
	b, err := fieldval.NewBinder(reg)
	require.NoError(t, err)
	form, err := b.BindStruct(login{})
	require.NoError(t, err)

	r := New(NewStore())

	// Nothing is shown before the user edits the field.
	_, err = form.Load(context.Background(), login{Password: "pass"})
	require.NoError(t, err)
	out, err := r.RenderControl(form, "password", "")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = form.Update(context.Background(), login{Password: "pass"})
	require.NoError(t, err)
	out, err = r.RenderControl(form, "password", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Password must be of 5 character")

	_, err = r.RenderControl(form, "username", "")
	assert.ErrorIs(t, err, ErrControlNotFound)
}

func TestFromConfigSelectsTemplate(t *testing.T) {
	t.Setenv("FIELDVAL_TEMPLATE_KEY", "compact")
	cfg, err := fieldval.LoadConfig()
	require.NoError(t, err)

	s := NewStore()
	s.Put("compact", `<small>{{ errors.password.errorMessage }}</small>`)

	out, err := FromConfig(cfg, s).Render(failingMap(), "")
	require.NoError(t, err)
	assert.Equal(t, `<small>Password must be of 5 character</small>`, out)

	// An explicit template still wins.
	out, err = FromConfig(cfg, s).Render(failingMap(), fieldval.DefaultTemplateKey)
	require.NoError(t, err)
	assert.Contains(t, out, `class="text-danger"`)
}

func TestFromConfigDefaultKey(t *testing.T) {
	out, err := FromConfig(fieldval.Config{TemplateKey: fieldval.DefaultTemplateKey}, NewStore()).
		Render(failingMap(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "Password must be of 5 character")
}
