package fieldval

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// ValidateTag is the struct tag holding a comma separated list of
// validator names, e.g.
//
//	Password string `json:"password" validate:"required,password"`
const ValidateTag = "validate"

// A Form is a set of controls bound from the tagged fields of one
// struct type.  Controls are named after the field's JSON name (or Go
// name when there is none), with nested structs joined by dots.
type Form struct {
	typ      reflect.Type
	order    []string
	controls map[string]*Control
	index    map[string][]int
	bindings map[string]*Binding
}

// BindStruct walks item, which must be a struct or a pointer to one,
// and binds a control for every exported field carrying a validate
// tag.  Fields tagged json:"-" are skipped.  The field values are not
// loaded; call Load or Update for that.
func (b *Binder) BindStruct(item any, opts ...ControlOption) (*Form, error) {
	t := reflect.TypeOf(item)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", ErrNotStruct, item)
	}

	f := &Form{
		typ:      t,
		controls: make(map[string]*Control),
		index:    make(map[string][]int),
		bindings: make(map[string]*Binding),
	}
	b.traverse(f, t, "", nil, opts, map[reflect.Type]bool{})
	b.log.info("bound form %v with %d controls", t, len(f.order))
	return f, nil
}

// traverse descends into nested structs, which is where further tags
// may live.  Pointers to structs are followed at the type level; a
// type already on the current path is not entered again.
func (b *Binder) traverse(f *Form, t reflect.Type, prefix string,
	index []int, opts []ControlOption, visiting map[reflect.Type]bool) {
	visiting[t] = true
	defer delete(visiting, t)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !isExported(sf.Name) {
			continue
		}

		name, tagged := sf.Name, false
		if jtag, ok := sf.Tag.Lookup("json"); ok {
			jname, _, _ := strings.Cut(jtag, ",")
			if jname == "-" {
				continue
			}
			if jname != "" {
				name, tagged = jname, true
			}
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		path := append(append([]int(nil), index...), i)

		if tag, ok := sf.Tag.Lookup(ValidateTag); ok {
			c := NewControl(name, opts...)
			f.order = append(f.order, name)
			f.controls[name] = c
			f.index[name] = path
			f.bindings[name] = b.Bind(c, tag)
			b.log.trace("field %s -> control '%s' (%s)", sf.Name, name, tag)
		}

		ft := sf.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && !visiting[ft] {
			// Untagged embedded structs promote their fields, as in JSON.
			next := name
			if sf.Anonymous && !tagged {
				next = prefix
			}
			b.traverse(f, ft, next, path, opts, visiting)
		}
	}
}

func isExported(name string) bool {
	for _, c := range name {
		return unicode.IsUpper(c)
	}
	return false
}

// Names returns the control names in field order.
func (f *Form) Names() []string {
	return append([]string(nil), f.order...)
}

// Control returns the control bound to name, or nil.
func (f *Form) Control(name string) *Control {
	return f.controls[name]
}

// Binding returns what binding the named control did, or nil.
func (f *Form) Binding(name string) *Binding {
	return f.bindings[name]
}

// Update treats the field values of item as user input: every control
// becomes dirty and is validated.  It reports whether all controls are
// valid.
func (f *Form) Update(ctx context.Context, item any) (bool, error) {
	return f.each(ctx, item, (*Control).SetViewValue)
}

// Load sets the field values programmatically, leaving interaction
// state untouched.
func (f *Form) Load(ctx context.Context, item any) (bool, error) {
	return f.each(ctx, item, (*Control).SetModelValue)
}

func (f *Form) each(ctx context.Context, item any,
	set func(*Control, context.Context, any) (bool, error)) (bool, error) {
	rv := reflect.ValueOf(item)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != f.typ {
		return false, fmt.Errorf("%w: form bound to %v, got %T", ErrNotStruct, f.typ, item)
	}

	ok := true
	for _, name := range f.order {
		valid, err := set(f.controls[name], ctx, fieldValue(rv, f.index[name]))
		if err != nil {
			return false, err
		}
		ok = ok && valid
	}
	return ok, nil
}

// fieldValue follows an index path, yielding nil when a pointer on the
// way is nil.
func fieldValue(rv reflect.Value, path []int) any {
	for _, i := range path {
		for rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return nil
			}
			rv = rv.Elem()
		}
		rv = rv.Field(i)
	}
	if rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// Valid reports whether every control is valid.
func (f *Form) Valid() bool {
	for _, c := range f.controls {
		if !c.Valid() {
			return false
		}
	}
	return true
}
