package fieldval

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Options supported and passed to "NewBinder()".
const (
	// LogLevel selects how chatty the binder is.  The value is a
	// string: "off" (the default), "error", "warn", "info" or "trace".
	LogLevel = "LogLevel"

	// Logger routes the binder's output to a caller supplied
	// *zap.Logger instead of stderr.  Without LogLevel, every message
	// is handed to the logger and its core decides what to keep.
	Logger = "Logger"
)

// Option defines items for passing Binder configuration options.
type Option struct {
	Name  string
	Value interface{}
}

// A Binder attaches registered validators to controls.  It only reads
// the registry, so one binder can serve any number of controls.
type Binder struct {
	registry *Registry
	log      *logger
}

// A Binding describes what a single Bind call did.
type Binding struct {
	// Names is the parsed list, in declared order.
	Names []string
	// Bound lists the names that were installed.
	Bound []string
	// Missing holds one error per name the registry did not know.
	Missing []*ValidatorNotFoundError
}

// NewBinder returns a binder resolving names against reg.
func NewBinder(reg *Registry, options ...Option) (*Binder, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}

	level := logOff
	levelSet := false
	var zl *zap.Logger
	for _, opt := range options {
		switch opt.Name {
		case LogLevel:
			val, ok := opt.Value.(string)
			if !ok {
				return nil,
					fmt.Errorf("string value expected for Option %s", LogLevel)
			}
			lvl, err := parseLogLevel(val)
			if err != nil {
				return nil, err
			}
			level, levelSet = lvl, true
		case Logger:
			val, ok := opt.Value.(*zap.Logger)
			if !ok {
				return nil,
					fmt.Errorf("*zap.Logger value expected for Option %s", Logger)
			}
			zl = val
		default:
			return nil, fmt.Errorf("unknown option: %s", opt.Name)
		}
	}

	b := &Binder{registry: reg}
	if zl != nil {
		if !levelSet {
			level = logTrace
		}
		b.log = wrapZap(zl, level)
	} else {
		b.log = newLogger(os.Stderr, level)
	}
	return b, nil
}

// ParseNames splits a comma separated list of validator names,
// trimming blanks and dropping empty entries.  Order is preserved.
func ParseNames(attr string) []string {
	var names []string
	for _, part := range strings.Split(attr, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Bind installs the validators named in attr onto p, replacing
// whatever an earlier Bind installed.  The error map is reset first.
// Unknown names are logged and skipped; they never stop the remaining
// names from being bound.  A name listed twice is bound once.
func (b *Binder) Bind(p Pipeline, attr string) *Binding {
	binding := &Binding{Names: ParseNames(attr)}
	p.ClearValidators()
	errs := p.Errors()
	errs.Reset()

	seen := make(map[string]bool, len(binding.Names))
	for _, name := range binding.Names {
		if seen[name] {
			b.log.warn("validator '%s' listed more than once", name)
			continue
		}
		seen[name] = true

		d := b.registry.Get(name)
		if d == nil {
			nf := &ValidatorNotFoundError{Name: name}
			b.log.err("%v", nf)
			binding.Missing = append(binding.Missing, nf)
			continue
		}

		switch d.Kind {
		case Async:
			p.AddAsyncValidator(name, asyncAdapter(name, d.Async, errs))
		default:
			p.AddValidator(name, syncAdapter(name, d.Sync, errs))
		}
		b.log.trace("bound %s validator '%s'", d.Kind, name)
		binding.Bound = append(binding.Bound, name)
	}
	return binding
}

// syncAdapter calls v and records its result while the control is
// dirty; on a pristine control the entry is cleared instead.
func syncAdapter(name string, v Validator, errs *ErrorMap) SyncAdapter {
	return func(modelValue, viewValue any, state State) bool {
		r := v.Validate(selectValue(modelValue, viewValue))
		record(errs, name, r, state)
		return r.IsValid
	}
}

// asyncAdapter calls v and records whichever result the future
// settles with, under the same dirty rule.  A result arriving after a
// newer run started is dropped.  The future itself goes back to the
// pipeline.
func asyncAdapter(name string, v AsyncValidator, errs *ErrorMap) AsyncAdapter {
	return func(ctx context.Context, modelValue, viewValue any, state State, publish Publish) *Future {
		f := v.ValidateAsync(ctx, selectValue(modelValue, viewValue))
		if f == nil {
			f = Rejected(Invalid(fmt.Sprintf("validator '%s' returned no future", name)))
		}
		f.OnSettle(func(r Result, _ bool) {
			publish(func() { record(errs, name, r, state) })
		})
		return f
	}
}

func record(errs *ErrorMap, name string, r Result, state State) {
	if state == Dirty {
		errs.Set(name, r)
		return
	}
	errs.Delete(name)
}

// selectValue prefers the model value and falls back to the view value
// when the model value is nil or an empty string.
func selectValue(modelValue, viewValue any) any {
	switch m := modelValue.(type) {
	case nil:
		return viewValue
	case string:
		if m == "" {
			return viewValue
		}
	}
	return modelValue
}
