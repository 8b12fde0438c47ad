package fieldval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Validator checks a value synchronously.
type Validator interface {
	Validate(value any) Result
}

// ValidatorFunc adapts a plain function, or a method value carrying
// its receiver, to Validator.
type ValidatorFunc func(value any) Result

// Validate calls f(value).
func (f ValidatorFunc) Validate(value any) Result {
	return f(value)
}

// AsyncValidator checks a value and reports through a Future.
type AsyncValidator interface {
	ValidateAsync(ctx context.Context, value any) *Future
}

// AsyncValidatorFunc adapts a plain function to AsyncValidator.
type AsyncValidatorFunc func(ctx context.Context, value any) *Future

// ValidateAsync calls f(ctx, value).
func (f AsyncValidatorFunc) ValidateAsync(ctx context.Context, value any) *Future {
	return f(ctx, value)
}

// Kind tells which pipeline slot a validator belongs in.
type Kind int

const (
	Sync Kind = iota
	Async
)

func (k Kind) String() string {
	if k == Async {
		return "async"
	}
	return "sync"
}

// A Descriptor is what the registry holds for one name.  Exactly one
// of Sync and Async is set, matching Kind.
type Descriptor struct {
	Name  string
	Kind  Kind
	Sync  Validator
	Async AsyncValidator
}

// RegisterOption tweaks a single registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	override bool
}

// WithOverride lets the registration replace an existing validator of
// the same name instead of failing.
func WithOverride() RegisterOption {
	return func(c *registerConfig) { c.override = true }
}

// Registry maps validator names to descriptors.  It is created once at
// the composition root and handed to whatever binds controls; it is
// safe for concurrent use.  Entries are never removed.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]*Descriptor)}
}

// Register adds a synchronous validator under name.  Registering a
// name twice returns a *DuplicateNameError unless WithOverride is given.
func (r *Registry) Register(name string, v Validator, opts ...RegisterOption) error {
	if v == nil {
		return fmt.Errorf("%w: validator %q is nil", ErrInvalidRegistration, name)
	}
	return r.add(&Descriptor{Name: name, Kind: Sync, Sync: v}, opts)
}

// RegisterAsync adds an asynchronous validator under name, with the
// same duplicate rules as Register.
func (r *Registry) RegisterAsync(name string, v AsyncValidator, opts ...RegisterOption) error {
	if v == nil {
		return fmt.Errorf("%w: validator %q is nil", ErrInvalidRegistration, name)
	}
	return r.add(&Descriptor{Name: name, Kind: Async, Async: v}, opts)
}

// MustRegister panics on registration failure.  Useful for init-time wiring.
func (r *Registry) MustRegister(name string, v Validator, opts ...RegisterOption) {
	if err := r.Register(name, v, opts...); err != nil {
		panic(err)
	}
}

// MustRegisterAsync panics on registration failure.
func (r *Registry) MustRegisterAsync(name string, v AsyncValidator, opts ...RegisterOption) {
	if err := r.RegisterAsync(name, v, opts...); err != nil {
		panic(err)
	}
}

func (r *Registry) add(d *Descriptor, opts []RegisterOption) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	}
	var cfg registerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.validators[d.Name]; exists && !cfg.override {
		return &DuplicateNameError{Name: d.Name}
	}
	r.validators[d.Name] = d
	return nil
}

// Get returns the descriptor registered under name, or nil.
func (r *Registry) Get(name string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validators[name]
}

// Names returns a sorted list of registered names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDuplicate reports whether err came from a duplicate registration.
func IsDuplicate(err error) bool {
	var dup *DuplicateNameError
	return errors.As(err, &dup)
}
