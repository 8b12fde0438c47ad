package fieldval

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// State is the interaction state of a control.
type State int

const (
	// Pristine controls have not been modified by the user.
	Pristine State = iota
	// Dirty controls have.  The transition is one way until SetPristine.
	Dirty
)

func (s State) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "pristine"
}

// SyncAdapter is a synchronous pipeline entry.  It receives the
// candidate model value, the view value and the interaction state at
// the time of the run, and reports pass or fail.
type SyncAdapter func(modelValue, viewValue any, state State) bool

// AsyncAdapter is an asynchronous pipeline entry.  The returned future
// decides the outcome: rejection fails, resolution passes.  Anything
// the entry records once the future settles goes through publish.
type AsyncAdapter func(ctx context.Context, modelValue, viewValue any, state State, publish Publish) *Future

// Publish calls write only if the run it was handed to is still the
// latest one.  A newer run cannot start while write is running.
type Publish func(write func())

// Pipeline is the hook point a Binder populates.  Control is the
// implementation in this package.
type Pipeline interface {
	AddValidator(name string, fn SyncAdapter)
	AddAsyncValidator(name string, fn AsyncAdapter)
	ClearValidators()
	Errors() *ErrorMap
}

// ParseKey is the validity key recorded when the parser rejects a view value.
const ParseKey = "parse"

// ControlOption configures a Control.
type ControlOption func(*Control)

// WithParser converts view values into model values before
// validation.  A parse error fails the control without running any
// validator.
func WithParser(fn func(viewValue any) (any, error)) ControlOption {
	return func(c *Control) {
		if fn != nil {
			c.parser = fn
		}
	}
}

// WithAllowInvalid keeps the parsed value as the model value even
// when validation fails.  By default an invalid value leaves the
// model value nil.
func WithAllowInvalid() ControlOption {
	return func(c *Control) { c.allowInvalid = true }
}

type syncSlot struct {
	name string
	fn   SyncAdapter
}

type asyncSlot struct {
	name string
	fn   AsyncAdapter
}

// Control is a single form field with an ordered validation pipeline.
// All synchronous entries run in the order they were added, and the
// first failure stops the run; asynchronous entries start only after
// every synchronous entry passed.
type Control struct {
	name         string
	parser       func(any) (any, error)
	allowInvalid bool
	errors       *ErrorMap

	mu         sync.Mutex
	state      State
	view       any
	raw        any
	model      any
	valid      bool
	pending    bool
	run        uint64
	validity   map[string]bool
	validators []syncSlot
	asyncs     []asyncSlot
}

var _ Pipeline = (*Control)(nil)

// NewControl creates a pristine, valid control with an empty pipeline.
func NewControl(name string, opts ...ControlOption) *Control {
	c := &Control{
		name:     name,
		parser:   func(v any) (any, error) { return v, nil },
		errors:   NewErrorMap(),
		valid:    true,
		validity: make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Name returns the control name.
func (c *Control) Name() string {
	return c.name
}

// Errors returns the control's error map.
func (c *Control) Errors() *ErrorMap {
	return c.errors
}

// AddValidator appends a synchronous entry, or replaces the entry of
// the same name in place.
func (c *Control) AddValidator(name string, fn SyncAdapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.validators {
		if c.validators[i].name == name {
			c.validators[i].fn = fn
			return
		}
	}
	c.validators = append(c.validators, syncSlot{name, fn})
}

// AddAsyncValidator appends an asynchronous entry, or replaces the
// entry of the same name in place.
func (c *Control) AddAsyncValidator(name string, fn AsyncAdapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.asyncs {
		if c.asyncs[i].name == name {
			c.asyncs[i].fn = fn
			return
		}
	}
	c.asyncs = append(c.asyncs, asyncSlot{name, fn})
}

// ClearValidators empties both pipelines.
func (c *Control) ClearValidators() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validators = nil
	c.asyncs = nil
}

// State returns the interaction state.
func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetDirty marks the control as modified by the user.
func (c *Control) SetDirty() {
	c.mu.Lock()
	c.state = Dirty
	c.mu.Unlock()
}

// SetPristine returns the control to the pristine state and clears
// its error map.
func (c *Control) SetPristine() {
	c.mu.Lock()
	c.state = Pristine
	c.mu.Unlock()
	c.errors.Reset()
}

// SetViewValue records user input: the control becomes dirty, the
// value is parsed and the pipeline runs.
func (c *Control) SetViewValue(ctx context.Context, v any) (bool, error) {
	c.mu.Lock()
	c.state = Dirty
	c.view = v
	c.run++
	id := c.run
	c.mu.Unlock()
	return c.parseAndValidate(ctx, id, v)
}

// SetModelValue sets the value programmatically.  The interaction
// state is left alone, so a pristine control keeps an empty error map.
func (c *Control) SetModelValue(ctx context.Context, v any) (bool, error) {
	c.mu.Lock()
	c.view = v
	c.run++
	id := c.run
	c.mu.Unlock()
	return c.parseAndValidate(ctx, id, v)
}

// parseAndValidate runs the parser outside the lock.  Runs are ordered
// by the time their value was set, not by when parsing finished.
func (c *Control) parseAndValidate(ctx context.Context, id uint64, view any) (bool, error) {
	raw, err := c.parser(view)

	c.mu.Lock()
	if err != nil {
		if c.run == id {
			c.raw, c.model = nil, nil
			c.valid, c.pending = false, false
			c.validity = map[string]bool{ParseKey: false}
		}
		c.mu.Unlock()
		return false, nil
	}
	if c.run == id {
		c.raw = raw
	}
	r := c.capture(id, raw, view)
	c.mu.Unlock()
	return c.execute(ctx, r)
}

// A snapshot is what one validation run works on.
type snapshot struct {
	id         uint64
	raw, view  any
	state      State
	validators []syncSlot
	asyncs     []asyncSlot
}

// capture snapshots the pipeline for run id.  The caller holds c.mu.
func (c *Control) capture(id uint64, raw, view any) snapshot {
	return snapshot{
		id:         id,
		raw:        raw,
		view:       view,
		state:      c.state,
		validators: append([]syncSlot(nil), c.validators...),
		asyncs:     append([]asyncSlot(nil), c.asyncs...),
	}
}

// Validate runs the pipeline against the current values.  It returns
// the overall validity, or the context error when ctx ended before
// the asynchronous entries settled; the control then stays pending.
func (c *Control) Validate(ctx context.Context) (bool, error) {
	c.mu.Lock()
	c.run++
	r := c.capture(c.run, c.raw, c.view)
	c.mu.Unlock()
	return c.execute(ctx, r)
}

func (c *Control) execute(ctx context.Context, r snapshot) (bool, error) {
	validity := make(map[string]bool, len(r.validators)+len(r.asyncs))
	ok := true
	for _, s := range r.validators {
		pass := s.fn(r.raw, r.view, r.state)
		validity[s.name] = pass
		if !pass {
			ok = false
			break
		}
	}

	if !ok || len(r.asyncs) == 0 {
		c.commit(r, ok, validity)
		return ok, nil
	}

	c.mu.Lock()
	if c.run == r.id {
		c.pending = true
	}
	c.mu.Unlock()

	publish := func(write func()) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.run == r.id {
			write()
		}
	}
	futures := make([]*Future, len(r.asyncs))
	for i, s := range r.asyncs {
		futures[i] = s.fn(ctx, r.raw, r.view, r.state, publish)
	}

	results := make([]bool, len(r.asyncs))
	var g errgroup.Group
	for i, f := range futures {
		if f == nil {
			continue
		}
		i, f := i, f
		g.Go(func() error {
			_, err := f.Await(ctx)
			if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr {
				return err
			}
			results[i] = err == nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	for i, s := range r.asyncs {
		validity[s.name] = results[i]
		if !results[i] {
			ok = false
		}
	}
	c.commit(r, ok, validity)
	return ok, nil
}

// commit publishes the outcome of a run unless a newer run started.
func (c *Control) commit(r snapshot, ok bool, validity map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.id != c.run {
		return
	}
	c.valid = ok
	c.pending = false
	c.validity = validity
	if ok || c.allowInvalid {
		c.model = r.raw
	} else {
		c.model = nil
	}
}

// Valid reports the outcome of the latest completed run.
func (c *Control) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Pending reports whether asynchronous entries are still outstanding.
func (c *Control) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Validity returns the pass/fail outcome of every entry that ran in
// the latest completed run.
func (c *Control) Validity() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]bool, len(c.validity))
	for k, v := range c.validity {
		out[k] = v
	}
	return out
}

// ModelValue returns the committed model value.
func (c *Control) ModelValue() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// ViewValue returns the last view value.
func (c *Control) ViewValue() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}
