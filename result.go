package fieldval

import (
	"fmt"
	"io"
	"sync"
)

// A Result is the outcome of a single validator invocation.  It is
// produced fresh on every call and never modified afterwards.
type Result struct {
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Valid is shorthand for a passing Result.
func Valid() Result {
	return Result{IsValid: true}
}

// Invalid is shorthand for a failing Result carrying a message.
func Invalid(msg string) Result {
	return Result{IsValid: false, ErrorMessage: msg}
}

func (r Result) String() string {
	if r.IsValid {
		return "ok"
	}
	return fmt.Sprintf("failed: '%s'", r.ErrorMessage)
}

// An Entry pairs a validator name with its latest Result.
type Entry struct {
	Name   string
	Result Result
}

// ErrorMap holds the latest Result of each validator bound to a
// control, keyed by validator name.  Entries keep the order in which
// they were first written.  Only the control's own adapters write to
// it; renderers read it.
type ErrorMap struct {
	mu      sync.RWMutex
	order   []string
	results map[string]Result
}

// NewErrorMap returns an empty map.
func NewErrorMap() *ErrorMap {
	return &ErrorMap{results: make(map[string]Result)}
}

// Set stores the result for name.
func (m *ErrorMap) Set(name string, r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[name]; !ok {
		m.order = append(m.order, name)
	}
	m.results[name] = r
}

// Delete drops the entry for name, if any.
func (m *ErrorMap) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[name]; !ok {
		return
	}
	delete(m.results, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Reset empties the map.
func (m *ErrorMap) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = nil
	m.results = make(map[string]Result)
}

// Get returns the result stored for name.
func (m *ErrorMap) Get(name string) (Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[name]
	return r, ok
}

// Len reports the number of entries.
func (m *ErrorMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}

// Names returns the entry names in insertion order.
func (m *ErrorMap) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Entries returns a copy of the entries in insertion order.
func (m *ErrorMap) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, Entry{n, m.results[n]})
	}
	return out
}

// Snapshot returns a copy of the map contents.
func (m *ErrorMap) Snapshot() map[string]Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Result, len(m.results))
	for k, v := range m.results {
		out[k] = v
	}
	return out
}

// Context returns the contents keyed the way templates address them:
// each entry is a map with "isValid" and, when set, "errorMessage".
func (m *ErrorMap) Context() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.results))
	for k, v := range m.results {
		entry := map[string]any{"isValid": v.IsValid}
		if v.ErrorMessage != "" {
			entry["errorMessage"] = v.ErrorMessage
		}
		out[k] = entry
	}
	return out
}

// PrintResults shows the entries of an error map, one per line.
func PrintResults(w io.Writer, m *ErrorMap) {
	fmt.Fprintln(w, "Results:")
	for _, e := range m.Entries() {
		fmt.Fprintf(w, "'%s': %s\n", e.Name, e.Result)
	}
}
