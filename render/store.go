package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/gdotgordon/fieldval"
)

// DefaultTemplate lists every entry of the error map and shows its
// errorMessage.
const DefaultTemplate = `{% for key, value in errors %}` +
	`<div class="text-danger"><span>{{ value.errorMessage }}</span></div>` +
	`{% endfor %}`

// Store keeps template markup by name for the lifetime of the process.
// Templates rendered from it may include each other by name.
type Store struct {
	items *cache.Cache
}

// NewStore returns a store seeded with DefaultTemplate under
// fieldval.DefaultTemplateKey.
func NewStore() *Store {
	s := &Store{items: cache.New(cache.NoExpiration, 0)}
	s.Seed(fieldval.DefaultTemplateKey, DefaultTemplate)
	return s
}

// Seed stores markup under name only if nothing is stored there yet.
// It reports whether it did.
func (s *Store) Seed(name, markup string) bool {
	return s.items.Add(name, markup, cache.NoExpiration) == nil
}

// Put stores markup under name, replacing what was there.
func (s *Store) Put(name, markup string) {
	s.items.Set(name, markup, cache.NoExpiration)
}

// Get returns the markup stored under name.
func (s *Store) Get(name string) (string, bool) {
	v, ok := s.items.Get(name)
	if !ok {
		return "", false
	}
	markup, ok := v.(string)
	return markup, ok
}

// Names returns the stored template names, sorted.
func (s *Store) Names() []string {
	items := s.items.Items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loader exposes a Store to pongo2 as a TemplateLoader.
type loader struct {
	store *Store
}

// Abs returns name unchanged; store names are already absolute.
func (l loader) Abs(_, name string) string {
	return name
}

func (l loader) Get(name string) (io.Reader, error) {
	markup, ok := l.store.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return strings.NewReader(markup), nil
}
