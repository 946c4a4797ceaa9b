package template

import (
	"fmt"
	"maps"
	"reflect"
	"sync"
	"time"
	"unicode"

	"github.com/Masterminds/sprig/v3"
)

var errorType = reflect.TypeFor[error]()

// Registry holds the helper functions available to templates.
// Registration is keyed by name and the last registration wins.
type Registry struct {
	helpers map[string]any
	now     func() time.Time

	mu sync.RWMutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the wall clock used by currentYear and currentDate.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a registry seeded with the built-in helpers.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		helpers: make(map[string]any),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	maps.Copy(r.helpers, builtins(r.clock))
	return r
}

// clock reads the configured time source under lock so WithClock-style
// changes after construction stay race free.
func (r *Registry) clock() time.Time {
	r.mu.RLock()
	now := r.now
	r.mu.RUnlock()
	return now()
}

// Register adds or replaces a helper.
// fn must be a function returning one value, or a value and an error.
func (r *Registry) Register(name string, fn any) error {
	if err := checkHelper(name, fn); err != nil {
		return err
	}
	r.mu.Lock()
	r.helpers[name] = fn
	r.mu.Unlock()
	return nil
}

// RegisterAll registers every helper in the map.
// Nothing is registered if any entry is invalid.
func (r *Registry) RegisterAll(helpers map[string]any) error {
	for name, fn := range helpers {
		if err := checkHelper(name, fn); err != nil {
			return err
		}
	}
	r.mu.Lock()
	maps.Copy(r.helpers, helpers)
	r.mu.Unlock()
	return nil
}

// Has reports whether a helper with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.helpers[name]
	return ok
}

// funcMap returns a snapshot used for a single compilation.
func (r *Registry) funcMap() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.helpers)
}

// sprigFuncs is the sprig text function map, limited to functions that
// pass the helper rules.
var sprigFuncs = sync.OnceValue(func() map[string]any {
	funcs := make(map[string]any)
	for name, fn := range sprig.TxtFuncMap() {
		if checkHelper(name, fn) == nil {
			funcs[name] = fn
		}
	}
	return funcs
})

// checkHelper mirrors the rules text/template enforces in Funcs, returning an
// error instead of panicking at compile time.
func checkHelper(name string, fn any) error {
	if !goodName(name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidHelper, name)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("%w: %q is not a function", ErrInvalidHelper, name)
	}
	t := v.Type()
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return fmt.Errorf("%w: %q must return one value or a value and an error", ErrInvalidHelper, name)
	}
	return nil
}

func goodName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case i == 0 && !unicode.IsLetter(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return false
		}
	}
	return true
}
