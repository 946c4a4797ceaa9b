package template

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	htmltemplate "html/template"
	"maps"
	"sync"
	texttemplate "text/template"

	"golang.org/x/sync/singleflight"
)

// Compiled is a parsed template ready for repeated execution.
// It is immutable and safe for concurrent use.
type Compiled struct {
	tmpl *htmltemplate.Template
	key  string
}

// Key returns the cache key the template was compiled under, if any.
func (c *Compiled) Key() string {
	return c.key
}

// Execute renders the template with data.
func (c *Compiled) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// Renderer compiles templates against a helper registry and caches them by key.
type Renderer struct {
	registry *Registry
	cache    map[string]*Compiled
	group    singleflight.Group
	sprig    bool

	mu sync.RWMutex
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRegistry makes the renderer use a shared helper registry.
func WithRegistry(reg *Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithSprig adds the sprig function library beneath the registry helpers.
// It applies to this renderer only, even when the registry is shared.
func WithSprig() Option {
	return func(r *Renderer) {
		r.sprig = true
	}
}

// NewRenderer creates a renderer with its own registry unless WithRegistry is given.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		cache: make(map[string]*Compiled),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = NewRegistry()
	}
	return r
}

// funcMap snapshots the functions for one compilation: sprig first when
// enabled, then registry helpers, which win on name clashes.
func (r *Renderer) funcMap() map[string]any {
	helpers := r.registry.funcMap()
	if !r.sprig {
		return helpers
	}
	base := sprigFuncs()
	fm := make(map[string]any, len(base)+len(helpers))
	maps.Copy(fm, base)
	maps.Copy(fm, helpers)
	return fm
}

var (
	defaultRenderer     *Renderer
	defaultRendererOnce sync.Once
)

// Default returns a process-wide renderer for call sites that do not own one.
// Prefer NewRenderer wherever helper registrations must stay isolated.
func Default() *Renderer {
	defaultRendererOnce.Do(func() {
		defaultRenderer = NewRenderer()
	})
	return defaultRenderer
}

// CacheKey derives a deterministic cache key from template source.
func CacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Registry returns the helper registry used by the renderer.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// RegisterHelper adds or replaces a helper for templates compiled from now on.
func (r *Renderer) RegisterHelper(name string, fn any) error {
	return r.registry.Register(name, fn)
}

// RegisterHelpers adds or replaces several helpers at once.
func (r *Renderer) RegisterHelpers(helpers map[string]any) error {
	return r.registry.RegisterAll(helpers)
}

// Compile returns the compiled template for source.
// With a non-empty cacheKey a cached template is returned as-is, without
// checking it against source. An empty cacheKey always compiles.
func (r *Renderer) Compile(source, cacheKey string) (*Compiled, error) {
	if cacheKey == "" {
		return r.parse(source, "")
	}

	if c, ok := r.cached(cacheKey); ok {
		return c, nil
	}

	// Concurrent misses on one key share a single parse.
	v, err, _ := r.group.Do(cacheKey, func() (any, error) {
		if c, ok := r.cached(cacheKey); ok {
			return c, nil
		}
		c, err := r.parse(source, cacheKey)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[cacheKey] = c
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Compiled), nil
}

// Render compiles source (see Compile) and executes it with data.
func (r *Renderer) Render(source string, data any, cacheKey string) (string, error) {
	c, err := r.Compile(source, cacheKey)
	if err != nil {
		return "", err
	}
	return c.Execute(data)
}

// RenderText renders source as plain text without HTML escaping.
// Used for subject lines; results are not cached.
func (r *Renderer) RenderText(source string, data any) (string, error) {
	tmpl, err := texttemplate.New("text").Funcs(r.funcMap()).Parse(source)
	if err != nil {
		return "", &CompileError{Err: err}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// ClearCache drops every compiled template. Registered helpers are kept.
func (r *Renderer) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]*Compiled)
	r.mu.Unlock()
}

// CacheLen returns the number of cached templates.
func (r *Renderer) CacheLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Renderer) cached(key string) (*Compiled, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cache[key]
	return c, ok
}

func (r *Renderer) parse(source, key string) (*Compiled, error) {
	name := key
	if name == "" {
		name = "inline"
	}
	tmpl, err := htmltemplate.New(name).Funcs(r.funcMap()).Parse(source)
	if err != nil {
		return nil, &CompileError{Key: key, Err: err}
	}
	return &Compiled{tmpl: tmpl, key: key}, nil
}
