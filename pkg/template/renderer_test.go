package template

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderer_Render_SubstitutesData(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	out, err := r.Render(`<p>Hello {{.name}}</p>`, Data{"name": "Alice", "unused": 42}, "")
	require.NoError(t, err)
	require.Equal(t, "<p>Hello Alice</p>", out)
}

func TestRenderer_Render_EscapesHTML(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	out, err := r.Render(`<p>{{.name}}</p>`, Data{"name": "<script>x</script>"}, "")
	require.NoError(t, err)
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestRenderer_Compile_CachesByKey(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	first, err := r.Compile(`Hi {{.name}}`, "greeting")
	require.NoError(t, err)

	second, err := r.Compile(`Hi {{.name}}`, "greeting")
	require.NoError(t, err)

	require.Same(t, first, second, "second compile should come from cache")
	require.Equal(t, "greeting", second.Key())
	require.Equal(t, 1, r.CacheLen())
}

func TestRenderer_Compile_TrustsCacheKey(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	cached, err := r.Compile(`ok {{.v}}`, "k")
	require.NoError(t, err)

	// Broken source under a known key is not re-validated.
	hit, err := r.Compile(`{{broken`, "k")
	require.NoError(t, err)
	require.Same(t, cached, hit)
}

func TestRenderer_Compile_NoKeyNeverCaches(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	a, err := r.Compile(`Hi`, "")
	require.NoError(t, err)
	b, err := r.Compile(`Hi`, "")
	require.NoError(t, err)

	require.NotSame(t, a, b)
	require.Equal(t, 0, r.CacheLen())
}

func TestRenderer_Compile_SyntaxError(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	tests := []struct {
		name   string
		source string
	}{
		{name: "unclosed action", source: `{{.name`},
		{name: "unknown helper", source: `{{notAHelper .name}}`},
		{name: "unterminated block", source: `{{if .ok}}yes`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := r.Compile(tt.source, "key-"+tt.name)
			require.ErrorIs(t, err, ErrCompile)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			require.Equal(t, "key-"+tt.name, ce.Key)
			require.NotEmpty(t, ce.Err.Error())
		})
	}

	require.Equal(t, 0, r.CacheLen(), "failed compiles must not be cached")
}

func TestRenderer_Render_HelperErrorIsRenderError(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	require.NoError(t, r.RegisterHelper("explode", func() (string, error) {
		return "", errors.New("boom")
	}))

	_, err := r.Render(`{{explode}}`, nil, "")
	require.ErrorIs(t, err, ErrRender)
	require.Contains(t, err.Error(), "boom")
}

func TestRenderer_ClearCache(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	require.NoError(t, r.RegisterHelper("shout", func(s string) string { return s + "!" }))

	_, err := r.Compile(`{{shout "a"}}`, "a")
	require.NoError(t, err)
	_, err = r.Compile(`b`, "b")
	require.NoError(t, err)
	require.Equal(t, 2, r.CacheLen())

	r.ClearCache()
	require.Equal(t, 0, r.CacheLen())

	// Helpers survive a cache clear.
	out, err := r.Render(`{{shout "a"}}`, nil, "a")
	require.NoError(t, err)
	require.Equal(t, "a!", out)
}

func TestRenderer_RegisterHelper_NotRetroactive(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	require.NoError(t, r.RegisterHelper("greet", func() string { return "hi" }))

	_, err := r.Compile(`{{greet}}`, "old")
	require.NoError(t, err)

	// Last registration wins for future compiles.
	require.NoError(t, r.RegisterHelper("greet", func() string { return "hello" }))

	out, err := r.Render(`{{greet}}`, nil, "old")
	require.NoError(t, err)
	require.Equal(t, "hi", out)

	out, err = r.Render(`{{greet}}`, nil, "new")
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestRenderer_RegistriesAreIsolated(t *testing.T) {
	t.Parallel()

	a := NewRenderer()
	b := NewRenderer()

	require.NoError(t, a.RegisterHelper("only_a", func() string { return "a" }))

	out, err := a.Render(`{{only_a}}`, nil, "")
	require.NoError(t, err)
	require.Equal(t, "a", out)

	_, err = b.Render(`{{only_a}}`, nil, "")
	require.ErrorIs(t, err, ErrCompile)
}

func TestRenderer_SharedRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a := NewRenderer(WithRegistry(reg))
	b := NewRenderer(WithRegistry(reg))

	require.NoError(t, a.RegisterHelper("shared", func() string { return "yes" }))

	out, err := b.Render(`{{shared}}`, nil, "")
	require.NoError(t, err)
	require.Equal(t, "yes", out)
	require.Same(t, a.Registry(), b.Registry())
}

func TestRenderer_RegisterHelpers(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	err := r.RegisterHelpers(map[string]any{
		"one": func() int { return 1 },
		"two": func() int { return 2 },
	})
	require.NoError(t, err)

	out, err := r.Render(`{{one}}-{{two}}`, nil, "")
	require.NoError(t, err)
	require.Equal(t, "1-2", out)
}

func TestRenderer_RegisterHelper_Invalid(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	tests := []struct {
		fn   any
		name string
	}{
		{name: "count", fn: 42},
		{name: "1bad", fn: func() string { return "" }},
		{name: "bad-name", fn: func() string { return "" }},
		{name: "noReturn", fn: func() {}},
		{name: "threeReturns", fn: func() (int, int, error) { return 0, 0, nil }},
		{name: "secondNotError", fn: func() (int, int) { return 0, 0 }},
	}

	for _, tt := range tests {
		require.ErrorIs(t, r.RegisterHelper(tt.name, tt.fn), ErrInvalidHelper, tt.name)
	}

	// A bad entry rejects the whole batch.
	err := r.RegisterHelpers(map[string]any{
		"fine":   func() string { return "" },
		"broken": 1,
	})
	require.ErrorIs(t, err, ErrInvalidHelper)
	require.False(t, r.Registry().Has("fine"))
}

func TestRenderer_WithSprig(t *testing.T) {
	t.Parallel()

	r := NewRenderer(WithSprig())

	out, err := r.Render(`{{title "hello world"}}`, nil, "")
	require.NoError(t, err)
	require.Equal(t, "Hello World", out)

	// Built-ins take precedence over sprig functions of the same name.
	out, err = r.Render(`{{divide 10 0}}`, nil, "")
	require.NoError(t, err)
	require.Equal(t, "0", out)

	plain := NewRenderer()
	_, err = plain.Render(`{{title "x"}}`, nil, "")
	require.ErrorIs(t, err, ErrCompile)
}

func TestRenderer_WithSprig_SharedRegistryStaysIsolated(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	withSprig := NewRenderer(WithRegistry(reg), WithSprig())
	plain := NewRenderer(WithRegistry(reg))

	out, err := withSprig.Render(`{{upper "ok"}}`, nil, "")
	require.NoError(t, err)
	require.Equal(t, "OK", out)

	_, err = plain.Render(`{{upper "ok"}}`, nil, "")
	require.ErrorIs(t, err, ErrCompile)
	require.False(t, reg.Has("upper"))
}

func TestRenderer_RenderText_DoesNotEscape(t *testing.T) {
	t.Parallel()

	r := NewRenderer()

	out, err := r.RenderText(`Order #{{.id}} for {{.name}}`, Data{"id": 7, "name": "Tom & Jerry"})
	require.NoError(t, err)
	require.Equal(t, "Order #7 for Tom & Jerry", out)

	_, err = r.RenderText(`{{.id`, nil)
	require.ErrorIs(t, err, ErrCompile)
}

func TestRenderer_ConcurrentCompileSameKey(t *testing.T) {
	t.Parallel()

	r := NewRenderer()
	const workers = 50

	results := make([]*Compiled, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := r.Compile(`<b>{{.n}}</b>`, "shared")
			if err == nil {
				results[i] = c
			}
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.NotNil(t, results[i])
		require.Same(t, results[0], results[i])
	}
	require.Equal(t, 1, r.CacheLen())
}

func TestCacheKey_Deterministic(t *testing.T) {
	t.Parallel()

	require.Equal(t, CacheKey("<p>a</p>"), CacheKey("<p>a</p>"))
	require.NotEqual(t, CacheKey("<p>a</p>"), CacheKey("<p>b</p>"))
	require.Len(t, CacheKey(""), 64)
}

func TestDefault_ReturnsSharedRenderer(t *testing.T) {
	t.Parallel()

	require.Same(t, Default(), Default())
}
