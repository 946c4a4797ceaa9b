package attachment

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// DefaultMaxSize is the largest attachment a loader will read.
const DefaultMaxSize int64 = 25 << 20

// Loader reads the content behind a path. The content type may be empty.
type Loader interface {
	Load(ctx context.Context, path string) (content []byte, contentType string, err error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) ([]byte, string, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) ([]byte, string, error) {
	return f(ctx, path)
}

// Resolver dispatches paths to loaders by URL scheme. Paths without a
// scheme are local files.
type Resolver struct {
	loaders map[string]Loader
	maxSize int64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLoader registers l for a scheme, replacing any previous loader.
func WithLoader(scheme string, l Loader) Option {
	return func(r *Resolver) {
		if l != nil {
			r.loaders[strings.ToLower(scheme)] = l
		}
	}
}

// WithMaxSize overrides DefaultMaxSize for the built-in loaders.
func WithMaxSize(n int64) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// WithS3 enables s3://bucket/key paths.
func WithS3(client S3API) Option {
	return func(r *Resolver) {
		if client != nil {
			r.loaders["s3"] = &S3Loader{Client: client}
		}
	}
}

// NewResolver creates a resolver for local files and http(s) URLs.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		loaders: make(map[string]Loader),
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if s, ok := r.loaders["s3"].(*S3Loader); ok && s.MaxSize == 0 {
		s.MaxSize = r.maxSize
	}
	if _, ok := r.loaders["file"]; !ok {
		r.loaders["file"] = &FileLoader{MaxSize: r.maxSize}
	}
	if _, ok := r.loaders["http"]; !ok {
		h := &HTTPLoader{MaxSize: r.maxSize}
		r.loaders["http"] = h
		r.loaders["https"] = h
	}
	return r
}

// Load implements Loader. A missing content type is guessed from the path
// extension and then from the content itself.
func (r *Resolver) Load(ctx context.Context, p string) ([]byte, string, error) {
	scheme := schemeOf(p)
	l, ok := r.loaders[scheme]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	content, contentType, err := l.Load(ctx, p)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = DetectContentType(p, content)
	}
	return content, contentType, nil
}

// DetectContentType guesses a MIME type from the name extension, falling back
// to content sniffing.
func DetectContentType(name string, content []byte) string {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		name = u.Path
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	if len(content) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(content)
}

// schemeOf returns the lower-cased scheme, or "file" for plain paths
// (including Windows drive letters).
func schemeOf(p string) string {
	if i := strings.Index(p, "://"); i > 1 {
		return strings.ToLower(p[:i])
	}
	return "file"
}
