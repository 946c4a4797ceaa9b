package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/courier/pkg/mailservice"
)

const (
	templateExt = ".html"
	configsFile = "configs.yaml"
)

// Store reads templates and transport configs from a file system:
//
//	templates/<name>.html   template body with optional YAML frontmatter
//	configs.yaml            map of config name to connection settings
//
// Files are read on every lookup, so edits on a live directory are picked up.
type Store struct {
	fsys      fs.FS
	lookupEnv func(string) (string, bool)
	dir       string
}

// Option configures a Store.
type Option func(*Store)

// WithTemplateDir changes the template directory. Default: "templates".
func WithTemplateDir(dir string) Option {
	return func(s *Store) { s.dir = dir }
}

// WithLookupEnv replaces os.LookupEnv for ${VAR} password references.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(s *Store) {
		if fn != nil {
			s.lookupEnv = fn
		}
	}
}

// New creates a Store over fsys.
func New(fsys fs.FS, opts ...Option) *Store {
	s := &Store{fsys: fsys, dir: "templates", lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindTemplateByName implements mailservice.TemplateStore.
func (s *Store) FindTemplateByName(_ context.Context, name string) (*mailservice.TemplateRecord, error) {
	if !validName(name) {
		return nil, mailservice.ErrRecordNotFound
	}
	content, err := fs.ReadFile(s.fsys, path.Join(s.dir, name+templateExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, mailservice.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fsstore: read template %q: %w", name, err)
	}

	meta, body, err := parseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	return &mailservice.TemplateRecord{Name: name, Subject: meta.Subject, HTML: body}, nil
}

// TemplateNames lists the available templates in lexical order.
func (s *Store) TemplateNames() ([]string, error) {
	matches, err := fs.Glob(s.fsys, path.Join(s.dir, "*"+templateExt))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), templateExt))
	}
	sort.Strings(names)
	return names, nil
}

// FindConfigByName implements mailservice.ConfigStore.
func (s *Store) FindConfigByName(_ context.Context, name string) (*mailservice.ConfigRecord, error) {
	configs, err := s.readConfigs()
	if err != nil {
		return nil, err
	}
	rec, ok := configs[name]
	if !ok {
		return nil, mailservice.ErrRecordNotFound
	}
	rec.Name = name
	if rec.Password, err = s.expand(rec.Password); err != nil {
		return nil, fmt.Errorf("fsstore: config %q: %w", name, err)
	}
	return &rec, nil
}

func (s *Store) readConfigs() (map[string]mailservice.ConfigRecord, error) {
	data, err := fs.ReadFile(s.fsys, configsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fsstore: read %s: %w", configsFile, err)
	}
	var configs map[string]mailservice.ConfigRecord
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("fsstore: parse %s: %w", configsFile, err)
	}
	return configs, nil
}

// expand resolves a value of the form ${VAR} from the environment.
func (s *Store) expand(v string) (string, error) {
	name, ok := strings.CutPrefix(v, "${")
	if !ok || !strings.HasSuffix(name, "}") {
		return v, nil
	}
	name = strings.TrimSuffix(name, "}")
	val, ok := s.lookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return val, nil
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && fs.ValidPath(name)
}
