package fsstore

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFrontmatter is returned for a template whose YAML header is
// unterminated or malformed.
var ErrInvalidFrontmatter = errors.New("fsstore: invalid frontmatter")

var delimiter = []byte("---")

type frontmatter struct {
	Subject string `yaml:"subject"`
}

// parseTemplate splits an optional "---" delimited YAML header from the
// template body.
func parseTemplate(content []byte) (frontmatter, string, error) {
	var meta frontmatter
	if !bytes.HasPrefix(content, delimiter) {
		return meta, string(content), nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, delimiter), "\r\n")
	end := bytes.Index(rest, delimiter)
	if end == -1 {
		return meta, "", fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	header := rest[:end]
	body := rest[end+len(delimiter):]
	switch {
	case bytes.HasPrefix(body, []byte("\r\n")):
		body = body[2:]
	case bytes.HasPrefix(body, []byte("\n")):
		body = body[1:]
	}

	if len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &meta); err != nil {
			return meta, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}
	return meta, string(body), nil
}
