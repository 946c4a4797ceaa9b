package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/courier/pkg/template"
)

type format string

const (
	formatJSON format = "json"
	formatYAML format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch f := format(strings.ToLower(s)); f {
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q: want json or yaml", s)
	}
}

func writeObject(w io.Writer, f format, obj any) error {
	switch f {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(obj)
	}
}

func (rt *runtimeState) print(obj any) error {
	f, err := parseFormat(rt.output)
	if err != nil {
		return err
	}
	return writeObject(rt.opts.Out, f, obj)
}

// readInput reads a file, or stdin when name is "-".
func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// parseData decodes a JSON object given inline or from a file.
func parseData(inline, file string, stdin io.Reader) (template.Data, error) {
	raw := []byte(inline)
	if file != "" {
		b, err := readInput(file, stdin)
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var d template.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("data must be a JSON object: %w", err)
	}
	return d, nil
}
