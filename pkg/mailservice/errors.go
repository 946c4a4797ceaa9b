package mailservice

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned by stores for unknown names.
	ErrRecordNotFound = errors.New("mailservice: record not found")

	ErrTemplateNotFound = errors.New("mailservice: template not found")
	ErrConfigNotFound   = errors.New("mailservice: transport config not found")
)

// LookupKind tells which lookup failed.
type LookupKind int

const (
	TemplateNotFound LookupKind = iota + 1
	ConfigNotFound
)

func (k LookupKind) String() string {
	switch k {
	case TemplateNotFound:
		return "template_not_found"
	case ConfigNotFound:
		return "config_not_found"
	default:
		return "unknown"
	}
}

// LookupError reports a template or transport config that is missing or
// unusable. It matches ErrTemplateNotFound or ErrConfigNotFound with
// errors.Is depending on Kind.
type LookupError struct {
	TemplateName string
	ConfigName   string
	Kind         LookupKind
}

func (e *LookupError) Error() string {
	if e.Kind == ConfigNotFound {
		return fmt.Sprintf("mailservice: transport config %q not found", e.ConfigName)
	}
	return fmt.Sprintf("mailservice: template %q not found", e.TemplateName)
}

func (e *LookupError) Is(target error) bool {
	switch target {
	case ErrTemplateNotFound:
		return e.Kind == TemplateNotFound
	case ErrConfigNotFound:
		return e.Kind == ConfigNotFound
	}
	return false
}
