package template

import (
	"encoding/json"
	"fmt"
)

// Data is the schema-less mapping templates are rendered against.
// Normalized values are limited to string, float64, bool, nil,
// map[string]any and []any.
type Data map[string]any

// NormalizeData converts v (a map, struct or Data) into Data holding only
// JSON-shaped values, so rendering behaves the same regardless of the Go
// types the caller used. A nil v yields an empty Data.
func NormalizeData(v any) (Data, error) {
	if v == nil {
		return Data{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: data must be an object: %v", ErrInvalidData, err)
	}
	if d == nil {
		d = Data{}
	}
	return d, nil
}
