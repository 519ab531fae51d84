package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidatePath checks that every segment can be used as a field name in all
// drivers: not empty, no dots, no leading '$'.
func ValidatePath(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, segment := range path {
		if err := ValidateSegment(segment); err != nil {
			return err
		}
	}
	return nil
}

func ValidateSegment(segment string) error {
	switch {
	case segment == "":
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	case strings.Contains(segment, "."):
		return fmt.Errorf("%w: segment %q contains a dot", ErrInvalidPath, segment)
	case strings.HasPrefix(segment, "$"):
		return fmt.Errorf("%w: segment %q starts with $", ErrInvalidPath, segment)
	}
	return nil
}

// SetIn sets value at path inside doc. Missing containers are created and
// non-map values found on the way are replaced by maps.
func SetIn(doc Document, path []string, value any) {
	current := map[string]any(doc)
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}

// PlainValue converts v into its JSON-like form, so structs become maps and
// numbers become float64, the same shape every driver returns on reads.
func PlainValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return plain, nil
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return map[string]any(cloneDocument(typed))
	case Document:
		return map[string]any(cloneDocument(typed))
	case []any:
		cloned := make([]any, len(typed))
		for i := range typed {
			cloned[i] = cloneValue(typed[i])
		}
		return cloned
	default:
		return v
	}
}

func cloneDocument(doc map[string]any) Document {
	cloned := make(Document, len(doc))
	for k, v := range doc {
		cloned[k] = cloneValue(v)
	}
	return cloned
}
