// Package customdata is the single place where loosely typed level metadata is
// read. Everything above it works with typed values and explicit optionals.
package customdata

import (
	"encoding/json"
	"fmt"
	"strings"

	"trackkit/internal/compat"
)

// Data is a decoded custom-data object.
type Data map[string]any

// SchemaError reports a field that is missing or has the wrong type.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: field %q %s", e.Field, e.Reason)
}

func wrongType(field, want string, got any) *SchemaError {
	return &SchemaError{Field: field, Reason: fmt.Sprintf("must be %s, got %T", want, got)}
}

// Missing builds the error for an absent required field.
func Missing(field string) *SchemaError {
	return &SchemaError{Field: field, Reason: "is required"}
}

// AsData converts a decoded value into Data. YAML decoders may produce
// map[any]any for nested objects; both shapes are accepted.
func AsData(value any) (Data, bool) {
	switch v := value.(type) {
	case Data:
		return v, true
	case map[string]any:
		return Data(v), true
	case map[any]any:
		out := make(Data, len(v))
		for key, item := range v {
			s, ok := key.(string)
			if !ok {
				return nil, false
			}
			out[s] = item
		}
		return out, true
	default:
		return nil, false
	}
}

// AsFloat converts the numeric shapes produced by encoding/json and yaml.v3.
func AsFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// AsList converts a decoded array.
func AsList(value any) ([]any, bool) {
	list, ok := value.([]any)
	return list, ok
}

// Reader reads fields through the version compatibility table.
type Reader struct {
	data   Data
	legacy bool
}

func NewReader(data Data, legacy bool) Reader {
	return Reader{data: data, legacy: legacy}
}

func (r Reader) Legacy() bool {
	return r.legacy
}

func (r Reader) Data() Data {
	return r.data
}

// FieldName returns the physical key used for k by this reader's format.
func (r Reader) FieldName(k compat.Key) string {
	return compat.Name(k, r.legacy)
}

// Raw returns the undecoded value for k. A JSON null counts as absent.
func (r Reader) Raw(k compat.Key) (any, bool) {
	name := compat.Name(k, r.legacy)
	if name == "" || r.data == nil {
		return nil, false
	}
	value, ok := r.data[name]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// Present reports whether k is set, including an explicit null.
func (r Reader) Present(k compat.Key) bool {
	name := compat.Name(k, r.legacy)
	if name == "" || r.data == nil {
		return false
	}
	_, ok := r.data[name]
	return ok
}

func (r Reader) String(k compat.Key) (string, bool, error) {
	value, ok := r.Raw(k)
	if !ok {
		return "", false, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", false, wrongType(r.FieldName(k), "a string", value)
	}
	return s, true, nil
}

// RequiredString is String with absence reported as a SchemaError.
func (r Reader) RequiredString(k compat.Key) (string, error) {
	s, ok, err := r.String(k)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(s) == "" {
		return "", Missing(r.FieldName(k))
	}
	return s, nil
}

func (r Reader) Float(k compat.Key) (float64, bool, error) {
	value, ok := r.Raw(k)
	if !ok {
		return 0, false, nil
	}
	f, ok := AsFloat(value)
	if !ok {
		return 0, false, wrongType(r.FieldName(k), "a number", value)
	}
	return f, true, nil
}

func (r Reader) Bool(k compat.Key) (bool, bool, error) {
	value, ok := r.Raw(k)
	if !ok {
		return false, false, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, false, wrongType(r.FieldName(k), "a boolean", value)
	}
	return b, true, nil
}

// Floats reads a fixed-size numeric array such as a position or euler rotation.
func (r Reader) Floats(k compat.Key, size int) ([]float64, bool, error) {
	value, ok := r.Raw(k)
	if !ok {
		return nil, false, nil
	}
	list, ok := AsList(value)
	if !ok {
		return nil, false, wrongType(r.FieldName(k), "a list of numbers", value)
	}
	if size > 0 && len(list) != size {
		return nil, false, &SchemaError{Field: r.FieldName(k), Reason: fmt.Sprintf("must have %d elements, got %d", size, len(list))}
	}
	out := make([]float64, len(list))
	for i, item := range list {
		f, ok := AsFloat(item)
		if !ok {
			return nil, false, &SchemaError{Field: r.FieldName(k), Reason: fmt.Sprintf("element %d must be a number, got %T", i, item)}
		}
		out[i] = f
	}
	return out, true, nil
}

// Strings reads a field that may hold a single string or a list of strings and
// normalises it to a list.
func (r Reader) Strings(k compat.Key) ([]string, bool, error) {
	value, ok := r.Raw(k)
	if !ok {
		return nil, false, nil
	}
	names, err := StringOrList(value)
	if err != nil {
		return nil, false, &SchemaError{Field: r.FieldName(k), Reason: err.Error()}
	}
	return names, true, nil
}

func (r Reader) Object(k compat.Key) (Data, bool, error) {
	value, ok := r.Raw(k)
	if !ok {
		return nil, false, nil
	}
	d, ok := AsData(value)
	if !ok {
		return nil, false, wrongType(r.FieldName(k), "an object", value)
	}
	return d, true, nil
}

func (r Reader) List(k compat.Key) ([]any, bool, error) {
	value, ok := r.Raw(k)
	if !ok {
		return nil, false, nil
	}
	list, ok := AsList(value)
	if !ok {
		return nil, false, wrongType(r.FieldName(k), "a list", value)
	}
	return list, true, nil
}

// StringOrList normalises a "name or list of names" value.
func StringOrList(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("must not be empty")
		}
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("must not be empty")
		}
		return out, nil
	case []string:
		return append([]string(nil), v...), nil
	default:
		return nil, fmt.Errorf("must be string or list of strings")
	}
}
