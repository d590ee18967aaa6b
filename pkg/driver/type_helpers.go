package driver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// TypeConversionError reports a database value of an unexpected type.
type TypeConversionError struct {
	Expected string
	Actual   string
	Field    string
}

func (e *TypeConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type conversion error for field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type conversion error: expected %s, got %s", e.Expected, e.Actual)
}

// NewTypeConversionError creates a new TypeConversionError.
func NewTypeConversionError(expected string, actual any, field string) *TypeConversionError {
	return &TypeConversionError{
		Expected: expected,
		Actual:   fmt.Sprintf("%T", actual),
		Field:    field,
	}
}

// AsRecordSlice converts v to []*db.Record.
func AsRecordSlice(v any) ([]*db.Record, bool) {
	if v == nil {
		return nil, false
	}
	records, ok := v.([]*db.Record)
	return records, ok
}

// AsDBNode converts v to dbtype.Node.
func AsDBNode(v any) (dbtype.Node, bool) {
	if v == nil {
		return dbtype.Node{}, false
	}
	node, ok := v.(dbtype.Node)
	return node, ok
}

// AsString converts v to string.
func AsString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AsInt64 converts v to int64.
func AsInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

// MustRecordSlice converts v to []*db.Record or returns a *TypeConversionError.
func MustRecordSlice(v any, field string) ([]*db.Record, error) {
	records, ok := AsRecordSlice(v)
	if !ok {
		return nil, NewTypeConversionError("[]*db.Record", v, field)
	}
	return records, nil
}

// MustDBNode converts v to dbtype.Node or returns a *TypeConversionError.
func MustDBNode(v any, field string) (dbtype.Node, error) {
	node, ok := AsDBNode(v)
	if !ok {
		return dbtype.Node{}, NewTypeConversionError("dbtype.Node", v, field)
	}
	return node, nil
}

// MustString converts v to string or returns a *TypeConversionError.
func MustString(v any, field string) (string, error) {
	s, ok := AsString(v)
	if !ok {
		return "", NewTypeConversionError("string", v, field)
	}
	return s, nil
}

// MustInt64 converts v to int64 or returns a *TypeConversionError.
func MustInt64(v any, field string) (int64, error) {
	i, ok := AsInt64(v)
	if !ok {
		return 0, NewTypeConversionError("int64", v, field)
	}
	return i, nil
}

// PropertyString renders a scalar or list property as text. Lists are
// joined with ", ". Nested maps and graph values are rejected.
func PropertyString(v any, field string) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	case dbtype.Date:
		return x.Time().Format(time.DateOnly), nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if item == nil {
				continue
			}
			s, err := PropertyString(item, field)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	}
	return "", NewTypeConversionError("scalar property", v, field)
}

// StringProperties converts a node's property map to strings. Null
// properties are omitted.
func StringProperties(props map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(props))
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if props[k] == nil {
			continue
		}
		s, err := PropertyString(props[k], k)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// PlainValue flattens driver graph types into JSON-friendly values.
func PlainValue(v any) any {
	switch x := v.(type) {
	case dbtype.Node:
		return x.Props
	case dbtype.Relationship:
		props := make(map[string]any, len(x.Props)+1)
		for k, val := range x.Props {
			props[k] = val
		}
		props["type"] = x.Type
		return props
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = PlainValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = PlainValue(item)
		}
		return out
	}
	return v
}
