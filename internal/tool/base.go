package tool

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Validator is implemented by parameter structs that check their own values.
type Validator interface {
	Validate() error
}

// Base provides the schema, validation and decoding shared by built-in tools.
// Concrete tools embed it and supply Execute (and GetConfirmation if they
// need approval).
//
// Type Parameters:
//   - P: the parameter struct, decoded from the call arguments with
//     mapstructure tags.
type Base[P any] struct {
	name        string
	description string
	kind        Kind
	schema      *Schema
}

// NewBase creates a Base with the given identity and parameter schema.
func NewBase[P any](name, description string, kind Kind, schema *Schema) Base[P] {
	return Base[P]{
		name:        name,
		description: description,
		kind:        kind,
		schema:      schema,
	}
}

func (b Base[P]) Name() string        { return b.name }
func (b Base[P]) Description() string { return b.description }
func (b Base[P]) Kind() Kind          { return b.kind }
func (b Base[P]) Schema() *Schema     { return b.schema }

// IsMutating defaults to the kind's classification.
func (b Base[P]) IsMutating(map[string]any) bool {
	return b.kind.Mutating()
}

// GetConfirmation asks for a generic confirmation when the kind is
// mutating and returns nil otherwise.
func (b Base[P]) GetConfirmation(_ context.Context, inv Invocation) *Confirmation {
	if !b.kind.Mutating() {
		return nil
	}
	return &Confirmation{
		ToolName:    b.name,
		Params:      inv.Params,
		Description: "Execute " + b.name,
	}
}

// ValidateParams checks the arguments against the schema, then decodes them
// and runs the struct's own Validate if it has one.
func (b Base[P]) ValidateParams(params map[string]any) []string {
	if errs := CheckSchema(b.schema, params); len(errs) > 0 {
		return errs
	}
	p, err := b.Decode(params)
	if err != nil {
		return []string{err.Error()}
	}
	if v, ok := any(&p).(Validator); ok {
		if err := v.Validate(); err != nil {
			return []string{err.Error()}
		}
	}
	return nil
}

// Decode converts call arguments into the typed parameter struct.
func (b Base[P]) Decode(params map[string]any) (P, error) {
	var p P
	if err := mapstructure.Decode(params, &p); err != nil {
		return p, fmt.Errorf("invalid arguments: %w", err)
	}
	return p, nil
}

// CheckSchema validates top-level required fields and property types.
func CheckSchema(schema *Schema, params map[string]any) []string {
	if schema == nil {
		return nil
	}

	var errs []string
	for _, name := range schema.Required {
		if v, ok := params[name]; !ok || v == nil {
			errs = append(errs, fmt.Sprintf("missing required parameter: %s", name))
		}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := schema.Properties[name]
		if !ok || prop == nil || params[name] == nil {
			continue
		}
		if !matchesType(prop.Type, params[name]) {
			errs = append(errs, fmt.Sprintf("parameter '%s' must be of type %s", name, prop.Type))
			continue
		}
		if len(prop.Enum) > 0 {
			if s, _ := params[name].(string); !contains(prop.Enum, s) {
				errs = append(errs, fmt.Sprintf("parameter '%s' must be one of %v", name, prop.Enum))
			}
		}
	}
	return errs
}

func matchesType(t Type, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeInteger:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
		return false
	case TypeNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case TypeArray:
		switch v.(type) {
		case []any, []string:
			return true
		}
		return false
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
