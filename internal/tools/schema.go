package tools

import (
	"fmt"
	"slices"

	"github.com/odalmau/webmcp/internal/rpc"
)

// Type is a primitive parameter type.
type Type string

const (
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeObject Type = "object"
)

// Field describes one parameter.
type Field struct {
	Name        string
	Type        Type
	Description string
	Required    bool
	NonEmpty    bool     // strings only: reject "" even when present
	Enum        []string // strings only: allowed values
}

// Schema structurally validates parameters before a handler runs.
type Schema struct {
	Fields []Field
}

func (s Schema) check() error {
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema field without a name")
		}
		if seen[f.Name] {
			return fmt.Errorf("schema field %q declared twice", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case TypeString, TypeNumber, TypeObject:
		default:
			return fmt.Errorf("schema field %q has unknown type %q", f.Name, f.Type)
		}
		if (f.NonEmpty || len(f.Enum) > 0) && f.Type != TypeString {
			return fmt.Errorf("schema field %q: NonEmpty/Enum apply to strings only", f.Name)
		}
	}
	return nil
}

// Validate returns the first violation as an InvalidParams error, or nil.
func (s Schema) Validate(params map[string]any) error {
	for _, f := range s.Fields {
		v, ok := params[f.Name]
		if !ok || v == nil {
			if f.Required {
				return rpc.Errorf(rpc.KindInvalidParams, "missing required parameter %q", f.Name)
			}
			continue
		}
		switch f.Type {
		case TypeString:
			str, ok := v.(string)
			if !ok {
				return rpc.Errorf(rpc.KindInvalidParams, "parameter %q must be a string", f.Name)
			}
			if f.NonEmpty && str == "" {
				return rpc.Errorf(rpc.KindInvalidParams, "parameter %q must not be empty", f.Name)
			}
			if len(f.Enum) > 0 && !slices.Contains(f.Enum, str) {
				return rpc.Errorf(rpc.KindInvalidParams, "parameter %q must be one of %v", f.Name, f.Enum)
			}
		case TypeNumber:
			if _, ok := asNumber(v); !ok {
				return rpc.Errorf(rpc.KindInvalidParams, "parameter %q must be a number", f.Name)
			}
		case TypeObject:
			if _, ok := v.(map[string]any); !ok {
				return rpc.Errorf(rpc.KindInvalidParams, "parameter %q must be an object", f.Name)
			}
		}
	}
	return nil
}

// JSON renders the JSON-schema object advertised to the model.
func (s Schema) JSON() map[string]any {
	props := map[string]any{}
	var required []string
	for _, f := range s.Fields {
		p := map[string]any{"type": string(f.Type)}
		if f.Description != "" {
			p["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			p["enum"] = f.Enum
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// asNumber accepts the numeric shapes that reach handlers: float64 from
// JSON decoding, plus int literals from in-process callers.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
