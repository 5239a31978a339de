// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"fmt"
	"reflect"
	"strconv"

	"carvel.dev/hitch/pkg/orderedmap"
)

type Type string

const (
	TypeAny   Type = "any"
	TypeStr   Type = "str"
	TypeInt   Type = "int"
	TypeFloat Type = "float"
	TypeBool  Type = "bool"
	TypeList  Type = "list"
	TypeMap   Type = "map"
)

// ParseType resolves a declared type name. "dict" is accepted as an alias of
// "map" since input documents commonly use it.
func ParseType(name string) (Type, bool) {
	switch name {
	case "any", "Any":
		return TypeAny, true
	case "str", "string":
		return TypeStr, true
	case "int":
		return TypeInt, true
	case "float":
		return TypeFloat, true
	case "bool":
		return TypeBool, true
	case "list":
		return TypeList, true
	case "map", "dict":
		return TypeMap, true
	default:
		return "", false
	}
}

// TypeOf infers a declared type from a default value's runtime type.
func TypeOf(val interface{}) Type {
	switch val.(type) {
	case nil:
		return TypeAny
	case string:
		return TypeStr
	case bool:
		return TypeBool
	case int, int64:
		return TypeInt
	case float64:
		return TypeFloat
	case []interface{}:
		return TypeList
	case *orderedmap.Map:
		return TypeMap
	default:
		return TypeAny
	}
}

// Factory is a lazily-evaluated sub-document producing a field's default. The
// body is parsed as a block; when Extract is set, the result is the value the
// body wrote under that key (the "self-returning" two-step closure), otherwise
// the body's whole output.
type Factory struct {
	Body    interface{}
	Extract string
}

type Field struct {
	Name        string
	Type        Type
	Default     interface{}
	HasDefault  bool
	Factory     *Factory
	Enum        []interface{}
	Description string

	// Exclude drops the field from a declarative hook's dumped output
	Exclude bool
	// RenderExclude keeps the walker from template-rendering this field's value
	RenderExclude bool
	// RenderByDefault wraps bare string values in template delimiters
	RenderByDefault bool
}

func (f *Field) Required() bool { return !f.HasDefault && f.Factory == nil }

// RunFunc is a native hook implementation: validated inputs in, result out.
type RunFunc func(rc RunContext, in Inputs) (interface{}, error)

// Declaration is the compiled schema/behavior definition of one hook, native
// or declarative.
type Declaration struct {
	Name   string
	Public bool
	Help   string

	Fields      []*Field
	Args        []string
	KwargsField string
	SkipOutput  bool

	Methods map[string]*Declaration

	// Run is set for native hooks
	Run RunFunc
	// ExecBody is a declarative hook's exec document; when nil the hook's
	// result is the map of its included field values
	ExecBody   interface{}
	ReturnExpr interface{}
}

func (d *Declaration) Field(name string) *Field {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (d *Declaration) AddField(f *Field) error {
	if IsReservedModifier(f.Name) {
		return ConfigError{Msg: fmt.Sprintf("Field name '%s' of hook '%s' is a reserved modifier", f.Name, d.Name)}
	}
	if d.Field(f.Name) != nil {
		return ConfigError{Msg: fmt.Sprintf("Field '%s' of hook '%s' is declared twice", f.Name, d.Name)}
	}
	d.Fields = append(d.Fields, f)
	return nil
}

// DeepCopy copies the declaration so extends merging never mutates a base.
func (d *Declaration) DeepCopy() *Declaration {
	result := *d
	result.Fields = nil
	for _, f := range d.Fields {
		fCopy := *f
		result.Fields = append(result.Fields, &fCopy)
	}
	result.Args = append([]string{}, d.Args...)
	result.Methods = map[string]*Declaration{}
	for name, m := range d.Methods {
		result.Methods[name] = m.DeepCopy()
	}
	return &result
}

// Inputs is the validated field-value set a hook executes with.
type Inputs map[string]interface{}

func (in Inputs) Has(name string) bool { _, found := in[name]; return found }

func (in Inputs) Str(name string) string {
	val, _ := in[name].(string)
	return val
}

func (in Inputs) Bool(name string) bool {
	val, _ := in[name].(bool)
	return val
}

func (in Inputs) Int(name string) int {
	switch typedVal := in[name].(type) {
	case int:
		return typedVal
	case int64:
		return int(typedVal)
	default:
		return 0
	}
}

func (in Inputs) List(name string) []interface{} {
	val, _ := in[name].([]interface{})
	return val
}

func (in Inputs) Map(name string) *orderedmap.Map {
	val, _ := in[name].(*orderedmap.Map)
	return val
}

// Coerce fits a value to a declared field type, converting between scalar
// representations where unambiguous (string forms of numbers and bools, int to
// float). Mirrors how call-site values arrive as rendered strings.
func Coerce(val interface{}, typ Type) (interface{}, error) {
	if typ == TypeAny || val == nil {
		return val, nil
	}

	switch typ {
	case TypeStr:
		switch typedVal := val.(type) {
		case string:
			return typedVal, nil
		case int, int64, float64, bool:
			return fmt.Sprintf("%v", typedVal), nil
		}
	case TypeInt:
		switch typedVal := val.(type) {
		case int:
			return typedVal, nil
		case int64:
			return int(typedVal), nil
		case string:
			if parsed, err := strconv.Atoi(typedVal); err == nil {
				return parsed, nil
			}
		}
	case TypeFloat:
		switch typedVal := val.(type) {
		case float64:
			return typedVal, nil
		case int:
			return float64(typedVal), nil
		case int64:
			return float64(typedVal), nil
		case string:
			if parsed, err := strconv.ParseFloat(typedVal, 64); err == nil {
				return parsed, nil
			}
		}
	case TypeBool:
		switch typedVal := val.(type) {
		case bool:
			return typedVal, nil
		case string:
			if parsed, err := strconv.ParseBool(typedVal); err == nil {
				return parsed, nil
			}
		}
	case TypeList:
		if typedVal, ok := val.([]interface{}); ok {
			return typedVal, nil
		}
	case TypeMap:
		if typedVal, ok := val.(*orderedmap.Map); ok {
			return typedVal, nil
		}
	}

	return nil, fmt.Errorf("Expected value of type %s, but was %T (%v)", typ, val, val)
}

// CheckEnum verifies an enum-constrained field value.
func CheckEnum(val interface{}, enum []interface{}) error {
	if len(enum) == 0 {
		return nil
	}
	for _, allowed := range enum {
		if reflect.DeepEqual(val, allowed) {
			return nil
		}
	}
	return fmt.Errorf("Value %v is not among allowed values %v", val, enum)
}
