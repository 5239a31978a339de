// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package dcl compiles user-authored hook definitions, themselves documents,
// into declarations the dispatch layer can execute. Field macros, default
// factories, methods and extends inheritance all resolve here, at definition
// time, so call sites only ever see a flat compiled schema.
package dcl

import (
	"fmt"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
)

// Structural keys consumed by the compiler itself, never treated as fields.
var structuralKeys = map[string]struct{}{
	"help": {}, "description": {}, "args": {}, "kwargs": {},
	"extends": {}, "exec": {}, "return": {}, "skip_output": {},
}

// Compile builds a declaration from a definition document. Base declarations
// named by extends must already be present in reg; a definition can therefore
// never extend itself or a later definition, which rules out inheritance
// cycles by construction.
func Compile(name string, public bool, node interface{}, reg *hooks.Registry) (*hooks.Declaration, error) {
	decl := &hooks.Declaration{
		Name:    name,
		Public:  public,
		Methods: map[string]*hooks.Declaration{},
	}

	switch typedNode := node.(type) {
	case *orderedmap.Map:
		err := compileMap(decl, typedNode, reg)
		if err != nil {
			return nil, err
		}
	case string:
		// alias shorthand: the definition body is a compact call string
		body := orderedmap.NewMap()
		body.Set("value->", typedNode)
		decl.ExecBody = body
		decl.ReturnExpr = "{{value}}"
	case nil:
		// a bare definition with no fields is callable and returns an empty map
	default:
		return nil, hooks.ConfigError{
			Msg: fmt.Sprintf("Expected definition of hook '%s' to be a map or string, but was %T", name, node),
		}
	}

	return decl, nil
}

func compileMap(decl *hooks.Declaration, m *orderedmap.Map, reg *hooks.Registry) error {
	var extends []string

	err := m.IterateErr(func(k, v interface{}) error {
		raw := fmt.Sprintf("%v", k)
		key := hooks.ParseKey(raw)

		if key.Kind == hooks.KeyPlain {
			if _, structural := structuralKeys[raw]; structural {
				return compileStructural(decl, raw, v, &extends)
			}
			return compileField(decl, raw, v)
		}

		if key.IsDef() {
			if key.Base == "exec" {
				decl.ExecBody = v
				return nil
			}
			return compileMethod(decl, key, v, reg)
		}

		// call-suffixed field: a lazily evaluated default factory
		return addFactoryField(decl, key.Base, v, key.Kind == hooks.KeyCallPrivate)
	})
	if err != nil {
		return err
	}

	err = applyExtends(decl, extends, reg)
	if err != nil {
		return err
	}

	inheritFieldsIntoMethods(decl)

	return validateArgs(decl)
}

func compileStructural(decl *hooks.Declaration, name string, v interface{}, extends *[]string) error {
	switch name {
	case "help", "description":
		if str, ok := v.(string); ok {
			decl.Help = str
		}
	case "args":
		switch typedVal := v.(type) {
		case string:
			decl.Args = []string{typedVal}
		case []interface{}:
			for _, item := range typedVal {
				str, ok := item.(string)
				if !ok {
					return hooks.ConfigError{
						Msg: fmt.Sprintf("Expected args of hook '%s' to be field names, but got %T", decl.Name, item),
					}
				}
				decl.Args = append(decl.Args, str)
			}
		default:
			return hooks.ConfigError{
				Msg: fmt.Sprintf("Expected args of hook '%s' to be a string or list, but was %T", decl.Name, v),
			}
		}
	case "kwargs":
		str, ok := v.(string)
		if !ok {
			return hooks.ConfigError{
				Msg: fmt.Sprintf("Expected kwargs of hook '%s' to be a field name, but was %T", decl.Name, v),
			}
		}
		decl.KwargsField = str
	case "extends":
		switch typedVal := v.(type) {
		case string:
			*extends = append(*extends, typedVal)
		case []interface{}:
			for _, item := range typedVal {
				str, ok := item.(string)
				if !ok {
					return hooks.ConfigError{
						Msg: fmt.Sprintf("Expected extends of hook '%s' to name declarations, but got %T", decl.Name, item),
					}
				}
				*extends = append(*extends, str)
			}
		default:
			return hooks.ConfigError{
				Msg: fmt.Sprintf("Expected extends of hook '%s' to be a string or list, but was %T", decl.Name, v),
			}
		}
	case "exec":
		decl.ExecBody = v
	case "return":
		decl.ReturnExpr = v
	case "skip_output":
		b, ok := v.(bool)
		decl.SkipOutput = ok && b
	}
	return nil
}

// compileField expands one field macro: a bare type name declares a required
// typed field, any other scalar/list/map is a literal default of inferred
// type, and an explicit schema map spells everything out.
func compileField(decl *hooks.Declaration, name string, v interface{}) error {
	switch typedVal := v.(type) {
	case string:
		if typ, isType := hooks.ParseType(typedVal); isType {
			return decl.AddField(&hooks.Field{Name: name, Type: typ})
		}
		return decl.AddField(&hooks.Field{
			Name: name, Type: hooks.TypeStr, Default: typedVal, HasDefault: true,
		})

	case *orderedmap.Map:
		if isFieldSchema(typedVal) {
			return compileFieldSchema(decl, name, typedVal)
		}
		return decl.AddField(&hooks.Field{
			Name: name, Type: hooks.TypeMap, Default: typedVal, HasDefault: true,
		})

	case nil:
		return decl.AddField(&hooks.Field{Name: name, Type: hooks.TypeAny})

	default:
		return decl.AddField(&hooks.Field{
			Name: name, Type: hooks.TypeOf(v), Default: v, HasDefault: true,
		})
	}
}

// Schema keys that make a map value a field schema rather than a literal map
// default.
var schemaKeys = map[string]struct{}{
	"type": {}, "default": {}, "default->": {}, "default_>": {},
	"description": {}, "enum": {}, "required": {},
	"exclude": {}, "render_exclude": {}, "render_by_default": {},
}

func isFieldSchema(m *orderedmap.Map) bool {
	if m.Len() == 0 {
		return false
	}
	schema := true
	m.Iterate(func(k, _ interface{}) {
		if _, found := schemaKeys[fmt.Sprintf("%v", k)]; !found {
			schema = false
		}
	})
	return schema
}

func compileFieldSchema(decl *hooks.Declaration, name string, m *orderedmap.Map) error {
	field := &hooks.Field{Name: name, Type: hooks.TypeAny}
	typeDeclared := false

	err := m.IterateErr(func(k, v interface{}) error {
		switch fmt.Sprintf("%v", k) {
		case "type":
			str, _ := v.(string)
			typ, ok := hooks.ParseType(str)
			if !ok {
				return hooks.ConfigError{
					Msg: fmt.Sprintf("Unknown type '%v' of field '%s' of hook '%s'", v, name, decl.Name),
				}
			}
			field.Type = typ
			typeDeclared = true
		case "default":
			field.Default = v
			field.HasDefault = true
		case "default->", "default_>":
			body := orderedmap.NewMap()
			body.Set("default->", v)
			field.Factory = &hooks.Factory{Body: body, Extract: "default"}
		case "description":
			str, _ := v.(string)
			field.Description = str
		case "enum":
			list, ok := v.([]interface{})
			if !ok {
				return hooks.ConfigError{
					Msg: fmt.Sprintf("Expected enum of field '%s' of hook '%s' to be a list, but was %T", name, decl.Name, v),
				}
			}
			field.Enum = list
		case "required":
			if b, ok := v.(bool); ok && b {
				field.Default = nil
				field.HasDefault = false
			}
		case "exclude":
			b, _ := v.(bool)
			field.Exclude = b
		case "render_exclude":
			b, _ := v.(bool)
			field.RenderExclude = b
		case "render_by_default":
			b, _ := v.(bool)
			field.RenderByDefault = b
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !typeDeclared && field.HasDefault {
		field.Type = hooks.TypeOf(field.Default)
	}

	return decl.AddField(field)
}

// addFactoryField turns a call-suffixed field into a default factory. The
// factory body re-wraps the call under its own name so evaluating the body
// both performs the call and exposes its result for extraction; without that
// wrapping a factory document is indistinguishable from a plain nested map.
// A private suffix additionally excludes the field from the hook's dumped
// output.
func addFactoryField(decl *hooks.Declaration, name string, v interface{}, private bool) error {
	body := orderedmap.NewMap()
	body.Set(name+"->", v)

	return decl.AddField(&hooks.Field{
		Name:    name,
		Type:    hooks.TypeAny,
		Factory: &hooks.Factory{Body: body, Extract: name},
		Exclude: private,
	})
}

func compileMethod(decl *hooks.Declaration, key hooks.Key, v interface{}, reg *hooks.Registry) error {
	if _, exists := decl.Methods[key.Base]; exists {
		return hooks.ConfigError{
			Msg: fmt.Sprintf("Method '%s' of hook '%s' is declared twice", key.Base, decl.Name),
		}
	}

	method, err := Compile(decl.Name+"."+key.Base, key.Kind == hooks.KeyDefPublic, v, reg)
	if err != nil {
		return err
	}
	decl.Methods[key.Base] = method
	return nil
}

// applyExtends merges base declarations into decl: fields declared directly
// win on name conflicts, methods union with the child's taking precedence.
// Unresolved base names are fatal.
func applyExtends(decl *hooks.Declaration, bases []string, reg *hooks.Registry) error {
	for _, baseName := range bases {
		if reg == nil || !reg.Has(baseName) {
			return hooks.ConfigError{
				Msg: fmt.Sprintf("Hook '%s' extends unknown declaration '%s'", decl.Name, baseName),
			}
		}
		base, err := reg.Lookup(baseName)
		if err != nil {
			return err
		}

		for _, baseField := range base.Fields {
			if decl.Field(baseField.Name) != nil {
				continue
			}
			fieldCopy := *baseField
			decl.Fields = append(decl.Fields, &fieldCopy)
		}

		for methodName, method := range base.Methods {
			if _, exists := decl.Methods[methodName]; exists {
				continue
			}
			decl.Methods[methodName] = method.DeepCopy()
		}

		if decl.ExecBody == nil && base.ExecBody != nil {
			decl.ExecBody = orderedmap.DeepCopyValue(base.ExecBody)
		}
		if decl.ReturnExpr == nil && base.ReturnExpr != nil {
			decl.ReturnExpr = orderedmap.DeepCopyValue(base.ReturnExpr)
		}
		if len(decl.Args) == 0 {
			decl.Args = append([]string{}, base.Args...)
		}
	}
	return nil
}

// inheritFieldsIntoMethods gives every method its parent's fields, so a
// method call can bind and reference the instance's configuration.
func inheritFieldsIntoMethods(decl *hooks.Declaration) {
	for _, method := range decl.Methods {
		for _, parentField := range decl.Fields {
			if method.Field(parentField.Name) != nil {
				continue
			}
			fieldCopy := *parentField
			method.Fields = append(method.Fields, &fieldCopy)
		}
	}
}

func validateArgs(decl *hooks.Declaration) error {
	for _, argName := range decl.Args {
		if decl.Field(argName) == nil {
			return hooks.ConfigError{
				Msg: fmt.Sprintf("Args of hook '%s' reference undeclared field '%s'", decl.Name, argName),
			}
		}
	}
	if decl.KwargsField != "" && decl.Field(decl.KwargsField) == nil {
		// implicit collector field; optional by construction
		err := decl.AddField(&hooks.Field{Name: decl.KwargsField, Type: hooks.TypeMap, HasDefault: true})
		if err != nil {
			return err
		}
	}
	return nil
}
