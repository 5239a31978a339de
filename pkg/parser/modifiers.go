// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"
	"strconv"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/render"
)

// modifiers holds the resolved control keys of one call site. Values stay
// unrendered here; rendering happens at the fixed point in the resolution
// order (conditions per iteration, except only when actually caught).
type modifiers struct {
	when    interface{}
	hasWhen bool

	ifVal interface{}
	hasIf bool

	elseVal interface{}
	hasElse bool

	forVal interface{}
	hasFor bool
	reverse bool

	try    bool
	except interface{}
	hasExcept bool

	chdir    interface{}
	hasChdir bool

	merge bool

	confirm    interface{}
	hasConfirm bool

	kwargs    interface{}
	hasKwargs bool

	skipOutput bool
	returnVal  bool
	noInput    bool
}

// takeModifier consumes one reserved name if raw matches it (with "cd"
// accepted as a chdir alias).
func (m *modifiers) take(name string, val interface{}) bool {
	switch name {
	case "when":
		m.when, m.hasWhen = val, true
	case "if":
		m.ifVal, m.hasIf = val, true
	case "else":
		m.elseVal, m.hasElse = val, true
	case "for":
		m.forVal, m.hasFor = val, true
	case "reverse":
		m.reverse = truthyLiteral(val)
	case "try":
		m.try = truthyLiteral(val)
	case "except":
		m.except, m.hasExcept = val, true
	case "chdir", "cd":
		m.chdir, m.hasChdir = val, true
	case "merge":
		m.merge = truthyLiteral(val)
	case "confirm":
		m.confirm, m.hasConfirm = val, true
	case "kwargs":
		m.kwargs, m.hasKwargs = val, true
	case "skip_output":
		m.skipOutput = truthyLiteral(val)
	case "return":
		m.returnVal = truthyLiteral(val)
	case "no_input":
		m.noInput = truthyLiteral(val)
	default:
		return false
	}
	return true
}

// truthyLiteral coerces unrendered flag-style modifier values (booleans from
// the document, or bare flag presence represented as true).
func truthyLiteral(val interface{}) bool {
	switch typedVal := val.(type) {
	case bool:
		return typedVal
	case string:
		parsed, err := strconv.ParseBool(typedVal)
		return err == nil && parsed
	case nil:
		return false
	default:
		return true
	}
}

// extractModifiers splits a call map into control modifiers and the remaining
// field entries. Modifier keys inside an expanded call map are written bare
// ("if", "for"); arrowed forms are handled by the group walker before this.
func extractModifiers(m *orderedmap.Map) (modifiers, *orderedmap.Map) {
	var mods modifiers
	fields := orderedmap.NewMap()

	m.Iterate(func(k, v interface{}) {
		name := fmt.Sprintf("%v", k)
		if !mods.take(name, v) {
			fields.Set(k, v)
		}
	})

	return mods, fields
}

// extractSpecModifiers pulls reserved names out of a compact call string's
// kwargs and flags.
func extractSpecModifiers(spec hooks.CallSpec) (modifiers, hooks.CallSpec) {
	var mods modifiers

	kept := hooks.CallSpec{Kwargs: orderedmap.NewMap()}
	kept.Args = spec.Args

	if spec.Kwargs != nil {
		spec.Kwargs.Iterate(func(k, v interface{}) {
			name := fmt.Sprintf("%v", k)
			if !mods.take(name, v) {
				kept.Kwargs.Set(k, v)
			}
		})
	}
	for _, flag := range spec.Flags {
		if !mods.take(flag, true) {
			kept.Flags = append(kept.Flags, flag)
		}
	}

	return mods, kept
}

// splitGroupModifiers detects an inline call group: a plain key whose map
// value carries arrow-suffixed modifier keys ("for->", "if->"). Returns the
// modifiers, the remaining body entries and whether any group modifier was
// present.
func splitGroupModifiers(m *orderedmap.Map) (modifiers, *orderedmap.Map, bool) {
	var mods modifiers
	body := orderedmap.NewMap()
	found := false

	m.Iterate(func(k, v interface{}) {
		raw := fmt.Sprintf("%v", k)
		key := hooks.ParseKey(raw)
		if key.IsCall() && hooks.IsReservedModifier(modifierAlias(key.Base)) {
			if mods.take(key.Base, v) {
				found = true
				return
			}
		}
		body.Set(k, v)
	})

	return mods, body, found
}

func modifierAlias(name string) string {
	if name == "cd" {
		return "chdir"
	}
	return name
}

// evalCondition renders a modifier value down to a boolean. Strings render as
// bare expressions first; anything that does not reduce to a clear truth value
// is a configuration error, caught before any dispatch happens.
func (c *Context) evalCondition(val interface{}) (bool, error) {
	switch typedVal := val.(type) {
	case bool:
		return typedVal, nil
	case nil:
		return false, nil
	case int:
		return typedVal != 0, nil
	case int64:
		return typedVal != 0, nil
	case float64:
		return typedVal != 0, nil
	case string:
		rendered, err := c.RenderString(render.WrapBare(typedVal))
		if err != nil {
			return false, err
		}
		if str, ok := rendered.(string); ok {
			parsed, parseErr := strconv.ParseBool(str)
			if parseErr != nil {
				return false, hooks.ConfigError{
					Msg:     fmt.Sprintf("Expected condition '%s' to be a boolean, but was '%s'", typedVal, str),
					KeyPath: c.keyPath.String(),
				}
			}
			return parsed, nil
		}
		return c.evalCondition(rendered)
	default:
		return false, hooks.ConfigError{
			Msg:     fmt.Sprintf("Expected condition to be a boolean, but was %T", val),
			KeyPath: c.keyPath.String(),
		}
	}
}

// evalIterable renders the for modifier's source down to a list, or a map for
// key/value iteration.
func (c *Context) evalIterable(val interface{}) (interface{}, error) {
	if str, ok := val.(string); ok {
		rendered, err := c.RenderString(render.WrapBare(str))
		if err != nil {
			return nil, err
		}
		val = rendered
	}

	switch val.(type) {
	case []interface{}, *orderedmap.Map:
		return val, nil
	default:
		return nil, hooks.ConfigError{
			Msg:     fmt.Sprintf("Expected loop source to be a list or map, but was %T", val),
			KeyPath: c.keyPath.String(),
		}
	}
}
