// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"
	"strings"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/render"
)

// lookupHook resolves a hook name, including the "Hook.method" dotted syntax
// for methods of declarative hooks.
func (c *Context) lookupHook(name string) (*hooks.Declaration, error) {
	parts := strings.SplitN(name, ".", 2)

	decl, err := c.registry.Lookup(parts[0])
	if err != nil {
		var unknownErr hooks.UnknownHookError
		if ok := asUnknown(err, &unknownErr); ok {
			unknownErr.KeyPath = c.keyPath.String()
			return nil, unknownErr
		}
		return nil, err
	}

	if len(parts) == 2 {
		method, found := decl.Methods[parts[1]]
		if !found {
			return nil, hooks.UnknownHookError{Name: name, KeyPath: c.keyPath.String()}
		}
		return method, nil
	}
	return decl, nil
}

func asUnknown(err error, target *hooks.UnknownHookError) bool {
	typed, ok := err.(hooks.UnknownHookError)
	if ok {
		*target = typed
	}
	return ok
}

// dispatchSpec resolves a call spec's hook name, folds in the kwargs modifier
// and dispatches. The second result reports whether the value should be
// written (false for declarations marked skip_output).
func (c *Context) dispatchSpec(spec hooks.CallSpec, fields *orderedmap.Map, mods modifiers) (interface{}, bool, error) {
	if len(spec.Args) == 0 {
		return nil, false, hooks.MalformedCallError{
			Msg:     "Expected a hook name",
			KeyPath: c.keyPath.String(),
		}
	}

	name, ok := spec.Args[0].(string)
	if !ok {
		return nil, false, hooks.MalformedCallError{
			Msg:     fmt.Sprintf("Expected hook name to be a string, but was %T", spec.Args[0]),
			KeyPath: c.keyPath.String(),
		}
	}
	if c.renderer.HasTemplate(name) {
		rendered, err := c.RenderString(name)
		if err != nil {
			return nil, false, err
		}
		name, ok = rendered.(string)
		if !ok {
			return nil, false, hooks.MalformedCallError{
				Msg:     "Expected hook name to render to a string",
				KeyPath: c.keyPath.String(),
			}
		}
	}

	decl, err := c.lookupHook(name)
	if err != nil {
		return nil, false, err
	}

	callFields := orderedmap.NewMap()
	if mods.hasKwargs {
		extra, err := c.renderKwargsModifier(mods.kwargs)
		if err != nil {
			return nil, false, err
		}
		extra.Iterate(func(k, v interface{}) { callFields.Set(k, v) })
	}
	if fields != nil {
		fields.Iterate(func(k, v interface{}) { callFields.Set(k, v) })
	}

	rest := hooks.CallSpec{Args: spec.Args[1:], Kwargs: spec.Kwargs, Flags: spec.Flags}

	val, err := c.dispatch(decl, rest, callFields, true)
	if err != nil {
		return nil, false, err
	}
	return val, !decl.SkipOutput, nil
}

func (c *Context) renderKwargsModifier(val interface{}) (*orderedmap.Map, error) {
	rendered, err := c.Render(val)
	if err != nil {
		return nil, err
	}
	m, ok := rendered.(*orderedmap.Map)
	if !ok {
		return nil, hooks.ConfigError{
			Msg:     fmt.Sprintf("Expected kwargs to be a map, but was %T", rendered),
			KeyPath: c.keyPath.String(),
		}
	}
	return m, nil
}

// candidate is one raw call-site value before rendering and validation. Token
// values come from compact call strings and render in string context.
type candidate struct {
	val   interface{}
	token bool
}

// dispatch validates a call against a declaration and executes it: positional
// binding, flag and kwarg merging, template rendering of field values, type
// coercion, defaults and default factories, then the native or declarative
// execute path.
func (c *Context) dispatch(decl *hooks.Declaration, spec hooks.CallSpec, fields *orderedmap.Map, renderArgs bool) (interface{}, error) {
	values := orderedmap.NewMap()

	if len(spec.Args) > len(decl.Args) {
		return nil, hooks.MalformedCallError{
			Hook:    decl.Name,
			Msg:     fmt.Sprintf("Expected at most %d positional arguments, got %d", len(decl.Args), len(spec.Args)),
			KeyPath: c.keyPath.String(),
		}
	}
	for i, arg := range spec.Args {
		values.Set(decl.Args[i], candidate{arg, true})
	}
	for _, flag := range spec.Flags {
		values.Set(flag, candidate{true, false})
	}
	if spec.Kwargs != nil {
		spec.Kwargs.Iterate(func(k, v interface{}) {
			values.Set(fmt.Sprintf("%v", k), candidate{v, true})
		})
	}
	if fields != nil {
		fields.Iterate(func(k, v interface{}) {
			values.Set(fmt.Sprintf("%v", k), candidate{v, false})
		})
	}

	in := hooks.Inputs{}
	extra := orderedmap.NewMap()

	err := values.IterateErr(func(k, v interface{}) error {
		name := k.(string)
		cand := v.(candidate)

		field := decl.Field(name)
		if field == nil {
			if decl.KwargsField == "" {
				return hooks.MalformedCallError{
					Hook:    decl.Name,
					Field:   name,
					Msg:     "Unknown field",
					KeyPath: c.keyPath.String(),
				}
			}
			val, err := c.renderFieldValue(cand, nil, renderArgs)
			if err != nil {
				return err
			}
			extra.Set(name, val)
			return nil
		}

		val, err := c.renderFieldValue(cand, field, renderArgs)
		if err != nil {
			return err
		}
		return c.bindField(decl, field, val, in)
	})
	if err != nil {
		return nil, err
	}

	err = c.applyDefaults(decl, in)
	if err != nil {
		return nil, err
	}
	if c.breakFlag {
		return c.returnVal, nil
	}

	if decl.KwargsField != "" {
		existing, _ := in[decl.KwargsField].(*orderedmap.Map)
		if existing == nil {
			existing = orderedmap.NewMap()
		}
		extra.Iterate(func(k, v interface{}) { existing.Set(k, v) })
		in[decl.KwargsField] = existing
	}

	for _, field := range decl.Fields {
		if field.Required() && !in.Has(field.Name) {
			return nil, hooks.MalformedCallError{
				Hook:    decl.Name,
				Field:   field.Name,
				Msg:     "Missing required field",
				KeyPath: c.keyPath.String(),
			}
		}
	}

	return c.execute(decl, in)
}

// renderFieldValue template-evaluates one call-site value per the field's
// rendering designation. Token values (compact call string pieces) stay
// strings for str/any fields so `literal {{n}}` yields "1", not 1.
func (c *Context) renderFieldValue(cand candidate, field *hooks.Field, renderArgs bool) (interface{}, error) {
	if !renderArgs || (field != nil && field.RenderExclude) {
		return cand.val, nil
	}

	str, isStr := cand.val.(string)
	if !isStr {
		return c.Render(cand.val)
	}

	if field != nil && field.RenderByDefault {
		str = render.WrapBare(str)
	}

	val, err := c.RenderString(str)
	if err != nil {
		return nil, err
	}

	if cand.token {
		if _, isStr := val.(string); !isStr {
			if field == nil || field.Type == hooks.TypeStr || field.Type == hooks.TypeAny {
				return render.Stringify(val), nil
			}
		}
	}
	return val, nil
}

func (c *Context) bindField(decl *hooks.Declaration, field *hooks.Field, val interface{}, in hooks.Inputs) error {
	coerced, err := hooks.Coerce(val, field.Type)
	if err != nil {
		return hooks.MalformedCallError{
			Hook:    decl.Name,
			Field:   field.Name,
			Msg:     err.Error(),
			KeyPath: c.keyPath.String(),
		}
	}
	err = hooks.CheckEnum(coerced, field.Enum)
	if err != nil {
		return hooks.MalformedCallError{
			Hook:    decl.Name,
			Field:   field.Name,
			Msg:     err.Error(),
			KeyPath: c.keyPath.String(),
		}
	}
	in[field.Name] = coerced
	return nil
}

// applyDefaults fills unsupplied fields in declaration order, so defaults and
// factories may reference fields bound before them.
func (c *Context) applyDefaults(decl *hooks.Declaration, in hooks.Inputs) error {
	for _, field := range decl.Fields {
		if in.Has(field.Name) {
			continue
		}

		switch {
		case field.HasDefault:
			def := orderedmap.DeepCopyValue(field.Default)
			if !field.RenderExclude {
				restore := c.bindTemp(inputsAsMap(decl, in))
				rendered, err := c.Render(def)
				restore()
				if err != nil {
					return err
				}
				def = rendered
			}
			err := c.bindField(decl, field, def, in)
			if err != nil {
				return err
			}

		case field.Factory != nil:
			val, err := c.evalFactory(field, inputsAsMap(decl, in))
			if err != nil {
				return err
			}
			if c.breakFlag {
				return nil
			}
			err = c.bindField(decl, field, val, in)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// evalFactory runs a default-factory document once, with the already-bound
// fields visible as temporary bindings.
func (c *Context) evalFactory(field *hooks.Field, temp *orderedmap.Map) (interface{}, error) {
	body := orderedmap.DeepCopyValue(field.Factory.Body)

	val, err := c.ParseNested(body, temp)
	if err != nil {
		return nil, err
	}

	if field.Factory.Extract != "" {
		if m, ok := val.(*orderedmap.Map); ok {
			if inner, found := m.Get(field.Factory.Extract); found {
				return inner, nil
			}
		}
	}
	return val, nil
}

// execute invokes the native run function, or evaluates the declarative exec
// body with the bound fields as temporary bindings.
func (c *Context) execute(decl *hooks.Declaration, in hooks.Inputs) (interface{}, error) {
	if decl.Run != nil {
		val, err := decl.Run(c, in)
		if err != nil {
			return nil, c.wrapExecErr(decl.Name, err)
		}
		return val, nil
	}

	temp := inputsAsMap(decl, in)

	var result interface{}
	if decl.ExecBody != nil {
		body := orderedmap.DeepCopyValue(decl.ExecBody)
		var err error
		result, err = c.ParseNested(body, temp)
		if err != nil {
			return nil, c.wrapExecErr(decl.Name, err)
		}
		if c.breakFlag {
			return c.returnVal, nil
		}
	} else {
		out := orderedmap.NewMap()
		for _, field := range decl.Fields {
			if field.Exclude || !in.Has(field.Name) {
				continue
			}
			out.Set(field.Name, in[field.Name])
		}
		result = out
	}

	if decl.ReturnExpr != nil {
		if resultMap, ok := result.(*orderedmap.Map); ok {
			resultMap.Iterate(func(k, v interface{}) { temp.Set(k, v) })
		}
		restore := c.bindTemp(temp)
		rendered, err := c.Render(orderedmap.DeepCopyValue(decl.ReturnExpr))
		restore()
		if err != nil {
			return nil, c.wrapExecErr(decl.Name, err)
		}
		result = rendered
	}

	return result, nil
}

// wrapExecErr tags plain errors with the hook name and key-path; typed
// failures already carry their own diagnostics.
func (c *Context) wrapExecErr(name string, err error) error {
	switch err.(type) {
	case hooks.ConfigError, hooks.UnknownHookError, hooks.MalformedCallError,
		hooks.RenderError, hooks.ExecError, hooks.PromptAbortError:
		return err
	default:
		return hooks.ExecError{Hook: name, KeyPath: c.keyPath.String(), Err: err}
	}
}

func inputsAsMap(decl *hooks.Declaration, in hooks.Inputs) *orderedmap.Map {
	result := orderedmap.NewMap()
	for _, field := range decl.Fields {
		if val, found := in[field.Name]; found {
			result.Set(field.Name, val)
		}
	}
	if decl.KwargsField != "" {
		if val, found := in[decl.KwargsField]; found {
			result.Set(decl.KwargsField, val)
		}
	}
	return result
}
