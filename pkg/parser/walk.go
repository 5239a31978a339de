// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"errors"
	"fmt"
	"os"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/hooks/dcl"
	"carvel.dev/hitch/pkg/keypath"
	"carvel.dev/hitch/pkg/orderedmap"
)

// Run walks the context's input file and returns the run's public output:
// the accumulated public document, or the return value if a break fired.
func (c *Context) Run() (interface{}, error) {
	if c.file == nil {
		return nil, fmt.Errorf("Expected context to carry an input file")
	}

	val, err := c.walkValue(c.file.Value)
	if err != nil {
		return nil, err
	}
	if c.breakFlag {
		return c.returnVal, nil
	}
	return val, nil
}

// DispatchArgs resolves trailing CLI tokens as one hook call against the
// declarations the walked file registered.
func (c *Context) DispatchArgs(tokens []string) (interface{}, error) {
	spec := hooks.UnpackList(tokens)
	mods, spec := extractSpecModifiers(spec)

	val, _, err := c.dispatchSpec(spec, nil, mods)
	if err != nil {
		return nil, err
	}
	if c.breakFlag {
		return c.returnVal, nil
	}
	return val, nil
}

// walkValue evaluates one document node and returns its value. Mappings
// evaluate into the context's output partitions; sequences and scalars
// evaluate in place.
func (c *Context) walkValue(val interface{}) (interface{}, error) {
	switch typedVal := val.(type) {
	case *orderedmap.Map:
		err := c.walkMap(typedVal)
		if err != nil {
			return nil, err
		}
		return c.public, nil
	case []interface{}:
		return c.evalList(typedVal)
	case string:
		return c.RenderString(typedVal)
	default:
		return val, nil
	}
}

func (c *Context) walkMap(m *orderedmap.Map) error {
	return m.IterateErr(func(k, v interface{}) error {
		if c.breakFlag {
			return nil
		}

		raw := fmt.Sprintf("%v", k)
		key := hooks.ParseKey(raw)

		c.keyPath = c.keyPath.Push(key.Base)
		defer func() { c.keyPath = c.keyPath[:len(c.keyPath)-1] }()

		switch {
		case key.IsDef():
			return c.registerDef(key, v)
		case key.IsCall():
			return c.evalCallKey(key, v)
		default:
			return c.evalPlainKey(key.Base, v)
		}
	})
}

// registerDef compiles a declaration document and installs it in the run's
// registry under the key's base name.
func (c *Context) registerDef(key hooks.Key, node interface{}) error {
	decl, err := dcl.Compile(key.Base, key.IsPublic(), node, c.registry)
	if err != nil {
		return err
	}
	c.registry.Register(decl)
	return nil
}

// evalPlainKey handles keys without a call suffix: nested structure, inline
// call groups and expanded calls spelled under a plain key.
func (c *Context) evalPlainKey(base string, node interface{}) error {
	switch typedNode := node.(type) {
	case *orderedmap.Map:
		if callStr, public, fields, found := takeBareCall(typedNode); found {
			mods, fields := extractModifiers(fields)
			spec := hooks.Unpack(callStr)
			return c.evalModified(base, public, mods, func() (interface{}, bool, error) {
				return c.dispatchSpec(spec, fields, mods)
			})
		}

		if mods, body, found := splitGroupModifiers(typedNode); found {
			return c.evalGroup(base, mods, body)
		}

		// plain nested mapping: establish the node up front so empty maps
		// survive and source key order is preserved
		err := keypath.Set(c.public, c.keyPath, orderedmap.NewMap())
		if err != nil {
			return err
		}
		err = c.walkMap(typedNode)
		if err != nil {
			return err
		}
		c.pruneEmptiedNode(typedNode)
		return nil

	case []interface{}:
		val, err := c.evalList(typedNode)
		if err != nil {
			return err
		}
		if c.breakFlag {
			return nil
		}
		return keypath.Set(c.public, c.keyPath, val)

	case string:
		val, err := c.RenderString(typedNode)
		if err != nil {
			return err
		}
		return keypath.Set(c.public, c.keyPath, val)

	default:
		return keypath.Set(c.public, c.keyPath, node)
	}
}

// pruneEmptiedNode drops a nested mapping's node from the public output when
// the source had entries but none of them landed there (private calls, skipped
// keys, definitions). Mappings the source spells empty stay as {}.
func (c *Context) pruneEmptiedNode(src *orderedmap.Map) {
	if src.Len() == 0 {
		return
	}
	val, found := keypath.Get(c.public, c.keyPath)
	if !found {
		return
	}
	if m, ok := val.(*orderedmap.Map); ok && m.Len() == 0 {
		keypath.Delete(c.public, c.keyPath)
	}
}

// evalList evaluates sequence items in order. Mapping items evaluate as
// isolated blocks so calls inside them resolve without touching the parent
// document until the whole list value is written.
func (c *Context) evalList(list []interface{}) ([]interface{}, error) {
	result := []interface{}{}
	for i, item := range list {
		if c.breakFlag {
			return result, nil
		}

		c.keyPath = c.keyPath.Push(i)

		var val interface{}
		var err error
		switch typedItem := item.(type) {
		case *orderedmap.Map:
			val, err = c.ParseNested(typedItem, nil)
		case []interface{}:
			val, err = c.evalList(typedItem)
		case string:
			val, err = c.RenderString(typedItem)
		default:
			val = typedItem
		}

		c.keyPath = c.keyPath[:len(c.keyPath)-1]

		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

// evalCallKey handles an arrow-suffixed key: a compact call string or an
// expanded call map.
func (c *Context) evalCallKey(key hooks.Key, node interface{}) error {
	public := key.IsPublic()

	switch typedNode := node.(type) {
	case string:
		spec := hooks.Unpack(typedNode)
		mods, spec := extractSpecModifiers(spec)
		return c.evalModified(key.Base, public, mods, func() (interface{}, bool, error) {
			return c.dispatchSpec(spec, nil, mods)
		})

	case *orderedmap.Map:
		callStr, _, rest, found := takeBareCall(typedNode)
		if !found {
			return hooks.MalformedCallError{
				Hook:    key.Base,
				Msg:     "Expected a '->' entry naming the hook within an expanded call",
				KeyPath: c.keyPath.String(),
			}
		}
		mods, fields := extractModifiers(rest)
		spec := hooks.Unpack(callStr)
		return c.evalModified(key.Base, public, mods, func() (interface{}, bool, error) {
			return c.dispatchSpec(spec, fields, mods)
		})

	default:
		return hooks.MalformedCallError{
			Hook:    key.Base,
			Msg:     fmt.Sprintf("Expected call value to be a string or map, but was %T", node),
			KeyPath: c.keyPath.String(),
		}
	}
}

// takeBareCall pulls the hook-naming entry ("->" or "_>") out of an expanded
// call map.
func takeBareCall(m *orderedmap.Map) (string, bool, *orderedmap.Map, bool) {
	var callStr string
	var public, found bool
	rest := orderedmap.NewMap()

	m.Iterate(func(k, v interface{}) {
		raw := fmt.Sprintf("%v", k)
		if !found && (raw == "->" || raw == "_>") {
			if str, ok := v.(string); ok {
				callStr = str
				public = raw == "->"
				found = true
				return
			}
		}
		rest.Set(k, v)
	})

	return callStr, public, rest, found
}

// evalGroup evaluates an inline call group: a plain key whose map value
// carries arrowed modifier keys controlling the remaining body entries.
func (c *Context) evalGroup(base string, mods modifiers, body *orderedmap.Map) error {
	if body.Len() == 0 {
		return hooks.ConfigError{
			Msg:     "Expected call group to contain at least one body entry",
			KeyPath: c.keyPath.String(),
		}
	}

	// a one-call body unwraps to the call's value; its suffix also decides
	// the group result's visibility
	public := true
	var singleCall *hooks.Key
	if body.Len() == 1 {
		raw := fmt.Sprintf("%v", body.Keys()[0])
		key := hooks.ParseKey(raw)
		if key.IsCall() {
			singleCall = &key
			public = key.IsPublic()
		}
	}

	eval := func() (interface{}, bool, error) {
		if singleCall != nil {
			return c.evalInnerCall(*singleCall, mustGet(body, body.Keys()[0]))
		}
		val, err := c.ParseNested(body, nil)
		return val, true, err
	}

	return c.evalModified(base, public, mods, eval)
}

// evalInnerCall runs a single body call in a child context and yields its raw
// value, so a one-call group unwraps to the call's result instead of a
// one-entry map.
func (c *Context) evalInnerCall(key hooks.Key, node interface{}) (interface{}, bool, error) {
	child := c.newChild(nil)

	child.keyPath = child.keyPath.Push(key.Base)
	err := child.evalCallKey(key, node)
	child.keyPath = child.keyPath[:len(child.keyPath)-1]

	if err != nil {
		return nil, false, err
	}
	if child.breakFlag {
		c.SetBreak(child.returnVal)
		return child.returnVal, false, nil
	}

	if val, found := child.public.Get(key.Base); found {
		return val, true, nil
	}
	if val, found := child.private.Get(key.Base); found {
		return val, true, nil
	}
	return nil, false, nil
}

func mustGet(m *orderedmap.Map, k interface{}) interface{} {
	val, _ := m.Get(k)
	return val
}

// evalModified runs the fixed modifier resolution order around eval: when,
// loop, per-iteration condition, try/except, then merge/skip_output/return on
// the assembled result.
func (c *Context) evalModified(base string, public bool, mods modifiers, eval func() (interface{}, bool, error)) error {
	if mods.hasWhen {
		ok, err := c.evalCondition(mods.when)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if mods.noInput {
		prev := c.noInput
		c.noInput = true
		defer func() { c.noInput = prev }()
	}

	if mods.hasChdir {
		restore, err := c.pushDir(mods.chdir)
		if err != nil {
			return err
		}
		defer restore()
	}

	if mods.hasConfirm {
		ok, err := c.askConfirm(mods.confirm)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	runOne := func() (interface{}, bool, error) {
		if mods.hasIf {
			ok, err := c.evalCondition(mods.ifVal)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				if mods.hasElse {
					val, err := c.Render(mods.elseVal)
					return val, true, err
				}
				return nil, false, nil
			}
		}

		val, write, err := eval()
		if err != nil {
			if mods.try && hooks.IsCatchable(err) {
				if mods.hasExcept {
					exceptVal, exceptErr := c.Render(mods.except)
					return exceptVal, true, exceptErr
				}
				return nil, false, nil
			}
			return nil, false, err
		}
		return val, write, nil
	}

	var result interface{}
	write := true

	if !mods.hasFor {
		var err error
		result, write, err = runOne()
		if err != nil {
			return err
		}
	} else {
		iterable, err := c.evalIterable(mods.forVal)
		if err != nil {
			return err
		}

		switch src := iterable.(type) {
		case []interface{}:
			items := src
			if mods.reverse {
				items = reversedList(src)
			}
			results := []interface{}{}
			for i, item := range items {
				restore := c.bindTemp(loopBindings(item, i))
				val, w, iterErr := runOne()
				restore()
				if iterErr != nil {
					return iterErr
				}
				if c.breakFlag {
					return nil
				}
				if w {
					results = append(results, val)
				}
			}
			result = results

		case *orderedmap.Map:
			keys := src.Keys()
			if mods.reverse {
				keys = reversedKeys(keys)
			}
			results := orderedmap.NewMap()
			for i, k := range keys {
				v, _ := src.Get(k)
				restore := c.bindTemp(kvBindings(k, v, i))
				val, w, iterErr := runOne()
				restore()
				if iterErr != nil {
					return iterErr
				}
				if c.breakFlag {
					return nil
				}
				if w {
					results.Set(k, val)
				}
			}
			result = results
		}
	}

	if c.breakFlag || !write {
		return nil
	}

	if mods.returnVal {
		c.SetBreak(result)
		return nil
	}
	if mods.skipOutput {
		return nil
	}

	return c.writeResult(public, result, mods.merge)
}

// writeResult lands a value at the current key-path in the public or private
// partition, honoring merge semantics.
func (c *Context) writeResult(public bool, val interface{}, merge bool) error {
	target := c.public
	if !public {
		target = c.private
	}

	if !merge {
		return keypath.Set(target, c.keyPath, val)
	}

	parentPath := c.keyPath[:len(c.keyPath)-1]

	switch typedVal := val.(type) {
	case *orderedmap.Map:
		var parentMap *orderedmap.Map
		if len(parentPath) == 0 {
			parentMap = target
		} else {
			parent, found := keypath.Get(target, parentPath)
			if !found {
				parentMap = orderedmap.NewMap()
				err := keypath.Set(target, parentPath, parentMap)
				if err != nil {
					return err
				}
			} else {
				var ok bool
				parentMap, ok = parent.(*orderedmap.Map)
				if !ok {
					return hooks.ConfigError{
						Msg:     "Expected parent to be a map to merge a map result",
						KeyPath: c.keyPath.String(),
					}
				}
			}
		}
		typedVal.Iterate(func(k, v interface{}) { parentMap.Set(k, v) })
		return nil

	case []interface{}:
		parent, found := keypath.Get(target, parentPath)
		if !found {
			return keypath.Set(target, parentPath, typedVal)
		}
		parentList, ok := parent.([]interface{})
		if !ok {
			return hooks.ConfigError{
				Msg:     "Expected parent to be a list to merge a list result",
				KeyPath: c.keyPath.String(),
			}
		}
		return keypath.Set(target, parentPath, append(parentList, typedVal...))

	default:
		return hooks.ConfigError{
			Msg:     fmt.Sprintf("Cannot merge a scalar result (%T) into the parent document", val),
			KeyPath: c.keyPath.String(),
		}
	}
}

// pushDir renders a chdir target and switches into it for the key's duration.
func (c *Context) pushDir(target interface{}) (func(), error) {
	rendered, err := c.Render(target)
	if err != nil {
		return nil, err
	}
	dir, ok := rendered.(string)
	if !ok {
		return nil, hooks.ConfigError{
			Msg:     fmt.Sprintf("Expected chdir target to be a string, but was %T", rendered),
			KeyPath: c.keyPath.String(),
		}
	}

	prev, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	err = os.Chdir(dir)
	if err != nil {
		return nil, hooks.ConfigError{
			Msg:     fmt.Sprintf("Changing directory: %s", err),
			KeyPath: c.keyPath.String(),
		}
	}
	return func() { _ = os.Chdir(prev) }, nil
}

// askConfirm gates a key behind a yes/no prompt. A declined answer skips the
// key; with prompting disabled the key proceeds.
func (c *Context) askConfirm(val interface{}) (bool, error) {
	if c.noInput {
		return true, nil
	}

	label := "Continue?"
	rendered, err := c.Render(val)
	if err != nil {
		return false, err
	}
	if str, ok := rendered.(string); ok {
		label = str
	}

	err = c.ui.AskForConfirmation(label)
	if err != nil {
		var declined hooks.PromptDeclinedError
		if errors.As(err, &declined) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// bindTemp overlays bindings onto the temporary partition, returning a restore
// closure.
func (c *Context) bindTemp(bindings *orderedmap.Map) func() {
	type saved struct {
		key   interface{}
		val   interface{}
		found bool
	}
	var prev []saved

	bindings.Iterate(func(k, v interface{}) {
		old, found := c.temporary.Get(k)
		prev = append(prev, saved{k, old, found})
		c.temporary.Set(k, v)
	})

	return func() {
		for _, s := range prev {
			if s.found {
				c.temporary.Set(s.key, s.val)
			} else {
				c.temporary.Delete(s.key)
			}
		}
	}
}

func loopBindings(item interface{}, index int) *orderedmap.Map {
	b := orderedmap.NewMap()
	b.Set("item", item)
	b.Set("index", index)
	return b
}

func kvBindings(key, val interface{}, index int) *orderedmap.Map {
	b := orderedmap.NewMap()
	b.Set("key", key)
	b.Set("value", val)
	b.Set("item", val)
	b.Set("index", index)
	return b
}

func reversedList(list []interface{}) []interface{} {
	result := make([]interface{}, len(list))
	for i, item := range list {
		result[len(list)-1-i] = item
	}
	return result
}

func reversedKeys(keys []interface{}) []interface{} {
	result := make([]interface{}, len(keys))
	for i, k := range keys {
		result[len(keys)-1-i] = k
	}
	return result
}
