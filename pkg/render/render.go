// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package render evaluates {{ ... }} template expressions embedded in document
// strings. Expressions are starlark, evaluated against the run's accumulated
// data with strict-undefined semantics: referencing an unbound name is an
// error, never an empty string. Registered hook-backed functions are callable
// from within expressions.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/k14s/starlark-go/resolve"
	"github.com/k14s/starlark-go/starlark"

	"carvel.dev/hitch/pkg/orderedmap"
)

var (
	templateRegexp  = regexp.MustCompile(`\{\{(.*?)\}\}`)
	undefinedRegexp = regexp.MustCompile(`undefined: (\w+)`)
)

// Func is a template-callable function, typically backed by a hook dispatch.
type Func func(args []interface{}, kwargs *orderedmap.Map) (interface{}, error)

// UndefinedError reports a strict-undefined violation.
type UndefinedError struct {
	Name string
	Expr string
}

func (e UndefinedError) Error() string {
	return fmt.Sprintf("Undefined variable '%s' in expression '%s'", e.Name, e.Expr)
}

type Renderer struct{}

func NewRenderer() *Renderer {
	// Package level knobs of the starlark resolver
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowLambda = true
	resolve.AllowNestedDef = true
	resolve.AllowBitwise = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true

	return &Renderer{}
}

// HasTemplate reports whether str contains at least one {{ ... }} region.
func (r *Renderer) HasTemplate(str string) bool {
	return templateRegexp.MatchString(str)
}

// WrapBare wraps an expression in template delimiters unless some are already
// present. Used for fields that render by default (eg `if`, `when`, `for`).
func WrapBare(str string) string {
	if strings.Contains(str, "{{") {
		return str
	}
	return "{{" + str + "}}"
}

// Render evaluates every template region of tmpl against scope. A string that
// is exactly one template region evaluates to the expression's native value;
// mixed text renders to a string.
func (r *Renderer) Render(tmpl string, scope *orderedmap.Map, funcs map[string]Func) (interface{}, error) {
	matches := templateRegexp.FindAllStringSubmatchIndex(tmpl, -1)
	if len(matches) == 0 {
		return tmpl, nil
	}

	trimmed := strings.TrimSpace(tmpl)
	if len(matches) == 1 && strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") {
		expr := tmpl[matches[0][2]:matches[0][3]]
		return r.Eval(strings.TrimSpace(expr), scope, funcs)
	}

	var b strings.Builder
	last := 0
	for _, match := range matches {
		b.WriteString(tmpl[last:match[0]])
		val, err := r.Eval(strings.TrimSpace(tmpl[match[2]:match[3]]), scope, funcs)
		if err != nil {
			return nil, err
		}
		b.WriteString(Stringify(val))
		last = match[1]
	}
	b.WriteString(tmpl[last:])

	return b.String(), nil
}

// Eval evaluates one bare starlark expression against scope.
func (r *Renderer) Eval(expr string, scope *orderedmap.Map, funcs map[string]Func) (interface{}, error) {
	if expr == "" {
		return nil, fmt.Errorf("Expected non-empty expression")
	}

	env := starlark.StringDict{}

	for name, f := range funcs {
		env[name] = r.newBuiltin(name, f)
	}
	if scope != nil {
		scope.Iterate(func(k, v interface{}) {
			env[fmt.Sprintf("%v", k)] = NewGoValue(v).AsStarlarkValue()
		})
	}

	thread := &starlark.Thread{Name: "render"}

	val, err := starlark.Eval(thread, "expression", expr, env)
	if err != nil {
		if match := undefinedRegexp.FindStringSubmatch(err.Error()); match != nil {
			return nil, UndefinedError{Name: match[1], Expr: expr}
		}
		return nil, fmt.Errorf("Evaluating expression '%s': %s", expr, err)
	}

	return NewStarlarkValue(val).AsGoValue(), nil
}

func (r *Renderer) newBuiltin(name string, f Func) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin,
		args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

		var goArgs []interface{}
		for i := 0; i < args.Len(); i++ {
			goArgs = append(goArgs, NewStarlarkValue(args.Index(i)).AsGoValue())
		}

		goKwargs := orderedmap.NewMap()
		for _, kwarg := range kwargs {
			if kwarg.Len() != 2 {
				return starlark.None, fmt.Errorf("%s: kwarg item is not KV", name)
			}
			key, err := NewStarlarkValue(kwarg.Index(0)).AsString()
			if err != nil {
				return starlark.None, fmt.Errorf("%s: %s", name, err)
			}
			goKwargs.Set(key, NewStarlarkValue(kwarg.Index(1)).AsGoValue())
		}

		result, err := f(goArgs, goKwargs)
		if err != nil {
			return starlark.None, fmt.Errorf("%s: %s", name, err)
		}
		return NewGoValue(result).AsStarlarkValue(), nil
	})
}

// Stringify renders a value into template output text.
func Stringify(val interface{}) string {
	switch typedVal := val.(type) {
	case nil:
		return ""
	case string:
		return typedVal
	case bool:
		if typedVal {
			return "true"
		}
		return "false"
	case *orderedmap.Map:
		var pairs []string
		typedVal.Iterate(func(k, v interface{}) {
			pairs = append(pairs, fmt.Sprintf("%v: %s", k, Stringify(v)))
		})
		return "{" + strings.Join(pairs, ", ") + "}"
	case []interface{}:
		var items []string
		for _, item := range typedVal {
			items = append(items, Stringify(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprintf("%v", typedVal)
	}
}
