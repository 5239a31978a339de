// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/render"
)

func scopeOf(pairs ...interface{}) *orderedmap.Map {
	m := orderedmap.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestRenderPlainStringPassesThrough(t *testing.T) {
	r := render.NewRenderer()

	val, err := r.Render("no templates here", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "no templates here", val)
}

func TestRenderWholeTemplateKeepsNativeType(t *testing.T) {
	r := render.NewRenderer()
	scope := scopeOf("count", 3, "items", []interface{}{1, 2})

	val, err := r.Render("{{count}}", scope, nil)
	require.NoError(t, err)
	require.Equal(t, 3, val)

	val, err = r.Render("{{items}}", scope, nil)
	require.NoError(t, err)
	require.Equal(t, []interface{}{1, 2}, val)

	val, err = r.Render("{{count == 3}}", scope, nil)
	require.NoError(t, err)
	require.Equal(t, true, val)
}

func TestRenderMixedTextStringifies(t *testing.T) {
	r := render.NewRenderer()
	scope := scopeOf("name", "world", "count", 3)

	val, err := r.Render("hello {{name}}, {{count}} times", scope, nil)
	require.NoError(t, err)
	require.Equal(t, "hello world, 3 times", val)
}

func TestRenderStrictUndefined(t *testing.T) {
	r := render.NewRenderer()

	_, err := r.Render("{{missing}}", scopeOf(), nil)
	require.Error(t, err)

	undefErr, ok := err.(render.UndefinedError)
	require.True(t, ok)
	require.Equal(t, "missing", undefErr.Name)
}

func TestRenderMapAttributeAndIndexAccess(t *testing.T) {
	r := render.NewRenderer()
	scope := scopeOf("project", scopeOf("name", "hitch"))

	val, err := r.Render("{{project.name}}", scope, nil)
	require.NoError(t, err)
	require.Equal(t, "hitch", val)

	val, err = r.Render(`{{project["name"]}}`, scope, nil)
	require.NoError(t, err)
	require.Equal(t, "hitch", val)
}

func TestRenderExpressionArithmetic(t *testing.T) {
	r := render.NewRenderer()

	val, err := r.Render("{{1 + 2 * 3}}", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 7, val)
}

func TestRenderInjectedFuncs(t *testing.T) {
	r := render.NewRenderer()

	funcs := map[string]render.Func{
		"shout": func(args []interface{}, kwargs *orderedmap.Map) (interface{}, error) {
			return args[0].(string) + "!", nil
		},
	}

	val, err := r.Render(`{{shout("hey")}}`, nil, funcs)
	require.NoError(t, err)
	require.Equal(t, "hey!", val)
}

func TestRenderFuncKwargs(t *testing.T) {
	r := render.NewRenderer()

	funcs := map[string]render.Func{
		"echo": func(args []interface{}, kwargs *orderedmap.Map) (interface{}, error) {
			val, _ := kwargs.Get("value")
			return val, nil
		},
	}

	val, err := r.Render(`{{echo(value=41)}}`, nil, funcs)
	require.NoError(t, err)
	require.Equal(t, 41, val)
}

func TestScopeValueShadowsFunc(t *testing.T) {
	r := render.NewRenderer()

	funcs := map[string]render.Func{
		"x": func(args []interface{}, kwargs *orderedmap.Map) (interface{}, error) {
			return "func", nil
		},
	}

	val, err := r.Render("{{x}}", scopeOf("x", "value"), funcs)
	require.NoError(t, err)
	require.Equal(t, "value", val)
}

func TestWrapBare(t *testing.T) {
	require.Equal(t, "{{x == 1}}", render.WrapBare("x == 1"))
	require.Equal(t, "{{x}} there", render.WrapBare("{{x}} there"))
}

func TestHasTemplate(t *testing.T) {
	r := render.NewRenderer()
	require.True(t, r.HasTemplate("a {{b}} c"))
	require.False(t, r.HasTemplate("a b c"))
}

func TestStringify(t *testing.T) {
	require.Equal(t, "", render.Stringify(nil))
	require.Equal(t, "true", render.Stringify(true))
	require.Equal(t, "3", render.Stringify(3))
	require.Equal(t, "[1, 2]", render.Stringify([]interface{}{1, 2}))
	require.Equal(t, "{a: 1}", render.Stringify(scopeOf("a", 1)))
}
