// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package contexts_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/parser"
	"carvel.dev/hitch/pkg/providers/contexts"
	"carvel.dev/hitch/pkg/providers/logic"
)

func evalDoc(t *testing.T, src string) *orderedmap.Map {
	file, err := document.Parse([]byte(src), "test.yaml")
	require.NoError(t, err)

	reg := hooks.NewRegistry()
	contexts.Register(reg)
	logic.Register(reg)

	ctx := parser.NewContext(parser.Opts{Registry: reg, File: file, NoInput: true})
	out, err := ctx.Run()
	require.NoError(t, err)
	return out.(*orderedmap.Map)
}

func TestGetByPath(t *testing.T) {
	src := `
project:
  name: demo
  tags: [a, b]
name->: get project/name
tag->: get project/tags/1
dotted->:
  ->: get project.name
  sep: "."
`
	out := evalDoc(t, src)

	name, _ := out.Get("name")
	require.Equal(t, "demo", name)
	tag, _ := out.Get("tag")
	require.Equal(t, "b", tag)
	dotted, _ := out.Get("dotted")
	require.Equal(t, "demo", dotted)
}

func TestGetPrefersMostRecentData(t *testing.T) {
	src := `
secret_>: literal priv
fromPriv->: get secret
`
	out := evalDoc(t, src)

	val, _ := out.Get("fromPriv")
	require.Equal(t, "priv", val)
}

func TestGetMatchesTemplateScopePrecedence(t *testing.T) {
	src := `
item: doc
looped->:
  ->: get item
  for: [x]
`
	out := evalDoc(t, src)

	// inside a loop, get resolves the loop binding the same way {{item}} does
	looped, _ := out.Get("looped")
	require.Equal(t, []interface{}{"x"}, looped)
}

func TestGetMissingFails(t *testing.T) {
	file, err := document.Parse([]byte(`{"x->": "get nope"}`), "test.yaml")
	require.NoError(t, err)

	reg := hooks.NewRegistry()
	contexts.Register(reg)

	ctx := parser.NewContext(parser.Opts{Registry: reg, File: file, NoInput: true})
	_, err = ctx.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "No value at path")
}

func TestSetWritesIntoOutput(t *testing.T) {
	src := `
s->: set a/b 5
after: 1
`
	out := evalDoc(t, src)

	a, _ := out.Get("a")
	b, _ := a.(*orderedmap.Map).Get("b")
	require.Equal(t, 5, b)

	// set itself produces no output entry
	_, found := out.Get("s")
	require.False(t, found)
}

func TestUpdateMergesMap(t *testing.T) {
	src := `
config:
  a: 1
u->:
  ->: update config
  value:
    b: 2
`
	out := evalDoc(t, src)

	config, _ := out.Get("config")
	configMap := config.(*orderedmap.Map)

	a, _ := configMap.Get("a")
	require.Equal(t, 1, a)
	b, _ := configMap.Get("b")
	require.Equal(t, 2, b)
}

func TestUpdateMissingPathSets(t *testing.T) {
	src := `
u->:
  ->: update fresh
  value:
    x: 1
`
	out := evalDoc(t, src)

	fresh, _ := out.Get("fresh")
	x, _ := fresh.(*orderedmap.Map).Get("x")
	require.Equal(t, 1, x)
}

func TestDeleteRemovesValue(t *testing.T) {
	src := `
keep: 1
gone: 2
d->: delete gone
`
	out := evalDoc(t, src)

	_, found := out.Get("gone")
	require.False(t, found)
	_, found = out.Get("keep")
	require.True(t, found)
}

func TestKeys(t *testing.T) {
	src := `
config:
  b: 1
  a: 2
k->: keys config
`
	out := evalDoc(t, src)

	k, _ := out.Get("k")
	require.Equal(t, []interface{}{"b", "a"}, k)
}
