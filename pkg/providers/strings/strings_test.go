// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package strings_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/parser"
	strhooks "carvel.dev/hitch/pkg/providers/strings"
)

func evalDoc(t *testing.T, src string) *orderedmap.Map {
	file, err := document.Parse([]byte(src), "test.yaml")
	require.NoError(t, err)

	reg := hooks.NewRegistry()
	strhooks.Register(reg)

	ctx := parser.NewContext(parser.Opts{Registry: reg, File: file, NoInput: true})
	out, err := ctx.Run()
	require.NoError(t, err)
	return out.(*orderedmap.Map)
}

func TestSplitDefaultSeparator(t *testing.T) {
	out := evalDoc(t, `{"parts->": "split 'a b c'"}`)
	parts, _ := out.Get("parts")
	require.Equal(t, []interface{}{"a", "b", "c"}, parts)
}

func TestJoin(t *testing.T) {
	src := `
joined->:
  ->: join
  input: [a, 1, true]
  separator: "-"
`
	out := evalDoc(t, src)
	joined, _ := out.Get("joined")
	require.Equal(t, "a-1-true", joined)
}

func TestUpperLower(t *testing.T) {
	out := evalDoc(t, `
up->: upper mixed
down->: lower MIXED
`)
	up, _ := out.Get("up")
	require.Equal(t, "MIXED", up)
	down, _ := out.Get("down")
	require.Equal(t, "mixed", down)
}

func TestReplace(t *testing.T) {
	out := evalDoc(t, `{"fixed->": "replace a.b.c . /"}`)
	fixed, _ := out.Get("fixed")
	require.Equal(t, "a/b/c", fixed)
}

func TestDiff(t *testing.T) {
	src := `
d->:
  ->: diff
  left: "a\nb\n"
  right: "a\nc\n"
`
	out := evalDoc(t, src)
	d, _ := out.Get("d")
	diff := d.(string)
	require.Contains(t, diff, "b")
	require.Contains(t, diff, "c")
}
