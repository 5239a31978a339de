// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document_test

import (
	"fmt"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/keypath"
	"carvel.dev/hitch/pkg/orderedmap"
)

func TestParseYAMLKeepsKeyOrder(t *testing.T) {
	file, err := document.Parse([]byte(`
zeta: 1
alpha: 2
mid:
  inner: true
`), "test.yaml")
	require.NoError(t, err)

	root := file.Value.(*orderedmap.Map)
	require.Equal(t, []interface{}{"zeta", "alpha", "mid"}, root.Keys())

	mid, _ := root.Get("mid")
	inner, _ := mid.(*orderedmap.Map).Get("inner")
	require.Equal(t, true, inner)
}

func TestParseYAMLScalarTypes(t *testing.T) {
	file, err := document.Parse([]byte(`
s: text
i: 3
f: 1.5
b: true
n: null
`), "test.yaml")
	require.NoError(t, err)

	root := file.Value.(*orderedmap.Map)
	s, _ := root.Get("s")
	require.Equal(t, "text", s)
	i, _ := root.Get("i")
	require.Equal(t, 3, i)
	f, _ := root.Get("f")
	require.Equal(t, 1.5, f)
	b, _ := root.Get("b")
	require.Equal(t, true, b)
	n, _ := root.Get("n")
	require.Nil(t, n)
}

func TestParseJSONAsYAMLSubset(t *testing.T) {
	file, err := document.Parse([]byte(`{"a": 1, "b": [true, "x"]}`), "test.json")
	require.NoError(t, err)

	root := file.Value.(*orderedmap.Map)
	require.Equal(t, []interface{}{"a", "b"}, root.Keys())

	b, _ := root.Get("b")
	require.Equal(t, []interface{}{true, "x"}, b)
}

func TestParseTOML(t *testing.T) {
	file, err := document.Parse([]byte(`
count = 3
name = "demo"

[nested]
flag = true
`), "test.toml")
	require.NoError(t, err)

	root := file.Value.(*orderedmap.Map)
	count, _ := root.Get("count")
	require.Equal(t, 3, count)

	nested, _ := root.Get("nested")
	flag, _ := nested.(*orderedmap.Map).Get("flag")
	require.Equal(t, true, flag)
}

func TestParseDuplicateKeyFails(t *testing.T) {
	_, err := document.Parse([]byte("a: 1\na: 2\n"), "test.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already defined")
}

func TestParseEmptyDocumentFails(t *testing.T) {
	_, err := document.Parse([]byte(""), "test.yaml")
	require.Error(t, err)

	_, err = document.Parse([]byte(""), "test.toml")
	require.Error(t, err)
}

func TestParseTracksPositions(t *testing.T) {
	file, err := document.Parse([]byte(`first: 1
nested:
  inner: 2
`), "test.yaml")
	require.NoError(t, err)

	pos := file.Position(keypath.NewPath("nested", "inner"))
	require.True(t, pos.IsKnown())
	require.Equal(t, 3, pos.LineNum())
	require.Equal(t, "test.yaml", pos.GetFile())

	pos = file.Position(keypath.NewPath("missing"))
	require.False(t, pos.IsKnown())
	require.Equal(t, "test.yaml", pos.GetFile())
}

func docOf(pairs ...interface{}) *orderedmap.Map {
	m := orderedmap.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestPrintYAML(t *testing.T) {
	doc := docOf("a", 1, "b", docOf("c", []interface{}{"x"}))

	out, err := document.Print(doc, document.OutputYAML)
	require.NoError(t, err)
	require.Equal(t, "a: 1\nb:\n  c:\n    - x\n", string(out))
}

func TestPrintJSON(t *testing.T) {
	doc := docOf("a", 1, "b", []interface{}{true}, "c", docOf())

	out, err := document.Print(doc, document.OutputJSON)
	require.NoError(t, err)
	require.Equal(t, `{
  "a": 1,
  "b": [
    true
  ],
  "c": {}
}
`, string(out))
}

func TestPrintTOML(t *testing.T) {
	doc := docOf("name", "demo", "count", 3)

	out, err := document.Print(doc, document.OutputTOML)
	require.NoError(t, err)
	require.Contains(t, string(out), `name = "demo"`)
	require.Contains(t, string(out), "count = 3")
}

func TestPrintTOMLRequiresMap(t *testing.T) {
	_, err := document.Print([]interface{}{1}, document.OutputTOML)
	require.Error(t, err)
}

func TestPrintUnknownFormatFails(t *testing.T) {
	_, err := document.Print(docOf("a", 1), "xml")
	require.Error(t, err)
}

func TestPrintParseRoundTrip(t *testing.T) {
	doc := docOf(
		"name", "demo",
		"nested", docOf("list", []interface{}{1, "two", true}),
		"empty", docOf(),
	)

	out, err := document.Print(doc, document.OutputYAML)
	require.NoError(t, err)

	file, err := document.Parse(out, "roundtrip.yaml")
	require.NoError(t, err)
	require.Equal(t, doc, file.Value)
}

func TestPrintParseRoundTripFuzzed(t *testing.T) {
	fuzzer := fuzz.New().NilChance(0).NumElements(1, 20)

	for i := 0; i < 50; i++ {
		var vals map[string]string
		fuzzer.Fuzz(&vals)

		doc := orderedmap.NewMap()
		doc.Set("seed", fmt.Sprintf("%d", i))
		for k, v := range vals {
			doc.Set(k, v)
		}

		out, err := document.Print(doc, document.OutputYAML)
		require.NoError(t, err)

		file, err := document.Parse(out, "fuzz.yaml")
		require.NoError(t, err)

		parsed := file.Value.(*orderedmap.Map)
		require.Equal(t, doc.Len(), parsed.Len())
		doc.Iterate(func(k, v interface{}) {
			got, found := parsed.Get(k)
			require.True(t, found)
			require.Equal(t, v, got)
		})
	}
}
