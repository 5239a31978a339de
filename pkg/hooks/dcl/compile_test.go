// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package dcl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/hooks/dcl"
	"carvel.dev/hitch/pkg/orderedmap"
)

func mapOf(pairs ...interface{}) *orderedmap.Map {
	m := orderedmap.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestCompileLiteralDefaults(t *testing.T) {
	def := mapOf(
		"name", "a",
		"count", 3,
		"enabled", true,
	)

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)

	name := decl.Field("name")
	require.NotNil(t, name)
	require.Equal(t, hooks.TypeStr, name.Type)
	require.True(t, name.HasDefault)
	require.Equal(t, "a", name.Default)

	count := decl.Field("count")
	require.Equal(t, hooks.TypeInt, count.Type)
	require.Equal(t, 3, count.Default)

	enabled := decl.Field("enabled")
	require.Equal(t, hooks.TypeBool, enabled.Type)
}

func TestCompileBareTypeIsRequired(t *testing.T) {
	def := mapOf("name", "str", "count", "int")

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)

	name := decl.Field("name")
	require.Equal(t, hooks.TypeStr, name.Type)
	require.False(t, name.HasDefault)
	require.True(t, name.Required())

	require.Equal(t, hooks.TypeInt, decl.Field("count").Type)
}

func TestCompileFieldSchema(t *testing.T) {
	def := mapOf(
		"mode", mapOf(
			"type", "str",
			"default", "fast",
			"enum", []interface{}{"fast", "slow"},
			"description", "how eagerly to run",
		),
	)

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)

	mode := decl.Field("mode")
	require.Equal(t, hooks.TypeStr, mode.Type)
	require.Equal(t, "fast", mode.Default)
	require.Equal(t, []interface{}{"fast", "slow"}, mode.Enum)
	require.Equal(t, "how eagerly to run", mode.Description)
}

func TestCompileSchemaTypeInferredFromDefault(t *testing.T) {
	def := mapOf("count", mapOf("default", 7))

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)
	require.Equal(t, hooks.TypeInt, decl.Field("count").Type)
}

func TestCompileLiteralMapDefault(t *testing.T) {
	// a map value without schema keys is a literal default, not a schema
	def := mapOf("labels", mapOf("app", "web"))

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)

	labels := decl.Field("labels")
	require.Equal(t, hooks.TypeMap, labels.Type)
	require.True(t, labels.HasDefault)
}

func TestCompileFactoryField(t *testing.T) {
	def := mapOf("stamp->", "literal now")

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)

	stamp := decl.Field("stamp")
	require.NotNil(t, stamp.Factory)
	require.Equal(t, "stamp", stamp.Factory.Extract)
	require.False(t, stamp.Exclude)

	// the wrapped body re-performs the call under the field's own name
	body, ok := stamp.Factory.Body.(*orderedmap.Map)
	require.True(t, ok)
	_, found := body.Get("stamp->")
	require.True(t, found)
}

func TestCompilePrivateFactoryFieldIsExcluded(t *testing.T) {
	def := mapOf("secret_>", "literal hidden")

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)
	require.True(t, decl.Field("secret").Exclude)
}

func TestCompileReservedFieldNameFails(t *testing.T) {
	def := mapOf("for", "str")

	_, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.Error(t, err)
	require.IsType(t, hooks.ConfigError{}, err)
}

func TestCompileMethods(t *testing.T) {
	def := mapOf(
		"name", "a",
		"greet<-", mapOf("loud", false),
		"whisper<_", mapOf("volume", 1),
	)

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)

	greet, found := decl.Methods["greet"]
	require.True(t, found)
	require.True(t, greet.Public)
	require.Equal(t, "Demo.greet", greet.Name)

	// methods inherit the parent's fields
	require.NotNil(t, greet.Field("name"))
	require.NotNil(t, greet.Field("loud"))

	whisper := decl.Methods["whisper"]
	require.False(t, whisper.Public)
}

func TestCompileExtends(t *testing.T) {
	reg := hooks.NewRegistry()

	base, err := dcl.Compile("Base", true, mapOf("foo", "bar", "shared", 1), reg)
	require.NoError(t, err)
	reg.Register(base)

	child, err := dcl.Compile("Child", true, mapOf(
		"extends", "Base",
		"shared", 2,
	), reg)
	require.NoError(t, err)

	// inherited field keeps the base default
	require.Equal(t, "bar", child.Field("foo").Default)
	// directly declared field wins on conflict
	require.Equal(t, 2, child.Field("shared").Default)
}

func TestCompileExtendsUnknownBaseFails(t *testing.T) {
	_, err := dcl.Compile("Child", true, mapOf("extends", "Missing"), hooks.NewRegistry())
	require.Error(t, err)
	require.IsType(t, hooks.ConfigError{}, err)
	require.Contains(t, err.Error(), "Missing")
}

func TestCompileArgsMustNameFields(t *testing.T) {
	def := mapOf("args", []interface{}{"nope"})

	_, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.Error(t, err)
	require.Contains(t, err.Error(), "undeclared field")
}

func TestCompileArgsAndKwargs(t *testing.T) {
	def := mapOf(
		"name", "str",
		"args", []interface{}{"name"},
		"kwargs", "rest",
	)

	decl, err := dcl.Compile("Demo", true, def, hooks.NewRegistry())
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, decl.Args)
	require.Equal(t, "rest", decl.KwargsField)
	require.NotNil(t, decl.Field("rest"))
}

func TestCompileAliasShorthand(t *testing.T) {
	decl, err := dcl.Compile("Greet", true, "literal hello", hooks.NewRegistry())
	require.NoError(t, err)
	require.NotNil(t, decl.ExecBody)
	require.NotNil(t, decl.ReturnExpr)
}
