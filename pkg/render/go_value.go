// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"

	"github.com/k14s/starlark-go/starlark"

	"carvel.dev/hitch/pkg/orderedmap"
)

// GoValue converts document values into starlark values. Maps become structs
// so template expressions can use both attribute (m.key) and index (m["key"])
// access.
type GoValue struct {
	val interface{}
}

func NewGoValue(val interface{}) GoValue {
	return GoValue{val}
}

func (e GoValue) AsStarlarkValue() starlark.Value {
	return e.asStarlarkValue(e.val)
}

func (e GoValue) asStarlarkValue(val interface{}) starlark.Value {
	switch typedVal := val.(type) {
	case nil:
		return starlark.None

	case bool:
		return starlark.Bool(typedVal)

	case string:
		return starlark.String(typedVal)

	case int:
		return starlark.MakeInt(typedVal)

	case int64:
		return starlark.MakeInt64(typedVal)

	case uint:
		return starlark.MakeUint(typedVal)

	case uint64:
		return starlark.MakeUint64(typedVal)

	case float64:
		return starlark.Float(typedVal)

	case *orderedmap.Map:
		data := orderedmap.NewMap()
		typedVal.Iterate(func(k, v interface{}) {
			data.Set(fmt.Sprintf("%v", k), e.asStarlarkValue(v))
		})
		return NewStarlarkStruct(data)

	case []interface{}:
		result := []starlark.Value{}
		for _, v := range typedVal {
			result = append(result, e.asStarlarkValue(v))
		}
		return starlark.NewList(result)

	default:
		panic(fmt.Sprintf("unknown type %T for conversion to starlark value", val))
	}
}
