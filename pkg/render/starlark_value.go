// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"

	"github.com/k14s/starlark-go/starlark"

	"carvel.dev/hitch/pkg/orderedmap"
)

// StarlarkValue converts evaluation results back into document values.
type StarlarkValue struct {
	val starlark.Value
}

func NewStarlarkValue(val starlark.Value) StarlarkValue {
	return StarlarkValue{val}
}

func (e StarlarkValue) AsGoValue() interface{} {
	return e.asInterface(e.val)
}

func (e StarlarkValue) AsString() (string, error) {
	if typedVal, ok := e.val.(starlark.String); ok {
		return string(typedVal), nil
	}
	return "", fmt.Errorf("expected starlark.String, but was %T", e.val)
}

func (e StarlarkValue) asInterface(val starlark.Value) interface{} {
	switch typedVal := val.(type) {
	case nil, starlark.NoneType:
		return nil

	case starlark.Bool:
		return bool(typedVal)

	case starlark.String:
		return string(typedVal)

	case starlark.Int:
		i1, ok := typedVal.Int64()
		if ok {
			return int(i1)
		}
		i2, ok := typedVal.Uint64()
		if ok {
			return i2
		}
		panic("int64 does not fit starlark.Int")

	case starlark.Float:
		return float64(typedVal)

	case *starlark.Dict:
		return e.dictAsInterface(typedVal)

	case *StarlarkStruct:
		return e.structAsInterface(typedVal)

	case *starlark.List:
		return e.iterableAsInterface(typedVal)

	case starlark.Tuple:
		return e.iterableAsInterface(typedVal)

	case *starlark.Set:
		return e.iterableAsInterface(typedVal)

	default:
		panic(fmt.Sprintf("unknown type %T for conversion to go value", val))
	}
}

func (e StarlarkValue) dictAsInterface(val *starlark.Dict) interface{} {
	result := orderedmap.NewMap()
	for _, item := range val.Items() {
		if item.Len() != 2 {
			panic("dict item is not KV")
		}
		result.Set(e.asInterface(item.Index(0)), e.asInterface(item.Index(1)))
	}
	return result
}

func (e StarlarkValue) structAsInterface(val *StarlarkStruct) interface{} {
	result := orderedmap.NewMap()
	val.data.Iterate(func(k, v interface{}) {
		result.Set(k, e.asInterface(v.(starlark.Value)))
	})
	return result
}

func (e StarlarkValue) iterableAsInterface(iterable starlark.Iterable) interface{} {
	iter := iterable.Iterate()
	defer iter.Done()

	result := []interface{}{}
	var x starlark.Value
	for iter.Next(&x) {
		result = append(result, e.asInterface(x))
	}
	return result
}
