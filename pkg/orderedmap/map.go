// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"encoding/json"
	"reflect"
)

// Map is a mapping that preserves key insertion order. Documents walked by the
// evaluator are built out of *Map, []interface{} and scalars.
type Map struct {
	items []MapItem
}

type MapItem struct {
	Key   interface{}
	Value interface{}
}

func NewMap() *Map {
	return &Map{}
}

func NewMapWithItems(items []MapItem) *Map {
	return &Map{items}
}

func (m *Map) Set(key, value interface{}) {
	for i, item := range m.items {
		if m.isKeyEq(item.Key, key) {
			item.Value = value
			m.items[i] = item
			return
		}
	}
	m.items = append(m.items, MapItem{key, value})
}

func (m *Map) Get(key interface{}) (interface{}, bool) {
	for _, item := range m.items {
		if m.isKeyEq(item.Key, key) {
			return item.Value, true
		}
	}
	return nil, false
}

func (m *Map) Delete(key interface{}) bool {
	for i, item := range m.items {
		if m.isKeyEq(item.Key, key) {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Map) isKeyEq(key1, key2 interface{}) bool {
	return reflect.DeepEqual(key1, key2)
}

func (m *Map) Keys() (keys []interface{}) {
	m.Iterate(func(k, _ interface{}) {
		keys = append(keys, k)
	})
	return
}

func (m *Map) Iterate(iterFunc func(k, v interface{})) {
	for _, item := range m.items {
		iterFunc(item.Key, item.Value)
	}
}

func (m *Map) IterateErr(iterFunc func(k, v interface{}) error) error {
	for _, item := range m.items {
		err := iterFunc(item.Key, item.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

// Items returns the backing items. Callers must not mutate the result.
func (m *Map) Items() []MapItem { return m.items }

func (m *Map) Len() int { return len(m.items) }

// Merge sets every item of other onto m, in other's order. Existing keys are
// overwritten in place.
func (m *Map) Merge(other *Map) {
	if other == nil {
		return
	}
	other.Iterate(func(k, v interface{}) {
		m.Set(k, v)
	})
}

// DeepCopy copies the map and all nested *Map and []interface{} values.
// Scalars are shared.
func (m *Map) DeepCopy() *Map {
	result := NewMap()
	m.Iterate(func(k, v interface{}) {
		result.Set(k, DeepCopyValue(v))
	})
	return result
}

// DeepCopyValue copies document values (*Map, []interface{}, scalars).
func DeepCopyValue(val interface{}) interface{} {
	switch typedVal := val.(type) {
	case *Map:
		return typedVal.DeepCopy()
	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = DeepCopyValue(item)
		}
		return result
	default:
		return typedVal
	}
}

// Below methods disallow marshaling of Map directly
var _ []json.Marshaler = []json.Marshaler{&Map{}}

func (*Map) MarshalYAML() (interface{}, error) { panic("Unexpected marshaling of *orderedmap.Map") }
func (*Map) MarshalJSON() ([]byte, error)      { panic("Unexpected marshaling of *orderedmap.Map") }
