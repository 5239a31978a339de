// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package contexts provides hooks that read and write the run's output
// partitions by key-path: get, set, update, delete and keys.
package contexts

import (
	"fmt"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/keypath"
	"carvel.dev/hitch/pkg/orderedmap"
)

func Register(reg *hooks.Registry) {
	reg.Register(getDecl())
	reg.Register(setDecl())
	reg.Register(updateDecl())
	reg.Register(deleteDecl())
	reg.Register(keysDecl())
}

func pathField() *hooks.Field {
	return &hooks.Field{Name: "path", Type: hooks.TypeAny}
}

func sepField() *hooks.Field {
	return &hooks.Field{Name: "sep", Type: hooks.TypeStr, Default: "/", HasDefault: true}
}

func getDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "get",
		Public: true,
		Help:   "Looks a value up by key-path across the run's data",
		Fields: []*hooks.Field{pathField(), sepField()},
		Args:   []string{"path"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			path, err := keypath.FromValue(in["path"], in.Str("sep"))
			if err != nil {
				return nil, err
			}

			// same precedence as template expressions: temporary (loop
			// variables, bound fields), then public, private, existing
			for _, partition := range []*orderedmap.Map{
				rc.Temporary(), rc.Public(), rc.Private(), rc.Existing(),
			} {
				if val, found := keypath.Get(partition, path); found {
					return val, nil
				}
			}
			return nil, fmt.Errorf("No value at path '%s'", path.String())
		},
	}
}

func setDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "set",
		Public: true,
		Help:   "Writes a value into the output document at a key-path",
		Fields: []*hooks.Field{
			pathField(),
			{Name: "value", Type: hooks.TypeAny, HasDefault: true},
			sepField(),
		},
		Args:       []string{"path", "value"},
		SkipOutput: true,
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			path, err := keypath.FromValue(in["path"], in.Str("sep"))
			if err != nil {
				return nil, err
			}
			err = keypath.Set(rc.Public(), path, in["value"])
			if err != nil {
				return nil, err
			}
			return in["value"], nil
		},
	}
}

func updateDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "update",
		Public: true,
		Help:   "Merges a map into the value at a key-path",
		Fields: []*hooks.Field{
			pathField(),
			{Name: "value", Type: hooks.TypeMap},
			sepField(),
		},
		Args:       []string{"path", "value"},
		SkipOutput: true,
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			path, err := keypath.FromValue(in["path"], in.Str("sep"))
			if err != nil {
				return nil, err
			}

			existing, found := keypath.Get(rc.Public(), path)
			if !found {
				err = keypath.Set(rc.Public(), path, in.Map("value"))
				if err != nil {
					return nil, err
				}
				return in.Map("value"), nil
			}

			existingMap, ok := existing.(*orderedmap.Map)
			if !ok {
				return nil, fmt.Errorf("Expected map at path '%s', but was %T", path.String(), existing)
			}
			existingMap.Merge(in.Map("value"))
			return existingMap, nil
		},
	}
}

func deleteDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "delete",
		Public: true,
		Help:   "Removes the value at a key-path",
		Fields: []*hooks.Field{pathField(), sepField()},
		Args:   []string{"path"},
		SkipOutput: true,
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			path, err := keypath.FromValue(in["path"], in.Str("sep"))
			if err != nil {
				return nil, err
			}
			deleted := keypath.Delete(rc.Public(), path)
			deleted = keypath.Delete(rc.Private(), path) || deleted
			return deleted, nil
		},
	}
}

func keysDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "keys",
		Public: true,
		Help:   "Lists the keys of the map at a key-path",
		Fields: []*hooks.Field{
			{Name: "path", Type: hooks.TypeAny, HasDefault: true},
			sepField(),
		},
		Args: []string{"path"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			var target interface{} = rc.Public()

			if in.Has("path") && in["path"] != nil {
				path, err := keypath.FromValue(in["path"], in.Str("sep"))
				if err != nil {
					return nil, err
				}
				val, found := keypath.Get(rc.Public(), path)
				if !found {
					return nil, fmt.Errorf("No value at path '%s'", path.String())
				}
				target = val
			}

			targetMap, ok := target.(*orderedmap.Map)
			if !ok {
				return nil, fmt.Errorf("Expected a map, but was %T", target)
			}
			return targetMap.Keys(), nil
		},
	}
}
