// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package logic provides the core value and control hooks: literal, var,
// block, return, assert and min_version.
package logic

import (
	"fmt"
	"reflect"

	semver "github.com/hashicorp/go-version"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/version"
)

func Register(reg *hooks.Registry) {
	reg.Register(literalDecl("literal"))
	reg.Register(literalDecl("var"))
	reg.Register(returnDecl())
	reg.Register(blockDecl())
	reg.Register(assertDecl())
	reg.Register(minVersionDecl())
}

func literalDecl(name string) *hooks.Declaration {
	return &hooks.Declaration{
		Name:   name,
		Public: true,
		Help:   "Returns its rendered input unchanged",
		Fields: []*hooks.Field{
			{Name: "input", Type: hooks.TypeAny},
		},
		Args: []string{"input"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			return in["input"], nil
		},
	}
}

func returnDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "return",
		Public: true,
		Help:   "Halts the run; the run's output becomes the given value",
		Fields: []*hooks.Field{
			{Name: "value", Type: hooks.TypeAny, HasDefault: true},
		},
		Args:       []string{"value"},
		SkipOutput: true,
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			rc.SetBreak(in["value"])
			return in["value"], nil
		},
	}
}

func blockDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "block",
		Public: true,
		Help:   "Evaluates a nested sub-document in an isolated child scope",
		Fields: []*hooks.Field{
			// the body evaluates inside the child scope, not at the call site
			{Name: "items", Type: hooks.TypeAny, RenderExclude: true},
		},
		Args: []string{"items"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			return rc.ParseNested(in["items"], nil)
		},
	}
}

func assertDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "assert",
		Public: true,
		Help:   "Fails unless the input is truthy, or equals the expected value",
		Fields: []*hooks.Field{
			{Name: "input", Type: hooks.TypeAny},
			{Name: "expected", Type: hooks.TypeAny, HasDefault: true},
		},
		Args:       []string{"input", "expected"},
		SkipOutput: true,
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			if in.Has("expected") && in["expected"] != nil {
				if !reflect.DeepEqual(in["input"], in["expected"]) {
					return nil, fmt.Errorf("Expected '%v' to equal '%v'", in["input"], in["expected"])
				}
				return true, nil
			}
			if !truthy(in["input"]) {
				return nil, fmt.Errorf("Expected '%v' to be truthy", in["input"])
			}
			return true, nil
		},
	}
}

func minVersionDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "min_version",
		Public: true,
		Help:   "Fails when the running binary is older than the given version",
		Fields: []*hooks.Field{
			{Name: "version", Type: hooks.TypeStr},
		},
		Args:       []string{"version"},
		SkipOutput: true,
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			constraint, err := semver.NewConstraint(">=" + in.Str("version"))
			if err != nil {
				return nil, fmt.Errorf("Parsing version constraint: %s", err)
			}
			current, err := semver.NewVersion(version.Version)
			if err != nil {
				return nil, fmt.Errorf("Parsing current version: %s", err)
			}
			if !constraint.Check(current) {
				return nil, fmt.Errorf("Version %s does not meet the minimum required version %s",
					version.Version, in.Str("version"))
			}
			return true, nil
		},
	}
}

func truthy(val interface{}) bool {
	switch typedVal := val.(type) {
	case nil:
		return false
	case bool:
		return typedVal
	case string:
		return typedVal != ""
	case int:
		return typedVal != 0
	case int64:
		return typedVal != 0
	case float64:
		return typedVal != 0
	case []interface{}:
		return len(typedVal) > 0
	case *orderedmap.Map:
		return typedVal.Len() > 0
	default:
		return true
	}
}
