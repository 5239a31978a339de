// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package strings provides text manipulation hooks.
package strings

import (
	"fmt"
	"strings"

	"github.com/k14s/difflib"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/render"
)

func Register(reg *hooks.Registry) {
	reg.Register(splitDecl())
	reg.Register(joinDecl())
	reg.Register(caseDecl("upper", strings.ToUpper))
	reg.Register(caseDecl("lower", strings.ToLower))
	reg.Register(replaceDecl())
	reg.Register(diffDecl())
}

func splitDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "split",
		Public: true,
		Help:   "Splits a string into a list around a separator",
		Fields: []*hooks.Field{
			{Name: "input", Type: hooks.TypeStr},
			{Name: "separator", Type: hooks.TypeStr, Default: " ", HasDefault: true},
		},
		Args: []string{"input", "separator"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			pieces := strings.Split(in.Str("input"), in.Str("separator"))
			result := make([]interface{}, len(pieces))
			for i, piece := range pieces {
				result[i] = piece
			}
			return result, nil
		},
	}
}

func joinDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "join",
		Public: true,
		Help:   "Joins list items into one string",
		Fields: []*hooks.Field{
			{Name: "input", Type: hooks.TypeList},
			{Name: "separator", Type: hooks.TypeStr, Default: "", HasDefault: true},
		},
		Args: []string{"input", "separator"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			var pieces []string
			for _, item := range in.List("input") {
				pieces = append(pieces, render.Stringify(item))
			}
			return strings.Join(pieces, in.Str("separator")), nil
		},
	}
}

func caseDecl(name string, convert func(string) string) *hooks.Declaration {
	return &hooks.Declaration{
		Name:   name,
		Public: true,
		Help:   fmt.Sprintf("Converts a string to %s case", name),
		Fields: []*hooks.Field{
			{Name: "input", Type: hooks.TypeStr},
		},
		Args: []string{"input"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			return convert(in.Str("input")), nil
		},
	}
}

func replaceDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "replace",
		Public: true,
		Help:   "Replaces all occurrences of a substring",
		Fields: []*hooks.Field{
			{Name: "input", Type: hooks.TypeStr},
			{Name: "old", Type: hooks.TypeStr},
			{Name: "new", Type: hooks.TypeStr},
		},
		Args: []string{"input", "old", "new"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			return strings.ReplaceAll(in.Str("input"), in.Str("old"), in.Str("new")), nil
		},
	}
}

func diffDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "diff",
		Public: true,
		Help:   "Produces a line diff of two strings",
		Fields: []*hooks.Field{
			{Name: "left", Type: hooks.TypeStr},
			{Name: "right", Type: hooks.TypeStr},
		},
		Args: []string{"left", "right"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			return difflib.PPDiff(
				strings.Split(in.Str("left"), "\n"),
				strings.Split(in.Str("right"), "\n"),
			), nil
		},
	}
}
