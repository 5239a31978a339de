// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package prompts provides interactive input hooks. With prompting disabled
// (no_input) every hook resolves to its default without blocking.
package prompts

import (
	"errors"
	"fmt"

	"carvel.dev/hitch/pkg/hooks"
)

func Register(reg *hooks.Registry) {
	reg.Register(inputDecl())
	reg.Register(confirmDecl())
	reg.Register(selectDecl())
	reg.Register(passwordDecl())
}

func inputDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "input",
		Public: true,
		Help:   "Prompts for a line of text",
		Fields: []*hooks.Field{
			{Name: "message", Type: hooks.TypeStr, Default: "Enter a value", HasDefault: true},
			{Name: "default", Type: hooks.TypeAny, HasDefault: true},
		},
		Args: []string{"message", "default"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			if rc.NoInput() {
				return in["default"], nil
			}
			answer, err := rc.UI().AskForText(in.Str("message"))
			if err != nil {
				return nil, err
			}
			if answer == "" && in["default"] != nil {
				return in["default"], nil
			}
			return answer, nil
		},
	}
}

func confirmDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "confirm",
		Public: true,
		Help:   "Prompts for a yes/no answer",
		Fields: []*hooks.Field{
			{Name: "message", Type: hooks.TypeStr, Default: "Continue?", HasDefault: true},
			{Name: "default", Type: hooks.TypeBool, Default: true, HasDefault: true},
		},
		Args: []string{"message", "default"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			if rc.NoInput() {
				return in.Bool("default"), nil
			}
			err := rc.UI().AskForConfirmation(in.Str("message"))
			if err != nil {
				var declined hooks.PromptDeclinedError
				if errors.As(err, &declined) {
					return false, nil
				}
				return nil, err
			}
			return true, nil
		},
	}
}

func selectDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "select",
		Public: true,
		Help:   "Prompts for a choice among the given options",
		Fields: []*hooks.Field{
			{Name: "message", Type: hooks.TypeStr, Default: "Select a value", HasDefault: true},
			{Name: "choices", Type: hooks.TypeList},
			{Name: "default", Type: hooks.TypeAny, HasDefault: true},
		},
		Args: []string{"message", "choices"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			choices := in.List("choices")
			if len(choices) == 0 {
				return nil, fmt.Errorf("Expected at least one choice")
			}

			if rc.NoInput() {
				if in["default"] != nil {
					return in["default"], nil
				}
				return choices[0], nil
			}

			var options []string
			for _, choice := range choices {
				options = append(options, fmt.Sprintf("%v", choice))
			}
			idx, err := rc.UI().AskForChoice(in.Str("message"), options)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(choices) {
				return nil, fmt.Errorf("Choice index %d out of range", idx)
			}
			return choices[idx], nil
		},
	}
}

func passwordDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "password",
		Public: true,
		Help:   "Prompts for a value without echoing it",
		Fields: []*hooks.Field{
			{Name: "message", Type: hooks.TypeStr, Default: "Enter a password", HasDefault: true},
		},
		Args: []string{"message"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			if rc.NoInput() {
				return "", nil
			}
			return rc.UI().AskForPassword(in.Str("message"))
		},
	}
}
