// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"io"
	"os"

	uigocli "github.com/cppforlife/go-cli-ui/ui"

	"carvel.dev/hitch/pkg/hooks"
)

type PlainUI struct {
	debug bool
}

func NewPlainUI(debug bool) PlainUI { return PlainUI{debug} }

func (ui PlainUI) Printf(str string, args ...interface{}) {
	fmt.Printf(str, args...)
}

func (ui PlainUI) Debugf(str string, args ...interface{}) {
	if ui.debug {
		fmt.Fprintf(os.Stderr, str, args...)
	}
}

func (ui PlainUI) DebugWriter() io.Writer {
	if ui.debug {
		return os.Stderr
	}
	return noopWriter{}
}

type noopWriter struct{}

var _ io.Writer = noopWriter{}

func (w noopWriter) Write(data []byte) (int, error) { return len(data), nil }

// InteractiveUI adapts a terminal confirmation UI onto the prompting surface
// hooks consume, layered over PlainUI for output.
type InteractiveUI struct {
	PlainUI
	conf *uigocli.ConfUI
}

var _ hooks.UI = InteractiveUI{}

func NewInteractiveUI(debug bool) InteractiveUI {
	return InteractiveUI{
		PlainUI: NewPlainUI(debug),
		conf:    uigocli.NewConfUI(uigocli.NewNoopLogger()),
	}
}

// Flush must run before process exit so buffered terminal output lands.
func (ui InteractiveUI) Flush() { ui.conf.Flush() }

func (ui InteractiveUI) AskForText(label string) (string, error) {
	answer, err := ui.conf.AskForText(label)
	if err != nil {
		return "", hooks.PromptAbortError{}
	}
	return answer, nil
}

func (ui InteractiveUI) AskForChoice(label string, options []string) (int, error) {
	idx, err := ui.conf.AskForChoice(label, options)
	if err != nil {
		return 0, hooks.PromptAbortError{}
	}
	return idx, nil
}

func (ui InteractiveUI) AskForPassword(label string) (string, error) {
	answer, err := ui.conf.AskForPassword(label)
	if err != nil {
		return "", hooks.PromptAbortError{}
	}
	return answer, nil
}

func (ui InteractiveUI) AskForConfirmation(label string) error {
	ui.conf.PrintLinef("%s", label)
	err := ui.conf.AskForConfirmation()
	if err != nil {
		return hooks.PromptDeclinedError{}
	}
	return nil
}
