// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"carvel.dev/hitch/pkg/keypath"
	"carvel.dev/hitch/pkg/orderedmap"
)

// UI is what hooks need for output and interactive prompting. The cmd layer
// adapts go-cli-ui into this; tests substitute fakes.
type UI interface {
	Printf(str string, args ...interface{})
	Debugf(str string, args ...interface{})

	AskForText(label string) (string, error)
	AskForChoice(label string, options []string) (int, error)
	AskForPassword(label string) (string, error)
	AskForConfirmation(label string) error
}

// RunContext is the evaluator state a hook implementation may reach back
// into. Implemented by parser.Context.
type RunContext interface {
	// Render template-evaluates strings within val against the current scope
	Render(val interface{}) (interface{}, error)
	// RenderString evaluates one template string, keeping native types for
	// whole-expression templates
	RenderString(tmpl string) (interface{}, error)
	// ParseNested evaluates doc as an isolated block: fresh private partition,
	// temp bindings visible during rendering, public output returned
	ParseNested(doc interface{}, temp *orderedmap.Map) (interface{}, error)

	Public() *orderedmap.Map
	Private() *orderedmap.Map
	Temporary() *orderedmap.Map
	Existing() *orderedmap.Map

	KeyPath() keypath.Path
	Registry() *Registry
	UI() UI

	// SetBreak terminates the whole walk: the run's public output becomes val
	// and no further keys evaluate at any nesting level
	SetBreak(val interface{})

	NoInput() bool
	CallingDirectory() string
	CallingFile() string
	CurrentFile() string
	CurrentDirectory() string
}
