// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"errors"
	"fmt"
)

// ConfigError covers malformed declarations and modifier misuse: reserved
// field names, unresolved or cyclic extends, bad modifier combinations. Always
// fatal, never caught by try.
type ConfigError struct {
	Msg     string
	KeyPath string
}

func (e ConfigError) Error() string {
	if e.KeyPath != "" {
		return fmt.Sprintf("Configuration error at '%s': %s", e.KeyPath, e.Msg)
	}
	return fmt.Sprintf("Configuration error: %s", e.Msg)
}

// UnknownHookError is a dispatch failure: no declaration under the called name.
type UnknownHookError struct {
	Name    string
	KeyPath string
}

func (e UnknownHookError) Error() string {
	return fmt.Sprintf("Unknown hook '%s' at '%s'", e.Name, e.KeyPath)
}

// MalformedCallError is a dispatch failure: the call site's arguments do not
// fit the declaration's schema.
type MalformedCallError struct {
	Hook    string
	Field   string
	Msg     string
	KeyPath string
}

func (e MalformedCallError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("Malformed call of hook '%s' at '%s' (field '%s'): %s", e.Hook, e.KeyPath, e.Field, e.Msg)
	}
	return fmt.Sprintf("Malformed call of hook '%s' at '%s': %s", e.Hook, e.KeyPath, e.Msg)
}

// RenderError is a template evaluation failure, most commonly an unresolved
// variable under strict-undefined semantics.
type RenderError struct {
	Expr    string
	Msg     string
	KeyPath string
}

func (e RenderError) Error() string {
	return fmt.Sprintf("Rendering '%s' at '%s': %s", e.Expr, e.KeyPath, e.Msg)
}

// ExecError wraps a failure raised by a hook's own logic, carrying the hook
// name and key-path for diagnostics.
type ExecError struct {
	Hook    string
	KeyPath string
	Err     error
}

func (e ExecError) Error() string {
	return fmt.Sprintf("Hook '%s' at '%s': %s", e.Hook, e.KeyPath, e.Err)
}

func (e ExecError) Unwrap() error { return e.Err }

// PromptAbortError signals user cancellation of an interactive prompt. It is
// never caught by try; the run exits.
type PromptAbortError struct{}

func (e PromptAbortError) Error() string { return "Prompt aborted by user" }

// PromptDeclinedError is a "no" answer to a confirmation. Unlike an abort it
// does not kill the run; the walker skips the confirmed key.
type PromptDeclinedError struct{}

func (e PromptDeclinedError) Error() string { return "Declined" }

// IsCatchable reports whether a try modifier may swallow err. Prompt aborts
// and configuration errors always propagate.
func IsCatchable(err error) bool {
	var abortErr PromptAbortError
	if errors.As(err, &abortErr) {
		return false
	}
	var cfgErr ConfigError
	return !errors.As(err, &cfgErr)
}
