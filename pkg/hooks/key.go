// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package hooks holds the data model for hitch operations ("hooks"): parsed
// key descriptors, declarations with typed fields, the name registry, and the
// compact call-string syntax.
package hooks

import (
	"strings"
)

type KeyKind int

const (
	KeyPlain KeyKind = iota
	// KeyCallPublic is a hook call whose result lands in the public output ("->")
	KeyCallPublic
	// KeyCallPrivate is a hook call whose result is only resolvable during the
	// run ("_>")
	KeyCallPrivate
	// KeyDefPublic declares a hook, or a method within a declaration ("<-")
	KeyDefPublic
	// KeyDefPrivate declares a hook not callable from other files ("<_")
	KeyDefPrivate
)

// Key is a parsed document key: the base name with its call marker stripped.
// Produced once per key up front so suffix meaning is never re-derived at use
// sites.
type Key struct {
	Base string
	Kind KeyKind
}

func ParseKey(raw string) Key {
	switch {
	case strings.HasSuffix(raw, "->"):
		return Key{Base: strings.TrimSuffix(raw, "->"), Kind: KeyCallPublic}
	case strings.HasSuffix(raw, "_>"):
		return Key{Base: strings.TrimSuffix(raw, "_>"), Kind: KeyCallPrivate}
	case strings.HasSuffix(raw, "<-"):
		return Key{Base: strings.TrimSuffix(raw, "<-"), Kind: KeyDefPublic}
	case strings.HasSuffix(raw, "<_"):
		return Key{Base: strings.TrimSuffix(raw, "<_"), Kind: KeyDefPrivate}
	default:
		return Key{Base: raw, Kind: KeyPlain}
	}
}

func (k Key) IsCall() bool { return k.Kind == KeyCallPublic || k.Kind == KeyCallPrivate }
func (k Key) IsDef() bool  { return k.Kind == KeyDefPublic || k.Kind == KeyDefPrivate }

// IsPublic reports whether results (or declarations) under this key are
// externally visible. Plain keys are public.
func (k Key) IsPublic() bool { return k.Kind != KeyCallPrivate && k.Kind != KeyDefPrivate }

// Modifier names reserved on every hook call. Declaring a field with one of
// these names is a compile error.
var reservedModifiers = map[string]struct{}{
	"if": {}, "else": {}, "when": {}, "for": {}, "reverse": {},
	"try": {}, "except": {}, "chdir": {}, "merge": {}, "confirm": {},
	"kwargs": {}, "skip_output": {}, "return": {}, "no_input": {},
}

func IsReservedModifier(name string) bool {
	_, found := reservedModifiers[name]
	return found
}
