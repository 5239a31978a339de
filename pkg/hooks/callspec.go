// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"strconv"
	"strings"

	"carvel.dev/hitch/pkg/orderedmap"
)

// CallSpec is an unpacked compact call string: positional args, keyword args
// and bare boolean flags.
type CallSpec struct {
	Args   []interface{}
	Kwargs *orderedmap.Map
	Flags  []string
}

// Unpack tokenizes a compact call string (eg `split foo/bar / --sep /`) and
// sorts tokens into positionals, kwargs and flags. A dash-prefixed token
// followed by another dash-prefixed token (or nothing) is a flag; followed by
// a plain token it is a kwarg. Every token is attempted as a literal
// (int/float/bool/null) before falling back to string.
func Unpack(input string) CallSpec {
	tokens := tokenize(input)

	spec := CallSpec{Kwargs: orderedmap.NewMap()}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		strTok, isStr := tok.(string)
		if !isStr || !isFlagToken(strTok) {
			spec.Args = append(spec.Args, tok)
			continue
		}

		if i+1 < len(tokens) {
			next := tokens[i+1]
			if nextStr, ok := next.(string); ok && isFlagToken(nextStr) {
				spec.Flags = append(spec.Flags, strings.TrimLeft(strTok, "-"))
			} else {
				spec.Kwargs.Set(strings.TrimLeft(strTok, "-"), next)
				i++
			}
		} else {
			spec.Flags = append(spec.Flags, strings.TrimLeft(strTok, "-"))
		}
	}

	return spec
}

// UnpackList sorts preassembled tokens (eg CLI args) the same way Unpack does.
func UnpackList(tokens []string) CallSpec {
	var typed []interface{}
	for _, tok := range tokens {
		typed = append(typed, CoerceLiteral(tok))
	}

	spec := CallSpec{Kwargs: orderedmap.NewMap()}
	for i := 0; i < len(typed); i++ {
		tok := typed[i]

		strTok, isStr := tok.(string)
		if !isStr || !isFlagToken(strTok) {
			spec.Args = append(spec.Args, tok)
			continue
		}

		if i+1 < len(typed) {
			next := typed[i+1]
			if nextStr, ok := next.(string); ok && isFlagToken(nextStr) {
				spec.Flags = append(spec.Flags, strings.TrimLeft(strTok, "-"))
			} else {
				spec.Kwargs.Set(strings.TrimLeft(strTok, "-"), next)
				i++
			}
		} else {
			spec.Flags = append(spec.Flags, strings.TrimLeft(strTok, "-"))
		}
	}
	return spec
}

// isFlagToken requires a letter after the dashes so negative numbers that
// escaped literal coercion are not mistaken for flags.
func isFlagToken(tok string) bool {
	trimmed := strings.TrimLeft(tok, "-")
	if trimmed == tok || trimmed == "" {
		return false
	}
	c := trimmed[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// tokenize splits on whitespace, keeping quoted substrings (single or double)
// as one token with the quotes stripped. A "{{"..."}}" template region is
// atomic: whitespace and quotes inside it stay part of the token, so templated
// expressions with spaces survive unpacking.
func tokenize(input string) []interface{} {
	var tokens []interface{}
	var cur strings.Builder
	var quote byte
	curQuoted := false
	tmplDepth := 0

	flush := func() {
		if cur.Len() == 0 && !curQuoted {
			return
		}
		if curQuoted {
			tokens = append(tokens, cur.String())
		} else {
			tokens = append(tokens, CoerceLiteral(cur.String()))
		}
		cur.Reset()
		curQuoted = false
	}

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '{' && i+1 < len(input) && input[i+1] == '{':
			tmplDepth++
			cur.WriteString("{{")
			i++
		case c == '}' && tmplDepth > 0 && i+1 < len(input) && input[i+1] == '}':
			tmplDepth--
			cur.WriteString("}}")
			i++
		case tmplDepth > 0:
			cur.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			curQuoted = true
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	return tokens
}

// CoerceLiteral attempts a token as a bool, null, int or float literal before
// falling back to string.
func CoerceLiteral(tok string) interface{} {
	switch tok {
	case "true", "True":
		return true
	case "false", "False":
		return false
	case "null", "None", "~":
		return nil
	}
	if parsed, err := strconv.Atoi(tok); err == nil {
		return parsed
	}
	if parsed, err := strconv.ParseFloat(tok, 64); err == nil {
		return parsed
	}
	return tok
}
