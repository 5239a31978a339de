// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package parser is the evaluator at the heart of hitch: a depth-first walk
// over an input document that resolves key modifiers, renders templated
// values, dispatches hook calls and assembles a public/private output
// document.
package parser

import (
	"fmt"
	"os"
	"runtime"

	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/keypath"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/render"
)

// maxNestingDepth bounds block/default-factory/exec recursion so cyclic
// document references fail with a diagnosable error instead of overflowing
// the stack.
const maxNestingDepth = 128

// Context is the mutable run state threaded through one evaluation. Nested
// evaluations (blocks, loops, declarative exec bodies) run in child contexts
// that share the registry and renderer but fork the output partitions.
type Context struct {
	registry *hooks.Registry
	renderer *render.Renderer
	ui       hooks.UI

	noInput bool

	callingDir  string
	callingFile string
	inputFile   string
	inputDir    string

	file *document.File

	public    *orderedmap.Map
	private   *orderedmap.Map
	temporary *orderedmap.Map
	existing  *orderedmap.Map

	keyPath keypath.Path

	breakFlag bool
	returnVal interface{}

	depth int
}

// Opts configures a top-level Context.
type Opts struct {
	Registry *hooks.Registry
	UI       hooks.UI
	NoInput  bool

	CallingDirectory string
	CallingFile      string

	// File is the parsed input file; its value is what Run walks and its
	// positions enrich errors
	File *document.File

	// Existing seeds the lowest-precedence data partition (eg CLI overrides)
	Existing *orderedmap.Map
}

func NewContext(opts Opts) *Context {
	registry := opts.Registry
	if registry == nil {
		registry = hooks.NewRegistry()
	}
	existing := opts.Existing
	if existing == nil {
		existing = orderedmap.NewMap()
	}
	ui := opts.UI
	if ui == nil {
		ui = noopUI{}
	}

	callingDir := opts.CallingDirectory
	if callingDir == "" {
		callingDir, _ = os.Getwd()
	}

	var inputFile, inputDir string
	if opts.File != nil {
		inputFile = opts.File.Path
		inputDir = dirOf(opts.File.Path)
	}

	return &Context{
		registry:    registry,
		renderer:    render.NewRenderer(),
		ui:          ui,
		noInput:     opts.NoInput,
		callingDir:  callingDir,
		callingFile: opts.CallingFile,
		inputFile:   inputFile,
		inputDir:    inputDir,
		file:        opts.File,
		public:      orderedmap.NewMap(),
		private:     orderedmap.NewMap(),
		temporary:   orderedmap.NewMap(),
		existing:    existing,
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[:i]
		}
	}
	return "."
}

var _ hooks.RunContext = (*Context)(nil)

func (c *Context) Public() *orderedmap.Map    { return c.public }
func (c *Context) Private() *orderedmap.Map   { return c.private }
func (c *Context) Temporary() *orderedmap.Map { return c.temporary }
func (c *Context) Existing() *orderedmap.Map  { return c.existing }

func (c *Context) KeyPath() keypath.Path     { return c.keyPath.Copy() }
func (c *Context) Registry() *hooks.Registry { return c.registry }
func (c *Context) UI() hooks.UI              { return c.ui }

func (c *Context) NoInput() bool             { return c.noInput }
func (c *Context) CallingDirectory() string  { return c.callingDir }
func (c *Context) CallingFile() string       { return c.callingFile }
func (c *Context) CurrentFile() string       { return c.inputFile }
func (c *Context) CurrentDirectory() string  { return c.inputDir }

func (c *Context) SetBreak(val interface{}) {
	c.breakFlag = true
	c.returnVal = val
}

// renderScope assembles the bindings visible to template expressions: special
// read-only variables, then the existing, private, public and temporary
// partitions in increasing precedence.
func (c *Context) renderScope() *orderedmap.Map {
	scope := orderedmap.NewMap()

	c.addSpecialVars(scope)

	c.existing.Iterate(func(k, v interface{}) { scope.Set(k, v) })
	deepMergeMap(scope, c.private)
	deepMergeMap(scope, c.public)
	c.temporary.Iterate(func(k, v interface{}) { scope.Set(k, v) })

	return scope
}

func (c *Context) addSpecialVars(scope *orderedmap.Map) {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	scope.Set("cwd", cwd)
	scope.Set("home_dir", home)
	scope.Set("system", runtime.GOOS)
	scope.Set("platform", runtime.GOOS+"/"+runtime.GOARCH)
	scope.Set("architecture", runtime.GOARCH)
	scope.Set("calling_directory", c.callingDir)
	scope.Set("calling_file", c.callingFile)
	scope.Set("current_file", c.inputFile)
	scope.Set("current_directory", c.inputDir)
	scope.Set("this", c.public)
	scope.Set("output", c.public)
	scope.Set("key_path", c.keyPath.String())
}

// hookFuncs exposes every registered hook as a template-callable function
// bound to this context.
func (c *Context) hookFuncs() map[string]render.Func {
	funcs := map[string]render.Func{}
	for _, name := range c.registry.Names() {
		name := name
		funcs[name] = func(args []interface{}, kwargs *orderedmap.Map) (interface{}, error) {
			decl, err := c.registry.Lookup(name)
			if err != nil {
				return nil, err
			}
			return c.dispatch(decl, hooks.CallSpec{Args: args, Kwargs: kwargs}, nil, false)
		}
	}
	return funcs
}

// RenderString template-evaluates one string, keeping the native result type
// for whole-expression templates.
func (c *Context) RenderString(tmpl string) (interface{}, error) {
	val, err := c.renderer.Render(tmpl, c.renderScope(), c.hookFuncs())
	if err != nil {
		return nil, hooks.RenderError{Expr: tmpl, Msg: err.Error(), KeyPath: c.keyPath.String()}
	}
	return val, nil
}

// Render template-evaluates every string found within val, recursing through
// maps and lists.
func (c *Context) Render(val interface{}) (interface{}, error) {
	switch typedVal := val.(type) {
	case string:
		return c.RenderString(typedVal)

	case *orderedmap.Map:
		result := orderedmap.NewMap()
		err := typedVal.IterateErr(func(k, v interface{}) error {
			rendered, err := c.Render(v)
			if err != nil {
				return err
			}
			result.Set(k, rendered)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil

	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			rendered, err := c.Render(item)
			if err != nil {
				return nil, err
			}
			result[i] = rendered
		}
		return result, nil

	default:
		return val, nil
	}
}

// ParseNested evaluates doc as an isolated block: the child context shares
// the registry and renderer, sees the parent's data through its existing
// partition, starts with empty public/private partitions and returns its
// public output. A break (return hook) inside the block propagates upward.
func (c *Context) ParseNested(doc interface{}, temp *orderedmap.Map) (interface{}, error) {
	if c.depth+1 > maxNestingDepth {
		return nil, hooks.ConfigError{
			Msg:     fmt.Sprintf("Nesting depth exceeded %d (cyclic reference?)", maxNestingDepth),
			KeyPath: c.keyPath.String(),
		}
	}

	child := c.newChild(temp)

	val, err := child.walkValue(doc)
	if err != nil {
		return nil, err
	}

	if child.breakFlag {
		c.SetBreak(child.returnVal)
		return child.returnVal, nil
	}

	return val, nil
}

// newChild forks a context for an isolated nested evaluation: shared registry,
// renderer and UI; the parent's accumulated data visible through the child's
// existing partition; fresh public/private partitions.
func (c *Context) newChild(temp *orderedmap.Map) *Context {
	childTemp := orderedmap.NewMap()
	c.temporary.Iterate(func(k, v interface{}) { childTemp.Set(k, v) })
	if temp != nil {
		temp.Iterate(func(k, v interface{}) { childTemp.Set(k, v) })
	}

	childExisting := orderedmap.NewMap()
	c.existing.Iterate(func(k, v interface{}) { childExisting.Set(k, v) })
	deepMergeMap(childExisting, c.private)
	deepMergeMap(childExisting, c.public)

	// the child's document evaluates as a fresh root; its key-path starts
	// empty so results land at the document's own top level
	return &Context{
		registry:    c.registry,
		renderer:    c.renderer,
		ui:          c.ui,
		noInput:     c.noInput,
		callingDir:  c.callingDir,
		callingFile: c.callingFile,
		inputFile:   c.inputFile,
		inputDir:    c.inputDir,
		file:        c.file,
		public:      orderedmap.NewMap(),
		private:     orderedmap.NewMap(),
		temporary:   childTemp,
		existing:    childExisting,
		keyPath:     keypath.NewPath(),
		depth:       c.depth + 1,
	}
}

// deepMergeMap overlays src onto dst, merging nested maps key by key. Lists
// and scalars from src replace dst values.
func deepMergeMap(dst, src *orderedmap.Map) {
	src.Iterate(func(k, v interface{}) {
		if srcMap, ok := v.(*orderedmap.Map); ok {
			if existing, found := dst.Get(k); found {
				if dstMap, ok := existing.(*orderedmap.Map); ok {
					deepMergeMap(dstMap, srcMap)
					return
				}
			}
		}
		dst.Set(k, v)
	})
}

type noopUI struct{}

func (noopUI) Printf(str string, args ...interface{}) {}
func (noopUI) Debugf(str string, args ...interface{}) {}
func (noopUI) AskForText(label string) (string, error) {
	return "", hooks.PromptAbortError{}
}
func (noopUI) AskForChoice(label string, options []string) (int, error) {
	return 0, hooks.PromptAbortError{}
}
func (noopUI) AskForPassword(label string) (string, error) {
	return "", hooks.PromptAbortError{}
}
func (noopUI) AskForConfirmation(label string) error {
	return hooks.PromptAbortError{}
}
